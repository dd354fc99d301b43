package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType tags the concrete kind of an Entity. It is the routing key
// drivers are registered under.
type EntityType string

// Entity types.
const (
	EntityTypeDefinition  EntityType = "Definition"
	EntityTypeSource      EntityType = "Source"
	EntityTypeObject      EntityType = "Object"
	EntityTypeString      EntityType = "String"
	EntityTypeNumber      EntityType = "Number"
	EntityTypeBoolean     EntityType = "Boolean"
	EntityTypeObservation EntityType = "Observation"
	EntityTypeSet         EntityType = "Set"
	EntityTypeHash        EntityType = "Hash"
	EntityTypeTimestamp   EntityType = "Timestamp"
	EntityTypeDuration    EntityType = "Duration"
	EntityTypeVocabulary  EntityType = "Vocabulary"
)

// EntityTypes returns every known entity type in a stable order.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityTypeDefinition,
		EntityTypeSource,
		EntityTypeObject,
		EntityTypeString,
		EntityTypeNumber,
		EntityTypeBoolean,
		EntityTypeObservation,
		EntityTypeSet,
		EntityTypeHash,
		EntityTypeTimestamp,
		EntityTypeDuration,
		EntityTypeVocabulary,
	}
}

// IsFacet reports whether entities of this type hang off an Object.
func (t EntityType) IsFacet() bool {
	switch t {
	case EntityTypeDefinition, EntityTypeSource, EntityTypeObject:
		return false
	}
	return t.IsValid()
}

// IsValid reports whether t is a known entity type.
func (t EntityType) IsValid() bool {
	for _, known := range EntityTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEntityType resolves a case-insensitive type name.
func ParseEntityType(s string) (EntityType, error) {
	for _, known := range EntityTypes() {
		if strings.EqualFold(s, string(known)) {
			return known, nil
		}
	}
	return "", fmt.Errorf("%w: entity type %q", ErrUnsupportedType, s)
}

// Entity is the contract shared by every record in the data model.
type Entity interface {
	// EntityType returns the entity type tag.
	EntityType() EntityType

	// EntityUUID returns the primary key. It never changes once assigned.
	EntityUUID() string

	// EntityHash returns the content hash used for change detection.
	EntityHash() []byte

	// EntityOwner returns the foreign key used by "by object" queries:
	// the ObjectUUID of a facet, the ParentUUID of everything else.
	EntityOwner() string

	// EntityCreated returns the creation time in Unix milliseconds.
	EntityCreated() int64
}

// TypeOf returns the entity type of T.
func TypeOf[T Entity]() EntityType {
	var zero T
	return zero.EntityType()
}

// entityNamespace seeds every derived entity UUID.
var entityNamespace = uuid.MustParse("6f1c1a52-8f0e-4b8e-9a51-5d2f1b7c3e10")

const fieldSeparator = "\x1f"

// DeriveUUID returns the deterministic UUID of an entity of type t
// identified by parts.
func DeriveUUID(t EntityType, parts ...string) string {
	key := string(t) + fieldSeparator + strings.Join(parts, fieldSeparator)
	return uuid.NewSHA1(entityNamespace, []byte(key)).String()
}

// ContentHash hashes the given content fields.
func ContentHash(parts ...string) []byte {
	sum := sha256.Sum256([]byte(strings.Join(parts, fieldSeparator)))
	return sum[:]
}

// nowMillis returns the current time in Unix milliseconds.
func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Prepare fills the derived fields of an entity decoded from outside the
// process: the content hash when absent and the creation time when zero.
func Prepare[T Entity](e T) T {
	if p, ok := any(e).(interface{ prepared(int64) T }); ok {
		return p.prepared(nowMillis())
	}
	return e
}

// Validate checks the keys every stored entity needs.
func Validate(e Entity) error {
	if e.EntityUUID() == "" {
		return fmt.Errorf("%w: %s without uuid", ErrInvalidInput, e.EntityType())
	}
	if e.EntityType().IsFacet() && e.EntityOwner() == "" {
		return fmt.Errorf("%w: %s %s without object", ErrInvalidInput, e.EntityType(), e.EntityUUID())
	}
	return nil
}
