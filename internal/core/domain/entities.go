package domain

import (
	"path"
	"strconv"
	"strings"
	"time"
)

// Definition describes a reusable type of Object (e.g. "Machine.Axis").
type Definition struct {
	UUID        string `json:"uuid"`
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	ParentUUID  string `json:"parentUuid,omitempty"`
	Hash        []byte `json:"hash"`
	Created     int64  `json:"created"`
}

// NewDefinition creates a Definition whose UUID is derived from id.
func NewDefinition(id, typ, description, parentUUID string) Definition {
	d := Definition{
		UUID:        DeriveUUID(EntityTypeDefinition, id),
		ID:          id,
		Type:        typ,
		Description: description,
		ParentUUID:  parentUUID,
		Created:     nowMillis(),
	}
	d.Hash = d.ComputeHash()
	return d
}

// ComputeHash hashes the content fields.
func (d Definition) ComputeHash() []byte {
	return ContentHash(d.UUID, d.ID, d.Type, d.Description, d.ParentUUID)
}

// Source identifies the sender that produced an entity.
type Source struct {
	UUID       string `json:"uuid"`
	Type       string `json:"type"`
	Sender     string `json:"sender"`
	ParentUUID string `json:"parentUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewSource creates a Source.
func NewSource(typ, sender, parentUUID string) Source {
	s := Source{
		UUID:       DeriveUUID(EntityTypeSource, typ, sender, parentUUID),
		Type:       typ,
		Sender:     sender,
		ParentUUID: parentUUID,
		Created:    nowMillis(),
	}
	s.Hash = s.ComputeHash()
	return s
}

// ComputeHash hashes the content fields.
func (s Source) ComputeHash() []byte {
	return ContentHash(s.UUID, s.Type, s.Sender, s.ParentUUID)
}

// Object is a node in the namespace/path tree. Values are attached to it
// as facets.
type Object struct {
	UUID           string `json:"uuid"`
	Namespace      string `json:"namespace"`
	Path           string `json:"path"`
	ContentType    string `json:"contentType,omitempty"`
	DefinitionUUID string `json:"definitionUuid,omitempty"`
	ParentUUID     string `json:"parentUuid,omitempty"`
	SourceUUID     string `json:"sourceUuid,omitempty"`
	Hash           []byte `json:"hash"`
	Created        int64  `json:"created"`
}

// ObjectUUID returns the UUID of the object at namespace/objectPath.
func ObjectUUID(namespace, objectPath string) string {
	return DeriveUUID(EntityTypeObject, namespace, normalizePath(objectPath))
}

// NewObject creates an Object. The parent is the object one path segment up.
func NewObject(namespace, objectPath, contentType, definitionUUID, sourceUUID string) Object {
	p := normalizePath(objectPath)
	o := Object{
		UUID:           ObjectUUID(namespace, p),
		Namespace:      namespace,
		Path:           p,
		ContentType:    contentType,
		DefinitionUUID: definitionUUID,
		SourceUUID:     sourceUUID,
		Created:        nowMillis(),
	}
	if parent := path.Dir(p); parent != "/" && parent != "." {
		o.ParentUUID = ObjectUUID(namespace, parent)
	}
	o.Hash = o.ComputeHash()
	return o
}

// Name returns the last path segment.
func (o Object) Name() string {
	return path.Base(o.Path)
}

// ComputeHash hashes the content fields.
func (o Object) ComputeHash() []byte {
	return ContentHash(o.UUID, o.Namespace, o.Path, o.ContentType, o.DefinitionUUID, o.ParentUUID)
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// String is a text value attached to an Object.
type String struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	Value      string `json:"value"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewString creates the String facet of an object.
func NewString(objectUUID, value, sourceUUID string) String {
	e := String{
		UUID:       DeriveUUID(EntityTypeString, objectUUID),
		ObjectUUID: objectUUID,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e String) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.Value)
}

// Number is a numeric value attached to an Object. Value holds the
// decimal text so no precision is lost in transit.
type Number struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	DataType   string `json:"dataType,omitempty"`
	Value      string `json:"value"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewNumber creates the Number facet of an object.
func NewNumber(objectUUID, dataType, value, sourceUUID string) Number {
	e := Number{
		UUID:       DeriveUUID(EntityTypeNumber, objectUUID),
		ObjectUUID: objectUUID,
		DataType:   dataType,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Number) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.DataType, e.Value)
}

// Float parses Value.
func (e Number) Float() (float64, error) {
	return strconv.ParseFloat(e.Value, 64)
}

// Boolean is a flag attached to an Object.
type Boolean struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	Value      bool   `json:"value"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewBoolean creates the Boolean facet of an object.
func NewBoolean(objectUUID string, value bool, sourceUUID string) Boolean {
	e := Boolean{
		UUID:       DeriveUUID(EntityTypeBoolean, objectUUID),
		ObjectUUID: objectUUID,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Boolean) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, strconv.FormatBool(e.Value))
}

// Observation is one sample of a time series attached to an Object.
// Sequence orders samples within a stream; BatchID groups samples
// published together.
type Observation struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	DataType   string `json:"dataType,omitempty"`
	Value      string `json:"value"`
	BatchID    uint64 `json:"batchId"`
	Sequence   uint64 `json:"sequence"`
	Timestamp  int64  `json:"timestamp"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewObservation creates an Observation sample.
func NewObservation(objectUUID, dataType, value string, batchID, sequence uint64, timestamp int64, sourceUUID string) Observation {
	e := Observation{
		UUID:       DeriveUUID(EntityTypeObservation, objectUUID, strconv.FormatUint(sequence, 10)),
		ObjectUUID: objectUUID,
		DataType:   dataType,
		Value:      value,
		BatchID:    batchID,
		Sequence:   sequence,
		Timestamp:  timestamp,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Observation) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.DataType, e.Value,
		strconv.FormatUint(e.BatchID, 10), strconv.FormatUint(e.Sequence, 10),
		strconv.FormatInt(e.Timestamp, 10))
}

// Set is one member of an Object's set of entries.
type Set struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	Entry      string `json:"entry"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewSet creates a Set entry.
func NewSet(objectUUID, entry, sourceUUID string) Set {
	e := Set{
		UUID:       DeriveUUID(EntityTypeSet, objectUUID, entry),
		ObjectUUID: objectUUID,
		Entry:      entry,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Set) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.Entry)
}

// Hash is one key/value pair of an Object's dictionary.
type Hash struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	Key        string `json:"key"`
	Value      string `json:"value"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewHash creates a Hash entry.
func NewHash(objectUUID, key, value, sourceUUID string) Hash {
	e := Hash{
		UUID:       DeriveUUID(EntityTypeHash, objectUUID, key),
		ObjectUUID: objectUUID,
		Key:        key,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Hash) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.Key, e.Value)
}

// Timestamp is a point in time (Unix milliseconds) attached to an Object.
type Timestamp struct {
	UUID       string `json:"uuid"`
	ObjectUUID string `json:"objectUuid"`
	Value      int64  `json:"value"`
	SourceUUID string `json:"sourceUuid,omitempty"`
	Hash       []byte `json:"hash"`
	Created    int64  `json:"created"`
}

// NewTimestamp creates the Timestamp facet of an object.
func NewTimestamp(objectUUID string, value int64, sourceUUID string) Timestamp {
	e := Timestamp{
		UUID:       DeriveUUID(EntityTypeTimestamp, objectUUID),
		ObjectUUID: objectUUID,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Timestamp) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, strconv.FormatInt(e.Value, 10))
}

// Duration is a time span attached to an Object.
type Duration struct {
	UUID       string        `json:"uuid"`
	ObjectUUID string        `json:"objectUuid"`
	Value      time.Duration `json:"value"`
	SourceUUID string        `json:"sourceUuid,omitempty"`
	Hash       []byte        `json:"hash"`
	Created    int64         `json:"created"`
}

// NewDuration creates the Duration facet of an object.
func NewDuration(objectUUID string, value time.Duration, sourceUUID string) Duration {
	e := Duration{
		UUID:       DeriveUUID(EntityTypeDuration, objectUUID),
		ObjectUUID: objectUUID,
		Value:      value,
		SourceUUID: sourceUUID,
		Created:    nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Duration) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, strconv.FormatInt(int64(e.Value), 10))
}

// Vocabulary links an Object to the Definition describing its value.
type Vocabulary struct {
	UUID           string `json:"uuid"`
	ObjectUUID     string `json:"objectUuid"`
	DefinitionUUID string `json:"definitionUuid"`
	SourceUUID     string `json:"sourceUuid,omitempty"`
	Hash           []byte `json:"hash"`
	Created        int64  `json:"created"`
}

// NewVocabulary creates the Vocabulary facet of an object.
func NewVocabulary(objectUUID, definitionUUID, sourceUUID string) Vocabulary {
	e := Vocabulary{
		UUID:           DeriveUUID(EntityTypeVocabulary, objectUUID),
		ObjectUUID:     objectUUID,
		DefinitionUUID: definitionUUID,
		SourceUUID:     sourceUUID,
		Created:        nowMillis(),
	}
	e.Hash = e.ComputeHash()
	return e
}

// ComputeHash hashes the content fields.
func (e Vocabulary) ComputeHash() []byte {
	return ContentHash(e.UUID, e.ObjectUUID, e.DefinitionUUID)
}

// ResolvePath resolves rel against the object path base. An absolute rel
// is returned normalized; an empty rel resolves to base.
func ResolvePath(base, rel string) string {
	if strings.HasPrefix(strings.TrimSpace(rel), "/") {
		return normalizePath(rel)
	}
	return normalizePath(path.Join(normalizePath(base), rel))
}
