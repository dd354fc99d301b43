package driving

import (
	"context"
	"encoding/json"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// EntityService routes entity operations to the configured drivers.
// The returned error is only non-nil for an unknown entity type or an
// undecodable payload; every other outcome is reported in the Response.
type EntityService interface {
	// Read returns entities by UUID.
	Read(ctx context.Context, entityType domain.EntityType, uuids []string) (domain.Response[domain.Entity], error)

	// QueryByObject returns the entities owned by each object UUID.
	QueryByObject(ctx context.Context, entityType domain.EntityType, objectUUIDs []string) (domain.Response[domain.Entity], error)

	// Publish decodes a JSON array of entities and publishes them.
	Publish(ctx context.Context, entityType domain.EntityType, payload json.RawMessage) (domain.Response[domain.PublishResult[domain.Entity]], error)

	// Delete removes entities by UUID.
	Delete(ctx context.Context, entityType domain.EntityType, requests []domain.EntityDeleteRequest) (domain.Response[bool], error)

	// Empty removes the entities owned by objects.
	Empty(ctx context.Context, entityType domain.EntityType, requests []domain.EntityEmptyRequest) (domain.Response[bool], error)
}
