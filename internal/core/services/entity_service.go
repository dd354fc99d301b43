package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Verify interface compliance.
var _ driving.EntityService = (*EntityService)(nil)

// EntityService implements driving.EntityService over a Registry.
type EntityService struct {
	registry *Registry
	log      *logger.Logger
}

// NewEntityService creates an entity service.
func NewEntityService(registry *Registry, log *logger.Logger) *EntityService {
	return &EntityService{registry: registry, log: log.Named("entities")}
}

// Read returns entities by UUID.
func (s *EntityService) Read(ctx context.Context, entityType domain.EntityType, uuids []string) (domain.Response[domain.Entity], error) {
	ops, err := s.ops(entityType)
	if err != nil {
		return domain.Response[domain.Entity]{}, err
	}
	resp := ops.read(ctx, s.registry, uuids)
	s.log.Debug("read %d %s: %d results in %s", len(uuids), entityType, resp.Len(), resp.Duration())
	return resp, nil
}

// QueryByObject returns the entities owned by each object UUID.
func (s *EntityService) QueryByObject(ctx context.Context, entityType domain.EntityType, objectUUIDs []string) (domain.Response[domain.Entity], error) {
	ops, err := s.ops(entityType)
	if err != nil {
		return domain.Response[domain.Entity]{}, err
	}
	return ops.queryByObject(ctx, s.registry, objectUUIDs), nil
}

// Publish decodes a JSON array of entities of entityType and publishes it.
func (s *EntityService) Publish(ctx context.Context, entityType domain.EntityType, payload json.RawMessage) (domain.Response[domain.PublishResult[domain.Entity]], error) {
	ops, err := s.ops(entityType)
	if err != nil {
		return domain.Response[domain.PublishResult[domain.Entity]]{}, err
	}
	resp, err := ops.publish(ctx, s.registry, payload)
	if err != nil {
		return resp, err
	}
	if n := len(resp.InternalErrors()); n > 0 {
		s.log.Warn("publish %s: %d internal errors", entityType, n)
	}
	return resp, nil
}

// Delete removes entities by UUID.
func (s *EntityService) Delete(ctx context.Context, entityType domain.EntityType, requests []domain.EntityDeleteRequest) (domain.Response[bool], error) {
	ops, err := s.ops(entityType)
	if err != nil {
		return domain.Response[bool]{}, err
	}
	return ops.delete(ctx, s.registry, requests), nil
}

// Empty removes the entities owned by objects.
func (s *EntityService) Empty(ctx context.Context, entityType domain.EntityType, requests []domain.EntityEmptyRequest) (domain.Response[bool], error) {
	ops, err := s.ops(entityType)
	if err != nil {
		return domain.Response[bool]{}, err
	}
	return ops.empty(ctx, s.registry, requests), nil
}

func (s *EntityService) ops(entityType domain.EntityType) (entityOps, error) {
	ops, ok := opsTable[entityType]
	if !ok {
		return entityOps{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedType, entityType)
	}
	return ops, nil
}
