package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
)

// entityOps is the type-erased form of the generic entity operations for
// one entity type.
type entityOps struct {
	read          func(ctx context.Context, r *Registry, uuids []string) domain.Response[domain.Entity]
	queryByObject func(ctx context.Context, r *Registry, objectUUIDs []string) domain.Response[domain.Entity]
	publish       func(ctx context.Context, r *Registry, payload json.RawMessage) (domain.Response[domain.PublishResult[domain.Entity]], error)
	delete        func(ctx context.Context, r *Registry, requests []domain.EntityDeleteRequest) domain.Response[bool]
	empty         func(ctx context.Context, r *Registry, requests []domain.EntityEmptyRequest) domain.Response[bool]
	capabilities  func(d driven.Driver) []domain.Capability
}

var opsTable = map[domain.EntityType]entityOps{
	domain.EntityTypeDefinition:  opsFor[domain.Definition](),
	domain.EntityTypeSource:      opsFor[domain.Source](),
	domain.EntityTypeObject:      opsFor[domain.Object](),
	domain.EntityTypeString:      opsFor[domain.String](),
	domain.EntityTypeNumber:      opsFor[domain.Number](),
	domain.EntityTypeBoolean:     opsFor[domain.Boolean](),
	domain.EntityTypeObservation: opsFor[domain.Observation](),
	domain.EntityTypeSet:         opsFor[domain.Set](),
	domain.EntityTypeHash:        opsFor[domain.Hash](),
	domain.EntityTypeTimestamp:   opsFor[domain.Timestamp](),
	domain.EntityTypeDuration:    opsFor[domain.Duration](),
	domain.EntityTypeVocabulary:  opsFor[domain.Vocabulary](),
}

func opsFor[T domain.Entity]() entityOps {
	return entityOps{
		read: func(ctx context.Context, r *Registry, uuids []string) domain.Response[domain.Entity] {
			return eraseEntities(Read[T](ctx, r, uuids))
		},
		queryByObject: func(ctx context.Context, r *Registry, objectUUIDs []string) domain.Response[domain.Entity] {
			return eraseEntities(QueryByObject[T](ctx, r, objectUUIDs))
		},
		publish: func(ctx context.Context, r *Registry, payload json.RawMessage) (domain.Response[domain.PublishResult[domain.Entity]], error) {
			var entities []T
			if err := json.Unmarshal(payload, &entities); err != nil {
				return domain.Response[domain.PublishResult[domain.Entity]]{},
					fmt.Errorf("decoding %s payload: %w: %v", domain.TypeOf[T](), domain.ErrInvalidInput, err)
			}
			return erasePublished(Publish(ctx, r, entities)), nil
		},
		delete: func(ctx context.Context, r *Registry, requests []domain.EntityDeleteRequest) domain.Response[bool] {
			return Delete[T](ctx, r, requests)
		},
		empty: func(ctx context.Context, r *Registry, requests []domain.EntityEmptyRequest) domain.Response[bool] {
			return Empty[T](ctx, r, requests)
		},
		capabilities: func(d driven.Driver) []domain.Capability {
			var caps []domain.Capability
			if _, ok := d.(driven.ReadDriver[T]); ok {
				caps = append(caps, domain.CapabilityRead)
			}
			if _, ok := d.(driven.ObjectQueryDriver[T]); ok {
				caps = append(caps, domain.CapabilityQueryByObject)
			}
			if _, ok := d.(driven.PublishDriver[T]); ok {
				caps = append(caps, domain.CapabilityPublish)
			}
			if _, ok := d.(driven.DeleteDriver[T]); ok {
				caps = append(caps, domain.CapabilityDelete)
			}
			if _, ok := d.(driven.EmptyDriver[T]); ok {
				caps = append(caps, domain.CapabilityEmpty)
			}
			return caps
		},
	}
}

func eraseEntities[T domain.Entity](r domain.Response[T]) domain.Response[domain.Entity] {
	return mapResponse(r, func(e T) domain.Entity { return e })
}

func erasePublished[T domain.Entity](r domain.Response[domain.PublishResult[T]]) domain.Response[domain.PublishResult[domain.Entity]] {
	return mapResponse(r, func(p domain.PublishResult[T]) domain.PublishResult[domain.Entity] {
		return domain.PublishResult[domain.Entity]{Operation: p.Operation, Entity: p.Entity}
	})
}

// mapResponse converts the content of Ok results. Other results keep a
// zero content.
func mapResponse[A, B any](r domain.Response[A], convert func(A) B) domain.Response[B] {
	in := r.Results()
	out := make([]domain.Result[B], len(in))
	for i, res := range in {
		out[i] = domain.Result[B]{
			Source:  res.Source,
			Request: res.Request,
			Type:    res.Type,
			Message: res.Message,
		}
		if res.Type == domain.ResultOk {
			out[i].Content = convert(res.Content)
		}
	}
	return domain.NewResponse(out, r.Duration())
}
