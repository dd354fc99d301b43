package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/services"
)

const indexOwner = "owner"

// Ensure Driver implements the interface.
var _ driven.EntityDriver[domain.Object] = (*Driver[domain.Object])(nil)

// Driver is an in-memory implementation of driven.EntityDriver.
type Driver[T domain.Entity] struct {
	id       string
	disabled atomic.Bool

	mu       sync.RWMutex
	entities *domain.Collection[T]
}

// NewDriver creates an empty in-memory driver.
func NewDriver[T domain.Entity](id string) *Driver[T] {
	return &Driver[T]{
		id: id,
		entities: domain.NewCollection(domain.Index[T]{
			Name: indexOwner,
			Key:  func(e T) string { return e.EntityOwner() },
		}),
	}
}

// ID returns the driver identifier.
func (d *Driver[T]) ID() string {
	return d.id
}

// IsAvailable reports whether the driver accepts requests.
func (d *Driver[T]) IsAvailable() bool {
	return !d.disabled.Load()
}

// AvailabilityMessage explains the availability state.
func (d *Driver[T]) AvailabilityMessage() string {
	if d.disabled.Load() {
		return "memory driver " + d.id + " is disabled"
	}
	return "ready"
}

// SetAvailable enables or disables the driver.
func (d *Driver[T]) SetAvailable(available bool) {
	d.disabled.Store(!available)
}

// Len returns the number of stored entities.
func (d *Driver[T]) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entities.Len()
}

// Read returns entities by UUID.
func (d *Driver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, uuids, func(_ context.Context, ids []string) ([]services.Row[T], error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		var rows []services.Row[T]
		for _, id := range ids {
			if e, ok := d.entities.Get(id); ok {
				rows = append(rows, services.Row[T]{RequestedID: id, Entity: e})
			}
		}
		return rows, nil
	}, services.QueryTypeUUID)
}

// QueryByObject returns the entities owned by each object, oldest first.
func (d *Driver[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return services.ProcessResponse(ctx, d, objectUUIDs, func(_ context.Context, ids []string) ([]services.Row[T], error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		var rows []services.Row[T]
		for _, id := range ids {
			owned, _ := d.entities.Query(indexOwner, id)
			sort.SliceStable(owned, func(i, j int) bool { return owned[i].EntityCreated() < owned[j].EntityCreated() })
			for _, e := range owned {
				rows = append(rows, services.Row[T]{RequestedID: id, Entity: e})
			}
		}
		return rows, nil
	}, services.QueryTypeObject)
}

// Publish upserts entities.
func (d *Driver[T]) Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	return services.ProcessWrite(ctx, d, entities, func(e T) string { return e.EntityUUID() },
		func(_ context.Context, entities []T) ([]domain.Result[domain.PublishResult[T]], error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			results := make([]domain.Result[domain.PublishResult[T]], 0, len(entities))
			for _, e := range entities {
				existing, ok := d.entities.Get(e.EntityUUID())
				op := services.PublishOperationFor(e, existing.EntityHash(), ok)
				d.entities.Add(e)
				results = append(results, domain.Ok(d.id, e.EntityUUID(), domain.PublishResult[T]{Operation: op, Entity: e}))
			}
			return results, nil
		})
}

// Delete removes entities by UUID. A missing target is NotFound.
func (d *Driver[T]) Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityDeleteRequest) string { return r.Target },
		func(_ context.Context, requests []domain.EntityDeleteRequest) ([]domain.Result[bool], error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			results := make([]domain.Result[bool], 0, len(requests))
			for _, req := range requests {
				if d.entities.Remove(req.Target) {
					results = append(results, domain.Ok(d.id, req.Target, true))
				} else {
					results = append(results, domain.NotFound[bool](d.id, req.Target))
				}
			}
			return results, nil
		})
}

// Empty removes the entities owned by each object. An object owning no
// matching entities is Empty.
func (d *Driver[T]) Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	return services.ProcessWrite(ctx, d, requests, func(r domain.EntityEmptyRequest) string { return r.EntityUUID },
		func(_ context.Context, requests []domain.EntityEmptyRequest) ([]domain.Result[bool], error) {
			d.mu.Lock()
			defer d.mu.Unlock()
			results := make([]domain.Result[bool], 0, len(requests))
			for _, req := range requests {
				owned, _ := d.entities.Query(indexOwner, req.EntityUUID)
				removed := 0
				for _, e := range owned {
					if req.Matches(e) && d.entities.Remove(e.EntityUUID()) {
						removed++
					}
				}
				if removed > 0 {
					results = append(results, domain.Ok(d.id, req.EntityUUID, true))
				} else {
					results = append(results, domain.Empty[bool](d.id, req.EntityUUID))
				}
			}
			return results, nil
		})
}
