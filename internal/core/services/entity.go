package services

import (
	"context"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
)

// Read returns entities of type T by UUID from the routed driver.
func Read[T domain.Entity](ctx context.Context, r *Registry, uuids []string) domain.Response[T] {
	d, ok := lookupAs[T, driven.ReadDriver[T]](r)
	if !ok {
		return unrouted[T](uuids)
	}
	return d.Read(ctx, uuids)
}

// QueryByObject returns the entities of type T owned by each object.
func QueryByObject[T domain.Entity](ctx context.Context, r *Registry, objectUUIDs []string) domain.Response[T] {
	d, ok := lookupAs[T, driven.ObjectQueryDriver[T]](r)
	if !ok {
		return unrouted[T](objectUUIDs)
	}
	return d.QueryByObject(ctx, objectUUIDs)
}

// Publish validates entities and hands the valid ones to the routed
// driver. Invalid entities are reported as BadRequest.
func Publish[T domain.Entity](ctx context.Context, r *Registry, entities []T) domain.Response[domain.PublishResult[T]] {
	var rejected []domain.Result[domain.PublishResult[T]]
	valid := make([]T, 0, len(entities))
	for _, e := range entities {
		e = domain.Prepare(e)
		if err := domain.Validate(e); err != nil {
			rejected = append(rejected, domain.BadRequest[domain.PublishResult[T]]("", e.EntityUUID(), err.Error()))
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		if len(rejected) == 0 {
			return unrouted[domain.PublishResult[T]](nil)
		}
		return domain.NewResponse(rejected, 0)
	}

	var published domain.Response[domain.PublishResult[T]]
	if d, ok := lookupAs[T, driven.PublishDriver[T]](r); ok {
		published = d.Publish(ctx, valid)
	} else {
		ids := make([]string, len(valid))
		for i, e := range valid {
			ids[i] = e.EntityUUID()
		}
		published = unrouted[domain.PublishResult[T]](ids)
	}
	if len(rejected) == 0 {
		return published
	}
	return domain.MergeResponses(domain.NewResponse(rejected, 0), published)
}

// Delete removes entities of type T by UUID.
func Delete[T domain.Entity](ctx context.Context, r *Registry, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	d, ok := lookupAs[T, driven.DeleteDriver[T]](r)
	if !ok {
		ids := make([]string, len(requests))
		for i, req := range requests {
			ids[i] = req.Target
		}
		return unrouted[bool](ids)
	}
	return d.Delete(ctx, requests)
}

// Empty removes the entities of type T owned by objects.
func Empty[T domain.Entity](ctx context.Context, r *Registry, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	d, ok := lookupAs[T, driven.EmptyDriver[T]](r)
	if !ok {
		ids := make([]string, len(requests))
		for i, req := range requests {
			ids[i] = req.EntityUUID
		}
		return unrouted[bool](ids)
	}
	return d.Empty(ctx, requests)
}
