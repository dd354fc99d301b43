package services

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
)

// QueryType selects how ProcessResponse reports a requested key that
// produced no rows.
type QueryType int

const (
	// QueryTypeUUID keys are primary keys; a miss is NotFound.
	QueryTypeUUID QueryType = iota
	// QueryTypeObject keys are foreign keys; a miss is Empty.
	QueryTypeObject
)

// Row is one backend row tagged with the key that produced it.
type Row[T any] struct {
	RequestedID string
	Entity      T
}

// ReadFunc performs one batched backend read for ids.
type ReadFunc[T any] func(ctx context.Context, ids []string) ([]Row[T], error)

// ProcessResponse wraps a batched backend read into a Response holding at
// least one Result per requested key. read is called at most once and only
// when the driver is available.
func ProcessResponse[T any](
	ctx context.Context,
	driver driven.Driver,
	ids []string,
	read ReadFunc[T],
	queryType QueryType,
) domain.Response[T] {
	source := driver.ID()
	if len(ids) == 0 {
		return domain.SingleResponse(domain.BadRequest[T](source, "", "no keys requested"), 0)
	}

	ids = Distinct(ids)
	if !driver.IsAvailable() {
		return UnavailableResponse[T](driver, ids)
	}

	start := time.Now()
	rows, err := read(ctx, ids)
	elapsed := time.Since(start)

	results := make([]domain.Result[T], 0, len(ids))
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		for _, id := range ids {
			if timedOut {
				results = append(results, domain.Timeout[T](source, id))
			} else {
				results = append(results, domain.InternalError[T](source, id, err))
			}
		}
		return domain.NewResponse(results, elapsed)
	}

	byID := make(map[string][]T, len(ids))
	for _, row := range rows {
		byID[row.RequestedID] = append(byID[row.RequestedID], row.Entity)
	}

	for _, id := range ids {
		matched, ok := byID[id]
		if !ok {
			if queryType == QueryTypeObject {
				results = append(results, domain.Empty[T](source, id))
			} else {
				results = append(results, domain.NotFound[T](source, id))
			}
			continue
		}
		for _, e := range matched {
			results = append(results, domain.Ok(source, id, e))
		}
	}
	return domain.NewResponse(results, elapsed)
}

// WriteFunc applies a batch of write requests and returns their results.
type WriteFunc[R, C any] func(ctx context.Context, requests []R) ([]domain.Result[C], error)

// ProcessWrite wraps a batched backend write the same way ProcessResponse
// wraps a read: an empty batch is a BadRequest, an unavailable driver
// yields NotAvailable per key without calling write, and a write error
// yields InternalError (or Timeout) per key.
func ProcessWrite[R, C any](
	ctx context.Context,
	driver driven.Driver,
	requests []R,
	key func(R) string,
	write WriteFunc[R, C],
) domain.Response[C] {
	source := driver.ID()
	if len(requests) == 0 {
		return domain.SingleResponse(domain.BadRequest[C](source, "", "no requests"), 0)
	}

	keys := make([]string, len(requests))
	for i, r := range requests {
		keys[i] = key(r)
	}
	if !driver.IsAvailable() {
		return UnavailableResponse[C](driver, keys)
	}

	start := time.Now()
	results, err := write(ctx, requests)
	elapsed := time.Since(start)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		results = make([]domain.Result[C], 0, len(keys))
		for _, k := range keys {
			if timedOut {
				results = append(results, domain.Timeout[C](source, k))
			} else {
				results = append(results, domain.InternalError[C](source, k, err))
			}
		}
	}
	return domain.NewResponse(results, elapsed)
}

// PublishOperationFor classifies a publish of e against the stored hash.
func PublishOperationFor(e domain.Entity, storedHash []byte, exists bool) domain.PublishOperation {
	switch {
	case !exists:
		return domain.PublishCreated
	case bytes.Equal(storedHash, e.EntityHash()):
		return domain.PublishUnchanged
	default:
		return domain.PublishChanged
	}
}

// UnavailableResponse returns one NotAvailable result per key.
func UnavailableResponse[T any](driver driven.Driver, ids []string) domain.Response[T] {
	results := make([]domain.Result[T], 0, len(ids))
	for _, id := range ids {
		results = append(results, domain.NotAvailable[T](driver.ID(), id, driver.AvailabilityMessage()))
	}
	return domain.NewResponse(results, 0)
}

// Distinct removes duplicate keys, keeping first occurrences in order.
func Distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
