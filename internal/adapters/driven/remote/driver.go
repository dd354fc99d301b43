package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/services"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Driver serves one entity type from a remote instance.
type Driver[T domain.Entity] struct {
	id      string
	client  driven.Client
	backoff time.Duration
	prefix  string
	log     *logger.Logger

	mu        sync.Mutex
	downUntil time.Time
	lastErr   string
}

var _ driven.EntityDriver[domain.Object] = (*Driver[domain.Object])(nil)

// NewDriver creates a driver for T. After a transport failure or a
// 429/503 reply the driver reports itself unavailable for backoff.
func NewDriver[T domain.Entity](id string, client driven.Client, backoff time.Duration, log *logger.Logger) *Driver[T] {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &Driver[T]{
		id:      id,
		client:  client,
		backoff: backoff,
		prefix:  "/api/v1/entities/" + strings.ToLower(string(domain.TypeOf[T]())),
		log:     log.Named(id),
	}
}

// ID returns the driver identifier.
func (d *Driver[T]) ID() string {
	return d.id
}

// IsAvailable is false while a failure backoff is running.
func (d *Driver[T]) IsAvailable() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !time.Now().Before(d.downUntil)
}

// AvailabilityMessage explains the availability state.
func (d *Driver[T]) AvailabilityMessage() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if time.Now().Before(d.downUntil) {
		return fmt.Sprintf("%s unreachable until %s: %s", d.client.BaseURL(), d.downUntil.Format(time.RFC3339), d.lastErr)
	}
	return "ready"
}

// Read reads entities by UUID.
func (d *Driver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return exchange(ctx, d, uuids, func(out *[]domain.Result[T]) error {
		return d.client.Get(ctx, d.prefix, url.Values{"uuid": uuids}, out)
	})
}

// QueryByObject reads the entities owned by objects.
func (d *Driver[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return exchange(ctx, d, objectUUIDs, func(out *[]domain.Result[T]) error {
		return d.client.Get(ctx, d.prefix+"/objects", url.Values{"uuid": objectUUIDs}, out)
	})
}

// Publish sends entities to the remote instance.
func (d *Driver[T]) Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	keys := make([]string, len(entities))
	for i, e := range entities {
		keys[i] = e.EntityUUID()
	}
	return exchange(ctx, d, keys, func(out *[]domain.Result[domain.PublishResult[T]]) error {
		return d.client.Post(ctx, d.prefix, entities, out)
	})
}

// Delete deletes entities on the remote instance.
func (d *Driver[T]) Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	keys := make([]string, len(requests))
	for i, r := range requests {
		keys[i] = r.Target
	}
	return exchange(ctx, d, keys, func(out *[]domain.Result[bool]) error {
		return d.client.Post(ctx, d.prefix+"/delete", requests, out)
	})
}

// Empty empties objects on the remote instance.
func (d *Driver[T]) Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	keys := make([]string, len(requests))
	for i, r := range requests {
		keys[i] = r.EntityUUID
	}
	return exchange(ctx, d, keys, func(out *[]domain.Result[bool]) error {
		return d.client.Post(ctx, d.prefix+"/empty", requests, out)
	})
}

// exchange runs one remote call for keys. Transport failures become one
// result per key; remote results are re-tagged with the driver ID.
func exchange[T domain.Entity, C any](ctx context.Context, d *Driver[T], keys []string, call func(out *[]domain.Result[C]) error) domain.Response[C] {
	if len(keys) == 0 {
		return domain.SingleResponse(domain.BadRequest[C](d.id, "", "no requests"), 0)
	}
	keys = services.Distinct(keys)
	if !d.IsAvailable() {
		return services.UnavailableResponse[C](d, keys)
	}

	start := time.Now()
	var results []domain.Result[C]
	err := call(&results)
	elapsed := time.Since(start)

	if err != nil {
		d.log.Debug("%v", err)
		return domain.NewResponse(failed[C](d.id, keys, err, d.markDown(err)), elapsed)
	}
	d.markUp()
	for i := range results {
		results[i].Source = d.id
	}
	return domain.NewResponse(results, elapsed)
}

// failed builds one result per key for a call that did not complete.
func failed[C any](source string, keys []string, err error, unavailable bool) []domain.Result[C] {
	results := make([]domain.Result[C], 0, len(keys))
	for _, k := range keys {
		switch {
		case IsTimeout(err):
			results = append(results, domain.Timeout[C](source, k))
		case unavailable:
			results = append(results, domain.NotAvailable[C](source, k, err.Error()))
		default:
			results = append(results, domain.InternalError[C](source, k, err))
		}
	}
	return results
}

// markDown opens a backoff window when err means the remote is
// unreachable and reports whether it did.
func (d *Driver[T]) markDown(err error) bool {
	if !IsUnavailable(err) {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downUntil = time.Now().Add(d.backoff)
	d.lastErr = err.Error()
	d.log.Warn("remote unavailable: %v", err)
	return true
}

func (d *Driver[T]) markUp() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.downUntil = time.Time{}
	d.lastErr = ""
}
