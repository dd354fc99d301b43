package services

import (
	"context"
	"sync"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockDriver implements driven.EntityDriver over a map for testing.
type mockDriver[T domain.Entity] struct {
	id        string
	available bool
	readErr   error

	mu        sync.Mutex
	entities  map[string]T
	readCalls int
}

var _ driven.EntityDriver[domain.String] = (*mockDriver[domain.String])(nil)

func newMockDriver[T domain.Entity](id string, entities ...T) *mockDriver[T] {
	m := &mockDriver[T]{id: id, available: true, entities: make(map[string]T)}
	for _, e := range entities {
		m.entities[e.EntityUUID()] = e
	}
	return m
}

func (m *mockDriver[T]) ID() string                  { return m.id }
func (m *mockDriver[T]) IsAvailable() bool           { return m.available }
func (m *mockDriver[T]) AvailabilityMessage() string { return "mock " + m.id }

func (m *mockDriver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return ProcessResponse(ctx, m, uuids, func(_ context.Context, ids []string) ([]Row[T], error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.readCalls++
		if m.readErr != nil {
			return nil, m.readErr
		}
		var rows []Row[T]
		for _, id := range ids {
			if e, ok := m.entities[id]; ok {
				rows = append(rows, Row[T]{RequestedID: id, Entity: e})
			}
		}
		return rows, nil
	}, QueryTypeUUID)
}

func (m *mockDriver[T]) QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T] {
	return ProcessResponse(ctx, m, objectUUIDs, func(_ context.Context, ids []string) ([]Row[T], error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.readCalls++
		if m.readErr != nil {
			return nil, m.readErr
		}
		var rows []Row[T]
		for _, id := range ids {
			for _, e := range m.entities {
				if e.EntityOwner() == id {
					rows = append(rows, Row[T]{RequestedID: id, Entity: e})
				}
			}
		}
		return rows, nil
	}, QueryTypeObject)
}

func (m *mockDriver[T]) Publish(_ context.Context, entities []T) domain.Response[domain.PublishResult[T]] {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []domain.Result[domain.PublishResult[T]]
	for _, e := range entities {
		op := domain.PublishCreated
		if _, ok := m.entities[e.EntityUUID()]; ok {
			op = domain.PublishChanged
		}
		m.entities[e.EntityUUID()] = e
		results = append(results, domain.Ok(m.id, e.EntityUUID(), domain.PublishResult[T]{Operation: op, Entity: e}))
	}
	return domain.NewResponse(results, 0)
}

func (m *mockDriver[T]) Delete(_ context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool] {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []domain.Result[bool]
	for _, req := range requests {
		_, ok := m.entities[req.Target]
		delete(m.entities, req.Target)
		results = append(results, domain.Ok(m.id, req.Target, ok))
	}
	return domain.NewResponse(results, 0)
}

func (m *mockDriver[T]) Empty(_ context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool] {
	m.mu.Lock()
	defer m.mu.Unlock()
	var results []domain.Result[bool]
	for _, req := range requests {
		removed := false
		for id, e := range m.entities {
			if req.Matches(e) {
				delete(m.entities, id)
				removed = true
			}
		}
		results = append(results, domain.Ok(m.id, req.EntityUUID, removed))
	}
	return domain.NewResponse(results, 0)
}

// readOnlyDriver exposes only the Read capability of a mockDriver.
type readOnlyDriver[T domain.Entity] struct {
	inner *mockDriver[T]
}

func (r readOnlyDriver[T]) ID() string                  { return r.inner.ID() }
func (r readOnlyDriver[T]) IsAvailable() bool           { return r.inner.IsAvailable() }
func (r readOnlyDriver[T]) AvailabilityMessage() string { return r.inner.AvailabilityMessage() }

func (r readOnlyDriver[T]) Read(ctx context.Context, uuids []string) domain.Response[T] {
	return r.inner.Read(ctx, uuids)
}

// mockCommandDriver implements driven.CommandDriver and
// driven.MetricsDriver on top of a mockDriver.
type mockCommandDriver struct {
	*mockDriver[domain.String]
	lastCommand string
}

func (m *mockCommandDriver) Run(_ context.Context, command string, params map[string]string) domain.CommandResponse {
	m.lastCommand = command
	return domain.CommandResponse{StatusCode: 200, Parameters: params}
}

func (m *mockCommandDriver) BufferMetrics() domain.BufferMetrics {
	return domain.BufferMetrics{DriverID: m.id, EntityType: domain.EntityTypeString}
}
