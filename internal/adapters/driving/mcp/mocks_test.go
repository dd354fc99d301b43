package mcp

import (
	"context"
	"encoding/json"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// mockEntityService is a mock implementation of driving.EntityService.
type mockEntityService struct {
	resp domain.Response[domain.Entity]
	err  error
}

func (m *mockEntityService) Read(_ context.Context, _ domain.EntityType, _ []string) (domain.Response[domain.Entity], error) {
	return m.resp, m.err
}

func (m *mockEntityService) QueryByObject(_ context.Context, _ domain.EntityType, _ []string) (domain.Response[domain.Entity], error) {
	return m.resp, m.err
}

func (m *mockEntityService) Publish(_ context.Context, _ domain.EntityType, _ json.RawMessage) (domain.Response[domain.PublishResult[domain.Entity]], error) {
	return domain.Response[domain.PublishResult[domain.Entity]]{}, m.err
}

func (m *mockEntityService) Delete(_ context.Context, _ domain.EntityType, _ []domain.EntityDeleteRequest) (domain.Response[bool], error) {
	return domain.Response[bool]{}, m.err
}

func (m *mockEntityService) Empty(_ context.Context, _ domain.EntityType, _ []domain.EntityEmptyRequest) (domain.Response[bool], error) {
	return domain.Response[bool]{}, m.err
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	resp domain.Response[domain.Object]
	stmt *domain.Statement
}

func (m *mockQueryService) Query(_ context.Context, stmt *domain.Statement) domain.Response[domain.Object] {
	m.stmt = stmt
	return m.resp
}
