package driving

import (
	"context"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// QueryService evaluates condition queries.
type QueryService interface {
	// Query returns the target objects of stmt that satisfy its
	// condition group.
	Query(ctx context.Context, stmt *domain.Statement) domain.Response[domain.Object]
}
