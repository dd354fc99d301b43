package driven

import (
	"context"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// Driver is the identity and health every storage backend exposes.
// Implementations must be safe for concurrent use.
type Driver interface {
	// ID returns the configured driver identifier. It is used as the
	// Source of every Result the driver produces.
	ID() string

	// IsAvailable reports whether the backend is ready to serve requests.
	IsAvailable() bool

	// AvailabilityMessage explains the current availability state.
	AvailabilityMessage() string
}

// ReadDriver reads entities by UUID.
type ReadDriver[T domain.Entity] interface {
	Driver

	// Read returns one result per row found and one NotFound per missing UUID.
	Read(ctx context.Context, uuids []string) domain.Response[T]
}

// ObjectQueryDriver reads the entities owned by objects.
type ObjectQueryDriver[T domain.Entity] interface {
	Driver

	// QueryByObject returns the entities owned by each object UUID and
	// Empty for objects that own none.
	QueryByObject(ctx context.Context, objectUUIDs []string) domain.Response[T]
}

// PublishDriver upserts entities.
type PublishDriver[T domain.Entity] interface {
	Driver

	// Publish stores entities, replacing existing ones whose hash differs.
	Publish(ctx context.Context, entities []T) domain.Response[domain.PublishResult[T]]
}

// DeleteDriver removes entities by UUID.
type DeleteDriver[T domain.Entity] interface {
	Driver

	// Delete removes the targeted entities.
	Delete(ctx context.Context, requests []domain.EntityDeleteRequest) domain.Response[bool]
}

// EmptyDriver removes every entity owned by an object.
type EmptyDriver[T domain.Entity] interface {
	Driver

	// Empty removes the entities matching each request.
	Empty(ctx context.Context, requests []domain.EntityEmptyRequest) domain.Response[bool]
}

// EntityDriver is a backend implementing every capability for T.
type EntityDriver[T domain.Entity] interface {
	ReadDriver[T]
	ObjectQueryDriver[T]
	PublishDriver[T]
	DeleteDriver[T]
	EmptyDriver[T]
}

// CommandDriver runs named maintenance commands.
type CommandDriver interface {
	Driver

	// Run executes command with params.
	Run(ctx context.Context, command string, params map[string]string) domain.CommandResponse
}

// MetricsDriver exposes write-buffer health.
type MetricsDriver interface {
	Driver

	// BufferMetrics returns a snapshot of the buffer counters.
	BufferMetrics() domain.BufferMetrics
}
