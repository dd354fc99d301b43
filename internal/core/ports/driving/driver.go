package driving

import (
	"context"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// DriverService reports on and operates the registered drivers.
type DriverService interface {
	// Drivers returns the status of every registered driver.
	Drivers() []domain.DriverStatus

	// BufferMetrics returns the metrics of every buffered driver.
	BufferMetrics() []domain.BufferMetrics

	// Run executes a command on the driver with the given ID.
	Run(ctx context.Context, driverID, command string, params map[string]string) (domain.CommandResponse, error)
}
