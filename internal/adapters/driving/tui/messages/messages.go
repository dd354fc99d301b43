// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"time"

	"github.com/trakhound/trakhound-core/internal/core/domain"
)

// Tick triggers a periodic refresh.
type Tick time.Time

// Refreshed carries a snapshot of the drivers.
type Refreshed struct {
	Drivers []domain.DriverStatus
	Metrics []domain.BufferMetrics
}

// CommandCompleted carries the outcome of a driver command.
type CommandCompleted struct {
	DriverID string
	Command  string
	Response domain.CommandResponse
	Err      error
}
