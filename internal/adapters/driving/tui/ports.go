// Package tui provides a terminal monitor for the TrakHound drivers. It
// shows driver availability and write buffer metrics, refreshed on an
// interval, and can flush the selected buffer.
package tui

import (
	"errors"

	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
)

// ErrMissingDriverService is returned when the driver service is not provided.
var ErrMissingDriverService = errors.New("tui: driver service is required")

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	Drivers driving.DriverService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Drivers == nil {
		return ErrMissingDriverService
	}
	return nil
}
