package mcp

import (
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	Entities driving.EntityService
	Query    driving.QueryService

	// Drivers is optional. Without it the drivers tool and resource
	// report no drivers.
	Drivers driving.DriverService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Entities == nil {
		return ErrMissingEntityService
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
