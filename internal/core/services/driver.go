package services

import (
	"context"
	"fmt"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/core/ports/driving"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Verify interface compliance.
var _ driving.DriverService = (*DriverService)(nil)

// DriverService implements driving.DriverService.
type DriverService struct {
	registry *Registry
	log      *logger.Logger
}

// NewDriverService creates a driver service.
func NewDriverService(registry *Registry, log *logger.Logger) *DriverService {
	return &DriverService{registry: registry, log: log.Named("drivers")}
}

// Drivers returns the status of every routed driver.
func (s *DriverService) Drivers() []domain.DriverStatus {
	return s.registry.Status()
}

// BufferMetrics returns the metrics of every routed driver that has them.
func (s *DriverService) BufferMetrics() []domain.BufferMetrics {
	metrics := []domain.BufferMetrics{}
	for _, d := range s.registry.Drivers() {
		if m, ok := d.(driven.MetricsDriver); ok {
			metrics = append(metrics, m.BufferMetrics())
		}
	}
	return metrics
}

// Run executes command on the driver with the given ID.
func (s *DriverService) Run(ctx context.Context, driverID, command string, params map[string]string) (domain.CommandResponse, error) {
	for _, d := range s.registry.Drivers() {
		if d.ID() != driverID {
			continue
		}
		cd, ok := d.(driven.CommandDriver)
		if !ok {
			continue
		}
		s.log.Info("running %s on %s", command, driverID)
		return cd.Run(ctx, command, params), nil
	}
	return domain.CommandResponse{}, fmt.Errorf("driver %q with commands: %w", driverID, domain.ErrNotFound)
}
