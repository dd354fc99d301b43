package services

import (
	"fmt"
	"sort"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/trakhound/trakhound-core/internal/core/domain"
	"github.com/trakhound/trakhound-core/internal/core/ports/driven"
	"github.com/trakhound/trakhound-core/internal/logger"
)

// Registry maps each entity type to the driver serving it. Routes are set
// at startup from configuration and read concurrently afterwards.
type Registry struct {
	routes *xsync.MapOf[domain.EntityType, driven.Driver]
	log    *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		routes: xsync.NewMapOf[domain.EntityType, driven.Driver](),
		log:    log.Named("registry"),
	}
}

// Route makes driver serve entityType. The driver must implement at least
// one capability for that type.
func (r *Registry) Route(entityType domain.EntityType, driver driven.Driver) error {
	ops, ok := opsTable[entityType]
	if !ok {
		return fmt.Errorf("routing %q: %w", entityType, domain.ErrUnsupportedType)
	}
	if len(ops.capabilities(driver)) == 0 {
		return fmt.Errorf("routing %s to %s: %w: driver has no %s capability",
			entityType, driver.ID(), domain.ErrInvalidConfig, entityType)
	}
	if prev, loaded := r.routes.LoadAndStore(entityType, driver); loaded {
		r.log.Warn("route %s moved from %s to %s", entityType, prev.ID(), driver.ID())
	}
	r.log.Debug("route %s -> %s", entityType, driver.ID())
	return nil
}

// Lookup returns the driver routed for entityType.
func (r *Registry) Lookup(entityType domain.EntityType) (driven.Driver, bool) {
	return r.routes.Load(entityType)
}

// Routes returns every routed entity type in declaration order.
func (r *Registry) Routes() []domain.EntityType {
	var types []domain.EntityType
	for _, t := range domain.EntityTypes() {
		if _, ok := r.routes.Load(t); ok {
			types = append(types, t)
		}
	}
	return types
}

// Drivers returns the distinct routed driver instances ordered by ID and
// then by the first entity type they serve.
func (r *Registry) Drivers() []driven.Driver {
	var drivers []driven.Driver
	seen := make(map[driven.Driver]struct{})
	for _, t := range r.Routes() {
		d, _ := r.routes.Load(t)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		drivers = append(drivers, d)
	}
	sort.SliceStable(drivers, func(i, j int) bool { return drivers[i].ID() < drivers[j].ID() })
	return drivers
}

// Status aggregates the routed drivers by ID.
func (r *Registry) Status() []domain.DriverStatus {
	byID := make(map[string]*domain.DriverStatus)
	var order []string
	for _, t := range r.Routes() {
		d, _ := r.routes.Load(t)
		st, ok := byID[d.ID()]
		if !ok {
			st = &domain.DriverStatus{
				ID:        d.ID(),
				Available: true,
				Routes:    make(map[domain.EntityType][]domain.Capability),
			}
			byID[d.ID()] = st
			order = append(order, d.ID())
		}
		if !d.IsAvailable() {
			st.Available = false
			st.Message = d.AvailabilityMessage()
		}
		st.Routes[t] = opsTable[t].capabilities(d)
		if _, ok := d.(driven.MetricsDriver); ok {
			st.HasMetrics = true
		}
		if _, ok := d.(driven.CommandDriver); ok {
			st.HasCommands = true
		}
	}
	sort.Strings(order)

	statuses := make([]domain.DriverStatus, 0, len(order))
	for _, id := range order {
		statuses = append(statuses, *byID[id])
	}
	return statuses
}

// lookupAs returns the driver routed for T when it implements D.
func lookupAs[T domain.Entity, D any](r *Registry) (D, bool) {
	var zero D
	d, ok := r.routes.Load(domain.TypeOf[T]())
	if !ok {
		return zero, false
	}
	typed, ok := d.(D)
	return typed, ok
}

// unrouted returns one RouteNotConfigured result per key.
func unrouted[T any](ids []string) domain.Response[T] {
	if len(ids) == 0 {
		return domain.SingleResponse(domain.BadRequest[T]("", "", "no keys requested"), 0)
	}
	ids = Distinct(ids)
	results := make([]domain.Result[T], 0, len(ids))
	for _, id := range ids {
		results = append(results, domain.RouteNotConfigured[T]("", id))
	}
	return domain.NewResponse(results, 0)
}
