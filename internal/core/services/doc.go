// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Drivers are resolved per entity type through a Registry. The generic
// helpers (Read, QueryByObject, Publish, Delete, Empty) give typed access
// for callers that know the entity type at compile time; EntityService
// dispatches on a domain.EntityType for callers that do not.
package services
