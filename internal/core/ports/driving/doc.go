// Package driving defines interfaces that external actors (CLI, HTTP API)
// use to interact with core services. These are the "driving" ports in
// hexagonal architecture terminology - they drive the application.
//
// Entity operations here are keyed by domain.EntityType and carry entities
// as domain.Entity values, so adapters can dispatch on a type name taken
// from a command line or URL.
//
// Implementations of these interfaces live in internal/core/services.
package driving
