// Package memory provides an in-memory entity driver.
//
// Entities live in a domain.Collection guarded by a read-write mutex, so
// the driver is safe for concurrent use. Nothing is persisted.
package memory
