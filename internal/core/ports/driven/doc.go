// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Driver Capabilities
//
// A storage backend implements any subset of the capability interfaces
// for each entity type it serves:
//
//   - ReadDriver: point reads by entity UUID
//   - ObjectQueryDriver: fan-out reads by owning object UUID
//   - PublishDriver: idempotent upserts
//   - DeleteDriver: removal by UUID
//   - EmptyDriver: removal of everything an object owns
//
// Every capability reports its outcome through domain.Response; expected
// failures never surface as Go errors.
//
// # Supporting Interfaces
//
//   - Volume: file persistence used by buffers and file-based drivers
//   - Client: transport to another TrakHound instance
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or service package
package driven
