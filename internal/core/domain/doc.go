// Package domain defines the core entity model of the TrakHound engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types every driver and service speaks:
//
//   - Entity: Definition, Source, Object and the typed Object facets
//     (String, Number, Boolean, Observation, Set, Hash, Timestamp,
//     Duration, Vocabulary)
//   - Collection: an in-memory UUID map with foreign-key indexes
//   - Result / Response: the per-key outcome algebra returned by drivers
//   - Condition / ConditionGroup: query predicates and combinators
//   - BufferMetrics: the write-buffer monitoring contract
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import the Go
// standard library and github.com/google/uuid. All other packages depend
// on domain, never the reverse.
package domain
