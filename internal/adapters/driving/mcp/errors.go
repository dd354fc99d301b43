// Package mcp serves TrakHound entities to AI assistants over the Model
// Context Protocol. Entity reads, condition queries and driver status are
// exposed as tools; drivers and objects are also readable as resources.
package mcp

import "errors"

var (
	// ErrMissingEntityService is returned when the entity service is not provided.
	ErrMissingEntityService = errors.New("mcp: entity service is required")

	// ErrMissingQueryService is returned when the query service is not provided.
	ErrMissingQueryService = errors.New("mcp: query service is required")
)
