// Package remote provides an entity driver backed by another TrakHound
// instance reached over its HTTP API.
//
// Client is the transport: JSON over net/http with a token bucket and a
// backoff window opened by 429 and 503 replies. Driver maps each entity
// capability onto the matching /api/v1/entities route and re-tags the
// returned results with its own ID.
package remote
