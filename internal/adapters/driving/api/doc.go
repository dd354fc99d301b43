// Package api exposes the entity, query and driver services over HTTP
// using gin. Results travel as JSON arrays of
// {source, request, type, message, content} objects, the same shape the
// remote driver consumes.
package api
