package driven

import (
	"context"
	"net/url"
)

// Client is the transport to another TrakHound instance's HTTP API.
type Client interface {
	// BaseURL returns the address of the remote instance.
	BaseURL() string

	// Get issues a GET for path and decodes the JSON reply into out.
	Get(ctx context.Context, path string, query url.Values, out any) error

	// Post sends body as JSON to path and decodes the JSON reply into out.
	Post(ctx context.Context, path string, body, out any) error
}
