package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// APIError is a non-2xx reply from the remote instance.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// IsUnavailable reports whether err means the remote cannot serve
// requests right now: a transport failure or a 429/503 reply.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode == http.StatusServiceUnavailable
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
