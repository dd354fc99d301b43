package api

// ErrorResponse is returned for requests rejected before reaching a
// service.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error codes.
const (
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeInvalidBody     = "INVALID_BODY"
	CodeDriverNotFound  = "DRIVER_NOT_FOUND"
	CodeInternal        = "INTERNAL"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
