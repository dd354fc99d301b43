package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ResultType is the closed set of outcomes a driver can report for one
// requested key.
type ResultType int

// Result types.
const (
	ResultOk ResultType = iota
	ResultEmpty
	ResultNotFound
	ResultNotAvailable
	ResultRouteNotConfigured
	ResultBadRequest
	ResultTimeout
	ResultInternalError
)

var resultTypeNames = [...]string{
	ResultOk:                 "Ok",
	ResultEmpty:              "Empty",
	ResultNotFound:           "NotFound",
	ResultNotAvailable:       "NotAvailable",
	ResultRouteNotConfigured: "RouteNotConfigured",
	ResultBadRequest:         "BadRequest",
	ResultTimeout:            "Timeout",
	ResultInternalError:      "InternalError",
}

// String returns the name of the result type.
func (t ResultType) String() string {
	if t < 0 || int(t) >= len(resultTypeNames) {
		return fmt.Sprintf("ResultType(%d)", int(t))
	}
	return resultTypeNames[t]
}

// ParseResultType resolves a result type name.
func ParseResultType(s string) (ResultType, error) {
	for i, name := range resultTypeNames {
		if strings.EqualFold(name, s) {
			return ResultType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: result type %q", ErrInvalidInput, s)
}

// MarshalText encodes the type by name.
func (t ResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *ResultType) UnmarshalText(b []byte) error {
	parsed, err := ParseResultType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsSuccess reports whether the type counts as a successful outcome.
// Empty is a success: the key exists but has nothing to return.
func (t ResultType) IsSuccess() bool {
	return t == ResultOk || t == ResultEmpty
}

// Result is the outcome for one requested key against one source.
type Result[T any] struct {
	Source  string     `json:"source"`
	Request string     `json:"request"`
	Type    ResultType `json:"type"`
	Message string     `json:"message,omitempty"`
	Content T          `json:"content"`
}

// Ok creates a successful result carrying content.
func Ok[T any](source, request string, content T) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultOk, Content: content}
}

// Empty creates a result for a key that exists but has nothing to return.
func Empty[T any](source, request string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultEmpty}
}

// NotFound creates a result for a key that does not exist.
func NotFound[T any](source, request string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultNotFound}
}

// NotAvailable creates a result for a key whose driver is not ready.
func NotAvailable[T any](source, request, message string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultNotAvailable, Message: message}
}

// RouteNotConfigured creates a result for a key no driver is routed for.
func RouteNotConfigured[T any](source, request string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultRouteNotConfigured}
}

// BadRequest creates a result for a structurally invalid request.
func BadRequest[T any](source, request, message string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultBadRequest, Message: message}
}

// Timeout creates a result for a request aborted by a deadline.
func Timeout[T any](source, request string) Result[T] {
	return Result[T]{Source: source, Request: request, Type: ResultTimeout}
}

// InternalError creates a result for an unexpected backend failure.
func InternalError[T any](source, request string, err error) Result[T] {
	r := Result[T]{Source: source, Request: request, Type: ResultInternalError}
	if err != nil {
		r.Message = err.Error()
	}
	return r
}

// Response is the set of Results for one logical operation. It is built
// once by NewResponse and never changes afterwards; accessors hand out
// copies.
type Response[T any] struct {
	results       []Result[T]
	success       []int
	notFound      []int
	internalError []int
	duration      time.Duration
}

// NewResponse builds a Response from results, partitioning them by type.
// duration is the elapsed time measured by the caller.
func NewResponse[T any](results []Result[T], duration time.Duration) Response[T] {
	r := Response[T]{
		results:  append([]Result[T](nil), results...),
		duration: duration,
	}
	for i, res := range r.results {
		switch {
		case res.Type.IsSuccess():
			r.success = append(r.success, i)
		case res.Type == ResultNotFound:
			r.notFound = append(r.notFound, i)
		case res.Type == ResultInternalError:
			r.internalError = append(r.internalError, i)
		}
	}
	return r
}

// SingleResponse builds a Response holding exactly one result.
func SingleResponse[T any](result Result[T], duration time.Duration) Response[T] {
	return NewResponse([]Result[T]{result}, duration)
}

// MergeResponses concatenates the results of several responses and sums
// their durations.
func MergeResponses[T any](responses ...Response[T]) Response[T] {
	var results []Result[T]
	var d time.Duration
	for _, r := range responses {
		results = append(results, r.results...)
		d += r.duration
	}
	return NewResponse(results, d)
}

// Results returns every result in construction order.
func (r Response[T]) Results() []Result[T] {
	return append([]Result[T](nil), r.results...)
}

// Len returns the number of results.
func (r Response[T]) Len() int {
	return len(r.results)
}

// Duration returns the elapsed time of the operation.
func (r Response[T]) Duration() time.Duration {
	return r.duration
}

// Success returns the Ok and Empty results.
func (r Response[T]) Success() []Result[T] {
	return r.pick(r.success)
}

// NotFound returns the NotFound results.
func (r Response[T]) NotFound() []Result[T] {
	return r.pick(r.notFound)
}

// InternalErrors returns the InternalError results.
func (r Response[T]) InternalErrors() []Result[T] {
	return r.pick(r.internalError)
}

// IsSuccess reports whether the response holds results and all of them
// are Ok or Empty.
func (r Response[T]) IsSuccess() bool {
	return len(r.results) > 0 && len(r.success) == len(r.results)
}

// IsNotFound reports whether the response holds results and all of them
// are NotFound.
func (r Response[T]) IsNotFound() bool {
	return len(r.results) > 0 && len(r.notFound) == len(r.results)
}

// IsInternalError reports whether any result is an InternalError.
func (r Response[T]) IsInternalError() bool {
	return len(r.internalError) > 0
}

// Content returns the content of every Ok result in order.
func (r Response[T]) Content() []T {
	content := make([]T, 0, len(r.success))
	for _, i := range r.success {
		if r.results[i].Type == ResultOk {
			content = append(content, r.results[i].Content)
		}
	}
	return content
}

// Requests returns the distinct requested keys in first-seen order.
func (r Response[T]) Requests() []string {
	seen := make(map[string]struct{}, len(r.results))
	var requests []string
	for _, res := range r.results {
		if _, ok := seen[res.Request]; ok {
			continue
		}
		seen[res.Request] = struct{}{}
		requests = append(requests, res.Request)
	}
	return requests
}

// ByRequest returns the results for one requested key.
func (r Response[T]) ByRequest(request string) []Result[T] {
	var matched []Result[T]
	for _, res := range r.results {
		if res.Request == request {
			matched = append(matched, res)
		}
	}
	return matched
}

// MarshalJSON encodes the response as its result list.
func (r Response[T]) MarshalJSON() ([]byte, error) {
	results := r.results
	if results == nil {
		results = []Result[T]{}
	}
	return json.Marshal(results)
}

func (r Response[T]) pick(indexes []int) []Result[T] {
	picked := make([]Result[T], 0, len(indexes))
	for _, i := range indexes {
		picked = append(picked, r.results[i])
	}
	return picked
}
