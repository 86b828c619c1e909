package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"backtest-review/internal/value"
)

// DefaultErrorMessage is used when an error response carries no usable detail.
const DefaultErrorMessage = "Request failed"

// ErrEmptyResponse is returned for 204 responses and bodies that are not JSON.
var ErrEmptyResponse = errors.New("backend returned no JSON body")

// ErrResponseTooLarge is returned when a response body exceeds the read limit.
var ErrResponseTooLarge = errors.New("backend response too large")

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsClientError reports whether err is an APIError with a 4xx status.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
}

// errorMessage extracts the detail field of an error body. A string detail is
// used as is; an array is joined with ", " with non-string items JSON encoded.
func errorMessage(body []byte) string {
	doc, err := value.Parse(body)
	if err != nil {
		return DefaultErrorMessage
	}
	detail, _ := doc.Get("detail")
	if !value.Truthy(detail) {
		return DefaultErrorMessage
	}

	if items, ok := detail.AsArray(); ok {
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = jsonText(item)
		}
		return strings.Join(parts, ", ")
	}
	return jsonText(detail)
}

func jsonText(v value.Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return v.String()
	}
	return string(data)
}
