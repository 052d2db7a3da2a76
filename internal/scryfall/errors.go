package scryfall

import (
	"errors"
	"fmt"
)

// CodeInvalidResponse marks an APIError raised because a 2xx body failed validation.
const CodeInvalidResponse = "invalid_response"

// NetworkError is a transport-level failure reaching Scryfall.
type NetworkError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response, or a 2xx response whose body is not a valid card list.
// Object, Code, Status and Details mirror Scryfall's error object.
type APIError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`

	URL string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	if e.Code != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d)", e.Status)
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAPIError reports whether err wraps an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
