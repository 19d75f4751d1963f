package azclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyResponse indicates the API returned no choices
	ErrEmptyResponse = errors.New("empty response from API")

	// ErrStreamClosed indicates the stream has been closed
	ErrStreamClosed = errors.New("stream closed")

	// ErrMissingEndpoint indicates the endpoint was not configured
	ErrMissingEndpoint = errors.New("endpoint is required")

	// ErrMissingDeployment indicates the deployment name was not configured
	ErrMissingDeployment = errors.New("deployment name is required")
)

// ErrorResponse is the error envelope returned by the service:
// {"error":{"message":"...","code":"..."}}
type ErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
		Param   string `json:"param"`
	} `json:"error"`
}

// APIError represents an error response from the chat completions API.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
	Code       string
	Param      string
	RequestID  string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether a caller could reasonably try again. The client
// itself never retries.
func (e *APIError) IsRetryable() bool {
	if e.StatusCode >= 500 && e.StatusCode < 600 {
		return true
	}
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch e.Code {
	case "timeout", "server_error":
		return true
	}
	return false
}

// IsRateLimit returns true if this is a rate limit error.
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "429" || e.Code == "rate_limit_exceeded"
}

// IsAuthError returns true if this is an authentication error.
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.StatusCode == http.StatusForbidden ||
		e.Code == "invalid_api_key" ||
		e.Code == "401"
}

// IsContentFilter reports whether the prompt or completion was blocked by the
// deployment's content filter.
func (e *APIError) IsContentFilter() bool {
	return e.Code == "content_filter"
}

// CredentialError wraps a failure to obtain a bearer token.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to acquire credential: %v", e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}
