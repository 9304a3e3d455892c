package model

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrResourceExhausted marks a rate-limit or quota rejection. Retried forever.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrServerError marks a transient provider fault (internal error, deadline
	// exceeded, unavailable). Retried up to a fixed number of attempts.
	ErrServerError = errors.New("transient server error")

	// ErrEmptyResponse marks a response without content parts. Never retried.
	ErrEmptyResponse = errors.New("empty response")

	errRetriesExhausted = errors.New("retries exhausted")
)

// Kind names an error class for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrResourceExhausted):
		return "resource_exhausted"
	case errors.Is(err, ErrServerError):
		return "server_error"
	case errors.Is(err, ErrEmptyResponse):
		return "empty_response"
	default:
		return "other"
	}
}

// ClassifyHTTPStatus wraps err with the sentinel matching an HTTP status code.
// Providers use it to map SDK errors onto the retry taxonomy.
func ClassifyHTTPStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	case http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		529: // anthropic "overloaded"
		return fmt.Errorf("%w: %w", ErrServerError, err)
	}
	return err
}

func emptyResponse(model string) error {
	return fmt.Errorf("%w: model %q returned no content parts", ErrEmptyResponse, model)
}
