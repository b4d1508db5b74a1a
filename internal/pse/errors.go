package pse

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the report for the requested day is not published yet
var ErrNotFound = errors.New("report not found for requested day")

// ErrRateLimited indicates the PSE API rate limit was exceeded
var ErrRateLimited = errors.New("PSE API rate limit exceeded")

// ServerError represents a 5xx error from the PSE API
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("PSE server error: HTTP %d", e.StatusCode)
}
