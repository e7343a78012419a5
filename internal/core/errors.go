package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredentials = errors.New("cookie and user agent are required")
)

// UpstreamError is returned when LinkedIn answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("linkedin api returned status %d", e.StatusCode)
}

// TransportError covers network failures, timeouts and undecodable responses.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("linkedin api transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
