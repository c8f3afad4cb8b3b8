package http

import (
	"errors"
	"fmt"
)

// ErrAuthorNotFound is returned when an author search yields no usable author key
var ErrAuthorNotFound = errors.New("author not found")

// NetworkError reports a request that could not be completed, including
// responses with a non-2xx status.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a response body that could not be decoded
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: invalid response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
