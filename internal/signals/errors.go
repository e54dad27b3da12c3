package signals

import (
	"errors"
	"fmt"
)

// Failure kinds of a signal fetch. Both are non-fatal to the caller.
var (
	ErrTransport = errors.New("signal transport failure")
	ErrDecode    = errors.New("signal decode failure")
)

// StatusCodeError reports a non-2xx answer. It matches ErrTransport.
type StatusCodeError struct {
	StatusCode int
	URL        string
}

func (e *StatusCodeError) Error() string {
	return fmt.Sprintf("%v: statusCode %d for %s", ErrTransport, e.StatusCode, e.URL)
}

func (e *StatusCodeError) Is(target error) bool { return target == ErrTransport }
