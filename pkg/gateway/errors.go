package gateway

import (
	"errors"
	"fmt"
)

// ErrAdmissionDenied is returned when the daily or monthly budget is
// exhausted. Admission failures occur before any external call and are
// never retried.
var ErrAdmissionDenied = errors.New("cost limit reached")

// ErrUnknownModel is returned when a request names a model that is not in
// the registry
var ErrUnknownModel = errors.New("unknown model")

// ExhaustedError is surfaced when every attempt against a model (and its
// fallback, if configured) has failed. Err holds the final attempt's error.
type ExhaustedError struct {
	Model    string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("invocation exhausted after %d attempts against %s: %v", e.Attempts, e.Model, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
