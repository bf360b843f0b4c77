package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/shapepro/internal/shape"

	"google.golang.org/genai"
)

var (
	ErrInvalidPlan   = fmt.Errorf("generated %w", shape.ErrInvalidPlan)
	ErrEmptyResponse = errors.New("model returned no content")
)

// TransientError is a failure worth retrying later: timeouts, rate limits,
// server side errors.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError will fail the same way again: bad key, bad request, a plan
// that does not match the schema.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

func NewFatalError(err error) error {
	return &FatalError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// classify wraps an error coming from the generative API call.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError {
			return NewTransientError(err)
		}
		return NewFatalError(err)
	}

	if errors.Is(err, context.Canceled) {
		return NewFatalError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransientError(err)
	}

	// network failures and anything unknown are worth another try
	return NewTransientError(err)
}
