package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// TransientError is a retryable completion failure (timeout, rate limit, unavailable upstream).
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient completion error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient completion error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// FatalError is a permanent completion failure. It is never retried.
type FatalError struct {
	Message string
	Cause   error
}

func (e *FatalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fatal completion error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("fatal completion error: %s", e.Message)
}

func (e *FatalError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// classify converts a provider error into a TransientError or FatalError using structured status codes.
func classify(message string, err error) error {
	if err == nil {
		return nil
	}

	var transient *TransientError
	var fatal *FatalError
	if errors.As(err, &transient) || errors.As(err, &fatal) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &TransientError{Message: message + ": deadline exceeded", Cause: err}
	case errors.Is(err, context.Canceled):
		return &FatalError{Message: message + ": canceled", Cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if retryableHTTPStatus(apiErr.Code) {
			return &TransientError{Message: message, Cause: err}
		}
		return &FatalError{Message: message, Cause: err}
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.Unknown {
		switch st.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
			return &TransientError{Message: message, Cause: err}
		default:
			return &FatalError{Message: message, Cause: err}
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &TransientError{Message: message, Cause: err}
	}

	return &FatalError{Message: message, Cause: err}
}

func retryableHTTPStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusRequestTimeout,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
