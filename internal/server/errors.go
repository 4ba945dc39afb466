// Package server provides the HTTP REST API for the interview coach.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/agents"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/report"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrCandidateNotFound indicates the candidate account does not exist
type ErrCandidateNotFound struct {
	CandidateID uuid.UUID
}

func (e *ErrCandidateNotFound) Error() string {
	return fmt.Sprintf("candidate not found: %s", e.CandidateID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the HTTP status code for an error from a handler or the orchestrator.
func HTTPStatus(err error) int {
	var (
		emailExists *ErrEmailAlreadyExists
		credentials *ErrInvalidCredentials
		mismatch    *ErrPasswordMismatch
		noCandidate *ErrCandidateNotFound
		badRequest  *ErrValidation
		validation  *interview.ValidationError
		notFound    *interview.NotFoundError
		transition  *interview.InvalidTransitionError
		conflict    *interview.ConcurrentModificationError
		notReady    *report.NotReadyError
		malformed   *agents.MalformedResultError
		transient   *llm.TransientError
		fatal       *llm.FatalError
		persistence *interview.PersistenceError
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &emailExists):
		return http.StatusConflict
	case errors.As(err, &credentials), errors.As(err, &mismatch):
		return http.StatusUnauthorized
	case errors.As(err, &noCandidate), errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &badRequest), errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &transition), errors.As(err, &conflict), errors.As(err, &notReady):
		return http.StatusConflict
	case errors.As(err, &malformed), errors.As(err, &fatal):
		return http.StatusBadGateway
	case errors.As(err, &transient), errors.As(err, &persistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
