package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/agents"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/report"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthErrorMessages(t *testing.T) {
	candidateID := uuid.New()
	assert.Equal(t, "email already registered: test@example.com", (&ErrEmailAlreadyExists{Email: "test@example.com"}).Error())
	assert.Equal(t, "invalid email or password", (&ErrInvalidCredentials{}).Error())
	assert.Equal(t, "candidate not found: "+candidateID.String(), (&ErrCandidateNotFound{CandidateID: candidateID}).Error())
	assert.Equal(t, "current password is incorrect", (&ErrPasswordMismatch{}).Error())
	assert.Equal(t, "validation error: email - invalid format", (&ErrValidation{Field: "email", Message: "invalid format"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	id := uuid.New()
	action := func(err error) error {
		return &interview.ActionError{SessionID: id, Phase: types.PhaseInProgress, Action: interview.ActionSubmitResponse, Err: err}
	}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"email exists", &ErrEmailAlreadyExists{Email: "test@example.com"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"password mismatch", &ErrPasswordMismatch{}, http.StatusUnauthorized},
		{"candidate not found", &ErrCandidateNotFound{CandidateID: id}, http.StatusNotFound},
		{"request validation", &ErrValidation{Field: "password", Message: "too short"}, http.StatusBadRequest},
		{"action validation", action(&interview.ValidationError{Field: "candidate_answer", Message: "required"}), http.StatusBadRequest},
		{"session not found", action(&interview.NotFoundError{SessionID: id}), http.StatusNotFound},
		{"invalid transition", action(&interview.InvalidTransitionError{Action: interview.ActionEvaluate, Phase: types.PhaseInProgress}), http.StatusConflict},
		{"concurrent modification", action(&interview.ConcurrentModificationError{SessionID: id, Cause: store.ErrConcurrentModification}), http.StatusConflict},
		{"report not ready", action(&report.NotReadyError{SessionID: id, Phase: types.PhaseInProgress}), http.StatusConflict},
		{"malformed result", action(&agents.MalformedResultError{Role: agents.RoleEvaluator, Raw: "{"}), http.StatusBadGateway},
		{"upstream fatal", action(&llm.FatalError{Message: "bad key"}), http.StatusBadGateway},
		{"upstream transient", action(&llm.TransientError{Message: "timeout"}), http.StatusServiceUnavailable},
		{"persistence", action(&interview.PersistenceError{Op: "update", Cause: assert.AnError}), http.StatusServiceUnavailable},
		{"wrapped twice", fmt.Errorf("handler: %w", action(&interview.NotFoundError{SessionID: id})), http.StatusNotFound},
		{"unknown error", assert.AnError, http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
