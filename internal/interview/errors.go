package interview

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

// ActionError wraps every orchestrator failure with the session, phase and action it happened in.
type ActionError struct {
	SessionID uuid.UUID
	Phase     types.Phase // Empty when the session could not be loaded
	Action    Action
	Err       error
}

func (e *ActionError) Error() string {
	phase := string(e.Phase)
	if phase == "" {
		phase = "unknown"
	}
	if e.SessionID == uuid.Nil {
		return fmt.Sprintf("%s (phase %s): %v", e.Action, phase, e.Err)
	}
	return fmt.Sprintf("%s on session %s (phase %s): %v", e.Action, e.SessionID, phase, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ValidationError is returned for bad input, before any state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// NotFoundError is returned for unknown sessions and sessions owned by another candidate.
type NotFoundError struct {
	SessionID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("interview %s not found", e.SessionID)
}

func (e *NotFoundError) Unwrap() error {
	return store.ErrNotFound
}

// InvalidTransitionError is returned when an action is not legal in the current phase.
type InvalidTransitionError struct {
	Action Action
	Phase  types.Phase
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s in phase %s", e.Action, e.Phase)
}

// ConcurrentModificationError is returned when another request changed the session first.
// The caller should reload before deciding whether to retry.
type ConcurrentModificationError struct {
	SessionID uuid.UUID
	Cause     error
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("interview %s was modified concurrently", e.SessionID)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return e.Cause
}

// PersistenceError is returned when the store fails. No partial write occurred, so it is safe to retry.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// storeError translates store sentinels into orchestrator errors.
func storeError(op string, id uuid.UUID, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{SessionID: id}
	case errors.Is(err, store.ErrConcurrentModification):
		return &ConcurrentModificationError{SessionID: id, Cause: err}
	default:
		return &PersistenceError{Op: op, Cause: err}
	}
}
