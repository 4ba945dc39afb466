package agents

import "fmt"

// MalformedResultError is returned when role output cannot be parsed into its result type.
// Raw keeps the untouched model output for diagnosis.
type MalformedResultError struct {
	Role  string
	Raw   string
	Cause error
}

func (e *MalformedResultError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed %s result: %v", e.Role, e.Cause)
	}
	return fmt.Sprintf("malformed %s result", e.Role)
}

func (e *MalformedResultError) Unwrap() error {
	return e.Cause
}

// PromptError represents a failure to build a role prompt from its inputs.
type PromptError struct {
	Role    string
	Message string
	Cause   error
}

func (e *PromptError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s prompt: %s: %v", e.Role, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s prompt: %s", e.Role, e.Message)
}

func (e *PromptError) Unwrap() error {
	return e.Cause
}
