// Package agents implements the interviewer, evaluator and coach roles.
// Each role turns session state into a prompt and parses the model output into a typed result.
// Adapters hold no state between calls.
package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
)

// Role names. They double as CompletionService request roles and metric labels.
const (
	RoleInterviewer = "interviewer"
	RoleEvaluator   = "evaluator"
	RoleCoach       = "coach"
)

// Roles returns every role name.
func Roles() []string {
	return []string{RoleInterviewer, RoleEvaluator, RoleCoach}
}

// Prompt is a built request: role instructions plus the context message.
type Prompt struct {
	Instructions string
	Message      string
}

// Input is the session state a role may draw on.
type Input struct {
	Session    types.Session
	Window     []types.ConversationTurn // Recent turns, used by the interviewer
	Transcript []types.ConversationTurn // Full log, used by evaluator and coach
	Evaluation *types.Evaluation        // Used by the coach
}

// RoleAdapter builds prompts for one role and parses its output into T.
type RoleAdapter[T any] interface {
	Role() string
	BuildPrompt(in Input) (Prompt, error)
	ParseResponse(raw string) (T, error)
}

// Settings is the static per-role call configuration.
type Settings struct {
	Tier        llm.ModelTier
	Temperature float32
	Timeout     time.Duration
	PromptKey   string // Key of the system instructions in the prompt file
}

// DefaultSettings returns the built-in settings for a role.
func DefaultSettings(role string) Settings {
	switch role {
	case RoleEvaluator:
		return Settings{Tier: llm.TierAdvanced, Temperature: 0.2, Timeout: 60 * time.Second, PromptKey: "evaluator_system"}
	case RoleCoach:
		return Settings{Tier: llm.TierAdvanced, Temperature: 0.5, Timeout: 60 * time.Second, PromptKey: "coach_system"}
	default:
		return Settings{Tier: llm.TierStandard, Temperature: 0.7, Timeout: 30 * time.Second, PromptKey: "interviewer_system"}
	}
}

// Run builds the prompt, invokes the service, and parses the response.
// Service errors are returned unchanged so callers can tell transient from fatal failures.
func Run[T any](ctx context.Context, svc llm.CompletionService, adapter RoleAdapter[T], settings Settings, in Input) (T, error) {
	var zero T

	prompt, err := adapter.BuildPrompt(in)
	if err != nil {
		return zero, err
	}

	raw, err := svc.Complete(ctx, llm.Request{
		Role:         adapter.Role(),
		Instructions: prompt.Instructions,
		Message:      prompt.Message,
		Tier:         settings.Tier,
		Temperature:  settings.Temperature,
		Timeout:      settings.Timeout,
		JSON:         true,
	})
	if err != nil {
		return zero, err
	}

	return adapter.ParseResponse(raw)
}

// instructions joins the system prompt with the output contract.
func instructions(role, key string, schema llm.OutputSchema) (string, error) {
	system, err := prompts.Get(prompts.InterviewFile, key)
	if err != nil {
		return "", &PromptError{Role: role, Message: "failed to load system prompt", Cause: err}
	}
	return system + "\n\n" + llm.BuildOutputInstructions(schema), nil
}

func render(role, key string, data map[string]string) (string, error) {
	message, err := prompts.Render(prompts.InterviewFile, key, data)
	if err != nil {
		return "", &PromptError{Role: role, Message: "failed to render " + key, Cause: err}
	}
	return message, nil
}

// decode cleans raw output, checks it against the named schema, and unmarshals it into v.
func decode(role, schema, raw string, v any) error {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schema, []byte(cleaned)); err != nil {
		return &MalformedResultError{Role: role, Raw: raw, Cause: err}
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &MalformedResultError{Role: role, Raw: raw, Cause: err}
	}
	return nil
}
