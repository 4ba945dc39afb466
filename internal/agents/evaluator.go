package agents

import (
	"fmt"
	"math"

	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
)

// scoreMismatchTolerance is how far the model's own total may drift from the breakdown sum.
const scoreMismatchTolerance = 1.0

var evaluatorOutput = llm.OutputSchema{
	Name: "Evaluation",
	Fields: []llm.SchemaField{
		{Name: "score", Type: "number", Description: "Sum of the breakdown, 0-100", Required: true},
		{Name: "scoreBreakdown", Type: `{"technicalKnowledge": 0-40, "problemSolving": 0-25, "systemDesign": 0-20, "communication": 0-10, "awareness": 0-5}`, Required: true},
		{Name: "strengths", Type: `["string"]`, Description: "Most important first", Required: true},
		{Name: "areasForImprovement", Type: `["string"]`, Description: "Most important first", Required: true},
		{Name: "recommendation", Type: `"hire" | "maybe" | "consider_junior" | "no_hire"`, Required: true},
		{Name: "feedback", Type: "string", Description: "Detailed feedback addressed to the candidate"},
	},
}

type evaluationOutput struct {
	Score          *float64             `json:"score"`
	ScoreBreakdown types.ScoreBreakdown `json:"scoreBreakdown"`
	Strengths      []string             `json:"strengths"`
	Improvements   []string             `json:"areasForImprovement"`
	Recommendation string               `json:"recommendation"`
	Feedback       string               `json:"feedback"`
}

// Evaluator scores a completed interview from its full transcript.
type Evaluator struct {
	PromptKey string
}

// NewEvaluator creates an evaluator using the given system prompt key.
func NewEvaluator(promptKey string) *Evaluator {
	if promptKey == "" {
		promptKey = DefaultSettings(RoleEvaluator).PromptKey
	}
	return &Evaluator{PromptKey: promptKey}
}

// Role returns the role name.
func (e *Evaluator) Role() string {
	return RoleEvaluator
}

// BuildPrompt builds the evaluation request over the full transcript.
func (e *Evaluator) BuildPrompt(in Input) (Prompt, error) {
	if len(in.Transcript) == 0 {
		return Prompt{}, &PromptError{Role: RoleEvaluator, Message: "transcript is empty"}
	}

	system, err := instructions(RoleEvaluator, e.PromptKey, evaluatorOutput)
	if err != nil {
		return Prompt{}, err
	}

	message, err := render(RoleEvaluator, "evaluator_request", map[string]string{
		"JobRole":         in.Session.JobRole,
		"ExperienceLevel": in.Session.ExperienceLevel,
		"Transcript":      conversation.Format(in.Transcript),
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Instructions: system, Message: message}, nil
}

// ParseResponse parses evaluator JSON output. The overall score is the breakdown total.
// SessionID and CreatedAt are left for the caller.
func (e *Evaluator) ParseResponse(raw string) (types.Evaluation, error) {
	var out evaluationOutput
	if err := decode(RoleEvaluator, schemas.Evaluation, raw, &out); err != nil {
		return types.Evaluation{}, err
	}

	malformed := func(cause error) (types.Evaluation, error) {
		return types.Evaluation{}, &MalformedResultError{Role: RoleEvaluator, Raw: raw, Cause: cause}
	}

	total := out.ScoreBreakdown.Total()
	if out.Score != nil && math.Abs(*out.Score-total) > scoreMismatchTolerance {
		return malformed(fmt.Errorf("score %.2f does not match breakdown total %.2f", *out.Score, total))
	}

	recommendation, err := types.ParseRecommendation(out.Recommendation)
	if err != nil {
		return malformed(err)
	}

	eval := types.Evaluation{
		OverallScore:   total,
		ScoreBreakdown: out.ScoreBreakdown,
		Strengths:      out.Strengths,
		Improvements:   out.Improvements,
		Recommendation: recommendation,
		Feedback:       out.Feedback,
	}
	if err := eval.Validate(); err != nil {
		return malformed(err)
	}
	return eval, nil
}
