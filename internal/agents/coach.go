package agents

import (
	"encoding/json"

	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
)

var coachOutput = llm.OutputSchema{
	Name: "CoachingPlan",
	Fields: []llm.SchemaField{
		{Name: "weakness", Type: "string", Description: "The single most important weak area", Required: true},
		{Name: "impact", Type: "string", Description: "Why it matters for the target role"},
		{Name: "learningPath", Type: `["string"]`, Description: "Ordered steps", Required: true},
		{Name: "resources", Type: `[{"type": "course|book|practice|community", "title": "string", "url": "string", "duration": "string", "difficulty": "beginner|intermediate|advanced"}]`, Required: true},
		{Name: "nextCheckpoint", Type: "string", Description: "Area to test in the next mock interview"},
		{Name: "motivation", Type: "string"},
	},
}

type coachingOutput struct {
	Weakness       string           `json:"weakness"`
	Impact         string           `json:"impact"`
	LearningPath   []string         `json:"learningPath"`
	Resources      []types.Resource `json:"resources"`
	NextCheckpoint string           `json:"nextCheckpoint"`
	Motivation     string           `json:"motivation"`
}

// evaluationSummary is the evaluation as shown to the coach.
type evaluationSummary struct {
	OverallScore   float64              `json:"score"`
	ScoreBreakdown types.ScoreBreakdown `json:"scoreBreakdown"`
	Strengths      []string             `json:"strengths"`
	Improvements   []string             `json:"areasForImprovement"`
	Recommendation types.Recommendation `json:"recommendation"`
	Feedback       string               `json:"feedback,omitempty"`
}

// Coach produces a preparation plan from an evaluation and the transcript.
type Coach struct {
	PromptKey string
}

// NewCoach creates a coach using the given system prompt key.
func NewCoach(promptKey string) *Coach {
	if promptKey == "" {
		promptKey = DefaultSettings(RoleCoach).PromptKey
	}
	return &Coach{PromptKey: promptKey}
}

// Role returns the role name.
func (c *Coach) Role() string {
	return RoleCoach
}

// BuildPrompt builds the coaching request. An evaluation is required.
func (c *Coach) BuildPrompt(in Input) (Prompt, error) {
	if in.Evaluation == nil {
		return Prompt{}, &PromptError{Role: RoleCoach, Message: "evaluation is required"}
	}

	system, err := instructions(RoleCoach, c.PromptKey, coachOutput)
	if err != nil {
		return Prompt{}, err
	}

	evalJSON, err := json.MarshalIndent(evaluationSummary{
		OverallScore:   in.Evaluation.OverallScore,
		ScoreBreakdown: in.Evaluation.ScoreBreakdown,
		Strengths:      in.Evaluation.Strengths,
		Improvements:   in.Evaluation.Improvements,
		Recommendation: in.Evaluation.Recommendation,
		Feedback:       in.Evaluation.Feedback,
	}, "", "  ")
	if err != nil {
		return Prompt{}, &PromptError{Role: RoleCoach, Message: "failed to encode evaluation", Cause: err}
	}

	message, err := render(RoleCoach, "coach_request", map[string]string{
		"JobRole":         in.Session.JobRole,
		"ExperienceLevel": in.Session.ExperienceLevel,
		"Evaluation":      string(evalJSON),
		"Transcript":      conversation.Format(in.Transcript),
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Instructions: system, Message: message}, nil
}

// ParseResponse parses coach JSON output. SessionID and CreatedAt are left for the caller.
func (c *Coach) ParseResponse(raw string) (types.CoachingPlan, error) {
	var out coachingOutput
	if err := decode(RoleCoach, schemas.CoachingPlan, raw, &out); err != nil {
		return types.CoachingPlan{}, err
	}

	return types.CoachingPlan{
		Weakness:       out.Weakness,
		Impact:         out.Impact,
		LearningPath:   out.LearningPath,
		Resources:      out.Resources,
		NextCheckpoint: out.NextCheckpoint,
		Motivation:     out.Motivation,
	}, nil
}
