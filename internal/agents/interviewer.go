package agents

import (
	"strconv"
	"strings"

	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
)

// InterviewerTurn is the interviewer's next question with its metadata.
type InterviewerTurn struct {
	Question       string   `json:"question"`
	Rationale      string   `json:"context"`
	Difficulty     string   `json:"difficulty"`
	ExpectedDetail string   `json:"expectedLevelOfDetail"`
	Hints          []string `json:"hints"`
}

// Metadata returns the turn metadata stored with the question.
func (t InterviewerTurn) Metadata() *types.TurnMetadata {
	return &types.TurnMetadata{
		Rationale:      t.Rationale,
		Difficulty:     t.Difficulty,
		ExpectedDetail: t.ExpectedDetail,
		Hints:          t.Hints,
	}
}

var interviewerOutput = llm.OutputSchema{
	Name: "InterviewerTurn",
	Fields: []llm.SchemaField{
		{Name: "question", Type: "string", Description: "The single question to ask next", Required: true},
		{Name: "context", Type: "string", Description: "Why this question fits the role and the conversation"},
		{Name: "difficulty", Type: `"easy" | "medium" | "hard"`},
		{Name: "expectedLevelOfDetail", Type: "string", Description: "brief, moderate or detailed"},
		{Name: "hints", Type: `["string"]`, Description: "Hints to offer if the candidate gets stuck"},
	},
}

// Interviewer produces opening and follow-up questions.
type Interviewer struct {
	PromptKey string
}

// NewInterviewer creates an interviewer using the given system prompt key.
func NewInterviewer(promptKey string) *Interviewer {
	if promptKey == "" {
		promptKey = DefaultSettings(RoleInterviewer).PromptKey
	}
	return &Interviewer{PromptKey: promptKey}
}

// Role returns the role name.
func (i *Interviewer) Role() string {
	return RoleInterviewer
}

// BuildPrompt builds an opening request when the window is empty and a follow-up otherwise.
func (i *Interviewer) BuildPrompt(in Input) (Prompt, error) {
	system, err := instructions(RoleInterviewer, i.PromptKey, interviewerOutput)
	if err != nil {
		return Prompt{}, err
	}

	data := map[string]string{
		"JobRole":         in.Session.JobRole,
		"ExperienceLevel": in.Session.ExperienceLevel,
	}

	key := "interviewer_opening"
	if len(in.Window) > 0 {
		key = "interviewer_followup"
		data["QuestionsAsked"] = strconv.Itoa(in.Session.QuestionsAsked)
		data["Conversation"] = conversation.Format(in.Window)
	}

	message, err := render(RoleInterviewer, key, data)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{Instructions: system, Message: message}, nil
}

// ParseResponse parses interviewer JSON output.
func (i *Interviewer) ParseResponse(raw string) (InterviewerTurn, error) {
	var turn InterviewerTurn
	if err := decode(RoleInterviewer, schemas.InterviewerTurn, raw, &turn); err != nil {
		return InterviewerTurn{}, err
	}
	turn.Question = strings.TrimSpace(turn.Question)
	if turn.Question == "" {
		return InterviewerTurn{}, &MalformedResultError{Role: RoleInterviewer, Raw: raw}
	}
	return turn, nil
}
