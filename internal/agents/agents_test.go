package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockCompletionService is a mock implementation of llm.CompletionService for testing
type MockCompletionService struct {
	CompleteFunc func(ctx context.Context, req llm.Request) (string, error)
}

func (m *MockCompletionService) Complete(ctx context.Context, req llm.Request) (string, error) {
	return m.CompleteFunc(ctx, req)
}

func testSession() types.Session {
	return types.Session{
		ID:              uuid.New(),
		JobRole:         "Backend Engineer",
		ExperienceLevel: "3+ yrs",
		Phase:           types.PhaseInProgress,
		QuestionsAsked:  2,
	}
}

func testTurns(sessionID uuid.UUID) []types.ConversationTurn {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []types.ConversationTurn{
		{SessionID: sessionID, Speaker: types.SpeakerInterviewer, Text: "Tell me about yourself.", SequenceNumber: 1, Timestamp: at},
		{SessionID: sessionID, Speaker: types.SpeakerCandidate, Text: "I build APIs in Go.", SequenceNumber: 2, Timestamp: at},
	}
}

func TestInterviewer_BuildPrompt(t *testing.T) {
	session := testSession()
	interviewer := NewInterviewer("")

	t.Run("opening when window is empty", func(t *testing.T) {
		prompt, err := interviewer.BuildPrompt(Input{Session: session})
		require.NoError(t, err)
		assert.Contains(t, prompt.Message, "Start the interview for a Backend Engineer position. Candidate experience: 3+ yrs.")
		assert.Contains(t, prompt.Instructions, "Return ONLY valid JSON")
		assert.Contains(t, prompt.Instructions, `"question": string (required)`)
	})

	t.Run("follow-up includes the window", func(t *testing.T) {
		prompt, err := interviewer.BuildPrompt(Input{Session: session, Window: testTurns(session.ID)})
		require.NoError(t, err)
		assert.Contains(t, prompt.Message, "Job Role: Backend Engineer")
		assert.Contains(t, prompt.Message, "Questions asked so far: 2")
		assert.Contains(t, prompt.Message, "INTERVIEWER: Tell me about yourself.\nCANDIDATE: I build APIs in Go.")
		assert.NotContains(t, prompt.Message, "Start the interview")
	})

	t.Run("unknown prompt key", func(t *testing.T) {
		_, err := NewInterviewer("missing_key").BuildPrompt(Input{Session: session})
		var promptErr *PromptError
		assert.ErrorAs(t, err, &promptErr)
	})
}

func TestInterviewer_ParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		want      InterviewerTurn
		wantError bool
	}{
		{
			name: "plain JSON",
			raw:  `{"question": "What is a goroutine?", "context": "fundamentals", "difficulty": "easy", "expectedLevelOfDetail": "brief", "hints": ["scheduler"]}`,
			want: InterviewerTurn{Question: "What is a goroutine?", Rationale: "fundamentals", Difficulty: "easy", ExpectedDetail: "brief", Hints: []string{"scheduler"}},
		},
		{
			name: "fenced JSON",
			raw:  "```json\n{\"question\": \"  Explain channels.  \"}\n```",
			want: InterviewerTurn{Question: "Explain channels."},
		},
		{
			name:      "prose",
			raw:       "Sure! Here is my next question: what is Go?",
			wantError: true,
		},
		{
			name:      "blank question",
			raw:       `{"question": "   "}`,
			wantError: true,
		},
		{
			name:      "invalid difficulty",
			raw:       `{"question": "q", "difficulty": "insane"}`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewInterviewer("").ParseResponse(tt.raw)
			if tt.wantError {
				var malformed *MalformedResultError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, RoleInterviewer, malformed.Role)
				assert.Equal(t, tt.raw, malformed.Raw)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterviewerTurn_Metadata(t *testing.T) {
	turn := InterviewerTurn{Question: "q", Rationale: "r", Difficulty: "hard", ExpectedDetail: "detailed", Hints: []string{"h"}}
	assert.Equal(t, &types.TurnMetadata{Rationale: "r", Difficulty: "hard", ExpectedDetail: "detailed", Hints: []string{"h"}}, turn.Metadata())
}

func TestEvaluator_BuildPrompt(t *testing.T) {
	session := testSession()
	evaluator := NewEvaluator("")

	prompt, err := evaluator.BuildPrompt(Input{Session: session, Transcript: testTurns(session.ID)})
	require.NoError(t, err)
	assert.Contains(t, prompt.Message, "Interview Transcript:\nINTERVIEWER: Tell me about yourself.")
	assert.Contains(t, prompt.Instructions, "technicalKnowledge")

	_, err = evaluator.BuildPrompt(Input{Session: session})
	var promptErr *PromptError
	assert.ErrorAs(t, err, &promptErr)
}

func TestEvaluator_ParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantScore float64
		wantRec   types.Recommendation
		wantError bool
	}{
		{
			name:      "valid",
			raw:       `{"score": 72, "scoreBreakdown": {"technicalKnowledge": 30, "problemSolving": 18, "systemDesign": 12, "communication": 8, "awareness": 4}, "strengths": ["a"], "areasForImprovement": ["b"], "recommendation": "maybe"}`,
			wantScore: 72,
			wantRec:   types.RecommendationMaybe,
		},
		{
			name:      "score missing uses breakdown",
			raw:       `{"scoreBreakdown": {"technicalKnowledge": 20, "problemSolving": 10, "systemDesign": 5, "communication": 5, "awareness": 1}, "strengths": [], "areasForImprovement": [], "recommendation": "no_hire"}`,
			wantScore: 41,
			wantRec:   types.RecommendationNoHire,
		},
		{
			name:      "score within tolerance",
			raw:       `{"score": 73, "scoreBreakdown": {"technicalKnowledge": 30, "problemSolving": 18, "systemDesign": 12, "communication": 8, "awareness": 4}, "strengths": [], "areasForImprovement": [], "recommendation": "hire"}`,
			wantScore: 72,
			wantRec:   types.RecommendationHire,
		},
		{
			name:      "junior alias",
			raw:       `{"scoreBreakdown": {"technicalKnowledge": 25, "problemSolving": 15, "systemDesign": 10, "communication": 7, "awareness": 3}, "strengths": [], "areasForImprovement": [], "recommendation": "consider_for_junior"}`,
			wantScore: 60,
			wantRec:   types.RecommendationConsiderJunior,
		},
		{
			name:      "score mismatch",
			raw:       `{"score": 90, "scoreBreakdown": {"technicalKnowledge": 30, "problemSolving": 18, "systemDesign": 12, "communication": 8, "awareness": 4}, "strengths": [], "areasForImprovement": [], "recommendation": "hire"}`,
			wantError: true,
		},
		{
			name:      "component out of range",
			raw:       `{"scoreBreakdown": {"technicalKnowledge": 41, "problemSolving": 18, "systemDesign": 12, "communication": 8, "awareness": 4}, "strengths": [], "areasForImprovement": [], "recommendation": "hire"}`,
			wantError: true,
		},
		{
			name:      "not JSON",
			raw:       "The candidate did well overall.",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEvaluator("").ParseResponse(tt.raw)
			if tt.wantError {
				var malformed *MalformedResultError
				require.ErrorAs(t, err, &malformed)
				assert.Equal(t, tt.raw, malformed.Raw)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, got.OverallScore, 0.001)
			assert.InDelta(t, got.ScoreBreakdown.Total(), got.OverallScore, 0.001)
			assert.Equal(t, tt.wantRec, got.Recommendation)
		})
	}
}

func TestCoach_BuildPrompt(t *testing.T) {
	session := testSession()
	eval := &types.Evaluation{
		OverallScore:   72,
		ScoreBreakdown: types.ScoreBreakdown{TechnicalKnowledge: 30, ProblemSolving: 18, SystemDesign: 12, Communication: 8, Awareness: 4},
		Strengths:      []string{"clarity"},
		Improvements:   []string{"design depth"},
		Recommendation: types.RecommendationMaybe,
	}

	prompt, err := NewCoach("").BuildPrompt(Input{Session: session, Transcript: testTurns(session.ID), Evaluation: eval})
	require.NoError(t, err)
	assert.Contains(t, prompt.Message, `"areasForImprovement": [`)
	assert.Contains(t, prompt.Message, "design depth")
	assert.Contains(t, prompt.Message, "7-14 day preparation plan")

	_, err = NewCoach("").BuildPrompt(Input{Session: session})
	var promptErr *PromptError
	assert.ErrorAs(t, err, &promptErr)
}

func TestCoach_ParseResponse(t *testing.T) {
	plan, err := NewCoach("").ParseResponse(llm.DefaultScript()[RoleCoach][0])
	require.NoError(t, err)
	assert.Equal(t, "System design depth", plan.Weakness)
	require.Len(t, plan.Resources, 2)
	assert.Equal(t, "book", plan.Resources[0].Type)
	assert.Equal(t, "https://dataintensive.net", plan.Resources[0].Locator)
	assert.Len(t, plan.LearningPath, 3)

	_, err = NewCoach("").ParseResponse(`{"weakness": "x"}`)
	var malformed *MalformedResultError
	assert.ErrorAs(t, err, &malformed)
}

func TestRun(t *testing.T) {
	session := testSession()
	settings := DefaultSettings(RoleInterviewer)

	t.Run("passes role settings", func(t *testing.T) {
		mock := &MockCompletionService{CompleteFunc: func(_ context.Context, req llm.Request) (string, error) {
			assert.Equal(t, RoleInterviewer, req.Role)
			assert.Equal(t, settings.Tier, req.Tier)
			assert.Equal(t, settings.Timeout, req.Timeout)
			assert.True(t, req.JSON)
			return `{"question": "Why Go?"}`, nil
		}}

		turn, err := Run[InterviewerTurn](context.Background(), mock, NewInterviewer(""), settings, Input{Session: session})
		require.NoError(t, err)
		assert.Equal(t, "Why Go?", turn.Question)
	})

	t.Run("service errors are returned unchanged", func(t *testing.T) {
		upstream := &llm.TransientError{Message: "rate limited"}
		mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			return "", upstream
		}}

		_, err := Run[InterviewerTurn](context.Background(), mock, NewInterviewer(""), settings, Input{Session: session})
		assert.True(t, errors.Is(err, upstream))
	})

	t.Run("prompt errors skip the service", func(t *testing.T) {
		mock := &MockCompletionService{CompleteFunc: func(_ context.Context, _ llm.Request) (string, error) {
			t.Fatal("service should not be called")
			return "", nil
		}}

		_, err := Run[types.Evaluation](context.Background(), mock, NewEvaluator(""), DefaultSettings(RoleEvaluator), Input{Session: session})
		var promptErr *PromptError
		assert.ErrorAs(t, err, &promptErr)
	})
}

func TestDefaultSettings(t *testing.T) {
	for _, role := range Roles() {
		s := DefaultSettings(role)
		assert.NotEmpty(t, s.PromptKey, role)
		assert.Positive(t, s.Timeout, role)
	}
	assert.Equal(t, llm.TierAdvanced, DefaultSettings(RoleEvaluator).Tier)
}
