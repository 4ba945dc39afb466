// Package types provides type definitions for structured data used throughout the interview-coach system.
package types

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Phase is the stage of an interview session in the linear workflow.
type Phase string

// Phase constants in workflow order.
const (
	PhaseInit       Phase = "init"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
	PhaseEvaluated  Phase = "evaluated"
	PhaseCoached    Phase = "coached"
)

// phaseOrder maps each phase to its position in the workflow.
var phaseOrder = map[Phase]int{
	PhaseInit:       0,
	PhaseInProgress: 1,
	PhaseCompleted:  2,
	PhaseEvaluated:  3,
	PhaseCoached:    4,
}

// AllPhases returns the phases in workflow order.
func AllPhases() []Phase {
	return []Phase{PhaseInit, PhaseInProgress, PhaseCompleted, PhaseEvaluated, PhaseCoached}
}

// Rank returns the position of the phase in the workflow, or -1 for unknown phases.
func (p Phase) Rank() int {
	if r, ok := phaseOrder[p]; ok {
		return r
	}
	return -1
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	return p.Rank() >= 0
}

// AtLeast reports whether p is the same as or later than other.
func (p Phase) AtLeast(other Phase) bool {
	return p.Valid() && p.Rank() >= other.Rank()
}

// ParsePhase converts a stored string into a Phase.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown phase: %q", s)
	}
	return p, nil
}

// Speaker identifies who produced a conversation turn.
type Speaker string

// Speaker constants.
const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Session is one candidate's end-to-end interview instance.
type Session struct {
	ID              uuid.UUID  `json:"interview_id"`
	CandidateID     *uuid.UUID `json:"candidate_id,omitempty"`
	JobRole         string     `json:"job_role"`
	ExperienceLevel string     `json:"experience_level"`
	Phase           Phase      `json:"phase"`
	QuestionsAsked  int        `json:"questions_asked"`
	Revision        int64      `json:"revision"` // Incremented on every persisted update
	CreatedAt       time.Time  `json:"created_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

// OwnedBy reports whether the session belongs to the given candidate.
// Sessions created without a candidate are only visible to anonymous callers.
func (s *Session) OwnedBy(candidateID uuid.UUID) bool {
	if s.CandidateID == nil {
		return candidateID == uuid.Nil
	}
	return *s.CandidateID == candidateID
}

// TurnMetadata holds the structured details the interviewer attached to a question.
type TurnMetadata struct {
	Rationale      string   `json:"rationale,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	ExpectedDetail string   `json:"expected_level_of_detail,omitempty"`
	Hints          []string `json:"hints,omitempty"`
}

// Clone returns an independent copy, or nil for a nil receiver.
func (m *TurnMetadata) Clone() *TurnMetadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Hints != nil {
		out.Hints = append([]string(nil), m.Hints...)
	}
	return &out
}

// ConversationTurn is a single utterance in the interview dialogue.
type ConversationTurn struct {
	SessionID      uuid.UUID     `json:"interview_id"`
	Speaker        Speaker       `json:"speaker"`
	Text           string        `json:"text"`
	SequenceNumber int           `json:"sequence_number"`
	Timestamp      time.Time     `json:"timestamp"`
	Metadata       *TurnMetadata `json:"metadata,omitempty"`
}

// Recommendation is the evaluator's hiring recommendation.
type Recommendation string

// Recommendation constants.
const (
	RecommendationHire           Recommendation = "hire"
	RecommendationMaybe          Recommendation = "maybe"
	RecommendationConsiderJunior Recommendation = "consider_junior"
	RecommendationNoHire         Recommendation = "no_hire"
)

// ParseRecommendation normalizes evaluator output into a Recommendation.
// "consider_for_junior" is accepted as an alias of consider_junior.
func ParseRecommendation(s string) (Recommendation, error) {
	switch Recommendation(s) {
	case RecommendationHire, RecommendationMaybe, RecommendationConsiderJunior, RecommendationNoHire:
		return Recommendation(s), nil
	}
	if s == "consider_for_junior" {
		return RecommendationConsiderJunior, nil
	}
	return "", fmt.Errorf("unknown recommendation: %q", s)
}

// Score component maximums.
const (
	MaxTechnicalKnowledge = 40
	MaxProblemSolving     = 25
	MaxSystemDesign       = 20
	MaxCommunication      = 10
	MaxAwareness          = 5
)

// ScoreBreakdown holds the named evaluation components. They sum to the overall score.
type ScoreBreakdown struct {
	TechnicalKnowledge float64 `json:"technicalKnowledge"`
	ProblemSolving     float64 `json:"problemSolving"`
	SystemDesign       float64 `json:"systemDesign"`
	Communication      float64 `json:"communication"`
	Awareness          float64 `json:"awareness"`
}

// Total returns the sum of all components.
func (b ScoreBreakdown) Total() float64 {
	return b.TechnicalKnowledge + b.ProblemSolving + b.SystemDesign + b.Communication + b.Awareness
}

// Validate checks every component is within its allowed range.
func (b ScoreBreakdown) Validate() error {
	components := []struct {
		name  string
		value float64
		max   float64
	}{
		{"technicalKnowledge", b.TechnicalKnowledge, MaxTechnicalKnowledge},
		{"problemSolving", b.ProblemSolving, MaxProblemSolving},
		{"systemDesign", b.SystemDesign, MaxSystemDesign},
		{"communication", b.Communication, MaxCommunication},
		{"awareness", b.Awareness, MaxAwareness},
	}
	for _, c := range components {
		if c.value < 0 || c.value > c.max {
			return fmt.Errorf("%s score %.2f out of range [0, %.0f]", c.name, c.value, c.max)
		}
	}
	return nil
}

// scoreTolerance absorbs floating point drift when comparing an overall score with its breakdown.
const scoreTolerance = 0.01

// Evaluation is the evaluator's structured assessment of a completed interview.
type Evaluation struct {
	SessionID      uuid.UUID      `json:"interview_id"`
	OverallScore   float64        `json:"overall_score"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
	Strengths      []string       `json:"strengths"`
	Improvements   []string       `json:"improvements"`
	Recommendation Recommendation `json:"recommendation"`
	Feedback       string         `json:"feedback,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Validate checks the evaluation is internally consistent.
func (e *Evaluation) Validate() error {
	if err := e.ScoreBreakdown.Validate(); err != nil {
		return err
	}
	if total := e.ScoreBreakdown.Total(); math.Abs(total-e.OverallScore) > scoreTolerance {
		return fmt.Errorf("overall score %.2f does not match breakdown total %.2f", e.OverallScore, total)
	}
	if _, err := ParseRecommendation(string(e.Recommendation)); err != nil {
		return err
	}
	return nil
}

// Resource is a learning resource recommended by the coach.
type Resource struct {
	Type       string `json:"type"`       // course, book, practice, community
	Title      string `json:"title"`
	Locator    string `json:"url,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // beginner, intermediate, advanced
}

// CoachingPlan is the coach's preparation plan derived from an evaluation.
type CoachingPlan struct {
	SessionID      uuid.UUID  `json:"interview_id"`
	Weakness       string     `json:"weakness"`
	Impact         string     `json:"impact,omitempty"`
	LearningPath   []string   `json:"learning_path"`
	Resources      []Resource `json:"resources"`
	NextCheckpoint string     `json:"next_checkpoint,omitempty"`
	Motivation     string     `json:"motivation,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Report is the read-only summary of an interview at or after completion.
type Report struct {
	SessionID       uuid.UUID          `json:"interview_id"`
	CandidateID     *uuid.UUID         `json:"candidate_id,omitempty"`
	JobRole         string             `json:"job_role"`
	ExperienceLevel string             `json:"experience_level"`
	Phase           Phase              `json:"phase"`
	Status          string             `json:"status"`
	QuestionsAsked  int                `json:"questions_asked"`
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	DurationSeconds int64              `json:"duration_seconds,omitempty"`
	Evaluation      *Evaluation        `json:"evaluation,omitempty"`
	Coaching        *CoachingPlan      `json:"coaching,omitempty"`
	Transcript      []ConversationTurn `json:"transcript"`
}

// SessionSummary pairs a session with its overall score, if evaluated.
type SessionSummary struct {
	Session      Session  `json:"session"`
	OverallScore *float64 `json:"overall_score,omitempty"`
}

// CandidateStats aggregates a candidate's interview history.
type CandidateStats struct {
	TotalInterviews     int        `json:"total_interviews"`
	EvaluatedInterviews int        `json:"evaluated_interviews"`
	AverageScore        float64    `json:"average_score"`
	JobRoles            []string   `json:"job_roles"`
	LastInterview       *time.Time `json:"last_interview,omitempty"`
}
