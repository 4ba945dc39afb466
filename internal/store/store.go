// Package store defines session persistence and provides an in-memory implementation.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/types"
)

// Sentinel errors returned by every SessionStore implementation.
var (
	ErrNotFound               = errors.New("session not found")
	ErrAlreadyExists          = errors.New("session already exists")
	ErrConcurrentModification = errors.New("session was modified concurrently")
)

// History limits.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Record is everything persisted for one session: the session row, its turns, and the optional results.
type Record struct {
	Session    types.Session
	Log        *conversation.Log
	Evaluation *types.Evaluation
	Coaching   *types.CoachingPlan
}

// NewRecord creates a record with an empty log.
func NewRecord(session types.Session) *Record {
	return &Record{Session: session, Log: conversation.New(session.ID)}
}

// Clone returns a deep copy so callers can mutate it without touching stored state.
func (r *Record) Clone() *Record {
	out := &Record{Session: r.Session}
	if r.Session.CandidateID != nil {
		id := *r.Session.CandidateID
		out.Session.CandidateID = &id
	}
	if r.Session.EndedAt != nil {
		at := *r.Session.EndedAt
		out.Session.EndedAt = &at
	}
	if r.Log != nil {
		out.Log = r.Log.Clone()
	} else {
		out.Log = conversation.New(r.Session.ID)
	}
	if r.Evaluation != nil {
		eval := *r.Evaluation
		eval.Strengths = append([]string(nil), r.Evaluation.Strengths...)
		eval.Improvements = append([]string(nil), r.Evaluation.Improvements...)
		out.Evaluation = &eval
	}
	if r.Coaching != nil {
		plan := *r.Coaching
		plan.LearningPath = append([]string(nil), r.Coaching.LearningPath...)
		plan.Resources = append([]types.Resource(nil), r.Coaching.Resources...)
		out.Coaching = &plan
	}
	return out
}

// Mutator changes a record inside ConditionalUpdate. Returning an error aborts the update.
type Mutator func(rec *Record) error

// Reader is the read-only view used to build reports.
type Reader interface {
	GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error)
	ListTurns(ctx context.Context, id uuid.UUID) ([]types.ConversationTurn, error)
	// GetEvaluation returns nil, nil when the session has no evaluation yet.
	GetEvaluation(ctx context.Context, id uuid.UUID) (*types.Evaluation, error)
	// GetCoaching returns nil, nil when the session has no coaching plan yet.
	GetCoaching(ctx context.Context, id uuid.UUID) (*types.CoachingPlan, error)
}

// SessionStore persists interview sessions.
type SessionStore interface {
	Reader

	// Create stores a new record. It fails with ErrAlreadyExists.
	Create(ctx context.Context, rec *Record) error
	// Get loads a full record. It fails with ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	// ConditionalUpdate applies mutate atomically if the stored phase and revision still match.
	// A mismatch fails with ErrConcurrentModification and nothing is written.
	// On success the revision is incremented and the stored record is returned.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedPhase types.Phase, expectedRevision int64, mutate Mutator) (*Record, error)
	// ListByCandidate returns the candidate's sessions, newest first.
	ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]types.SessionSummary, error)
	// Stats aggregates every session of the candidate.
	Stats(ctx context.Context, candidateID uuid.UUID) (types.CandidateStats, error)
	// Delete removes the session with its turns, evaluation and coaching plan.
	Delete(ctx context.Context, id uuid.UUID) error
}

// NormalizeLimit applies the default and the cap to a history limit.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// CheckUpdate verifies that next is a legal successor of prev.
// Phases never move backwards, turns are only appended, and results are never removed.
func CheckUpdate(prev, next *Record) error {
	if next.Session.ID != prev.Session.ID {
		return fmt.Errorf("session id changed from %s to %s", prev.Session.ID, next.Session.ID)
	}
	if next.Session.Phase.Rank() < prev.Session.Phase.Rank() {
		return fmt.Errorf("phase regression from %s to %s", prev.Session.Phase, next.Session.Phase)
	}
	if next.Session.QuestionsAsked < prev.Session.QuestionsAsked {
		return fmt.Errorf("questions asked decreased from %d to %d", prev.Session.QuestionsAsked, next.Session.QuestionsAsked)
	}
	if next.Log == nil || next.Log.LastSequence() < prev.Log.LastSequence() {
		return fmt.Errorf("conversation log was truncated")
	}
	if prev.Evaluation != nil && next.Evaluation == nil {
		return fmt.Errorf("evaluation was removed")
	}
	if prev.Coaching != nil && next.Coaching == nil {
		return fmt.Errorf("coaching plan was removed")
	}
	return nil
}

// Summarize pairs a session with its overall score.
func Summarize(rec *Record) types.SessionSummary {
	summary := types.SessionSummary{Session: rec.Clone().Session}
	if rec.Evaluation != nil {
		score := rec.Evaluation.OverallScore
		summary.OverallScore = &score
	}
	return summary
}

// ComputeStats aggregates session summaries. The average covers evaluated sessions only
// and is rounded to two decimals.
func ComputeStats(summaries []types.SessionSummary) types.CandidateStats {
	stats := types.CandidateStats{JobRoles: []string{}}
	seenRoles := make(map[string]bool)
	var total float64

	for _, s := range summaries {
		stats.TotalInterviews++
		if s.OverallScore != nil {
			stats.EvaluatedInterviews++
			total += *s.OverallScore
		}
		if !seenRoles[s.Session.JobRole] {
			seenRoles[s.Session.JobRole] = true
			stats.JobRoles = append(stats.JobRoles, s.Session.JobRole)
		}
		if stats.LastInterview == nil || s.Session.CreatedAt.After(*stats.LastInterview) {
			created := s.Session.CreatedAt
			stats.LastInterview = &created
		}
	}

	if stats.EvaluatedInterviews > 0 {
		stats.AverageScore = RoundScore(total / float64(stats.EvaluatedInterviews))
	}
	sort.Strings(stats.JobRoles)
	return stats
}

// RoundScore rounds to two decimals.
func RoundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
