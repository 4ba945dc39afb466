// Package report assembles the read-only interview report.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

// NotReadyError is returned when a report is requested before the interview has ended.
type NotReadyError struct {
	SessionID uuid.UUID
	Phase     types.Phase
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("report for session %s not ready in phase %s", e.SessionID, e.Phase)
}

// Builder reads a session and its results and assembles a Report. It never writes.
type Builder struct {
	reader store.Reader
}

// NewBuilder creates a report builder over a store reader.
func NewBuilder(reader store.Reader) *Builder {
	return &Builder{reader: reader}
}

// Build returns the report for a session at or after COMPLETED.
// The same stored state always yields the same report.
func (b *Builder) Build(ctx context.Context, id uuid.UUID) (*types.Report, error) {
	session, err := b.reader.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.Phase.AtLeast(types.PhaseCompleted) {
		return nil, &NotReadyError{SessionID: id, Phase: session.Phase}
	}

	var (
		turns    []types.ConversationTurn
		eval     *types.Evaluation
		coaching *types.CoachingPlan
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		turns, err = b.reader.ListTurns(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		eval, err = b.reader.GetEvaluation(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		coaching, err = b.reader.GetCoaching(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if turns == nil {
		turns = []types.ConversationTurn{}
	}

	r := &types.Report{
		SessionID:       session.ID,
		CandidateID:     session.CandidateID,
		JobRole:         session.JobRole,
		ExperienceLevel: session.ExperienceLevel,
		Phase:           session.Phase,
		Status:          Status(session.Phase),
		QuestionsAsked:  session.QuestionsAsked,
		StartTime:       session.CreatedAt,
		EndTime:         session.EndedAt,
		Evaluation:      eval,
		Coaching:        coaching,
		Transcript:      turns,
	}
	if session.EndedAt != nil {
		r.DurationSeconds = int64(session.EndedAt.Sub(session.CreatedAt).Seconds())
	}
	return r, nil
}

// Status describes what the interview is waiting for.
func Status(p types.Phase) string {
	switch p {
	case types.PhaseInit, types.PhaseInProgress:
		return "in_progress"
	case types.PhaseCompleted:
		return "awaiting_evaluation"
	case types.PhaseEvaluated:
		return "awaiting_coaching"
	case types.PhaseCoached:
		return "complete"
	default:
		return "unknown"
	}
}

// JSON encodes the report with stable indentation.
func JSON(r *types.Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML encodes the report as YAML with the same keys as JSON.
func YAML(r *types.Report) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to convert report: %w", err)
	}
	return yaml.Marshal(doc)
}
