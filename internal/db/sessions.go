package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/interview-coach/internal/conversation"
	"github.com/jonathan/interview-coach/internal/store"
	"github.com/jonathan/interview-coach/internal/types"
)

const uniqueViolation = "23505"

const sessionColumns = `id, candidate_id, job_role, experience_level, phase, questions_asked, revision, created_at, ended_at`

// Create inserts the session and any turns or results it already carries.
func (db *DB) Create(ctx context.Context, rec *store.Record) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		s := rec.Session
		_, err := tx.Exec(ctx,
			`INSERT INTO interview_sessions (`+sessionColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			s.ID, s.CandidateID, s.JobRole, s.ExperienceLevel, string(s.Phase), s.QuestionsAsked, s.Revision, s.CreatedAt, s.EndedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: %s", store.ErrAlreadyExists, s.ID)
			}
			return fmt.Errorf("failed to create session: %w", err)
		}

		if rec.Log != nil {
			if err := insertTurns(ctx, tx, rec.Log.Turns()); err != nil {
				return err
			}
		}
		if rec.Evaluation != nil {
			if err := insertEvaluation(ctx, tx, s.ID, rec.Evaluation); err != nil {
				return err
			}
		}
		if rec.Coaching != nil {
			if err := insertCoaching(ctx, tx, s.ID, rec.Coaching); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get loads the full record.
func (db *DB) Get(ctx context.Context, id uuid.UUID) (*store.Record, error) {
	return loadRecord(ctx, db.pool, id, false)
}

// ConditionalUpdate locks the session row, checks phase and revision, applies mutate,
// and writes only what changed: new turns, new results, and the session row.
func (db *DB) ConditionalUpdate(ctx context.Context, id uuid.UUID, expectedPhase types.Phase, expectedRevision int64, mutate store.Mutator) (*store.Record, error) {
	var updated *store.Record
	err := db.inTx(ctx, func(tx pgx.Tx) error {
		current, err := loadRecord(ctx, tx, id, true)
		if err != nil {
			return err
		}
		if current.Session.Phase != expectedPhase || current.Session.Revision != expectedRevision {
			return fmt.Errorf("%w: expected %s@%d, found %s@%d",
				store.ErrConcurrentModification, expectedPhase, expectedRevision, current.Session.Phase, current.Session.Revision)
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			return err
		}
		if err := store.CheckUpdate(current, next); err != nil {
			return err
		}

		if err := insertTurns(ctx, tx, next.Log.Since(current.Log.LastSequence())); err != nil {
			return err
		}
		if current.Evaluation == nil && next.Evaluation != nil {
			if err := insertEvaluation(ctx, tx, id, next.Evaluation); err != nil {
				return err
			}
		}
		if current.Coaching == nil && next.Coaching != nil {
			if err := insertCoaching(ctx, tx, id, next.Coaching); err != nil {
				return err
			}
		}

		s := next.Session
		tag, err := tx.Exec(ctx,
			`UPDATE interview_sessions
			 SET phase = $1, questions_asked = $2, ended_at = $3, revision = revision + 1
			 WHERE id = $4 AND revision = $5`,
			string(s.Phase), s.QuestionsAsked, s.EndedAt, id, expectedRevision,
		)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: session %s", store.ErrConcurrentModification, id)
		}

		next.Session.Revision = expectedRevision + 1
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListByCandidate returns the candidate's sessions, newest first. uuid.Nil lists anonymous sessions.
func (db *DB) ListByCandidate(ctx context.Context, candidateID uuid.UUID, limit int) ([]types.SessionSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT s.id, s.candidate_id, s.job_role, s.experience_level, s.phase, s.questions_asked,
		        s.revision, s.created_at, s.ended_at, e.overall_score
		 FROM interview_sessions s
		 LEFT JOIN evaluations e ON e.session_id = s.id
		 WHERE s.candidate_id IS NOT DISTINCT FROM $1
		 ORDER BY s.created_at DESC, s.id
		 LIMIT $2`,
		candidateParam(candidateID), store.NormalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []types.SessionSummary
	for rows.Next() {
		var summary types.SessionSummary
		var phase string
		s := &summary.Session
		if err := rows.Scan(&s.ID, &s.CandidateID, &s.JobRole, &s.ExperienceLevel, &phase, &s.QuestionsAsked,
			&s.Revision, &s.CreatedAt, &s.EndedAt, &summary.OverallScore); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if s.Phase, err = types.ParsePhase(phase); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return summaries, nil
}

// Stats aggregates every session of the candidate in one query.
func (db *DB) Stats(ctx context.Context, candidateID uuid.UUID) (types.CandidateStats, error) {
	var stats types.CandidateStats
	var avg *float64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(e.session_id), AVG(e.overall_score), MAX(s.created_at),
		        COALESCE(ARRAY_AGG(DISTINCT s.job_role ORDER BY s.job_role) FILTER (WHERE s.job_role IS NOT NULL), '{}')
		 FROM interview_sessions s
		 LEFT JOIN evaluations e ON e.session_id = s.id
		 WHERE s.candidate_id IS NOT DISTINCT FROM $1`,
		candidateParam(candidateID),
	).Scan(&stats.TotalInterviews, &stats.EvaluatedInterviews, &avg, &stats.LastInterview, &stats.JobRoles)
	if err != nil {
		return types.CandidateStats{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	if avg != nil {
		stats.AverageScore = store.RoundScore(*avg)
	}
	if stats.JobRoles == nil {
		stats.JobRoles = []string{}
	}
	return stats, nil
}

// Delete removes the session; turns, evaluation and coaching plan go with it via cascade.
func (db *DB) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return nil
}

// GetSession returns the session row.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	return getSession(ctx, db.pool, id, false)
}

// ListTurns returns the session's turns in sequence order.
func (db *DB) ListTurns(ctx context.Context, id uuid.UUID) ([]types.ConversationTurn, error) {
	return listTurns(ctx, db.pool, id)
}

// GetEvaluation returns the evaluation, or nil if there is none.
func (db *DB) GetEvaluation(ctx context.Context, id uuid.UUID) (*types.Evaluation, error) {
	return getEvaluation(ctx, db.pool, id)
}

// GetCoaching returns the coaching plan, or nil if there is none.
func (db *DB) GetCoaching(ctx context.Context, id uuid.UUID) (*types.CoachingPlan, error) {
	return getCoaching(ctx, db.pool, id)
}

func candidateParam(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func loadRecord(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*store.Record, error) {
	session, err := getSession(ctx, q, id, forUpdate)
	if err != nil {
		return nil, err
	}

	turns, err := listTurns(ctx, q, id)
	if err != nil {
		return nil, err
	}
	log, err := conversation.Restore(id, turns)
	if err != nil {
		return nil, fmt.Errorf("stored conversation is inconsistent: %w", err)
	}

	rec := &store.Record{Session: *session, Log: log}
	if rec.Evaluation, err = getEvaluation(ctx, q, id); err != nil {
		return nil, err
	}
	if rec.Coaching, err = getCoaching(ctx, q, id); err != nil {
		return nil, err
	}
	return rec, nil
}

func getSession(ctx context.Context, q querier, id uuid.UUID, forUpdate bool) (*types.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM interview_sessions WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var s types.Session
	var phase string
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.CandidateID, &s.JobRole, &s.ExperienceLevel, &phase, &s.QuestionsAsked, &s.Revision, &s.CreatedAt, &s.EndedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if s.Phase, err = types.ParsePhase(phase); err != nil {
		return nil, err
	}
	return &s, nil
}

func listTurns(ctx context.Context, q querier, id uuid.UUID) ([]types.ConversationTurn, error) {
	rows, err := q.Query(ctx,
		`SELECT sequence_number, speaker, text, metadata, created_at
		 FROM conversation_turns WHERE session_id = $1 ORDER BY sequence_number`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	defer rows.Close()

	var turns []types.ConversationTurn
	for rows.Next() {
		turn := types.ConversationTurn{SessionID: id}
		var speaker string
		var metadata []byte
		if err := rows.Scan(&turn.SequenceNumber, &speaker, &turn.Text, &metadata, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Speaker = types.Speaker(speaker)
		if len(metadata) > 0 {
			turn.Metadata = &types.TurnMetadata{}
			if err := json.Unmarshal(metadata, turn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode turn metadata: %w", err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list turns: %w", err)
	}
	return turns, nil
}

func insertTurns(ctx context.Context, q querier, turns []types.ConversationTurn) error {
	for _, turn := range turns {
		var metadata []byte
		if turn.Metadata != nil {
			var err error
			if metadata, err = json.Marshal(turn.Metadata); err != nil {
				return fmt.Errorf("failed to encode turn metadata: %w", err)
			}
		}
		_, err := q.Exec(ctx,
			`INSERT INTO conversation_turns (session_id, sequence_number, speaker, text, metadata, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			turn.SessionID, turn.SequenceNumber, string(turn.Speaker), turn.Text, metadata, turn.Timestamp,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("%w: turn %d already stored", store.ErrConcurrentModification, turn.SequenceNumber)
			}
			return fmt.Errorf("failed to insert turn %d: %w", turn.SequenceNumber, err)
		}
	}
	return nil
}

func getEvaluation(ctx context.Context, q querier, id uuid.UUID) (*types.Evaluation, error) {
	e := types.Evaluation{SessionID: id}
	var strengths, improvements StringArray
	var recommendation string
	b := &e.ScoreBreakdown
	err := q.QueryRow(ctx,
		`SELECT overall_score, technical_knowledge, problem_solving, system_design, communication, awareness,
		        strengths, improvements, recommendation, feedback, created_at
		 FROM evaluations WHERE session_id = $1`,
		id,
	).Scan(&e.OverallScore, &b.TechnicalKnowledge, &b.ProblemSolving, &b.SystemDesign, &b.Communication, &b.Awareness,
		&strengths, &improvements, &recommendation, &e.Feedback, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	e.Strengths = strengths
	e.Improvements = improvements
	e.Recommendation = types.Recommendation(recommendation)
	return &e, nil
}

func insertEvaluation(ctx context.Context, q querier, id uuid.UUID, e *types.Evaluation) error {
	b := e.ScoreBreakdown
	_, err := q.Exec(ctx,
		`INSERT INTO evaluations (session_id, overall_score, technical_knowledge, problem_solving, system_design,
		                          communication, awareness, strengths, improvements, recommendation, feedback, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, e.OverallScore, b.TechnicalKnowledge, b.ProblemSolving, b.SystemDesign, b.Communication, b.Awareness,
		StringArray(e.Strengths), StringArray(e.Improvements), string(e.Recommendation), e.Feedback, nonZero(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation: %w", err)
	}
	return nil
}

func getCoaching(ctx context.Context, q querier, id uuid.UUID) (*types.CoachingPlan, error) {
	p := types.CoachingPlan{SessionID: id}
	var learningPath StringArray
	var resources []byte
	err := q.QueryRow(ctx,
		`SELECT weakness, impact, learning_path, resources, next_checkpoint, motivation, created_at
		 FROM coaching_plans WHERE session_id = $1`,
		id,
	).Scan(&p.Weakness, &p.Impact, &learningPath, &resources, &p.NextCheckpoint, &p.Motivation, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get coaching plan: %w", err)
	}
	p.LearningPath = learningPath
	if len(resources) > 0 {
		if err := json.Unmarshal(resources, &p.Resources); err != nil {
			return nil, fmt.Errorf("failed to decode resources: %w", err)
		}
	}
	return &p, nil
}

func insertCoaching(ctx context.Context, q querier, id uuid.UUID, p *types.CoachingPlan) error {
	resources := p.Resources
	if resources == nil {
		resources = []types.Resource{}
	}
	resourcesJSON, err := json.Marshal(resources)
	if err != nil {
		return fmt.Errorf("failed to encode resources: %w", err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO coaching_plans (session_id, weakness, impact, learning_path, resources, next_checkpoint, motivation, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, p.Weakness, p.Impact, StringArray(p.LearningPath), resourcesJSON, p.NextCheckpoint, p.Motivation, nonZero(p.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert coaching plan: %w", err)
	}
	return nil
}

func nonZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
