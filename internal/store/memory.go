package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/types"
)

// MemoryStore is a SessionStore kept in process memory. It backs --mock runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*Record),
	}
}

// Create stores a copy of rec.
func (s *MemoryStore) Create(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.Session.ID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, rec.Session.ID)
	}

	s.records[rec.Session.ID] = rec.Clone()
	return nil
}

// Get returns a copy of the stored record.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

// ConditionalUpdate mutates a copy under the write lock and swaps it in when the mutation is legal.
func (s *MemoryStore) ConditionalUpdate(_ context.Context, id uuid.UUID, expectedPhase types.Phase, expectedRevision int64, mutate Mutator) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if current.Session.Phase != expectedPhase || current.Session.Revision != expectedRevision {
		return nil, fmt.Errorf("%w: expected %s@%d, found %s@%d",
			ErrConcurrentModification, expectedPhase, expectedRevision, current.Session.Phase, current.Session.Revision)
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := CheckUpdate(current, next); err != nil {
		return nil, err
	}

	next.Session.Revision = current.Session.Revision + 1
	s.records[id] = next
	return next.Clone(), nil
}

// ListByCandidate returns the candidate's sessions, newest first.
func (s *MemoryStore) ListByCandidate(_ context.Context, candidateID uuid.UUID, limit int) ([]types.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []types.SessionSummary
	for _, rec := range s.records {
		if rec.Session.OwnedBy(candidateID) {
			result = append(result, Summarize(rec))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Session, result[j].Session
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})

	if limit = NormalizeLimit(limit); len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Stats aggregates every session of the candidate.
func (s *MemoryStore) Stats(_ context.Context, candidateID uuid.UUID) (types.CandidateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var summaries []types.SessionSummary
	for _, rec := range s.records {
		if rec.Session.OwnedBy(candidateID) {
			summaries = append(summaries, Summarize(rec))
		}
	}
	return ComputeStats(summaries), nil
}

// Delete removes the record.
func (s *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// GetSession returns the session row.
func (s *MemoryStore) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec.Session, nil
}

// ListTurns returns the session's turns in sequence order.
func (s *MemoryStore) ListTurns(ctx context.Context, id uuid.UUID) ([]types.ConversationTurn, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Log.Turns(), nil
}

// GetEvaluation returns the evaluation, or nil if there is none.
func (s *MemoryStore) GetEvaluation(ctx context.Context, id uuid.UUID) (*types.Evaluation, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Evaluation, nil
}

// GetCoaching returns the coaching plan, or nil if there is none.
func (s *MemoryStore) GetCoaching(ctx context.Context, id uuid.UUID) (*types.CoachingPlan, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Coaching, nil
}
