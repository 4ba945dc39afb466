package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
)

// CandidateRepository is the account storage used by CandidateService. *db.DB implements it.
type CandidateRepository interface {
	CreateCandidate(ctx context.Context, name, email, passwordHash string) (*db.Candidate, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*db.Candidate, error)
	GetCandidateByEmail(ctx context.Context, email string) (*db.Candidate, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// CandidateService provides business logic for candidate authentication
type CandidateService struct {
	repo           CandidateRepository
	passwordConfig *config.PasswordConfig
	log            *logging.Logger
}

// NewCandidateService creates a new CandidateService with the given dependencies
func NewCandidateService(repo CandidateRepository, passwordConfig *config.PasswordConfig, log *logging.Logger) *CandidateService {
	if log == nil {
		log = logging.Nop()
	}
	return &CandidateService{
		repo:           repo,
		passwordConfig: passwordConfig,
		log:            log,
	}
}

// toCandidate converts a db.Candidate to types.Candidate, excluding the password hash
func toCandidate(c *db.Candidate) *types.Candidate {
	if c == nil {
		return nil
	}
	return &types.Candidate{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
	}
}

// Register creates a new candidate account
func (s *CandidateService) Register(ctx context.Context, req *types.RegisterCandidateRequest) (*types.Candidate, error) {
	exists, err := s.repo.CheckEmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if exists {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The unique index still catches a registration racing this one.
	created, err := s.repo.CreateCandidate(ctx, req.Name, req.Email, passwordHash)
	if errors.Is(err, db.ErrEmailExists) {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	return toCandidate(created), nil
}

// Login authenticates a candidate by email and password
func (s *CandidateService) Login(ctx context.Context, req *types.LoginRequest) (*types.Candidate, error) {
	stored, err := s.repo.GetCandidateByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate by email: %w", err)
	}

	// Unknown email and wrong password look the same to the caller
	if stored == nil {
		return nil, &ErrInvalidCredentials{}
	}

	if err := s.passwordConfig.VerifyPassword(req.Password, stored.PasswordHash); err != nil {
		if errors.Is(err, config.ErrPasswordMismatch) {
			return nil, &ErrInvalidCredentials{}
		}
		return nil, err
	}

	if s.passwordConfig.NeedsRehash(stored.PasswordHash) {
		s.rehash(ctx, stored.ID, req.Password)
	}

	return toCandidate(stored), nil
}

// rehash upgrades a stored hash to the configured cost. Failures only cost a log line.
func (s *CandidateService) rehash(ctx context.Context, id uuid.UUID, password string) {
	hash, err := s.passwordConfig.HashPassword(password)
	if err == nil {
		err = s.repo.UpdatePassword(ctx, id, hash)
	}
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", zap.String("candidate_id", id.String()), zap.Error(err))
	}
}

// Get returns the candidate profile
func (s *CandidateService) Get(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	stored, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	if stored == nil {
		return nil, &ErrCandidateNotFound{CandidateID: id}
	}
	return toCandidate(stored), nil
}

// UpdatePassword replaces a candidate's password after checking the current one
func (s *CandidateService) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error {
	stored, err := s.repo.GetCandidate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get candidate: %w", err)
	}
	if stored == nil {
		return &ErrCandidateNotFound{CandidateID: id}
	}

	if err := s.passwordConfig.VerifyPassword(currentPassword, stored.PasswordHash); err != nil {
		if errors.Is(err, config.ErrPasswordMismatch) {
			return &ErrPasswordMismatch{}
		}
		return err
	}

	newPasswordHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, newPasswordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
