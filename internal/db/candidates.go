package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const candidateColumns = `id, name, email, password_hash, created_at, updated_at`

// CreateCandidate inserts a candidate account. A taken email gives ErrEmailExists.
func (db *DB) CreateCandidate(ctx context.Context, name, email, passwordHash string) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidates (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING `+candidateColumns,
		name, email, passwordHash,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}
	return &c, nil
}

// GetCandidate retrieves a candidate by ID. Returns nil, nil when not found.
func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	return db.getCandidate(ctx, `WHERE id = $1`, id)
}

// GetCandidateByEmail retrieves a candidate by email. Returns nil, nil when not found.
func (db *DB) GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	if email == "" {
		return nil, nil
	}
	return db.getCandidate(ctx, `WHERE email = $1`, email)
}

func (db *DB) getCandidate(ctx context.Context, where string, arg any) (*Candidate, error) {
	var c Candidate
	err := db.pool.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates `+where,
		arg,
	).Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	return &c, nil
}

// CheckEmailExists reports whether an email is already registered.
func (db *DB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM candidates WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// UpdatePassword replaces a candidate's password hash.
func (db *DB) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE candidates SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate not found: %s", id)
	}
	return nil
}

// DeleteCandidate removes a candidate and, via cascade, their sessions.
func (db *DB) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("candidate not found: %s", id)
	}
	return nil
}
