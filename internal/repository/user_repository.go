package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/model"
)

// UserRepository is the identity/role provider: it answers who a user is and
// whether they are a verified tutor, and holds the level counters the
// completion hook recomputes.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID returns a user or nil when it does not exist.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, name, role, verified, pricing_tier, level, completed_sessions, created_at
		FROM users
		WHERE id = $1
	`

	var u model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name, &u.Role, &u.Verified,
		&u.PricingTier, &u.Level, &u.CompletedSessions, &u.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &u, nil
}

// UpdateTutorLevel stores the freshly recomputed counters for a tutor.
func (r *UserRepository) UpdateTutorLevel(ctx context.Context, tutorID uuid.UUID, level, completedSessions int) error {
	query := `
		UPDATE users
		SET level = $1, completed_sessions = $2
		WHERE id = $3
	`

	tag, err := r.pool.Exec(ctx, query, level, completedSessions, tutorID)
	if err != nil {
		return fmt.Errorf("update tutor level: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("tutor %s not found", tutorID)
	}

	return nil
}
