package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/model"
)

type ConversationRepository struct {
	pool *pgxpool.Pool
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{pool: pool}
}

// GetByID returns a conversation or nil when it does not exist.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	query := `
		SELECT id, student_id, tutor_id, trial_request_id, created_at
		FROM conversations
		WHERE id = $1
	`

	var c model.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.StudentID, &c.TutorID, &c.TrialRequestID, &c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation by id: %w", err)
	}

	return &c, nil
}
