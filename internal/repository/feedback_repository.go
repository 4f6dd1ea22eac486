package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/model"
)

type FeedbackRepository struct {
	pool *pgxpool.Pool
}

func NewFeedbackRepository(pool *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{pool: pool}
}

// Create inserts a pending feedback record. The unique constraint on
// session_id makes a duplicate completion hook a no-op instead of a second
// record.
func (r *FeedbackRepository) Create(ctx context.Context, f *model.Feedback) error {
	query := `
		INSERT INTO feedback (id, session_id, tutor_id, student_id, status, due_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
		f.ID, f.SessionID, f.TutorID, f.StudentID, f.Status, f.DueAt)
	if err != nil {
		return fmt.Errorf("create feedback: %w", err)
	}

	return nil
}
