package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/model"
)

type ProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{pool: pool}
}

const proposalColumns = `
	id, conversation_id, tutor_id, student_id,
	subject, description, start_time, end_time,
	price_per_hour, total_price, status, expires_at,
	rejection_reason, session_id, created_at`

func scanProposal(row pgx.Row) (*model.SessionProposal, error) {
	var p model.SessionProposal
	var description, rejectionReason *string

	err := row.Scan(
		&p.ID, &p.ConversationID, &p.TutorID, &p.StudentID,
		&p.Subject, &description, &p.StartTime, &p.EndTime,
		&p.PricePerHour, &p.TotalPrice, &p.Status, &p.ExpiresAt,
		&rejectionReason, &p.SessionID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description != nil {
		p.Description = *description
	}
	if rejectionReason != nil {
		p.RejectionReason = *rejectionReason
	}

	return &p, nil
}

// Create inserts a new proposal.
func (r *ProposalRepository) Create(ctx context.Context, p *model.SessionProposal) error {
	query := `
		INSERT INTO session_proposals (
			id, conversation_id, tutor_id, student_id,
			subject, description, start_time, end_time,
			price_per_hour, total_price, status, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		p.ID, p.ConversationID, p.TutorID, p.StudentID,
		p.Subject, p.Description, p.StartTime, p.EndTime,
		p.PricePerHour, p.TotalPrice, p.Status, p.ExpiresAt,
	).Scan(&p.CreatedAt)

	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}

	return nil
}

// GetByID returns a proposal or nil when it does not exist.
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SessionProposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM session_proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get proposal by id: %w", err)
	}

	return p, nil
}

// GetPendingByConversation returns open proposals for a conversation.
func (r *ProposalRepository) GetPendingByConversation(ctx context.Context, conversationID uuid.UUID) ([]*model.SessionProposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM session_proposals
		WHERE conversation_id = $1 AND status = $2
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, conversationID, model.ProposalStatusProposed)
	if err != nil {
		return nil, fmt.Errorf("get pending proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.SessionProposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}

	return proposals, nil
}

// MarkAccepted flips a still-open proposal to accepted and links the created
// session. Returns false when the proposal was not in proposed state, so a
// concurrent accept or an expiry sweep wins cleanly.
func (r *ProposalRepository) MarkAccepted(ctx context.Context, id, sessionID uuid.UUID) (bool, error) {
	query := `
		UPDATE session_proposals
		SET status = $1, session_id = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query,
		model.ProposalStatusAccepted, sessionID, id, model.ProposalStatusProposed)
	if err != nil {
		return false, fmt.Errorf("mark proposal accepted: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkRejected flips a still-open proposal to rejected with the reason.
func (r *ProposalRepository) MarkRejected(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE session_proposals
		SET status = $1, rejection_reason = $2
		WHERE id = $3 AND status = $4
	`

	tag, err := r.pool.Exec(ctx, query,
		model.ProposalStatusRejected, reason, id, model.ProposalStatusProposed)
	if err != nil {
		return false, fmt.Errorf("mark proposal rejected: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkExpired flips a still-open proposal to expired. Invoked lazily when an
// accept or reject arrives past expires_at; expiry is observed, never driven
// by a timer.
func (r *ProposalRepository) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE session_proposals
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	tag, err := r.pool.Exec(ctx, query,
		model.ProposalStatusExpired, id, model.ProposalStatusProposed)
	if err != nil {
		return false, fmt.Errorf("mark proposal expired: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
