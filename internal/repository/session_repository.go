package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tutorium/sessions/internal/model"
)

// SessionRepository persists sessions. Every lifecycle transition is a single
// conditional UPDATE guarded by the current status, so concurrent writers
// cannot interleave on the same row: whoever matches first wins, the loser
// affects zero rows.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `
	id, student_id, tutor_id, subject,
	start_time, end_time, duration_minutes, price_per_hour, total_price,
	status, started_at, completed_at, cancelled_at, expired_at,
	previous_start_time, previous_end_time,
	reschedule_requested_by, reschedule_requested_at,
	reschedule_new_start_time, reschedule_new_end_time,
	reschedule_reason, reschedule_status,
	reschedule_responded_by, reschedule_responded_at,
	proposal_id, conversation_id, trial_request_id,
	cancellation_reason, cancelled_by,
	created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	var (
		rescheduledBy   *uuid.UUID
		rescheduledAt   *time.Time
		newStart        *time.Time
		newEnd          *time.Time
		reason          *string
		rescheduleState *string
		respondedBy     *uuid.UUID
		respondedAt     *time.Time
		cancelReason    *string
	)

	err := row.Scan(
		&s.ID, &s.StudentID, &s.TutorID, &s.Subject,
		&s.StartTime, &s.EndTime, &s.DurationMinutes, &s.PricePerHour, &s.TotalPrice,
		&s.Status, &s.StartedAt, &s.CompletedAt, &s.CancelledAt, &s.ExpiredAt,
		&s.PreviousStartTime, &s.PreviousEndTime,
		&rescheduledBy, &rescheduledAt,
		&newStart, &newEnd,
		&reason, &rescheduleState,
		&respondedBy, &respondedAt,
		&s.ProposalID, &s.ConversationID, &s.TrialRequestID,
		&cancelReason, &s.CancelledBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if cancelReason != nil {
		s.CancellationReason = *cancelReason
	}

	if rescheduleState != nil {
		req := &model.RescheduleRequest{
			RequestedBy:  *rescheduledBy,
			RequestedAt:  *rescheduledAt,
			NewStartTime: *newStart,
			NewEndTime:   *newEnd,
			Status:       model.RescheduleStatus(*rescheduleState),
			RespondedBy:  respondedBy,
			RespondedAt:  respondedAt,
		}
		if reason != nil {
			req.Reason = *reason
		}
		s.Reschedule = req
	}

	return &s, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (
			id, student_id, tutor_id, subject,
			start_time, end_time, duration_minutes, price_per_hour, total_price,
			status, proposal_id, conversation_id, trial_request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		s.ID, s.StudentID, s.TutorID, s.Subject,
		s.StartTime, s.EndTime, s.DurationMinutes, s.PricePerHour, s.TotalPrice,
		s.Status, s.ProposalID, s.ConversationID, s.TrialRequestID,
	).Scan(&s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

// GetByID returns a session or nil when it does not exist.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	s, err := scanSession(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}

	return s, nil
}

// GetByParticipant returns all sessions the user takes part in, newest first.
func (r *SessionRepository) GetByParticipant(ctx context.Context, userID uuid.UUID) ([]*model.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE student_id = $1 OR tutor_id = $1
		ORDER BY start_time DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get sessions by participant: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, nil
}

// Cancel flips a scheduled session to cancelled. Returns false when the
// session was not in a cancellable state (or does not exist).
func (r *SessionRepository) Cancel(ctx context.Context, id, by uuid.UUID, reason string, at time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $1, cancelled_at = $2, cancelled_by = $3, cancellation_reason = $4, updated_at = $2
		WHERE id = $5 AND status = $6
	`

	tag, err := r.pool.Exec(ctx, query,
		model.SessionStatusCancelled, at, by, reason, id, model.SessionStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("cancel session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Complete finalizes a session from any non-terminal state. Returns false
// when the session was already terminal (or does not exist).
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status NOT IN ($4, $5, $6, $7)
	`

	tag, err := r.pool.Exec(ctx, query,
		model.SessionStatusCompleted, at, id,
		model.SessionStatusCompleted, model.SessionStatusCancelled,
		model.SessionStatusExpired, model.SessionStatusNoShow)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// InstallReschedule snapshots the current times and installs a pending
// reschedule request in one statement. The guard on status and on the absence
// of a pending request closes the race between two concurrent requests:
// only one of them affects a row.
func (r *SessionRepository) InstallReschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleRequest) (bool, error) {
	query := `
		UPDATE sessions
		SET previous_start_time = start_time,
		    previous_end_time = end_time,
		    reschedule_requested_by = $1,
		    reschedule_requested_at = $2,
		    reschedule_new_start_time = $3,
		    reschedule_new_end_time = $4,
		    reschedule_reason = $5,
		    reschedule_status = $6,
		    reschedule_responded_by = NULL,
		    reschedule_responded_at = NULL,
		    status = $7,
		    updated_at = $2
		WHERE id = $8
		  AND status IN ($9, $10)
		  AND (reschedule_status IS NULL OR reschedule_status <> $6)
	`

	tag, err := r.pool.Exec(ctx, query,
		req.RequestedBy, req.RequestedAt, req.NewStartTime, req.NewEndTime,
		req.Reason, model.RescheduleStatusPending,
		model.SessionStatusRescheduleRequested, id,
		model.SessionStatusScheduled, model.SessionStatusStartingSoon)
	if err != nil {
		return false, fmt.Errorf("install reschedule: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ApproveReschedule copies the requested times onto the live window, marks
// the request approved and returns the session to scheduled.
func (r *SessionRepository) ApproveReschedule(ctx context.Context, id, by uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET start_time = reschedule_new_start_time,
		    end_time = reschedule_new_end_time,
		    reschedule_status = $1,
		    reschedule_responded_by = $2,
		    reschedule_responded_at = $3,
		    status = $4,
		    updated_at = $3
		WHERE id = $5 AND status = $6 AND reschedule_status = $7
	`

	tag, err := r.pool.Exec(ctx, query,
		model.RescheduleStatusApproved, by, at,
		model.SessionStatusScheduled, id,
		model.SessionStatusRescheduleRequested, model.RescheduleStatusPending)
	if err != nil {
		return false, fmt.Errorf("approve reschedule: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// RejectReschedule marks the request rejected and returns the session to
// scheduled with its original times untouched.
func (r *SessionRepository) RejectReschedule(ctx context.Context, id, by uuid.UUID, at time.Time) (bool, error) {
	query := `
		UPDATE sessions
		SET reschedule_status = $1,
		    reschedule_responded_by = $2,
		    reschedule_responded_at = $3,
		    status = $4,
		    updated_at = $3
		WHERE id = $5 AND status = $6 AND reschedule_status = $7
	`

	tag, err := r.pool.Exec(ctx, query,
		model.RescheduleStatusRejected, by, at,
		model.SessionStatusScheduled, id,
		model.SessionStatusRescheduleRequested, model.RescheduleStatusPending)
	if err != nil {
		return false, fmt.Errorf("reject reschedule: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// MarkStartingSoon advances scheduled sessions whose start falls inside the
// upcoming window. Sweep rule 1.
func (r *SessionRepository) MarkStartingSoon(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	query := `
		UPDATE sessions
		SET status = $1, updated_at = $2
		WHERE status = $3 AND start_time <= $4 AND start_time > $2
	`

	tag, err := r.pool.Exec(ctx, query,
		model.SessionStatusStartingSoon, now,
		model.SessionStatusScheduled, now.Add(window))
	if err != nil {
		return 0, fmt.Errorf("mark starting soon: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MarkInProgress starts sessions whose window contains now, stamping
// started_at. Sweep rule 2.
func (r *SessionRepository) MarkInProgress(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET status = $1, started_at = $2, updated_at = $2
		WHERE status IN ($3, $4) AND start_time <= $2 AND end_time > $2
	`

	tag, err := r.pool.Exec(ctx, query,
		model.SessionStatusInProgress, now,
		model.SessionStatusScheduled, model.SessionStatusStartingSoon)
	if err != nil {
		return 0, fmt.Errorf("mark in progress: %w", err)
	}

	return tag.RowsAffected(), nil
}

// MarkExpired finalizes overdue in-progress sessions that nobody completed,
// stamping expired_at. Sweep rule 3.
func (r *SessionRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE sessions
		SET status = $1, expired_at = $2, updated_at = $2
		WHERE status = $3 AND end_time <= $2
	`

	tag, err := r.pool.Exec(ctx, query,
		model.SessionStatusExpired, now, model.SessionStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}

	return tag.RowsAffected(), nil
}

// CountCompletedByTutor returns a fresh count of completed sessions for the
// tutor, used by the level recalculation.
func (r *SessionRepository) CountCompletedByTutor(ctx context.Context, tutorID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE tutor_id = $1 AND status = $2`

	var count int
	err := r.pool.QueryRow(ctx, query, tutorID, model.SessionStatusCompleted).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}

	return count, nil
}
