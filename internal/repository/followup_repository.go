package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"consult-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type IFollowUpRepository interface {
	SubmitFollowUp(ctx context.Context, followUp *models.FollowUpMessage) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.FollowUpMessage, error)
}

// FollowUpRepository is the transactional boundary for the bounded
// post-completion exchange: the message insert, the budget decrement and
// the reopen transition commit together or not at all.
type FollowUpRepository struct {
	db *sqlx.DB
}

func NewFollowUpRepository(db *sqlx.DB) IFollowUpRepository {
	return &FollowUpRepository{db: db}
}

func (r *FollowUpRepository) SubmitFollowUp(ctx context.Context, followUp *models.FollowUpMessage) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin follow-up transaction: %w", err)
	}
	defer tx.Rollback()

	// Guarded decrement-and-reopen. Zero rows means the booking is either
	// missing, not completed, or out of budget; classify below.
	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET follow_ups_remaining = follow_ups_remaining - 1, status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND follow_ups_remaining > 0
	`, followUp.BookingID, models.BookingAwaitingResponse, models.BookingCompleted)
	if err != nil {
		return fmt.Errorf("failed to consume follow-up budget: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return r.classifyRejection(ctx, tx, followUp.BookingID)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO follow_up_messages (id, booking_id, sender_type, message_type, text_content, media_url, created_at)
		VALUES (:id, :booking_id, :sender_type, :message_type, :text_content, :media_url, :created_at)
	`, followUp)
	if err != nil {
		return fmt.Errorf("failed to insert follow-up message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit follow-up transaction: %w", err)
	}
	return nil
}

func (r *FollowUpRepository) classifyRejection(ctx context.Context, tx *sqlx.Tx, bookingID uuid.UUID) error {
	var state struct {
		Status    models.BookingStatus `db:"status"`
		Remaining int                  `db:"follow_ups_remaining"`
	}
	err := tx.GetContext(ctx, &state,
		`SELECT status, follow_ups_remaining FROM bookings WHERE id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, bookingID)
	}
	if err != nil {
		return fmt.Errorf("failed to classify follow-up rejection: %w", err)
	}
	if state.Status != models.BookingCompleted {
		return fmt.Errorf("%w: follow-ups require a completed booking, status is %s",
			models.ErrInvalidState, state.Status)
	}
	return fmt.Errorf("%w: no follow-ups remaining", models.ErrQuotaExceeded)
}

func (r *FollowUpRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]models.FollowUpMessage, error) {
	var messages []models.FollowUpMessage
	query := `
		SELECT id, booking_id, sender_type, message_type, text_content, media_url, created_at
		FROM follow_up_messages
		WHERE booking_id = $1
		ORDER BY created_at ASC
	`
	if err := r.db.SelectContext(ctx, &messages, query, bookingID); err != nil {
		return nil, fmt.Errorf("failed to list follow-up messages: %w", err)
	}
	return messages, nil
}
