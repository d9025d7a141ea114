package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"consult-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const bookingColumns = `
	id, fan_id, creator_id, service_id, service_title, service_subtitle,
	question_type, question_text, question_media_url, question_submitted_at,
	response_type, response_media_url, response_submitted_at,
	status, payment_status, razorpay_order_id, razorpay_payment_id, razorpay_signature,
	amount_paid, expected_response_by, sla_met, follow_ups_remaining,
	fan_rating, fan_review, created_at, updated_at
`

type IBookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error)
	ListByFan(ctx context.Context, fanID uuid.UUID) ([]models.BookingWithCreator, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, status *models.BookingStatus) ([]models.BookingWithFan, error)
	SetQuestion(ctx context.Context, id uuid.UUID, qt models.QuestionType, text, mediaURL *string, submittedAt time.Time) error
	SetResponse(ctx context.Context, id uuid.UUID, rt models.ResponseType, mediaURL string, submittedAt time.Time, slaMet bool) error
	SetRating(ctx context.Context, id uuid.UUID, rating int, review *string) error
	Cancel(ctx context.Context, id uuid.UUID) error
	SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) error
	MarkPaid(ctx context.Context, orderID, paymentID, signature string) error
}

type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) IBookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, fan_id, creator_id, service_id, service_title, service_subtitle,
			status, payment_status, amount_paid, expected_response_by,
			follow_ups_remaining, created_at, updated_at
		) VALUES (
			:id, :fan_id, :creator_id, :service_id, :service_title, :service_subtitle,
			:status, :payment_status, :amount_paid, :expected_response_by,
			:follow_ups_remaining, :created_at, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by id: %w", err)
	}
	return &booking, nil
}

func (r *BookingRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE razorpay_order_id = $1`

	err := r.db.GetContext(ctx, &booking, query, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking for order %s", models.ErrNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by order id: %w", err)
	}
	return &booking, nil
}

func (r *BookingRepository) ListByFan(ctx context.Context, fanID uuid.UUID) ([]models.BookingWithCreator, error) {
	var bookings []models.BookingWithCreator
	query := `
		SELECT b.*, u.full_name AS creator_name, u.profile_image_url AS creator_profile_image_url
		FROM bookings b
		JOIN users u ON b.creator_id = u.id
		WHERE b.fan_id = $1
		ORDER BY b.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &bookings, query, fanID); err != nil {
		return nil, fmt.Errorf("failed to list fan bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID, status *models.BookingStatus) ([]models.BookingWithFan, error) {
	var bookings []models.BookingWithFan
	query := `
		SELECT b.*, u.full_name AS fan_name, u.email AS fan_email, u.profile_image_url AS fan_profile_image_url
		FROM bookings b
		JOIN users u ON b.fan_id = u.id
		WHERE b.creator_id = $1
	`
	args := []interface{}{creatorID}
	if status != nil {
		query += ` AND b.status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY b.created_at DESC`

	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list creator bookings: %w", err)
	}
	return bookings, nil
}

// SetQuestion records the question payload and moves the booking to
// awaiting_response. The status guard serializes racing submissions: the
// second caller matches zero rows and gets ErrInvalidState.
func (r *BookingRepository) SetQuestion(ctx context.Context, id uuid.UUID, qt models.QuestionType, text, mediaURL *string, submittedAt time.Time) error {
	query := `
		UPDATE bookings
		SET question_type = $2, question_text = $3, question_media_url = $4,
		    question_submitted_at = $5, status = $6, updated_at = now()
		WHERE id = $1 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query, id, qt, text, mediaURL, submittedAt,
		models.BookingAwaitingResponse, models.BookingPendingQuestion)
	if err != nil {
		return fmt.Errorf("failed to set question: %w", err)
	}
	return requireTransition(result, "question already submitted")
}

func (r *BookingRepository) SetResponse(ctx context.Context, id uuid.UUID, rt models.ResponseType, mediaURL string, submittedAt time.Time, slaMet bool) error {
	query := `
		UPDATE bookings
		SET response_type = $2, response_media_url = $3, response_submitted_at = $4,
		    sla_met = $5, status = $6, updated_at = now()
		WHERE id = $1 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query, id, rt, mediaURL, submittedAt, slaMet,
		models.BookingCompleted, models.BookingAwaitingResponse)
	if err != nil {
		return fmt.Errorf("failed to set response: %w", err)
	}
	return requireTransition(result, "booking is not awaiting a response")
}

// SetRating writes the rating once; the fan_rating IS NULL guard makes a
// second submission fail without touching the first value.
func (r *BookingRepository) SetRating(ctx context.Context, id uuid.UUID, rating int, review *string) error {
	query := `
		UPDATE bookings
		SET fan_rating = $2, fan_review = $3, updated_at = now()
		WHERE id = $1 AND status = $4 AND fan_rating IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id, rating, review, models.BookingCompleted)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return requireTransition(result, "booking is not completed or already rated")
}

func (r *BookingRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status IN ($3, $4)
	`
	result, err := r.db.ExecContext(ctx, query, id, models.BookingCancelled,
		models.BookingPendingQuestion, models.BookingAwaitingResponse)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	return requireTransition(result, "booking is not cancellable")
}

func (r *BookingRepository) SetPaymentOrder(ctx context.Context, id uuid.UUID, orderID string) error {
	query := `
		UPDATE bookings
		SET razorpay_order_id = $2, payment_status = $3, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, orderID, models.PaymentPending)
	if err != nil {
		return fmt.Errorf("failed to set payment order: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	return nil
}

func (r *BookingRepository) MarkPaid(ctx context.Context, orderID, paymentID, signature string) error {
	query := `
		UPDATE bookings
		SET payment_status = $2, razorpay_payment_id = $3, razorpay_signature = $4, updated_at = now()
		WHERE razorpay_order_id = $1
	`
	result, err := r.db.ExecContext(ctx, query, orderID, models.PaymentPaid, paymentID, signature)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking for order %s", models.ErrNotFound, orderID)
	}
	return nil
}

func requireTransition(result sql.Result, reason string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", models.ErrInvalidState, reason)
	}
	return nil
}
