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

const messageColumns = `
	id, subscription_id, sender_id, receiver_id, message_type,
	content, media_url, status, is_fan_message, replied_at, created_at
`

type IMessageRepository interface {
	CreateFanMessage(ctx context.Context, message *models.Message, maxPerMonth int) error
	CreateReply(ctx context.Context, reply *models.Message, originalID uuid.UUID, repliedAt time.Time) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListThread(ctx context.Context, subscriptionID uuid.UUID, offset, limit int) ([]models.Message, error)
}

type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) IMessageRepository {
	return &MessageRepository{db: db}
}

// CreateFanMessage is the quota ledger's reserve path: the period counter
// increment and the message insert commit in one transaction. The guard
// `messages_sent_this_period < limit` makes two concurrent sends at the
// boundary race on the row; one matches, the other gets ErrQuotaExceeded.
func (r *MessageRepository) CreateFanMessage(ctx context.Context, message *models.Message, maxPerMonth int) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin message transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE subscriptions
		SET messages_sent_this_period = messages_sent_this_period + 1, updated_at = now()
		WHERE id = $1 AND status = $2 AND messages_sent_this_period < $3
	`, message.SubscriptionID, models.SubscriptionActive, maxPerMonth)
	if err != nil {
		return fmt.Errorf("failed to reserve message slot: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return r.classifyRejection(ctx, tx, message.SubscriptionID)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO messages (id, subscription_id, sender_id, receiver_id, message_type,
		                      content, media_url, status, is_fan_message, created_at)
		VALUES (:id, :subscription_id, :sender_id, :receiver_id, :message_type,
		        :content, :media_url, :status, :is_fan_message, :created_at)
	`, message)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message transaction: %w", err)
	}
	return nil
}

func (r *MessageRepository) classifyRejection(ctx context.Context, tx *sqlx.Tx, subscriptionID uuid.UUID) error {
	var state struct {
		Status models.SubscriptionStatus `db:"status"`
	}
	err := tx.GetContext(ctx, &state, `SELECT status FROM subscriptions WHERE id = $1`, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: subscription %s", models.ErrNotFound, subscriptionID)
	}
	if err != nil {
		return fmt.Errorf("failed to classify message rejection: %w", err)
	}
	if state.Status != models.SubscriptionActive {
		return fmt.Errorf("%w: subscription is %s", models.ErrInvalidState, state.Status)
	}
	return fmt.Errorf("%w: monthly message limit reached", models.ErrQuotaExceeded)
}

// CreateReply files a creator reply and flips the original message from
// pending to replied. The status guard enforces the reply-at-most-once
// invariant; replied_at is written exactly once.
func (r *MessageRepository) CreateReply(ctx context.Context, reply *models.Message, originalID uuid.UUID, repliedAt time.Time) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin reply transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE messages
		SET status = $2, replied_at = $3
		WHERE id = $1 AND status = $4 AND is_fan_message = TRUE
	`, originalID, models.MessageReplied, repliedAt, models.MessagePending)
	if err != nil {
		return fmt.Errorf("failed to mark message replied: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: message already replied", models.ErrInvalidState)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO messages (id, subscription_id, sender_id, receiver_id, message_type,
		                      content, media_url, status, is_fan_message, created_at)
		VALUES (:id, :subscription_id, :sender_id, :receiver_id, :message_type,
		        :content, :media_url, :status, :is_fan_message, :created_at)
	`, reply)
	if err != nil {
		return fmt.Errorf("failed to insert reply: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reply transaction: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var message models.Message
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	err := r.db.GetContext(ctx, &message, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	return &message, nil
}

func (r *MessageRepository) ListThread(ctx context.Context, subscriptionID uuid.UUID, offset, limit int) ([]models.Message, error) {
	var messages []models.Message
	query := `SELECT ` + messageColumns + `
		FROM messages
		WHERE subscription_id = $1
		ORDER BY created_at ASC
		OFFSET $2 LIMIT $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, subscriptionID, offset, limit); err != nil {
		return nil, fmt.Errorf("failed to list message thread: %w", err)
	}
	return messages, nil
}
