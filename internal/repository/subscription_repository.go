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

type ISubscriptionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	GetTier(ctx context.Context, tierID uuid.UUID) (*models.SubscriptionTier, error)
}

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) ISubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var subscription models.Subscription
	query := `
		SELECT id, fan_id, tier_id, creator_id, status,
		       current_period_start, current_period_end, messages_sent_this_period,
		       created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &subscription, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: subscription %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by id: %w", err)
	}
	return &subscription, nil
}

func (r *SubscriptionRepository) GetTier(ctx context.Context, tierID uuid.UUID) (*models.SubscriptionTier, error) {
	var tier models.SubscriptionTier
	query := `
		SELECT id, creator_id, tier_name, tier_type, price_inr,
		       max_messages_per_month, reply_sla_hours, is_active, created_at
		FROM subscription_tiers
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &tier, query, tierID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: tier %s", models.ErrNotFound, tierID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tier by id: %w", err)
	}
	return &tier, nil
}
