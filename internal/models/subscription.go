package models

import (
	"time"

	"github.com/google/uuid"
)

type SubscriptionTier struct {
	ID                  uuid.UUID   `json:"id" db:"id"`
	CreatorID           uuid.UUID   `json:"creator_id" db:"creator_id"`
	TierName            string      `json:"tier_name" db:"tier_name"`
	TierType            MessageType `json:"tier_type" db:"tier_type"`
	PriceINR            float64     `json:"price_inr" db:"price_inr"`
	MaxMessagesPerMonth int         `json:"max_messages_per_month" db:"max_messages_per_month"`
	ReplySLAHours       int         `json:"reply_sla_hours" db:"reply_sla_hours"`
	IsActive            bool        `json:"is_active" db:"is_active"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
}

// Subscription gates the direct-messaging channel. The period message
// counter must never exceed the tier limit; the reserve path enforces that
// atomically with every message insert.
type Subscription struct {
	ID                     uuid.UUID          `json:"id" db:"id"`
	FanID                  uuid.UUID          `json:"fan_id" db:"fan_id"`
	TierID                 uuid.UUID          `json:"tier_id" db:"tier_id"`
	CreatorID              uuid.UUID          `json:"creator_id" db:"creator_id"`
	Status                 SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodStart     time.Time          `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd       time.Time          `json:"current_period_end" db:"current_period_end"`
	MessagesSentThisPeriod int                `json:"messages_sent_this_period" db:"messages_sent_this_period"`
	CreatedAt              time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	SubscriptionID uuid.UUID     `json:"subscription_id" db:"subscription_id"`
	SenderID       uuid.UUID     `json:"sender_id" db:"sender_id"`
	ReceiverID     uuid.UUID     `json:"receiver_id" db:"receiver_id"`
	MessageType    MessageType   `json:"message_type" db:"message_type"`
	Content        *string       `json:"content,omitempty" db:"content"`
	MediaURL       *string       `json:"media_url,omitempty" db:"media_url"`
	Status         MessageStatus `json:"status" db:"status"`
	IsFanMessage   bool          `json:"is_fan_message" db:"is_fan_message"`
	RepliedAt      *time.Time    `json:"replied_at,omitempty" db:"replied_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}
