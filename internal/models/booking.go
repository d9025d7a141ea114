package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one paid consultation engagement between a fan and a creator.
// Service fields are snapshotted at creation so later catalog edits never
// change the terms of an existing booking.
type Booking struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FanID     uuid.UUID `json:"fan_id" db:"fan_id"`
	CreatorID uuid.UUID `json:"creator_id" db:"creator_id"`

	ServiceID       *uuid.UUID `json:"service_id,omitempty" db:"service_id"`
	ServiceTitle    *string    `json:"service_title,omitempty" db:"service_title"`
	ServiceSubtitle *string    `json:"service_subtitle,omitempty" db:"service_subtitle"`

	QuestionType        *QuestionType `json:"question_type,omitempty" db:"question_type"`
	QuestionText        *string       `json:"question_text,omitempty" db:"question_text"`
	QuestionMediaURL    *string       `json:"question_media_url,omitempty" db:"question_media_url"`
	QuestionSubmittedAt *time.Time    `json:"question_submitted_at,omitempty" db:"question_submitted_at"`

	ResponseType        *ResponseType `json:"response_type,omitempty" db:"response_type"`
	ResponseMediaURL    *string       `json:"response_media_url,omitempty" db:"response_media_url"`
	ResponseSubmittedAt *time.Time    `json:"response_submitted_at,omitempty" db:"response_submitted_at"`

	Status        BookingStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	RazorpayOrderID   *string `json:"razorpay_order_id,omitempty" db:"razorpay_order_id"`
	RazorpayPaymentID *string `json:"razorpay_payment_id,omitempty" db:"razorpay_payment_id"`
	RazorpaySignature *string `json:"-" db:"razorpay_signature"`

	AmountPaid float64 `json:"amount_paid" db:"amount_paid"`

	ExpectedResponseBy time.Time `json:"expected_response_by" db:"expected_response_by"`
	SLAMet             *bool     `json:"sla_met,omitempty" db:"sla_met"`

	FollowUpsRemaining int `json:"follow_ups_remaining" db:"follow_ups_remaining"`

	FanRating *int    `json:"fan_rating,omitempty" db:"fan_rating"`
	FanReview *string `json:"fan_review,omitempty" db:"fan_review"`

	// derived on read, never persisted
	Overdue bool `json:"is_overdue" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the response deadline has passed without a
// response. Recomputed on every read; never persisted.
func (b *Booking) IsOverdue(now time.Time) bool {
	return b.Status == BookingAwaitingResponse && now.UTC().After(b.ExpectedResponseBy.UTC())
}

// IsTerminal reports whether no further lifecycle transition is possible.
// Completed is only terminal once the follow-up budget is exhausted.
func (b *Booking) IsTerminal() bool {
	if b.Status == BookingCancelled {
		return true
	}
	return b.Status == BookingCompleted && b.FollowUpsRemaining == 0
}

// FollowUpMessage is one turn in the bounded post-completion exchange.
// Immutable once created.
type FollowUpMessage struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	BookingID   uuid.UUID    `json:"booking_id" db:"booking_id"`
	SenderType  SenderType   `json:"sender_type" db:"sender_type"`
	MessageType QuestionType `json:"message_type" db:"message_type"`
	TextContent *string      `json:"text_content,omitempty" db:"text_content"`
	MediaURL    *string      `json:"media_url,omitempty" db:"media_url"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// BookingWithFan is the creator-side listing row.
type BookingWithFan struct {
	Booking
	FanName  string  `json:"fan_name" db:"fan_name"`
	FanEmail string  `json:"fan_email" db:"fan_email"`
	FanImage *string `json:"fan_profile_image_url,omitempty" db:"fan_profile_image_url"`
}

// BookingWithCreator is the fan-side listing row.
type BookingWithCreator struct {
	Booking
	CreatorName  string  `json:"creator_name" db:"creator_name"`
	CreatorImage *string `json:"creator_profile_image_url,omitempty" db:"creator_profile_image_url"`
}
