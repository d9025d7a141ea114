package models

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string   `json:"email"`
	Phone    *string  `json:"phone,omitempty"`
	Password string   `json:"password"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

func (r *RegisterRequest) Validate() error {
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return fmt.Errorf("%w: valid email is required", ErrValidation)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if r.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrValidation)
	}
	if r.Role != RoleCreator && r.Role != RoleFan {
		return fmt.Errorf("%w: role must be creator or fan", ErrValidation)
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type OTPRequest struct {
	Phone string `json:"phone"`
}

type OTPConfirmRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

type CreateBookingRequest struct {
	CreatorID       uuid.UUID  `json:"creator_id"`
	ServiceID       *uuid.UUID `json:"service_id,omitempty"`
	ServiceTitle    *string    `json:"service_title,omitempty"`
	ServiceSubtitle *string    `json:"service_subtitle,omitempty"`
	AmountPaid      float64    `json:"amount_paid"`
}

func (r *CreateBookingRequest) Validate() error {
	if r.CreatorID == uuid.Nil {
		return fmt.Errorf("%w: creator_id is required", ErrValidation)
	}
	if r.AmountPaid < 0 {
		return fmt.Errorf("%w: amount_paid cannot be negative", ErrValidation)
	}
	return nil
}

// MediaUpload carries an uploaded file stream through the service layer.
type MediaUpload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// QuestionPayload is the tagged union for question submission: text carries
// inline text, audio and video carry exactly one media upload.
type QuestionPayload struct {
	Type  QuestionType
	Text  string
	Media *MediaUpload
}

func (p *QuestionPayload) Validate() error {
	switch p.Type {
	case QuestionText:
		if strings.TrimSpace(p.Text) == "" {
			return fmt.Errorf("%w: question_text is required for text questions", ErrValidation)
		}
	case QuestionAudio:
		if p.Media == nil {
			return fmt.Errorf("%w: audio file is required for audio questions", ErrValidation)
		}
		if !strings.HasPrefix(p.Media.ContentType, "audio/") {
			return fmt.Errorf("%w: file must be an audio file", ErrValidation)
		}
	case QuestionVideo:
		if p.Media == nil {
			return fmt.Errorf("%w: video file is required for video questions", ErrValidation)
		}
		if !strings.HasPrefix(p.Media.ContentType, "video/") {
			return fmt.Errorf("%w: file must be a video file", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: question_type must be text, audio or video", ErrValidation)
	}
	return nil
}

// ResponsePayload is the tagged union for creator responses; both variants
// carry a single media upload whose content type must match the tag.
type ResponsePayload struct {
	Type  ResponseType
	Media *MediaUpload
}

func (p *ResponsePayload) Validate() error {
	if p.Media == nil {
		return fmt.Errorf("%w: media file is required for responses", ErrValidation)
	}
	switch p.Type {
	case ResponseVoice:
		if !strings.HasPrefix(p.Media.ContentType, "audio/") {
			return fmt.Errorf("%w: file must be an audio file for voice responses", ErrValidation)
		}
	case ResponseVideo:
		if !strings.HasPrefix(p.Media.ContentType, "video/") {
			return fmt.Errorf("%w: file must be a video file for video responses", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: response_type must be voice or video", ErrValidation)
	}
	return nil
}

type RatingRequest struct {
	Rating int     `json:"rating"`
	Review *string `json:"review,omitempty"`
}

func (r *RatingRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

type SendMessageRequest struct {
	SubscriptionID uuid.UUID   `json:"subscription_id"`
	MessageType    MessageType `json:"message_type"`
	Content        *string     `json:"content,omitempty"`
	MediaURL       *string     `json:"media_url,omitempty"`
}

func (r *SendMessageRequest) Validate() error {
	if r.SubscriptionID == uuid.Nil {
		return fmt.Errorf("%w: subscription_id is required", ErrValidation)
	}
	switch r.MessageType {
	case MessageText:
		if r.Content == nil || strings.TrimSpace(*r.Content) == "" {
			return fmt.Errorf("%w: content is required for text messages", ErrValidation)
		}
	case MessageVoice, MessageVideo:
		if r.MediaURL == nil || *r.MediaURL == "" {
			return fmt.Errorf("%w: media_url is required for %s messages", ErrValidation, r.MessageType)
		}
	default:
		return fmt.Errorf("%w: message_type must be text, voice or video", ErrValidation)
	}
	return nil
}

type ReplyMessageRequest struct {
	Content  *string `json:"content,omitempty"`
	MediaURL *string `json:"media_url,omitempty"`
}

func (r *ReplyMessageRequest) Validate() error {
	hasContent := r.Content != nil && strings.TrimSpace(*r.Content) != ""
	hasMedia := r.MediaURL != nil && *r.MediaURL != ""
	if !hasContent && !hasMedia {
		return fmt.Errorf("%w: reply needs content or media_url", ErrValidation)
	}
	return nil
}

type CreateOrderRequest struct {
	BookingID uuid.UUID `json:"booking_id"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (r *VerifyPaymentRequest) Validate() error {
	if r.RazorpayOrderID == "" || r.RazorpayPaymentID == "" || r.RazorpaySignature == "" {
		return fmt.Errorf("%w: order id, payment id and signature are all required", ErrValidation)
	}
	return nil
}
