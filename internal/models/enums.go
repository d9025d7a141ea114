package models

type UserRole string

const (
	RoleCreator UserRole = "creator"
	RoleFan     UserRole = "fan"
	RoleAdmin   UserRole = "admin"
)

type BookingStatus string

const (
	BookingPendingQuestion  BookingStatus = "pending_question"
	BookingAwaitingResponse BookingStatus = "awaiting_response"
	BookingCompleted        BookingStatus = "completed"
	BookingCancelled        BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentNone    PaymentStatus = "none"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type QuestionType string

const (
	QuestionText  QuestionType = "text"
	QuestionAudio QuestionType = "audio"
	QuestionVideo QuestionType = "video"
)

type ResponseType string

const (
	ResponseVoice ResponseType = "voice"
	ResponseVideo ResponseType = "video"
)

type SenderType string

const (
	SenderFan     SenderType = "fan"
	SenderCreator SenderType = "creator"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionPaused    SubscriptionStatus = "paused"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

type MessageStatus string

const (
	MessagePending  MessageStatus = "pending"
	MessageReplied  MessageStatus = "replied"
	MessageArchived MessageStatus = "archived"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageVoice MessageType = "voice"
	MessageVideo MessageType = "video"
)
