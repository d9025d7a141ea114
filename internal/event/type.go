package event

const NotificationQueue string = "push_noti_events"

type NotificationEvent struct {
	ID          string         `json:"id"`
	EventType   EventType      `json:"event_type"`
	RecipientID string         `json:"recipient_id"`
	Additional  map[string]any `json:"additional"`
}

type EventType string

const (
	BookingCreated    EventType = "booking_created"
	QuestionSubmitted EventType = "question_submitted"
	ResponseSubmitted EventType = "response_submitted"
	FollowUpSubmitted EventType = "follow_up_submitted"
	BookingCancelled  EventType = "booking_cancelled"
	MessageNew        EventType = "message_new"
	PaymentConfirmed  EventType = "payment_confirmed"
)
