package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"consult-service/internal/event"
	"consult-service/internal/models"

	"github.com/google/uuid"
)

// fakeBookingRepo mirrors the guarded-transition semantics of the SQL
// repository in memory so service tests exercise the same rejection paths.
type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*models.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *booking
	f.bookings[booking.ID] = &stored
	return nil
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.bookings[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	copy := *stored
	return &copy, nil
}

func (f *fakeBookingRepo) GetByOrderID(_ context.Context, orderID string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.RazorpayOrderID != nil && *b.RazorpayOrderID == orderID {
			copy := *b
			return &copy, nil
		}
	}
	return nil, fmt.Errorf("%w: no booking for order %s", models.ErrNotFound, orderID)
}

func (f *fakeBookingRepo) ListByFan(_ context.Context, fanID uuid.UUID) ([]models.BookingWithCreator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BookingWithCreator
	for _, b := range f.bookings {
		if b.FanID == fanID {
			out = append(out, models.BookingWithCreator{Booking: *b})
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByCreator(_ context.Context, creatorID uuid.UUID, status *models.BookingStatus) ([]models.BookingWithFan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.BookingWithFan
	for _, b := range f.bookings {
		if b.CreatorID != creatorID {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, models.BookingWithFan{Booking: *b})
	}
	return out, nil
}

func (f *fakeBookingRepo) SetQuestion(_ context.Context, id uuid.UUID, qt models.QuestionType, text, mediaURL *string, submittedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	if b.Status != models.BookingPendingQuestion {
		return fmt.Errorf("%w: question not accepted", models.ErrInvalidState)
	}
	b.QuestionType = &qt
	b.QuestionText = text
	b.QuestionMediaURL = mediaURL
	b.QuestionSubmittedAt = &submittedAt
	b.Status = models.BookingAwaitingResponse
	return nil
}

func (f *fakeBookingRepo) SetResponse(_ context.Context, id uuid.UUID, rt models.ResponseType, mediaURL string, submittedAt time.Time, slaMet bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	if b.Status != models.BookingAwaitingResponse {
		return fmt.Errorf("%w: response not accepted", models.ErrInvalidState)
	}
	b.ResponseType = &rt
	b.ResponseMediaURL = &mediaURL
	b.ResponseSubmittedAt = &submittedAt
	b.SLAMet = &slaMet
	b.Status = models.BookingCompleted
	return nil
}

func (f *fakeBookingRepo) SetRating(_ context.Context, id uuid.UUID, rating int, review *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	if b.Status != models.BookingCompleted || b.FanRating != nil {
		return fmt.Errorf("%w: rating not accepted", models.ErrInvalidState)
	}
	b.FanRating = &rating
	b.FanReview = review
	return nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	if b.Status != models.BookingPendingQuestion && b.Status != models.BookingAwaitingResponse {
		return fmt.Errorf("%w: cannot cancel a %s booking", models.ErrInvalidState, b.Status)
	}
	b.Status = models.BookingCancelled
	return nil
}

func (f *fakeBookingRepo) SetPaymentOrder(_ context.Context, id uuid.UUID, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
	}
	b.RazorpayOrderID = &orderID
	b.PaymentStatus = models.PaymentPending
	return nil
}

func (f *fakeBookingRepo) MarkPaid(_ context.Context, orderID, paymentID, signature string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.RazorpayOrderID != nil && *b.RazorpayOrderID == orderID {
			b.PaymentStatus = models.PaymentPaid
			b.RazorpayPaymentID = &paymentID
			b.RazorpaySignature = &signature
			return nil
		}
	}
	return fmt.Errorf("%w: no booking for order %s", models.ErrNotFound, orderID)
}

// fakeFollowUpRepo applies the decrement-and-reopen and the message insert
// as one atomic step against the shared booking store.
type fakeFollowUpRepo struct {
	bookings *fakeBookingRepo
	mu       sync.Mutex
	messages []models.FollowUpMessage
}

func newFakeFollowUpRepo(bookings *fakeBookingRepo) *fakeFollowUpRepo {
	return &fakeFollowUpRepo{bookings: bookings}
}

func (f *fakeFollowUpRepo) SubmitFollowUp(_ context.Context, followUp *models.FollowUpMessage) error {
	f.bookings.mu.Lock()
	defer f.bookings.mu.Unlock()

	b, ok := f.bookings.bookings[followUp.BookingID]
	if !ok {
		return fmt.Errorf("%w: booking %s", models.ErrNotFound, followUp.BookingID)
	}
	if b.Status != models.BookingCompleted {
		return fmt.Errorf("%w: booking is %s", models.ErrInvalidState, b.Status)
	}
	if b.FollowUpsRemaining <= 0 {
		return fmt.Errorf("%w: no follow-ups remaining", models.ErrQuotaExceeded)
	}

	b.FollowUpsRemaining--
	b.Status = models.BookingAwaitingResponse

	f.mu.Lock()
	f.messages = append(f.messages, *followUp)
	f.mu.Unlock()
	return nil
}

func (f *fakeFollowUpRepo) ListByBooking(_ context.Context, bookingID uuid.UUID) ([]models.FollowUpMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FollowUpMessage
	for _, m := range f.messages {
		if m.BookingID == bookingID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeMediaStore records uploads and can be told to fail.
type fakeMediaStore struct {
	mu      sync.Mutex
	uploads []string
	failPut bool
}

func (f *fakeMediaStore) UploadBookingMedia(_ context.Context, bookingID, slot, extension string, _ *models.MediaUpload) (string, error) {
	if f.failPut {
		return "", fmt.Errorf("bucket unavailable")
	}
	object := fmt.Sprintf("bookings/%s/%s.%s", bookingID, slot, extension)
	f.mu.Lock()
	f.uploads = append(f.uploads, object)
	f.mu.Unlock()
	return object, nil
}

func (f *fakeMediaStore) UploadMessageMedia(_ context.Context, subscriptionID, extension string, _ *models.MediaUpload) (string, error) {
	if f.failPut {
		return "", fmt.Errorf("bucket unavailable")
	}
	object := fmt.Sprintf("messages/%s/attachment.%s", subscriptionID, extension)
	f.mu.Lock()
	f.uploads = append(f.uploads, object)
	f.mu.Unlock()
	return object, nil
}

func (f *fakeMediaStore) PresignedURL(_ context.Context, object string, _ time.Duration) (string, error) {
	return "https://media.test/" + object, nil
}

// fakePublisher captures published notification events.
type fakePublisher struct {
	mu     sync.Mutex
	events []event.NotificationEvent
}

func (f *fakePublisher) Publish(_ context.Context, evt event.NotificationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) byType(t event.EventType) []event.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []event.NotificationEvent
	for _, e := range f.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// fakeSubscriptionRepo holds subscriptions and tiers; the message repo
// shares its state to reserve quota atomically.
type fakeSubscriptionRepo struct {
	mu            sync.Mutex
	subscriptions map[uuid.UUID]*models.Subscription
	tiers         map[uuid.UUID]*models.SubscriptionTier
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		subscriptions: make(map[uuid.UUID]*models.Subscription),
		tiers:         make(map[uuid.UUID]*models.SubscriptionTier),
	}
}

func (f *fakeSubscriptionRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("%w: subscription %s", models.ErrNotFound, id)
	}
	copy := *sub
	return &copy, nil
}

func (f *fakeSubscriptionRepo) GetTier(_ context.Context, tierID uuid.UUID) (*models.SubscriptionTier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier, ok := f.tiers[tierID]
	if !ok {
		return nil, fmt.Errorf("%w: tier %s", models.ErrNotFound, tierID)
	}
	copy := *tier
	return &copy, nil
}

// fakeMessageRepo reserves one quota unit and inserts the message under
// the same lock, matching the transactional reserve path.
type fakeMessageRepo struct {
	subs     *fakeSubscriptionRepo
	mu       sync.Mutex
	messages map[uuid.UUID]*models.Message
}

func newFakeMessageRepo(subs *fakeSubscriptionRepo) *fakeMessageRepo {
	return &fakeMessageRepo{subs: subs, messages: make(map[uuid.UUID]*models.Message)}
}

func (f *fakeMessageRepo) CreateFanMessage(_ context.Context, message *models.Message, maxPerMonth int) error {
	f.subs.mu.Lock()
	defer f.subs.mu.Unlock()

	sub, ok := f.subs.subscriptions[message.SubscriptionID]
	if !ok {
		return fmt.Errorf("%w: subscription %s", models.ErrNotFound, message.SubscriptionID)
	}
	if sub.Status != models.SubscriptionActive {
		return fmt.Errorf("%w: subscription is %s", models.ErrInvalidState, sub.Status)
	}
	if sub.MessagesSentThisPeriod >= maxPerMonth {
		return fmt.Errorf("%w: monthly message limit reached", models.ErrQuotaExceeded)
	}
	sub.MessagesSentThisPeriod++

	f.mu.Lock()
	stored := *message
	f.messages[message.ID] = &stored
	f.mu.Unlock()
	return nil
}

func (f *fakeMessageRepo) CreateReply(_ context.Context, reply *models.Message, originalID uuid.UUID, repliedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	original, ok := f.messages[originalID]
	if !ok {
		return fmt.Errorf("%w: message %s", models.ErrNotFound, originalID)
	}
	if original.Status != models.MessagePending || !original.IsFanMessage {
		return fmt.Errorf("%w: message already replied", models.ErrInvalidState)
	}
	original.Status = models.MessageReplied
	original.RepliedAt = &repliedAt

	stored := *reply
	f.messages[reply.ID] = &stored
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, fmt.Errorf("%w: message %s", models.ErrNotFound, id)
	}
	copy := *m
	return &copy, nil
}

func (f *fakeMessageRepo) ListThread(_ context.Context, subscriptionID uuid.UUID, offset, limit int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.SubscriptionID == subscriptionID {
			out = append(out, *m)
		}
	}
	return out, nil
}

// fakeGateway verifies against a fixed expected signature.
type fakeGateway struct {
	orderID      string
	createErr    error
	validSig     string
	createdCalls int
}

func (f *fakeGateway) CreateOrder(_ context.Context, amountPaise int64, receipt string) (string, error) {
	f.createdCalls++
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.orderID, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == f.validSig
}
