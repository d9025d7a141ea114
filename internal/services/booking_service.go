package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/event"
	"consult-service/internal/models"
	"consult-service/internal/repository"
	"consult-service/utils"

	"github.com/google/uuid"
)

// MediaStore is the blob-store collaborator as the booking and messaging
// services consume it.
type MediaStore interface {
	UploadBookingMedia(ctx context.Context, bookingID, slot, extension string, upload *models.MediaUpload) (string, error)
	PresignedURL(ctx context.Context, object string, expiry time.Duration) (string, error)
}

type IBookingService interface {
	CreateBooking(ctx context.Context, fanID uuid.UUID, req *models.CreateBookingRequest) (*models.Booking, error)
	SubmitQuestion(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.QuestionPayload) (*models.Booking, error)
	SubmitResponse(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.ResponsePayload) (*models.Booking, error)
	SubmitFollowUp(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.QuestionPayload) (*models.FollowUpMessage, error)
	SubmitRating(ctx context.Context, bookingID, actorID uuid.UUID, req *models.RatingRequest) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error)
	ListFanBookings(ctx context.Context, fanID uuid.UUID) ([]models.BookingWithCreator, error)
	ListCreatorBookings(ctx context.Context, creatorID uuid.UUID, status *models.BookingStatus) ([]models.BookingWithFan, error)
	GetThread(ctx context.Context, bookingID, actorID uuid.UUID) ([]models.FollowUpMessage, error)
}

// BookingService owns the consultation lifecycle: question intake,
// paid-response delivery, SLA evaluation, rating, and the bounded
// follow-up exchange.
type BookingService struct {
	bookingRepo  repository.IBookingRepository
	followUpRepo repository.IFollowUpRepository
	media        MediaStore
	publisher    event.Publisher
	cfg          config.BookingConfig

	// injectable clock for SLA tests
	now func() time.Time
}

func NewBookingService(
	bookingRepo repository.IBookingRepository,
	followUpRepo repository.IFollowUpRepository,
	media MediaStore,
	publisher event.Publisher,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		bookingRepo:  bookingRepo,
		followUpRepo: followUpRepo,
		media:        media,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// CreateBooking opens a booking in pending_question with the service terms
// snapshotted and the response deadline fixed from the configured SLA
// offset.
func (s *BookingService) CreateBooking(ctx context.Context, fanID uuid.UUID, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking := &models.Booking{
		ID:                 uuid.New(),
		FanID:              fanID,
		CreatorID:          req.CreatorID,
		ServiceID:          req.ServiceID,
		ServiceTitle:       req.ServiceTitle,
		ServiceSubtitle:    req.ServiceSubtitle,
		Status:             models.BookingPendingQuestion,
		PaymentStatus:      models.PaymentNone,
		AmountPaid:         req.AmountPaid,
		ExpectedResponseBy: now.Add(time.Duration(s.cfg.SLAHours) * time.Hour),
		FollowUpsRemaining: s.cfg.DefaultFollowUps,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.notify(event.BookingCreated, booking.CreatorID, map[string]any{"booking_id": booking.ID.String()})
	return booking, nil
}

// SubmitQuestion records the question payload and transitions the booking
// to awaiting_response. Payment status is deliberately not a precondition
// here; it stays a parallel axis handled by the payment reconciler.
func (s *BookingService) SubmitQuestion(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.QuestionPayload) (*models.Booking, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another fan", models.ErrForbidden)
	}
	if booking.Status != models.BookingPendingQuestion {
		return nil, fmt.Errorf("%w: question not accepted while booking is %s",
			models.ErrInvalidState, booking.Status)
	}

	var text, mediaURL *string
	if payload.Type == models.QuestionText {
		text = &payload.Text
	} else {
		object, err := s.uploadQuestionMedia(ctx, bookingID, "question", payload)
		if err != nil {
			return nil, err
		}
		mediaURL = &object
	}

	submittedAt := s.now().UTC()
	if err := s.bookingRepo.SetQuestion(ctx, bookingID, payload.Type, text, mediaURL, submittedAt); err != nil {
		return nil, err
	}

	booking.QuestionType = &payload.Type
	booking.QuestionText = text
	booking.QuestionMediaURL = mediaURL
	booking.QuestionSubmittedAt = &submittedAt
	booking.Status = models.BookingAwaitingResponse

	s.notify(event.QuestionSubmitted, booking.CreatorID, map[string]any{"booking_id": booking.ID.String()})
	return booking, nil
}

// SubmitResponse completes the booking with the creator's media response
// and evaluates the SLA exactly once, both timestamps coerced to UTC so an
// aware/naive mix can never miscompare.
func (s *BookingService) SubmitResponse(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.ResponsePayload) (*models.Booking, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.CreatorID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another creator", models.ErrForbidden)
	}
	if booking.Status != models.BookingAwaitingResponse {
		return nil, fmt.Errorf("%w: cannot respond to booking with status %s",
			models.ErrInvalidState, booking.Status)
	}

	extension := utils.FileExtension(payload.Media.Filename, defaultExtension(payload.Media.ContentType))
	object, err := s.media.UploadBookingMedia(ctx, bookingID.String(), "response", extension, payload.Media)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
	}

	submittedAt := s.now().UTC()
	slaMet := !submittedAt.After(booking.ExpectedResponseBy.UTC())

	if err := s.bookingRepo.SetResponse(ctx, bookingID, payload.Type, object, submittedAt, slaMet); err != nil {
		return nil, err
	}

	booking.ResponseType = &payload.Type
	booking.ResponseMediaURL = &object
	booking.ResponseSubmittedAt = &submittedAt
	booking.SLAMet = &slaMet
	booking.Status = models.BookingCompleted

	s.notify(event.ResponseSubmitted, booking.FanID, map[string]any{
		"booking_id": booking.ID.String(),
		"sla_met":    slaMet,
	})
	return booking, nil
}

// SubmitFollowUp spends one unit of the follow-up budget and reopens the
// booking so the other party must respond again. The repository applies
// the message insert and the decrement-and-reopen as one transaction.
func (s *BookingService) SubmitFollowUp(ctx context.Context, bookingID, actorID uuid.UUID, payload *models.QuestionPayload) (*models.FollowUpMessage, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	var sender models.SenderType
	var counterpart uuid.UUID
	switch actorID {
	case booking.FanID:
		sender, counterpart = models.SenderFan, booking.CreatorID
	case booking.CreatorID:
		sender, counterpart = models.SenderCreator, booking.FanID
	default:
		return nil, fmt.Errorf("%w: actor is not a party to this booking", models.ErrForbidden)
	}

	// Fast-path rejection before any upload; the transaction re-checks
	// authoritatively.
	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: follow-ups require a completed booking, status is %s",
			models.ErrInvalidState, booking.Status)
	}
	if booking.FollowUpsRemaining <= 0 {
		return nil, fmt.Errorf("%w: no follow-ups remaining", models.ErrQuotaExceeded)
	}

	var text, mediaURL *string
	if payload.Type == models.QuestionText {
		text = &payload.Text
	} else {
		object, err := s.uploadQuestionMedia(ctx, bookingID, "follow_up", payload)
		if err != nil {
			return nil, err
		}
		mediaURL = &object
	}

	followUp := &models.FollowUpMessage{
		ID:          uuid.New(),
		BookingID:   bookingID,
		SenderType:  sender,
		MessageType: payload.Type,
		TextContent: text,
		MediaURL:    mediaURL,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.followUpRepo.SubmitFollowUp(ctx, followUp); err != nil {
		return nil, err
	}

	s.notify(event.FollowUpSubmitted, counterpart, map[string]any{"booking_id": bookingID.String()})
	return followUp, nil
}

// SubmitRating records the fan's rating once; a second submission fails
// and leaves the first value untouched.
func (s *BookingService) SubmitRating(ctx context.Context, bookingID, actorID uuid.UUID, req *models.RatingRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another fan", models.ErrForbidden)
	}
	if booking.Status != models.BookingCompleted {
		return nil, fmt.Errorf("%w: can only rate completed consultations", models.ErrInvalidState)
	}

	if err := s.bookingRepo.SetRating(ctx, bookingID, req.Rating, req.Review); err != nil {
		return nil, err
	}

	booking.FanRating = &req.Rating
	booking.FanReview = req.Review
	return booking, nil
}

// CancelBooking marks a non-terminal booking cancelled. Cancelled is
// terminal: every later transition is rejected.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another fan", models.ErrForbidden)
	}

	if err := s.bookingRepo.Cancel(ctx, bookingID); err != nil {
		return nil, err
	}

	booking.Status = models.BookingCancelled
	s.notify(event.BookingCancelled, booking.CreatorID, map[string]any{"booking_id": bookingID.String()})
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID && booking.CreatorID != actorID {
		return nil, fmt.Errorf("%w: actor is not a party to this booking", models.ErrForbidden)
	}

	s.decorate(ctx, booking)
	return booking, nil
}

func (s *BookingService) ListFanBookings(ctx context.Context, fanID uuid.UUID) ([]models.BookingWithCreator, error) {
	bookings, err := s.bookingRepo.ListByFan(ctx, fanID)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		s.decorate(ctx, &bookings[i].Booking)
	}
	return bookings, nil
}

func (s *BookingService) ListCreatorBookings(ctx context.Context, creatorID uuid.UUID, status *models.BookingStatus) ([]models.BookingWithFan, error) {
	bookings, err := s.bookingRepo.ListByCreator(ctx, creatorID, status)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		s.decorate(ctx, &bookings[i].Booking)
	}
	return bookings, nil
}

// GetThread returns the follow-up conversation in chronological order.
func (s *BookingService) GetThread(ctx context.Context, bookingID, actorID uuid.UUID) ([]models.FollowUpMessage, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID && booking.CreatorID != actorID {
		return nil, fmt.Errorf("%w: actor is not a party to this booking", models.ErrForbidden)
	}

	messages, err := s.followUpRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		if messages[i].MediaURL != nil {
			messages[i].MediaURL = s.presign(ctx, *messages[i].MediaURL)
		}
	}
	return messages, nil
}

func (s *BookingService) uploadQuestionMedia(ctx context.Context, bookingID uuid.UUID, slot string, payload *models.QuestionPayload) (string, error) {
	extension := utils.FileExtension(payload.Media.Filename, defaultExtension(payload.Media.ContentType))
	object, err := s.media.UploadBookingMedia(ctx, bookingID.String(), slot, extension, payload.Media)
	if err != nil {
		// The booking row has not been touched; the caller may retry the
		// whole operation.
		return "", fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
	}
	return object, nil
}

// decorate resolves the read-only derived state: presigned media URLs and
// the overdue flag.
func (s *BookingService) decorate(ctx context.Context, booking *models.Booking) {
	booking.Overdue = booking.IsOverdue(s.now())
	s.presignBookingMedia(ctx, booking)
}

func (s *BookingService) presignBookingMedia(ctx context.Context, booking *models.Booking) {
	if booking.QuestionMediaURL != nil {
		booking.QuestionMediaURL = s.presign(ctx, *booking.QuestionMediaURL)
	}
	if booking.ResponseMediaURL != nil {
		booking.ResponseMediaURL = s.presign(ctx, *booking.ResponseMediaURL)
	}
}

func (s *BookingService) presign(ctx context.Context, object string) *string {
	expiry := time.Duration(s.cfg.MediaURLExpiryHrs) * time.Hour
	signed, err := s.media.PresignedURL(ctx, object, expiry)
	if err != nil {
		slog.Error("failed to presign media url", "object", object, "error", err)
		return &object
	}
	return &signed
}

// notify publishes a notification event after the domain write has
// committed. Failures are logged and never surfaced to the caller.
func (s *BookingService) notify(eventType event.EventType, recipientID uuid.UUID, extra map[string]any) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	evt := event.NotificationEvent{
		ID:          uuid.New().String(),
		EventType:   eventType,
		RecipientID: recipientID.String(),
		Additional:  extra,
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish notification event", "event_type", eventType, "error", err)
	}
}

func defaultExtension(contentType string) string {
	switch {
	case contentType == "audio/mpeg" || contentType == "audio/mp3":
		return "mp3"
	case contentType == "video/mp4":
		return "mp4"
	case len(contentType) > 6 && contentType[:6] == "audio/":
		return "mp3"
	default:
		return "mp4"
	}
}
