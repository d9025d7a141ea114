package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/event"
	"consult-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testBookingConfig() config.BookingConfig {
	return config.BookingConfig{
		SLAHours:          48,
		DefaultFollowUps:  1,
		MediaURLExpiryHrs: 24,
		OTPExpiryMinutes:  5,
	}
}

type bookingFixture struct {
	service   *BookingService
	repo      *fakeBookingRepo
	followUps *fakeFollowUpRepo
	media     *fakeMediaStore
	publisher *fakePublisher
}

func newBookingFixture() *bookingFixture {
	repo := newFakeBookingRepo()
	followUps := newFakeFollowUpRepo(repo)
	media := &fakeMediaStore{}
	publisher := &fakePublisher{}
	svc := NewBookingService(repo, followUps, media, publisher, testBookingConfig())
	return &bookingFixture{
		service:   svc,
		repo:      repo,
		followUps: followUps,
		media:     media,
		publisher: publisher,
	}
}

func (f *bookingFixture) setClock(t time.Time) {
	f.service.now = func() time.Time { return t }
}

func textQuestion(text string) *models.QuestionPayload {
	return &models.QuestionPayload{Type: models.QuestionText, Text: text}
}

func videoResponse() *models.ResponsePayload {
	return &models.ResponsePayload{
		Type: models.ResponseVideo,
		Media: &models.MediaUpload{
			Reader:      strings.NewReader("frames"),
			Filename:    "answer.mp4",
			ContentType: "video/mp4",
			Size:        6,
		},
	}
}

func TestBookingLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.setClock(start)

	booking, err := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{
		CreatorID:  creatorID,
		AmountPaid: 499,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.BookingPendingQuestion, booking.Status)
	assert.Equal(t, models.PaymentNone, booking.PaymentStatus)
	assert.Equal(t, 1, booking.FollowUpsRemaining)
	assert.Equal(t, start.Add(48*time.Hour), booking.ExpectedResponseBy)

	booking, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("how do I train for a marathon?"))
	assert.NoError(t, err)
	assert.Equal(t, models.BookingAwaitingResponse, booking.Status)
	assert.NotNil(t, booking.QuestionSubmittedAt)

	// respond 47h in: within the SLA window
	f.setClock(start.Add(47 * time.Hour))
	booking, err = f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())
	assert.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, booking.Status)
	assert.NotNil(t, booking.SLAMet)
	assert.True(t, *booking.SLAMet)

	followUp, err := f.service.SubmitFollowUp(ctx, booking.ID, fanID, textQuestion("what about nutrition?"))
	assert.NoError(t, err)
	assert.Equal(t, models.SenderFan, followUp.SenderType)

	stored, _ := f.repo.GetByID(ctx, booking.ID)
	assert.Equal(t, models.BookingAwaitingResponse, stored.Status)
	assert.Equal(t, 0, stored.FollowUpsRemaining)

	// second response closes the reopened booking
	booking, err = f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())
	assert.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, booking.Status)

	// budget exhausted
	_, err = f.service.SubmitFollowUp(ctx, booking.ID, fanID, textQuestion("one more thing"))
	assert.ErrorIs(t, err, models.ErrQuotaExceeded)

	booking, err = f.service.SubmitRating(ctx, booking.ID, fanID, &models.RatingRequest{Rating: 5})
	assert.NoError(t, err)
	assert.Equal(t, 5, *booking.FanRating)

	assert.Len(t, f.publisher.byType(event.BookingCreated), 1)
	assert.Len(t, f.publisher.byType(event.QuestionSubmitted), 1)
	assert.Len(t, f.publisher.byType(event.ResponseSubmitted), 2)
	assert.Len(t, f.publisher.byType(event.FollowUpSubmitted), 1)
}

func TestSubmitResponseAfterDeadlineMissesSLA(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.setClock(start)

	booking, err := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})
	assert.NoError(t, err)
	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("q"))
	assert.NoError(t, err)

	f.setClock(start.Add(49 * time.Hour))
	updated, err := f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())
	assert.NoError(t, err)
	assert.False(t, *updated.SLAMet)
}

func TestSubmitResponseExactlyAtDeadlineMeetsSLA(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.setClock(start)

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})
	_, err := f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("q"))
	assert.NoError(t, err)

	f.setClock(start.Add(48 * time.Hour))
	updated, err := f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())
	assert.NoError(t, err)
	assert.True(t, *updated.SLAMet)
}

func TestSubmitQuestionRejectsWrongActorAndState(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	_, err := f.service.SubmitQuestion(ctx, booking.ID, uuid.New(), textQuestion("not mine"))
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("first"))
	assert.NoError(t, err)

	// second submission: booking already left pending_question
	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("second"))
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestSubmitQuestionValidationLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	_, err := f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("   "))
	assert.ErrorIs(t, err, models.ErrValidation)

	stored, _ := f.repo.GetByID(ctx, booking.ID)
	assert.Equal(t, models.BookingPendingQuestion, stored.Status)
	assert.Nil(t, stored.QuestionSubmittedAt)

	// a retry with a valid payload succeeds
	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("real question"))
	assert.NoError(t, err)
}

func TestSubmitQuestionStorageFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	f.media.failPut = true
	payload := &models.QuestionPayload{
		Type: models.QuestionAudio,
		Media: &models.MediaUpload{
			Reader:      strings.NewReader("pcm"),
			Filename:    "q.mp3",
			ContentType: "audio/mpeg",
			Size:        3,
		},
	}
	_, err := f.service.SubmitQuestion(ctx, booking.ID, fanID, payload)
	assert.ErrorIs(t, err, models.ErrStorageFailure)

	stored, _ := f.repo.GetByID(ctx, booking.ID)
	assert.Equal(t, models.BookingPendingQuestion, stored.Status)

	f.media.failPut = false
	payload.Media.Reader = strings.NewReader("pcm")
	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, payload)
	assert.NoError(t, err)
}

func TestRatingIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})
	f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("q"))
	f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())

	_, err := f.service.SubmitRating(ctx, booking.ID, fanID, &models.RatingRequest{Rating: 4})
	assert.NoError(t, err)

	_, err = f.service.SubmitRating(ctx, booking.ID, fanID, &models.RatingRequest{Rating: 1})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	stored, _ := f.repo.GetByID(ctx, booking.ID)
	assert.Equal(t, 4, *stored.FanRating)
}

func TestRatingRequiresCompletedBooking(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	_, err := f.service.SubmitRating(ctx, booking.ID, fanID, &models.RatingRequest{Rating: 3})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	_, err = f.service.SubmitRating(ctx, booking.ID, fanID, &models.RatingRequest{Rating: 9})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestCancelledBookingIsTerminal(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	cancelled, err := f.service.CancelBooking(ctx, booking.ID, fanID)
	assert.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)
	assert.True(t, cancelled.IsTerminal())

	_, err = f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("too late"))
	assert.ErrorIs(t, err, models.ErrInvalidState)

	_, err = f.service.CancelBooking(ctx, booking.ID, fanID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCreatorFollowUpDoesNotConsumeFanIdentity(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})
	f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("q"))
	f.service.SubmitResponse(ctx, booking.ID, creatorID, videoResponse())

	followUp, err := f.service.SubmitFollowUp(ctx, booking.ID, creatorID, textQuestion("let me add one thing"))
	assert.NoError(t, err)
	assert.Equal(t, models.SenderCreator, followUp.SenderType)

	_, err = f.service.SubmitFollowUp(ctx, booking.ID, uuid.New(), textQuestion("outsider"))
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestGetBookingAccessControl(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})

	_, err := f.service.GetBooking(ctx, booking.ID, fanID)
	assert.NoError(t, err)
	_, err = f.service.GetBooking(ctx, booking.ID, creatorID)
	assert.NoError(t, err)
	_, err = f.service.GetBooking(ctx, booking.ID, uuid.New())
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = f.service.GetBooking(ctx, uuid.New(), fanID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetBookingReportsOverdue(t *testing.T) {
	ctx := context.Background()
	f := newBookingFixture()
	fanID, creatorID := uuid.New(), uuid.New()

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	f.setClock(start)

	booking, _ := f.service.CreateBooking(ctx, fanID, &models.CreateBookingRequest{CreatorID: creatorID, AmountPaid: 100})
	f.service.SubmitQuestion(ctx, booking.ID, fanID, textQuestion("q"))

	fetched, err := f.service.GetBooking(ctx, booking.ID, fanID)
	assert.NoError(t, err)
	assert.False(t, fetched.Overdue)

	f.setClock(start.Add(49 * time.Hour))
	fetched, err = f.service.GetBooking(ctx, booking.ID, fanID)
	assert.NoError(t, err)
	assert.True(t, fetched.Overdue)
}

func TestIsOverdue(t *testing.T) {
	deadline := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	b := &models.Booking{
		Status:             models.BookingAwaitingResponse,
		ExpectedResponseBy: deadline,
	}

	assert.False(t, b.IsOverdue(deadline.Add(-time.Minute)))
	assert.False(t, b.IsOverdue(deadline))
	assert.True(t, b.IsOverdue(deadline.Add(time.Minute)))

	b.Status = models.BookingCompleted
	assert.False(t, b.IsOverdue(deadline.Add(time.Hour)))
}
