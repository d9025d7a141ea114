package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"consult-service/internal/event"
	"consult-service/internal/models"
	"consult-service/internal/repository"
	"consult-service/internal/ws"
	"consult-service/utils"

	"github.com/google/uuid"
)

// AttachmentStore stores direct-message media.
type AttachmentStore interface {
	UploadMessageMedia(ctx context.Context, subscriptionID, extension string, upload *models.MediaUpload) (string, error)
}

type IMessageService interface {
	SendMessage(ctx context.Context, fanID uuid.UUID, req *models.SendMessageRequest) (*models.Message, error)
	ReplyMessage(ctx context.Context, creatorID, messageID uuid.UUID, req *models.ReplyMessageRequest) (*models.Message, error)
	GetThread(ctx context.Context, actorID, subscriptionID uuid.UUID, offset, limit int) ([]models.Message, error)
	UploadAttachment(ctx context.Context, actorID, subscriptionID uuid.UUID, upload *models.MediaUpload) (string, error)
}

// MessageService handles subscription-gated direct messaging. Fan sends
// consume the period quota; creator replies never do.
type MessageService struct {
	messageRepo      repository.IMessageRepository
	subscriptionRepo repository.ISubscriptionRepository
	media            AttachmentStore
	hub              *ws.Hub
	publisher        event.Publisher
	now              func() time.Time
}

func NewMessageService(
	messageRepo repository.IMessageRepository,
	subscriptionRepo repository.ISubscriptionRepository,
	media AttachmentStore,
	hub *ws.Hub,
	publisher event.Publisher,
) *MessageService {
	return &MessageService{
		messageRepo:      messageRepo,
		subscriptionRepo: subscriptionRepo,
		media:            media,
		hub:              hub,
		publisher:        publisher,
		now:              time.Now,
	}
}

// SendMessage reserves one unit of the fan's period quota and records the
// message in the same transaction, then pushes to the creator's live
// connections after commit.
func (s *MessageService) SendMessage(ctx context.Context, fanID uuid.UUID, req *models.SendMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.FanID != fanID {
		return nil, fmt.Errorf("%w: subscription belongs to another fan", models.ErrForbidden)
	}
	if subscription.Status != models.SubscriptionActive {
		return nil, fmt.Errorf("%w: subscription is %s", models.ErrInvalidState, subscription.Status)
	}

	tier, err := s.subscriptionRepo.GetTier(ctx, subscription.TierID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:             uuid.New(),
		SubscriptionID: subscription.ID,
		SenderID:       fanID,
		ReceiverID:     subscription.CreatorID,
		MessageType:    req.MessageType,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		Status:         models.MessagePending,
		IsFanMessage:   true,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.messageRepo.CreateFanMessage(ctx, message, tier.MaxMessagesPerMonth); err != nil {
		return nil, err
	}

	s.deliver(subscription.CreatorID, message)
	return message, nil
}

// ReplyMessage records the creator's reply and flips the original message
// to replied in one transaction, so a message can be answered at most
// once.
func (s *MessageService) ReplyMessage(ctx context.Context, creatorID, messageID uuid.UUID, req *models.ReplyMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	original, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if original.ReceiverID != creatorID {
		return nil, fmt.Errorf("%w: message is not addressed to this creator", models.ErrForbidden)
	}
	if !original.IsFanMessage {
		return nil, fmt.Errorf("%w: can only reply to fan messages", models.ErrInvalidState)
	}

	now := s.now().UTC()
	reply := &models.Message{
		ID:             uuid.New(),
		SubscriptionID: original.SubscriptionID,
		SenderID:       creatorID,
		ReceiverID:     original.SenderID,
		MessageType:    original.MessageType,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		Status:         models.MessageReplied,
		IsFanMessage:   false,
		CreatedAt:      now,
	}

	if err := s.messageRepo.CreateReply(ctx, reply, messageID, now); err != nil {
		return nil, err
	}

	s.deliver(original.SenderID, reply)
	return reply, nil
}

// GetThread returns the conversation for a subscription, visible to its
// fan and its creator only.
func (s *MessageService) GetThread(ctx context.Context, actorID, subscriptionID uuid.UUID, offset, limit int) ([]models.Message, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription.FanID != actorID && subscription.CreatorID != actorID {
		return nil, fmt.Errorf("%w: actor is not a party to this subscription", models.ErrForbidden)
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.messageRepo.ListThread(ctx, subscriptionID, offset, limit)
}

// UploadAttachment stores voice or video media for a later send and
// returns the object path to reference as media_url. Parties to the
// subscription only; no quota is consumed until the message itself is
// sent.
func (s *MessageService) UploadAttachment(ctx context.Context, actorID, subscriptionID uuid.UUID, upload *models.MediaUpload) (string, error) {
	if upload == nil || upload.Reader == nil {
		return "", fmt.Errorf("%w: media file is required", models.ErrValidation)
	}
	if !strings.HasPrefix(upload.ContentType, "audio/") && !strings.HasPrefix(upload.ContentType, "video/") {
		return "", fmt.Errorf("%w: attachment must be audio or video", models.ErrValidation)
	}

	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return "", err
	}
	if subscription.FanID != actorID && subscription.CreatorID != actorID {
		return "", fmt.Errorf("%w: actor is not a party to this subscription", models.ErrForbidden)
	}

	extension := utils.FileExtension(upload.Filename, "bin")
	object, err := s.media.UploadMessageMedia(ctx, subscriptionID.String(), extension, upload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrStorageFailure, err)
	}
	return object, nil
}

// deliver pushes the committed message to the recipient's live connections
// and mirrors it onto the notification queue. Both are best-effort.
func (s *MessageService) deliver(recipientID uuid.UUID, message *models.Message) {
	if s.hub != nil {
		s.hub.Push(recipientID.String(), ws.Event{Type: "new_message", Data: message})
	}
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	evt := event.NotificationEvent{
		ID:          uuid.New().String(),
		EventType:   event.MessageNew,
		RecipientID: recipientID.String(),
		Additional:  map[string]any{"message_id": message.ID.String()},
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish message event", "error", err)
	}
}
