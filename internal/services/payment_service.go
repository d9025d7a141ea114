package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/event"
	"consult-service/internal/models"
	"consult-service/internal/repository"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentGateway abstracts the payment provider so the reconciliation
// logic can be tested without network calls.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amountPaise int64, receipt string) (orderID string, err error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// RazorpayGateway is the production gateway.
type RazorpayGateway struct {
	client    *razorpay.Client
	keySecret string
}

func NewRazorpayGateway(cfg config.RazorpayConfig) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(cfg.KeyID, cfg.KeySecret),
		keySecret: cfg.KeySecret,
	}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, amountPaise int64, receipt string) (string, error) {
	data := map[string]any{
		"amount":   amountPaise,
		"currency": "INR",
		"receipt":  receipt,
	}
	order, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrGatewayError, err)
	}
	orderID, ok := order["id"].(string)
	if !ok || orderID == "" {
		return "", fmt.Errorf("%w: gateway returned no order id", models.ErrGatewayError)
	}
	return orderID, nil
}

// VerifySignature recomputes HMAC-SHA256 over "order_id|payment_id" with
// the key secret and compares in constant time.
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type IPaymentService interface {
	CreateOrder(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, string, error)
	VerifyPayment(ctx context.Context, actorID uuid.UUID, req *models.VerifyPaymentRequest) (*models.Booking, error)
}

// PaymentService reconciles gateway payments onto bookings. Payment state
// is a parallel axis: marking a booking paid never moves its consultation
// status.
type PaymentService struct {
	bookingRepo repository.IBookingRepository
	gateway     PaymentGateway
	publisher   event.Publisher
}

func NewPaymentService(bookingRepo repository.IBookingRepository, gateway PaymentGateway, publisher event.Publisher) *PaymentService {
	return &PaymentService{
		bookingRepo: bookingRepo,
		gateway:     gateway,
		publisher:   publisher,
	}
}

// CreateOrder opens a gateway order for the booking amount and attaches
// the order id to the booking with payment_status pending.
func (s *PaymentService) CreateOrder(ctx context.Context, bookingID, actorID uuid.UUID) (*models.Booking, string, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.FanID != actorID {
		return nil, "", fmt.Errorf("%w: booking belongs to another fan", models.ErrForbidden)
	}
	if booking.AmountPaid <= 0 {
		return nil, "", fmt.Errorf("%w: booking amount must be positive to create an order", models.ErrValidation)
	}
	if booking.PaymentStatus == models.PaymentPaid {
		return nil, "", fmt.Errorf("%w: booking is already paid", models.ErrInvalidState)
	}

	amountPaise := int64(math.Round(booking.AmountPaid * 100))
	orderID, err := s.gateway.CreateOrder(ctx, amountPaise, booking.ID.String())
	if err != nil {
		return nil, "", err
	}

	if err := s.bookingRepo.SetPaymentOrder(ctx, bookingID, orderID); err != nil {
		return nil, "", err
	}

	booking.RazorpayOrderID = &orderID
	booking.PaymentStatus = models.PaymentPending
	return booking, orderID, nil
}

// VerifyPayment checks the gateway signature and, only if it holds, marks
// the booking paid. A failed check is logged as an integrity event and
// leaves payment state untouched.
func (s *PaymentService) VerifyPayment(ctx context.Context, actorID uuid.UUID, req *models.VerifyPaymentRequest) (*models.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.bookingRepo.GetByOrderID(ctx, req.RazorpayOrderID)
	if err != nil {
		return nil, err
	}
	if booking.FanID != actorID {
		return nil, fmt.Errorf("%w: booking belongs to another fan", models.ErrForbidden)
	}

	if !s.gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		slog.Warn("payment signature verification failed",
			"booking_id", booking.ID,
			"order_id", req.RazorpayOrderID,
			"payment_id", req.RazorpayPaymentID,
		)
		return nil, fmt.Errorf("%w: payment signature does not match", models.ErrInvalidSignature)
	}

	if err := s.bookingRepo.MarkPaid(ctx, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature); err != nil {
		return nil, err
	}

	booking.PaymentStatus = models.PaymentPaid
	booking.RazorpayPaymentID = &req.RazorpayPaymentID

	s.notifyPayment(booking)
	return booking, nil
}

func (s *PaymentService) notifyPayment(booking *models.Booking) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	evt := event.NotificationEvent{
		ID:          uuid.New().String(),
		EventType:   event.PaymentConfirmed,
		RecipientID: booking.FanID.String(),
		Additional:  map[string]any{"booking_id": booking.ID.String()},
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		slog.Error("failed to publish payment event", "error", err)
	}
}
