package services

import (
	"context"
	"fmt"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/models"
	"consult-service/utils"

	"github.com/redis/go-redis/v9"
)

const otpKeyPrefix = "otp:"

type IOTPService interface {
	IssueOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, phone, code string) error
}

// OTPService keeps one-time codes in Redis keyed by phone number with a
// TTL, so codes expire on their own and survive process restarts.
type OTPService struct {
	redis  *redis.Client
	expiry time.Duration
}

func NewOTPService(redisClient *redis.Client, cfg config.BookingConfig) *OTPService {
	return &OTPService{
		redis:  redisClient,
		expiry: time.Duration(cfg.OTPExpiryMinutes) * time.Minute,
	}
}

// IssueOTP generates a fresh 6-digit code and stores it under the phone
// key. A new request overwrites any outstanding code for the same phone.
func (s *OTPService) IssueOTP(ctx context.Context, phone string) (string, error) {
	code := utils.GenerateOTP(6)
	if err := s.redis.Set(ctx, otpKeyPrefix+phone, code, s.expiry).Err(); err != nil {
		return "", fmt.Errorf("failed to store otp: %w", err)
	}
	return code, nil
}

// VerifyOTP checks the submitted code and consumes it on success so a code
// can never be replayed.
func (s *OTPService) VerifyOTP(ctx context.Context, phone, code string) error {
	key := otpKeyPrefix + phone
	stored, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("%w: otp expired or never issued", models.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to read otp: %w", err)
	}
	if stored != code {
		return fmt.Errorf("%w: incorrect otp", models.ErrValidation)
	}
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to consume otp: %w", err)
	}
	return nil
}
