package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"consult-service/internal/models"
	"consult-service/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IUserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	RequestOTP(ctx context.Context, req *models.OTPRequest) error
	ConfirmOTP(ctx context.Context, req *models.OTPConfirmRequest) (*models.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type UserService struct {
	userRepo repository.IUserRepository
	jwt      IJWTService
	otp      IOTPService
}

func NewUserService(userRepo repository.IUserRepository, jwt IJWTService, otp IOTPService) *UserService {
	return &UserService{
		userRepo: userRepo,
		jwt:      jwt,
		otp:      otp,
	}
}

// Register creates the account and returns it with a fresh access token.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, string, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	if existing, err := s.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", fmt.Errorf("%w: email already registered", models.ErrValidation)
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Role:         req.Role,
		FullName:     req.FullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
		}
		return nil, "", err
	}
	if !user.IsActive {
		return nil, "", fmt.Errorf("%w: account is disabled", models.ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrForbidden)
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// RequestOTP issues a code for the phone. Delivery over SMS happens out of
// band; the engine only owns the code lifecycle.
func (s *UserService) RequestOTP(ctx context.Context, req *models.OTPRequest) error {
	if req.Phone == "" {
		return fmt.Errorf("%w: phone is required", models.ErrValidation)
	}
	if _, err := s.userRepo.GetByPhone(ctx, req.Phone); err != nil {
		return err
	}
	_, err := s.otp.IssueOTP(ctx, req.Phone)
	return err
}

func (s *UserService) ConfirmOTP(ctx context.Context, req *models.OTPConfirmRequest) (*models.User, string, error) {
	if req.Phone == "" || req.OTP == "" {
		return nil, "", fmt.Errorf("%w: phone and otp are required", models.ErrValidation)
	}
	if err := s.otp.VerifyOTP(ctx, req.Phone, req.OTP); err != nil {
		return nil, "", err
	}

	user, err := s.userRepo.GetByPhone(ctx, req.Phone)
	if err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
