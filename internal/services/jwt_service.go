package services

import (
	"fmt"
	"time"

	"consult-service/internal/config"
	"consult-service/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type IJWTService interface {
	GenerateToken(user *models.User) (string, error)
	ValidateToken(tokenString string) (*models.Claims, error)
}

// JWTService issues and validates HS256 access tokens.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.ExpiryHours) * time.Hour,
	}
}

func (s *JWTService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
		UserID: user.ID.String(),
		Role:   user.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrForbidden, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", models.ErrForbidden)
	}
	return claims, nil
}
