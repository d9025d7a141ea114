package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Email           string    `json:"email" db:"email"`
	Phone           *string   `json:"phone,omitempty" db:"phone"`
	PasswordHash    string    `json:"-" db:"password_hash"`
	Role            UserRole  `json:"role" db:"role"`
	FullName        string    `json:"full_name" db:"full_name"`
	ProfileImageURL *string   `json:"profile_image_url,omitempty" db:"profile_image_url"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}
