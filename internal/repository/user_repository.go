package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"consult-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `
	id, email, phone, password_hash, role, full_name, profile_image_url,
	is_active, created_at, updated_at
`

type IUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) IUserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, phone, password_hash, role, full_name,
		                   profile_image_url, is_active, created_at, updated_at)
		VALUES (:id, :email, :phone, :password_hash, :role, :full_name,
		        :profile_image_url, :is_active, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.get(ctx, &user, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.get(ctx, &user, query, email)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE phone = $1`
	return r.get(ctx, &user, query, phone)
}

func (r *UserRepository) get(ctx context.Context, user *models.User, query string, arg any) (*models.User, error) {
	err := r.db.GetContext(ctx, user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
