package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"schedulesync/core/database"
	"schedulesync/core/logger"
	"schedulesync/modules/auth/entity"
)

// AuthRepository handles user and OAuth-state database operations
type AuthRepository struct {
	DB database.IDatabase
}

func NewAuthRepository(db database.IDatabase) *AuthRepository {
	return &AuthRepository{DB: db}
}

// AuthRepositoryInterface defines the contract for authentication repository operations
type AuthRepositoryInterface interface {
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByPublicToken(ctx context.Context, token string) (*entity.User, error)
	GetUserByPublicSlug(ctx context.Context, slug string) (*entity.User, error)
	SlugExists(ctx context.Context, slug string) (bool, error)

	SaveOAuthState(ctx context.Context, state string, expiresAt time.Time) error
	GetOAuthState(ctx context.Context, state string) (*entity.OAuthState, error)
	DeleteOAuthState(ctx context.Context, state string) error
	CleanupExpiredOAuthStates(ctx context.Context) error
}

const userColumns = `id, email, display_name, public_token, public_slug, is_active, created_at, updated_at`

func (r *AuthRepository) CreateUser(ctx context.Context, user *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (email, display_name, public_token, public_slug, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, query,
		user.Email, user.DisplayName, user.PublicToken, user.PublicSlug, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		logger.Error("AuthRepository:CreateUser:Error", "error", err, "email", user.Email)
		return nil, err
	}
	return user, nil
}

func (r *AuthRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.getUserWhere(ctx, "id = $1", id)
}

func (r *AuthRepository) GetUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getUserWhere(ctx, "email = $1", email)
}

func (r *AuthRepository) GetUserByPublicToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getUserWhere(ctx, "public_token = $1", token)
}

func (r *AuthRepository) GetUserByPublicSlug(ctx context.Context, slug string) (*entity.User, error) {
	return r.getUserWhere(ctx, "public_slug = $1", slug)
}

func (r *AuthRepository) getUserWhere(ctx context.Context, where string, arg any) (*entity.User, error) {
	var user entity.User
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	err := r.DB.GetContext(ctx, &user, query, arg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("AuthRepository:GetUser:Error", "error", err)
		return nil, err
	}
	return &user, nil
}

func (r *AuthRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM users WHERE public_slug = $1`
	if err := r.DB.GetContext(ctx, &count, query, slug); err != nil {
		return false, err
	}
	return count > 0, nil
}
