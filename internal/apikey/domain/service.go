package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*SecretResponse, error)
	Rotate(ctx context.Context, keyID string) (*SecretResponse, error)
	Revoke(ctx context.Context, keyID string) error
	// Authenticate resolves a presented secret to the org and member it acts as.
	Authenticate(ctx context.Context, secret string) (*Principal, error)
	// Register stores a caller-chosen secret, used to seed a fresh install.
	// It is a no-op when the secret is already registered.
	Register(ctx context.Context, orgID, userID snowflake.ID, name, secret string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, key *APIKey) error
	Update(ctx context.Context, db *gorm.DB, key *APIKey) error
	FindByKeyID(ctx context.Context, db *gorm.DB, orgID snowflake.ID, keyID string) (*APIKey, error)
	FindByHash(ctx context.Context, db *gorm.DB, hash string) (*APIKey, error)
	TouchLastUsed(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]APIKey, error)
}

// CreateRequest issues a key for UserID, or for the calling member when empty.
type CreateRequest struct {
	Name      string     `json:"name"`
	UserID    string     `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type Response struct {
	KeyID            string     `json:"key_id"`
	Name             string     `json:"name"`
	UserID           string     `json:"user_id"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	LastUsedAt       *time.Time `json:"last_used_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
	RotatedFromKeyID *string    `json:"rotated_from_key_id"`
}

type SecretResponse struct {
	KeyID  string `json:"key_id"`
	APIKey string `json:"api_key"`
}

type Principal struct {
	KeyID  snowflake.ID
	OrgID  snowflake.ID
	UserID snowflake.ID
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidKeyID        = errors.New("invalid_key_id")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidExpiry       = errors.New("invalid_expiry")
	ErrNotFound            = errors.New("not_found")
	ErrUnauthenticated     = errors.New("unauthenticated")
)
