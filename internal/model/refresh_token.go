package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore is the refresh token ledger. A stored, unexpired record
// means the token is live.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByToken(ctx context.Context, token string) (RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
	// Rotate deletes oldToken and inserts next atomically. Returns ErrNotFound
	// when oldToken is no longer live.
	Rotate(ctx context.Context, oldToken string, next RefreshToken) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// RefreshToken is a ledger record.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}
