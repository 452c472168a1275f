package model

import (
	"context"

	"github.com/google/uuid"
)

// ContextManager carries the account ID resolved from a bearer access token
// from the authenticate middleware to the handlers behind it.
type ContextManager interface {
	SetUserIDToContext(ctx context.Context, userID uuid.UUID) context.Context
	// GetUserIDFromContext reports false when no account was authenticated.
	GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool)
}
