package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind distinguishes the signed token families. Each kind has its own
// secret and lifetime.
type TokenKind string

const (
	TokenKindAccess         TokenKind = "access"
	TokenKindRefresh        TokenKind = "refresh"
	TokenKindEmailVerify    TokenKind = "email_verify"
	TokenKindForgotPassword TokenKind = "forgot_password"
)

// TokenManager issues and validates signed tokens.
type TokenManager interface {
	// Issue signs a token of the given kind. When expiresAt is non-nil the
	// token expires at that instant instead of after the kind's TTL.
	Issue(kind TokenKind, subject uuid.UUID, expiresAt *time.Time) (string, error)
	Parse(token string, kind TokenKind) (Claims, error)
}

// Claims are the decoded contents of a valid token.
type Claims struct {
	ID        string
	Subject   uuid.UUID
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is returned by operations that log the caller in.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
