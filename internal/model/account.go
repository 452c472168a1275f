package model

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	SetVerifyStatus(ctx context.Context, id uuid.UUID, status VerifyStatus) error
	SetEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error
	SetForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) error
	GetByEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) (Account, error)
	GetByForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) (Account, error)
	// ConsumeEmailVerifySecret marks the account verified and clears the
	// secret in one statement. Returns ErrNotFound if the secret no longer matches.
	ConsumeEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error
	// ConsumeForgotPasswordSecret stores passwordHash and clears the secret in
	// one statement. Returns ErrNotFound if the secret no longer matches.
	ConsumeForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret, passwordHash string) error
	UpdateProfile(ctx context.Context, id uuid.UUID, patch ProfilePatch) (Account, error)
	SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// VerifyStatus is the email verification state of an account.
type VerifyStatus string

const (
	VerifyStatusUnverified VerifyStatus = "unverified"
	VerifyStatusVerified   VerifyStatus = "verified"
	VerifyStatusBanned     VerifyStatus = "banned"
)

// Account represents a stored account with authentication material.
type Account struct {
	ID           uuid.UUID
	Email        string
	Username     string
	PasswordHash string
	VerifyStatus VerifyStatus
	// EmailVerifySecret and ForgotPasswordSecret are non-nil only while the
	// corresponding flow is pending.
	EmailVerifySecret    *string
	ForgotPasswordSecret *string
	Name                 string
	DateOfBirth          time.Time
	Bio                  string
	Location             string
	Website              string
	Avatar               string
	CoverPhoto           string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// View returns the public projection of the account.
func (a Account) View() AccountView {
	return AccountView{
		ID:           a.ID,
		Email:        a.Email,
		Username:     a.Username,
		VerifyStatus: a.VerifyStatus,
		Name:         a.Name,
		DateOfBirth:  a.DateOfBirth,
		Bio:          a.Bio,
		Location:     a.Location,
		Website:      a.Website,
		Avatar:       a.Avatar,
		CoverPhoto:   a.CoverPhoto,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// AccountView is an account without password hash and pending secrets.
type AccountView struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	Username     string       `json:"username"`
	VerifyStatus VerifyStatus `json:"verify_status"`
	Name         string       `json:"name"`
	DateOfBirth  time.Time    `json:"date_of_birth"`
	Bio          string       `json:"bio"`
	Location     string       `json:"location"`
	Website      string       `json:"website"`
	Avatar       string       `json:"avatar"`
	CoverPhoto   string       `json:"cover_photo"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name        *string
	DateOfBirth *time.Time
	Bio         *string
	Location    *string
	Website     *string
	Username    *string
	Avatar      *string
	CoverPhoto  *string
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Name == nil && p.DateOfBirth == nil && p.Bio == nil && p.Location == nil &&
		p.Website == nil && p.Username == nil && p.Avatar == nil && p.CoverPhoto == nil
}

// DefaultUsername derives the username assigned at registration.
func DefaultUsername(id uuid.UUID) string {
	return "user" + strings.ReplaceAll(id.String(), "-", "")
}
