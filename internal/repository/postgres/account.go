package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/dbx"
	"github.com/dtroode/auth-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, email, username, password_hash, verify_status, email_verify_secret,
    forgot_password_secret, name, date_of_birth, bio, location, website, avatar, cover_photo,
    created_at, updated_at`

type AccountRepository struct {
	db dbx.DBTX
}

func NewAccountRepository(db dbx.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a      model.Account
		status string
	)
	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash, &status, &a.EmailVerifySecret,
		&a.ForgotPasswordSecret, &a.Name, &a.DateOfBirth, &a.Bio, &a.Location, &a.Website,
		&a.Avatar, &a.CoverPhoto, &a.CreatedAt, &a.UpdatedAt,
	)
	a.VerifyStatus = model.VerifyStatus(status)
	return a, err
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account email: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.getOne(ctx, "id", query, id)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.getOne(ctx, "email", query, email)
}

func (r *AccountRepository) GetByEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND email_verify_secret = $2`
	return r.getOne(ctx, "email verify secret", query, id, secret)
}

func (r *AccountRepository) GetByForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND forgot_password_secret = $2`
	return r.getOne(ctx, "forgot password secret", query, id, secret)
}

func (r *AccountRepository) getOne(ctx context.Context, by, query string, args ...any) (model.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, fmt.Errorf("failed to get account by %s: %w", by, err)
	}
	return a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a model.Account) (model.Account, error) {
	query := `INSERT INTO accounts (
            id, email, username, password_hash, verify_status, email_verify_secret,
            forgot_password_secret, name, date_of_birth, bio, location, website, avatar, cover_photo,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
        RETURNING ` + accountColumns

	if a.VerifyStatus == "" {
		a.VerifyStatus = model.VerifyStatusUnverified
	}

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.Username, a.PasswordHash, string(a.VerifyStatus), a.EmailVerifySecret,
		a.ForgotPasswordSecret, a.Name, a.DateOfBirth, a.Bio, a.Location, a.Website, a.Avatar, a.CoverPhoto,
	))
	if err != nil {
		if constraint, ok := uniqueConstraint(err); ok {
			if constraint == constraintUsername {
				return model.Account{}, model.ErrUsernameTaken
			}
			return model.Account{}, model.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) SetVerifyStatus(ctx context.Context, id uuid.UUID, status model.VerifyStatus) error {
	const query = `UPDATE accounts SET verify_status = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "set verify status", query, id, string(status))
}

func (r *AccountRepository) SetEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `UPDATE accounts SET email_verify_secret = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "set email verify secret", query, id, secret)
}

func (r *AccountRepository) SetForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `UPDATE accounts SET forgot_password_secret = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "set forgot password secret", query, id, secret)
}

func (r *AccountRepository) ConsumeEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `
        UPDATE accounts
        SET verify_status = 'verified', email_verify_secret = NULL, updated_at = NOW()
        WHERE id = $1 AND email_verify_secret = $2 AND verify_status <> 'banned'
    `
	return r.execOne(ctx, "consume email verify secret", query, id, secret)
}

func (r *AccountRepository) ConsumeForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret, passwordHash string) error {
	const query = `
        UPDATE accounts
        SET password_hash = $3, forgot_password_secret = NULL, updated_at = NOW()
        WHERE id = $1 AND forgot_password_secret = $2
    `
	return r.execOne(ctx, "consume forgot password secret", query, id, secret, passwordHash)
}

func (r *AccountRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, "set password hash", query, id, passwordHash)
}

// execOne runs an UPDATE expected to touch exactly one row.
func (r *AccountRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id uuid.UUID, patch model.ProfilePatch) (model.Account, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", *patch.DateOfBirth)
	}
	if patch.Bio != nil {
		add("bio", *patch.Bio)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.Website != nil {
		add("website", *patch.Website)
	}
	if patch.Username != nil {
		add("username", *patch.Username)
	}
	if patch.Avatar != nil {
		add("avatar", *patch.Avatar)
	}
	if patch.CoverPhoto != nil {
		add("cover_photo", *patch.CoverPhoto)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE accounts SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), accountColumns)

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		if _, ok := uniqueConstraint(err); ok {
			return model.Account{}, model.ErrUsernameTaken
		}
		return model.Account{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return a, nil
}
