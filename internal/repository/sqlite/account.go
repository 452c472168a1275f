package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/dbx"
	"github.com/dtroode/auth-server/internal/model"
)

var _ model.AccountStore = (*AccountRepository)(nil)

const accountColumns = `id, email, username, password_hash, verify_status, email_verify_secret,
    forgot_password_secret, name, date_of_birth, bio, location, website, avatar, cover_photo,
    created_at, updated_at`

type AccountRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewAccountRepository(db dbx.DBTX) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a                        model.Account
		id, status               string
		dob, createdAt, updateAt int64
	)
	err := row.Scan(
		&id, &a.Email, &a.Username, &a.PasswordHash, &status, &a.EmailVerifySecret,
		&a.ForgotPasswordSecret, &a.Name, &dob, &a.Bio, &a.Location, &a.Website,
		&a.Avatar, &a.CoverPhoto, &createdAt, &updateAt,
	)
	if err != nil {
		return model.Account{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return model.Account{}, fmt.Errorf("invalid account id %q: %w", id, err)
	}
	a.ID = parsed
	a.VerifyStatus = model.VerifyStatus(status)
	a.DateOfBirth = fromMillis(dob)
	a.CreatedAt = fromMillis(createdAt)
	a.UpdatedAt = fromMillis(updateAt)
	return a, nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account email: %w", err)
	}
	return exists, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return r.getOne(ctx, "id", query, id.String())
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return r.getOne(ctx, "email", query, email)
}

func (r *AccountRepository) GetByEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND email_verify_secret = ?`
	return r.getOne(ctx, "email verify secret", query, id.String(), secret)
}

func (r *AccountRepository) GetByForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND forgot_password_secret = ?`
	return r.getOne(ctx, "forgot password secret", query, id.String(), secret)
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
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        RETURNING ` + accountColumns

	if a.VerifyStatus == "" {
		a.VerifyStatus = model.VerifyStatusUnverified
	}
	now := toMillis(r.now())

	saved, err := scanAccount(r.db.QueryRowContext(ctx, query,
		a.ID.String(), a.Email, a.Username, a.PasswordHash, string(a.VerifyStatus), a.EmailVerifySecret,
		a.ForgotPasswordSecret, a.Name, toMillis(a.DateOfBirth), a.Bio, a.Location, a.Website, a.Avatar,
		a.CoverPhoto, now, now,
	))
	if err != nil {
		if isConstraintError(err) {
			if strings.Contains(err.Error(), "accounts.username") {
				return model.Account{}, model.ErrUsernameTaken
			}
			return model.Account{}, model.ErrEmailTaken
		}
		return model.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) SetVerifyStatus(ctx context.Context, id uuid.UUID, status model.VerifyStatus) error {
	const query = `UPDATE accounts SET verify_status = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "set verify status", query, string(status), toMillis(r.now()), id.String())
}

func (r *AccountRepository) SetEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `UPDATE accounts SET email_verify_secret = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "set email verify secret", query, secret, toMillis(r.now()), id.String())
}

func (r *AccountRepository) SetForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `UPDATE accounts SET forgot_password_secret = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "set forgot password secret", query, secret, toMillis(r.now()), id.String())
}

func (r *AccountRepository) ConsumeEmailVerifySecret(ctx context.Context, id uuid.UUID, secret string) error {
	const query = `
        UPDATE accounts
        SET verify_status = 'verified', email_verify_secret = NULL, updated_at = ?
        WHERE id = ? AND email_verify_secret = ? AND verify_status <> 'banned'
    `
	return r.execOne(ctx, "consume email verify secret", query, toMillis(r.now()), id.String(), secret)
}

func (r *AccountRepository) ConsumeForgotPasswordSecret(ctx context.Context, id uuid.UUID, secret, passwordHash string) error {
	const query = `
        UPDATE accounts
        SET password_hash = ?, forgot_password_secret = NULL, updated_at = ?
        WHERE id = ? AND forgot_password_secret = ?
    `
	return r.execOne(ctx, "consume forgot password secret", query, passwordHash, toMillis(r.now()), id.String(), secret)
}

func (r *AccountRepository) SetPasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const query = `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?`
	return r.execOne(ctx, "set password hash", query, passwordHash, toMillis(r.now()), id.String())
}

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
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.DateOfBirth != nil {
		add("date_of_birth", toMillis(*patch.DateOfBirth))
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
	add("updated_at", toMillis(r.now()))
	args = append(args, id.String())

	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + accountColumns

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		if isConstraintError(err) {
			return model.Account{}, model.ErrUsernameTaken
		}
		return model.Account{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return a, nil
}
