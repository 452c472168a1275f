package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/dbx"
	"github.com/dtroode/auth-server/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository is the Postgres refresh token ledger. Expired rows
// are invisible to reads and removed by DeleteExpired.
type RefreshTokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, now: time.Now}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	return insertRefreshToken(ctx, r.db, token)
}

func insertRefreshToken(ctx context.Context, db dbx.DBTX, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, user_id, issued_at, expires_at, created_at)
        VALUES ($1, $2, $3, $4, NOW())
    `
	_, err := db.ExecContext(ctx, query, token.Token, token.UserID, token.IssuedAt, token.ExpiresAt)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return model.ErrTokenExists
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	const query = `
        SELECT token, user_id, issued_at, expires_at, created_at
        FROM refresh_tokens WHERE token = $1 AND expires_at > $2
    `
	var rt model.RefreshToken
	err := r.db.QueryRowContext(ctx, query, token, r.now()).Scan(
		&rt.Token, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return deleteLiveRefreshToken(ctx, r.db, token, r.now())
}

func deleteLiveRefreshToken(ctx context.Context, db dbx.DBTX, token string, now time.Time) error {
	const query = `DELETE FROM refresh_tokens WHERE token = $1 AND expires_at > $2`

	res, err := db.ExecContext(ctx, query, token, now)
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldToken string, next model.RefreshToken) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteLiveRefreshToken(ctx, tx, oldToken, r.now()); err != nil {
			return err
		}
		return insertRefreshToken(ctx, tx, next)
	})
}

func (r *RefreshTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	const query = `
        SELECT token, user_id, issued_at, expires_at, created_at
        FROM refresh_tokens WHERE user_id = $1 AND expires_at > $2
        ORDER BY issued_at, token
    `
	rows, err := r.db.QueryContext(ctx, query, userID, r.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.RefreshToken
	for rows.Next() {
		var rt model.RefreshToken
		if err := rows.Scan(&rt.Token, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}
		tokens = append(tokens, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	return tokens, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= $1`

	res, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return n, nil
}
