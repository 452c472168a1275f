package sqlite

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

type RefreshTokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRefreshTokenRepository(db *sql.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, now: time.Now}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	return r.insert(ctx, r.db, token)
}

func (r *RefreshTokenRepository) insert(ctx context.Context, db dbx.DBTX, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (token, user_id, issued_at, expires_at, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := db.ExecContext(ctx, query,
		token.Token, token.UserID.String(), toMillis(token.IssuedAt), toMillis(token.ExpiresAt), toMillis(r.now()))
	if err != nil {
		if isConstraintError(err) {
			return model.ErrTokenExists
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func scanRefreshToken(row rowScanner) (model.RefreshToken, error) {
	var (
		rt                           model.RefreshToken
		userID                       string
		issuedAt, expiresAt, created int64
	)
	if err := row.Scan(&rt.Token, &userID, &issuedAt, &expiresAt, &created); err != nil {
		return model.RefreshToken{}, err
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("invalid user id %q: %w", userID, err)
	}
	rt.UserID = id
	rt.IssuedAt = fromMillis(issuedAt)
	rt.ExpiresAt = fromMillis(expiresAt)
	rt.CreatedAt = fromMillis(created)
	return rt, nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (model.RefreshToken, error) {
	const query = `
        SELECT token, user_id, issued_at, expires_at, created_at
        FROM refresh_tokens WHERE token = ? AND expires_at > ?
    `
	rt, err := scanRefreshToken(r.db.QueryRowContext(ctx, query, token, toMillis(r.now())))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	return rt, nil
}

func (r *RefreshTokenRepository) DeleteByToken(ctx context.Context, token string) error {
	return r.deleteLive(ctx, r.db, token)
}

func (r *RefreshTokenRepository) deleteLive(ctx context.Context, db dbx.DBTX, token string) error {
	const query = `DELETE FROM refresh_tokens WHERE token = ? AND expires_at > ?`

	res, err := db.ExecContext(ctx, query, token, toMillis(r.now()))
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
		if err := r.deleteLive(ctx, tx, oldToken); err != nil {
			return err
		}
		return r.insert(ctx, tx, next)
	})
}

func (r *RefreshTokenRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.RefreshToken, error) {
	const query = `
        SELECT token, user_id, issued_at, expires_at, created_at
        FROM refresh_tokens WHERE user_id = ? AND expires_at > ?
        ORDER BY issued_at, rowid
    `
	rows, err := r.db.QueryContext(ctx, query, userID.String(), toMillis(r.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.RefreshToken
	for rows.Next() {
		rt, err := scanRefreshToken(rows)
		if err != nil {
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
	const query = `DELETE FROM refresh_tokens WHERE expires_at <= ?`

	res, err := r.db.ExecContext(ctx, query, toMillis(before))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return n, nil
}
