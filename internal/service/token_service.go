package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// TokenService provides high-level operations for issuing, refreshing,
// and revoking tokens. It composes the TokenManager and RefreshTokenStore.
// A refresh token is only handed out after its ledger record is stored.
type TokenService struct {
	manager model.TokenManager
	store   model.RefreshTokenStore
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, store model.RefreshTokenStore, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, store: store, logger: logger}
}

// Issue starts a new session for userID.
func (s *TokenService) Issue(ctx context.Context, userID uuid.UUID) (model.TokenPair, error) {
	pair, record, err := s.issuePair(userID, nil)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.store.Create(ctx, record); err != nil {
		return model.TokenPair{}, fmt.Errorf("persist refresh: %w", err)
	}

	return pair, nil
}

// Refresh rotates a live refresh token. The new refresh token keeps the
// presented token's expiry, so rotation never extends a session.
func (s *TokenService) Refresh(ctx context.Context, presentedRefresh string) (model.TokenPair, error) {
	claims, err := s.manager.Parse(presentedRefresh, model.TokenKindRefresh)
	if err != nil {
		return model.TokenPair{}, tokenError(err)
	}

	record, err := s.store.GetByToken(ctx, presentedRefresh)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Info("Token service: refresh token not live", "user_id", claims.Subject)
			return model.TokenPair{}, apierror.NewErrInvalidRefreshToken()
		}
		return model.TokenPair{}, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if record.UserID != claims.Subject {
		s.logger.Warn("Token service: refresh token owner mismatch",
			"user_id", claims.Subject,
			"owner_id", record.UserID)
		return model.TokenPair{}, apierror.NewErrInvalidRefreshToken()
	}

	pair, next, err := s.issuePair(claims.Subject, &claims.ExpiresAt)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.store.Rotate(ctx, presentedRefresh, next); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.logger.Info("Token service: refresh token already rotated", "user_id", claims.Subject)
			return model.TokenPair{}, apierror.NewErrInvalidRefreshToken()
		}
		return model.TokenPair{}, fmt.Errorf("rotate refresh: %w", err)
	}

	return pair, nil
}

// RevokeByToken ends the session of presentedRefresh. callerID is the
// subject of the caller's access token and must own the refresh token.
func (s *TokenService) RevokeByToken(ctx context.Context, callerID uuid.UUID, presentedRefresh string) error {
	claims, err := s.manager.Parse(presentedRefresh, model.TokenKindRefresh)
	if err != nil {
		return tokenError(err)
	}
	if claims.Subject != callerID {
		return apierror.NewErrTokenMismatch()
	}

	if err := s.store.DeleteByToken(ctx, presentedRefresh); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierror.NewErrInvalidRefreshToken()
		}
		return fmt.Errorf("revoke refresh: %w", err)
	}
	return nil
}

// GetUserID validates an access token and returns its subject.
func (s *TokenService) GetUserID(_ context.Context, accessToken string) (uuid.UUID, error) {
	claims, err := s.manager.Parse(accessToken, model.TokenKindAccess)
	if err != nil {
		return uuid.Nil, tokenError(err)
	}
	return claims.Subject, nil
}

// issuePair signs an access and a refresh token. The ledger record takes its
// timestamps from the refresh token's own claims.
func (s *TokenService) issuePair(userID uuid.UUID, refreshExpiresAt *time.Time) (model.TokenPair, model.RefreshToken, error) {
	access, err := s.manager.Issue(model.TokenKindAccess, userID, nil)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := s.manager.Issue(model.TokenKindRefresh, userID, refreshExpiresAt)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("issue refresh: %w", err)
	}

	claims, err := s.manager.Parse(refresh, model.TokenKindRefresh)
	if err != nil {
		return model.TokenPair{}, model.RefreshToken{}, fmt.Errorf("decode issued refresh: %w", err)
	}

	record := model.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}

	return model.TokenPair{AccessToken: access, RefreshToken: refresh}, record, nil
}
