package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// Auth orchestrates the account lifecycle: registration, login, email
// verification, password recovery and session rotation.
type Auth struct {
	accounts     model.AccountStore
	tokenService *TokenService
	tokens       model.TokenManager
	hasher       model.PasswordHasher
	notifier     model.Notifier
	logger       *logger.Logger
}

func NewAuth(
	accounts model.AccountStore,
	tokenService *TokenService,
	tokens model.TokenManager,
	hasher model.PasswordHasher,
	notifier model.Notifier,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		accounts:     accounts,
		tokenService: tokenService,
		tokens:       tokens,
		hasher:       hasher,
		notifier:     notifier,
		logger:       logger,
	}
}

// Register creates an unverified account, logs it in and sends the
// verification link.
func (a *Auth) Register(ctx context.Context, params model.RegisterParams) (pair model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "Auth.Register")
	defer func() { endSpan(span, err) }()

	a.logger.Debug("Auth service: starting user registration", "email", params.Email)

	exists, err := a.accounts.ExistsByEmail(ctx, params.Email)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		a.logger.Info("Auth service: email already registered", "email", params.Email)
		return model.TokenPair{}, apierror.NewErrDuplicateEmail()
	}

	id := uuid.New()
	verifyToken, err := a.tokens.Issue(model.TokenKindEmailVerify, id, nil)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue email verify token: %w", err)
	}

	hash, err := a.hasher.Hash(params.Password)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := a.accounts.Create(ctx, model.Account{
		ID:                id,
		Email:             params.Email,
		Username:          model.DefaultUsername(id),
		PasswordHash:      hash,
		VerifyStatus:      model.VerifyStatusUnverified,
		EmailVerifySecret: &verifyToken,
		Name:              params.Name,
		DateOfBirth:       params.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			a.logger.Info("Auth service: email registered concurrently", "email", params.Email)
			return model.TokenPair{}, apierror.NewErrDuplicateEmail()
		}
		a.logger.Error("Auth service: failed to create account",
			"email", params.Email,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to create account: %w", err)
	}

	pair, err = a.tokenService.Issue(ctx, account.ID)
	if err != nil {
		a.logger.Error("Auth service: failed to issue session",
			"user_id", account.ID,
			"error", err.Error())
		return model.TokenPair{}, fmt.Errorf("failed to issue session: %w", err)
	}

	a.notifier.Notify(ctx, model.Notification{
		Kind:  model.NotificationVerifyEmail,
		Email: account.Email,
		Name:  account.Name,
		Token: verifyToken,
	})

	a.logger.Info("Auth service: user registered", "user_id", account.ID)

	return pair, nil
}

// Login opens a new session. Existing sessions are left untouched.
func (a *Auth) Login(ctx context.Context, email, password string) (pair model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "Auth.Login")
	defer func() { endSpan(span, err) }()

	account, err := a.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Auth service: login for unknown email", "email", email)
			return model.TokenPair{}, apierror.NewErrInvalidCredentials()
		}
		return model.TokenPair{}, fmt.Errorf("failed to get account by email: %w", err)
	}

	ok, err := a.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: wrong password", "user_id", account.ID)
		return model.TokenPair{}, apierror.NewErrInvalidCredentials()
	}

	pair, err = a.tokenService.Issue(ctx, account.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue session: %w", err)
	}

	a.logger.Info("Auth service: user logged in", "user_id", account.ID)

	return pair, nil
}

// Logout revokes refreshToken. callerID comes from the caller's access token.
func (a *Auth) Logout(ctx context.Context, callerID uuid.UUID, refreshToken string) (err error) {
	ctx, span := tracer.Start(ctx, "Auth.Logout")
	defer func() { endSpan(span, err) }()

	if err := a.tokenService.RevokeByToken(ctx, callerID, refreshToken); err != nil {
		return err
	}

	a.logger.Info("Auth service: user logged out", "user_id", callerID)
	return nil
}

// RefreshToken rotates refreshToken into a new pair.
func (a *Auth) RefreshToken(ctx context.Context, refreshToken string) (pair model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "Auth.RefreshToken")
	defer func() { endSpan(span, err) }()

	return a.tokenService.Refresh(ctx, refreshToken)
}

// VerifyEmail consumes an email verification token and logs the account in.
func (a *Auth) VerifyEmail(ctx context.Context, verifyToken string) (pair model.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "Auth.VerifyEmail")
	defer func() { endSpan(span, err) }()

	claims, err := a.tokens.Parse(verifyToken, model.TokenKindEmailVerify)
	if err != nil {
		return model.TokenPair{}, tokenError(err)
	}

	account, err := a.accounts.GetByEmailVerifySecret(ctx, claims.Subject, verifyToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, apierror.NewErrAccountNotFound()
		}
		return model.TokenPair{}, fmt.Errorf("failed to get account by verify secret: %w", err)
	}
	if account.VerifyStatus == model.VerifyStatusBanned {
		a.logger.Info("Auth service: verification attempt on banned account", "user_id", account.ID)
		return model.TokenPair{}, apierror.NewErrEmailBanned()
	}

	if err := a.accounts.ConsumeEmailVerifySecret(ctx, account.ID, verifyToken); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, apierror.NewErrAccountNotFound()
		}
		return model.TokenPair{}, fmt.Errorf("failed to verify email: %w", err)
	}

	pair, err = a.tokenService.Issue(ctx, account.ID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to issue session: %w", err)
	}

	a.logger.Info("Auth service: email verified", "user_id", account.ID)

	return pair, nil
}

// ResendVerifyEmail replaces the pending verification secret and sends a new link.
func (a *Auth) ResendVerifyEmail(ctx context.Context, userID uuid.UUID) (res model.ResendResult, err error) {
	ctx, span := tracer.Start(ctx, "Auth.ResendVerifyEmail")
	defer func() { endSpan(span, err) }()

	account, err := a.getAccount(ctx, userID)
	if err != nil {
		return model.ResendResult{}, err
	}

	switch account.VerifyStatus {
	case model.VerifyStatusVerified:
		return model.ResendResult{AlreadyVerified: true}, nil
	case model.VerifyStatusBanned:
		return model.ResendResult{}, apierror.NewErrEmailBanned()
	}

	verifyToken, err := a.tokens.Issue(model.TokenKindEmailVerify, account.ID, nil)
	if err != nil {
		return model.ResendResult{}, fmt.Errorf("failed to issue email verify token: %w", err)
	}
	if err := a.accounts.SetEmailVerifySecret(ctx, account.ID, verifyToken); err != nil {
		return model.ResendResult{}, fmt.Errorf("failed to store email verify secret: %w", err)
	}

	a.notifier.Notify(ctx, model.Notification{
		Kind:  model.NotificationVerifyEmail,
		Email: account.Email,
		Name:  account.Name,
		Token: verifyToken,
	})

	a.logger.Info("Auth service: verification email resent", "user_id", account.ID)

	return model.ResendResult{}, nil
}

// ForgotPassword sends a reset link. Unknown emails succeed silently.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (err error) {
	ctx, span := tracer.Start(ctx, "Auth.ForgotPassword")
	defer func() { endSpan(span, err) }()

	account, err := a.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			a.logger.Info("Auth service: password reset for unknown email", "email", email)
			return nil
		}
		return fmt.Errorf("failed to get account by email: %w", err)
	}

	forgotToken, err := a.tokens.Issue(model.TokenKindForgotPassword, account.ID, nil)
	if err != nil {
		return fmt.Errorf("failed to issue forgot password token: %w", err)
	}
	if err := a.accounts.SetForgotPasswordSecret(ctx, account.ID, forgotToken); err != nil {
		return fmt.Errorf("failed to store forgot password secret: %w", err)
	}

	a.notifier.Notify(ctx, model.Notification{
		Kind:  model.NotificationResetPassword,
		Email: account.Email,
		Name:  account.Name,
		Token: forgotToken,
	})

	a.logger.Info("Auth service: password reset requested", "user_id", account.ID)

	return nil
}

// VerifyForgotPasswordToken checks that forgotToken is the pending reset secret.
func (a *Auth) VerifyForgotPasswordToken(ctx context.Context, forgotToken string) (err error) {
	ctx, span := tracer.Start(ctx, "Auth.VerifyForgotPasswordToken")
	defer func() { endSpan(span, err) }()

	_, err = a.pendingReset(ctx, forgotToken)
	return err
}

// ResetPassword sets a new password and consumes the reset secret. It does
// not log the account in.
func (a *Auth) ResetPassword(ctx context.Context, forgotToken, newPassword string) (err error) {
	ctx, span := tracer.Start(ctx, "Auth.ResetPassword")
	defer func() { endSpan(span, err) }()

	account, err := a.pendingReset(ctx, forgotToken)
	if err != nil {
		return err
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.accounts.ConsumeForgotPasswordSecret(ctx, account.ID, forgotToken, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierror.NewErrForgotPasswordTokenInvalid()
		}
		return fmt.Errorf("failed to reset password: %w", err)
	}

	a.logger.Info("Auth service: password reset", "user_id", account.ID)

	return nil
}

func (a *Auth) pendingReset(ctx context.Context, forgotToken string) (model.Account, error) {
	claims, err := a.tokens.Parse(forgotToken, model.TokenKindForgotPassword)
	if err != nil {
		return model.Account{}, tokenError(err)
	}

	account, err := a.accounts.GetByForgotPasswordSecret(ctx, claims.Subject, forgotToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apierror.NewErrForgotPasswordTokenInvalid()
		}
		return model.Account{}, fmt.Errorf("failed to get account by forgot password secret: %w", err)
	}
	return account, nil
}

// ChangePassword replaces the password after checking the old one. A wrong
// old password is reported as AccountNotFound.
func (a *Auth) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (err error) {
	ctx, span := tracer.Start(ctx, "Auth.ChangePassword")
	defer func() { endSpan(span, err) }()

	account, err := a.getAccount(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := a.hasher.Verify(oldPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		a.logger.Info("Auth service: change password with wrong old password", "user_id", userID)
		return apierror.NewErrAccountNotFound()
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := a.accounts.SetPasswordHash(ctx, userID, hash); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return apierror.NewErrAccountNotFound()
		}
		return fmt.Errorf("failed to store password: %w", err)
	}

	a.logger.Info("Auth service: password changed", "user_id", userID)

	return nil
}

// GetMe returns the caller's profile.
func (a *Auth) GetMe(ctx context.Context, userID uuid.UUID) (model.AccountView, error) {
	account, err := a.getAccount(ctx, userID)
	if err != nil {
		return model.AccountView{}, err
	}
	return account.View(), nil
}

// UpdateMe applies patch to a verified account.
func (a *Auth) UpdateMe(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (view model.AccountView, err error) {
	ctx, span := tracer.Start(ctx, "Auth.UpdateMe")
	defer func() { endSpan(span, err) }()

	account, err := a.getAccount(ctx, userID)
	if err != nil {
		return model.AccountView{}, err
	}
	if account.VerifyStatus != model.VerifyStatusVerified {
		return model.AccountView{}, apierror.NewErrAccountNotVerified()
	}

	updated, err := a.accounts.UpdateProfile(ctx, userID, patch)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsernameTaken):
			return model.AccountView{}, apierror.NewErrUsernameConflict()
		case errors.Is(err, model.ErrNotFound):
			return model.AccountView{}, apierror.NewErrAccountNotFound()
		}
		return model.AccountView{}, fmt.Errorf("failed to update profile: %w", err)
	}

	a.logger.Info("Auth service: profile updated", "user_id", userID)

	return updated.View(), nil
}

func (a *Auth) getAccount(ctx context.Context, userID uuid.UUID) (model.Account, error) {
	account, err := a.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, apierror.NewErrAccountNotFound()
		}
		return model.Account{}, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}
