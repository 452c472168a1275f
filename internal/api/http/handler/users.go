package handler

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// AuthService is the account lifecycle consumed by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, params model.RegisterParams) (model.TokenPair, error)
	Login(ctx context.Context, email, password string) (model.TokenPair, error)
	Logout(ctx context.Context, callerID uuid.UUID, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (model.TokenPair, error)
	VerifyEmail(ctx context.Context, verifyToken string) (model.TokenPair, error)
	ResendVerifyEmail(ctx context.Context, userID uuid.UUID) (model.ResendResult, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyForgotPasswordToken(ctx context.Context, forgotToken string) error
	ResetPassword(ctx context.Context, forgotToken, newPassword string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	GetMe(ctx context.Context, userID uuid.UUID) (model.AccountView, error)
	UpdateMe(ctx context.Context, userID uuid.UUID, patch model.ProfilePatch) (model.AccountView, error)
}

const (
	messageRegister              = "Register success"
	messageLogin                 = "Login success"
	messageLogout                = "Logout success"
	messageVerifyEmail           = "Email verify success"
	messageAlreadyVerified       = "Email already verified before"
	messageResendVerifyEmail     = "Resend verify email success"
	messageForgotPassword        = "Check email to reset password"
	messageVerifyForgotToken     = "Verify forgot password token success"
	messageResetPassword         = "Reset password success"
	messageGetMe                 = "Get my profile success"
	messageUpdateMe              = "Update my profile success"
	messageChangePassword        = "Change password success"
	messageRefreshToken          = "Refresh token success"
	messageMissingVerifyToken    = "Email verify token is required"
	messageMissingCallerIdentity = "Access token is required"
)

// Users serves the /users routes.
type Users struct {
	auth           AuthService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUsers creates the /users handler set.
func NewUsers(auth AuthService, contextManager model.ContextManager, logger *logger.Logger) *Users {
	return &Users{auth: auth, contextManager: contextManager, logger: logger}
}

func (h *Users) callerID(c *fiber.Ctx) (uuid.UUID, error) {
	userID, ok := h.contextManager.GetUserIDFromContext(c.UserContext())
	if !ok {
		return uuid.Nil, apierror.NewErrUnauthorized(messageMissingCallerIdentity)
	}
	return userID, nil
}

func (h *Users) Register(c *fiber.Ctx) error {
	req, err := bind[RegisterRequest](c)
	if err != nil {
		return err
	}

	pair, err := h.auth.Register(c.UserContext(), req.params())
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(Response{Message: messageRegister, Result: pair})
}

func (h *Users) Login(c *fiber.Ctx) error {
	req, err := bind[LoginRequest](c)
	if err != nil {
		return err
	}

	pair, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(Response{Message: messageLogin, Result: pair})
}

func (h *Users) Logout(c *fiber.Ctx) error {
	userID, err := h.callerID(c)
	if err != nil {
		return err
	}
	req, err := bind[RefreshTokenRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.Logout(c.UserContext(), userID, req.RefreshToken); err != nil {
		return err
	}

	return c.JSON(Response{Message: messageLogout})
}

func (h *Users) VerifyEmail(c *fiber.Ctx) error {
	verifyToken := c.Query("email_verify_token")
	if verifyToken == "" {
		return apierror.NewErrUnauthorized(messageMissingVerifyToken)
	}

	pair, err := h.auth.VerifyEmail(c.UserContext(), verifyToken)
	if err != nil {
		return err
	}

	return c.JSON(Response{Message: messageVerifyEmail, Result: pair})
}

func (h *Users) ResendVerifyEmail(c *fiber.Ctx) error {
	userID, err := h.callerID(c)
	if err != nil {
		return err
	}

	res, err := h.auth.ResendVerifyEmail(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if res.AlreadyVerified {
		return c.JSON(Response{Message: messageAlreadyVerified})
	}

	return c.JSON(Response{Message: messageResendVerifyEmail})
}

func (h *Users) ForgotPassword(c *fiber.Ctx) error {
	req, err := bind[ForgotPasswordRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(Response{Message: messageForgotPassword})
}

func (h *Users) VerifyForgotPassword(c *fiber.Ctx) error {
	req, err := bind[ForgotPasswordTokenRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.VerifyForgotPasswordToken(c.UserContext(), req.ForgotPasswordToken); err != nil {
		return err
	}

	return c.JSON(Response{Message: messageVerifyForgotToken})
}

func (h *Users) ResetPassword(c *fiber.Ctx) error {
	req, err := bind[ResetPasswordRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.ForgotPasswordToken, req.Password); err != nil {
		return err
	}

	return c.JSON(Response{Message: messageResetPassword})
}

func (h *Users) GetMe(c *fiber.Ctx) error {
	userID, err := h.callerID(c)
	if err != nil {
		return err
	}

	view, err := h.auth.GetMe(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(Response{Message: messageGetMe, Result: view})
}

func (h *Users) UpdateMe(c *fiber.Ctx) error {
	userID, err := h.callerID(c)
	if err != nil {
		return err
	}
	req, err := bind[UpdateMeRequest](c)
	if err != nil {
		return err
	}

	view, err := h.auth.UpdateMe(c.UserContext(), userID, req.patch())
	if err != nil {
		return err
	}

	return c.JSON(Response{Message: messageUpdateMe, Result: view})
}

func (h *Users) ChangePassword(c *fiber.Ctx) error {
	userID, err := h.callerID(c)
	if err != nil {
		return err
	}
	req, err := bind[ChangePasswordRequest](c)
	if err != nil {
		return err
	}

	if err := h.auth.ChangePassword(c.UserContext(), userID, req.OldPassword, req.Password); err != nil {
		return err
	}

	return c.JSON(Response{Message: messageChangePassword})
}

func (h *Users) RefreshToken(c *fiber.Ctx) error {
	req, err := bind[RefreshTokenRequest](c)
	if err != nil {
		return err
	}

	pair, err := h.auth.RefreshToken(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(Response{Message: messageRefreshToken, Result: pair})
}
