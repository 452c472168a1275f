package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// TokenService resolves user ID from bearer tokens.
type TokenService interface {
	GetUserID(ctx context.Context, token string) (uuid.UUID, error)
}

const bearerPrefix = "Bearer "

// Authenticate validates bearer access tokens and injects the user ID into
// the request context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// Handle parses the Authorization header, validates the token and passes
// the request on with the user ID in its context.
func (m *Authenticate) Handle(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return apierror.NewErrUnauthorized("Access token is required")
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tokenString == "" {
		return apierror.NewErrUnauthorized("Access token is required")
	}

	userID, err := m.tokenService.GetUserID(c.UserContext(), tokenString)
	if err != nil {
		m.logger.Debug("Authenticate: rejected access token", "error", err.Error())
		return err
	}
	if userID == uuid.Nil {
		return apierror.NewErrUnauthorized("Invalid access token")
	}

	c.SetUserContext(m.contextManager.SetUserIDToContext(c.UserContext(), userID))
	return c.Next()
}
