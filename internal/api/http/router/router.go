package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/auth-server/internal/api/http/handler"
	"github.com/dtroode/auth-server/internal/api/http/middleware"
	"github.com/dtroode/auth-server/internal/logger"
	"github.com/dtroode/auth-server/internal/model"
)

// Router builds the fiber application serving the account API.
type Router struct {
	authService    handler.AuthService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
func New(
	authService handler.AuthService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Register creates the fiber app with logging, error rendering and all
// /users routes.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          handler.ErrorHandler(r.logger),
	})

	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	users := handler.NewUsers(r.authService, r.contextManager, r.logger)

	app.Use(logging.Handle)

	g := app.Group("/users")
	g.Post("/register", users.Register)
	g.Post("/login", users.Login)
	g.Post("/logout", authenticate.Handle, users.Logout)
	g.Get("/verify-email", users.VerifyEmail)
	g.Post("/resend-verify-email", authenticate.Handle, users.ResendVerifyEmail)
	g.Post("/forgot-password", users.ForgotPassword)
	g.Post("/verify-forgot-password", users.VerifyForgotPassword)
	g.Post("/reset-password", users.ResetPassword)
	g.Get("/me", authenticate.Handle, users.GetMe)
	g.Patch("/me", authenticate.Handle, users.UpdateMe)
	g.Put("/change-password", authenticate.Handle, users.ChangePassword)
	g.Post("/refresh-token", users.RefreshToken)

	return app
}
