package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/auth-server/internal/logger"
)

// Logging logs every HTTP request and its result.
type Logging struct {
	logger *logger.Logger
}

// NewLogging creates a new Logging middleware.
func NewLogging(logger *logger.Logger) *Logging {
	return &Logging{logger: logger}
}

// Handle logs method, path, duration and status for each request. It runs
// the error handler itself so the logged status is the one sent.
func (l *Logging) Handle(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()
	if err != nil {
		if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	args := []any{
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}

	switch {
	case status >= fiber.StatusInternalServerError:
		l.logger.Error("HTTP request failed", args...)
	case err != nil:
		l.logger.Info("HTTP request rejected", append(args, "error", err.Error())...)
	default:
		l.logger.Info("HTTP request completed", args...)
	}

	return nil
}
