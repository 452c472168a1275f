package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/auth-server/internal/api/http/handler"
	"github.com/dtroode/auth-server/internal/api/http/middleware"
	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/testutil"
)

func TestLogging_Handle(t *testing.T) {
	tests := []struct {
		name       string
		route      fiber.Handler
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "completed",
			route:      func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) },
			wantStatus: http.StatusNoContent,
			wantMsg:    `"msg":"HTTP request completed"`,
		},
		{
			name:       "rejected",
			route:      func(c *fiber.Ctx) error { return apierror.NewErrAccountNotFound() },
			wantStatus: http.StatusNotFound,
			wantMsg:    `"msg":"HTTP request rejected"`,
		},
		{
			name:       "failed",
			route:      func(c *fiber.Ctx) error { return errors.New("db is down") },
			wantStatus: http.StatusInternalServerError,
			wantMsg:    `"msg":"HTTP request failed"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := testutil.MakeCapturingLogger()

			app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler(testutil.MakeNoopLogger())})
			app.Use(middleware.NewLogging(log).Handle)
			app.Get("/probe", tt.route)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/probe", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			out := buf.String()
			assert.Contains(t, out, tt.wantMsg)
			assert.Contains(t, out, `"path":"/probe"`)
			assert.Contains(t, out, `"method":"GET"`)
		})
	}
}
