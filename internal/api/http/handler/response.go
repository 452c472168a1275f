package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/logger"
)

// Response is the JSON envelope of every reply.
type Response struct {
	Message string            `json:"message"`
	Result  any               `json:"result,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

const messageValidation = "Validation error"

// validationFailure marks a request that failed field validation.
type validationFailure struct {
	fields validation.Errors
}

func (e *validationFailure) Error() string {
	return e.fields.Error()
}

// ErrorHandler renders errors returned by handlers and middleware. API errors
// keep their status and message, anything else becomes a bare 500.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var vf *validationFailure
		if errors.As(err, &vf) {
			fields := make(map[string]string, len(vf.fields))
			for name, fieldErr := range vf.fields {
				fields[name] = fieldErr.Error()
			}
			return c.Status(http.StatusUnprocessableEntity).JSON(Response{Message: messageValidation, Errors: fields})
		}

		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.HTTPStatus).JSON(Response{Message: apiErr.Message})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(Response{Message: fiberErr.Message})
		}

		log.Error("HTTP handler: internal error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err.Error())

		return c.Status(http.StatusInternalServerError).JSON(Response{Message: http.StatusText(http.StatusInternalServerError)})
	}
}

type validatable interface {
	normalize()
	Validate() error
}

// bind decodes the body into req, normalizes and validates it.
func bind[T any, P interface {
	*T
	validatable
}](c *fiber.Ctx) (T, error) {
	var req T
	if len(c.Body()) > 0 {
		if err := c.BodyParser(P(&req)); err != nil {
			return req, fiber.NewError(http.StatusBadRequest, "Invalid request body")
		}
	}

	P(&req).normalize()
	if err := P(&req).Validate(); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			return req, &validationFailure{fields: fields}
		}
		return req, err
	}

	return req, nil
}
