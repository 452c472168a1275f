// Package apierror defines the typed failures returned by the account
// services and the HTTP status each one maps to.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind names a failure class.
type Kind string

const (
	KindDuplicateEmail             Kind = "duplicate_email"
	KindInvalidCredentials         Kind = "invalid_credentials"
	KindUsernameConflict           Kind = "username_conflict"
	KindAccountNotFound            Kind = "account_not_found"
	KindAccountNotVerified         Kind = "account_not_verified"
	KindTokenMismatch              Kind = "token_mismatch"
	KindInvalidRefreshToken        Kind = "invalid_refresh_token"
	KindForgotPasswordTokenInvalid Kind = "forgot_password_token_invalid"
	KindEmailBanned                Kind = "email_banned"
	KindInvalidSignature           Kind = "invalid_signature"
	KindTokenExpired               Kind = "token_expired"
	KindMalformedToken             Kind = "malformed_token"
	KindUnauthorized               Kind = "unauthorized"
)

// APIError is a failure safe to show to the caller.
type APIError struct {
	Kind       Kind
	Message    string
	HTTPStatus int
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so callers can compare against constructor results.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of an API error in err's chain, or "".
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

func newErr(kind Kind, status int, msg string) *APIError {
	return &APIError{Kind: kind, Message: msg, HTTPStatus: status}
}

func NewErrDuplicateEmail() *APIError {
	return newErr(KindDuplicateEmail, http.StatusUnprocessableEntity, "Email already exists")
}

func NewErrInvalidCredentials() *APIError {
	return newErr(KindInvalidCredentials, http.StatusUnprocessableEntity, "Email or password is incorrect")
}

func NewErrUsernameConflict() *APIError {
	return newErr(KindUsernameConflict, http.StatusUnprocessableEntity, "Username already exists")
}

func NewErrAccountNotFound() *APIError {
	return newErr(KindAccountNotFound, http.StatusNotFound, "User not found")
}

func NewErrAccountNotVerified() *APIError {
	return newErr(KindAccountNotVerified, http.StatusForbidden, "User not verified")
}

func NewErrTokenMismatch() *APIError {
	return newErr(KindTokenMismatch, http.StatusUnauthorized, "Refresh token does not belong to the caller")
}

func NewErrInvalidRefreshToken() *APIError {
	return newErr(KindInvalidRefreshToken, http.StatusUnauthorized, "Used refresh token or not exist")
}

func NewErrForgotPasswordTokenInvalid() *APIError {
	return newErr(KindForgotPasswordTokenInvalid, http.StatusUnauthorized, "Invalid forgot password token")
}

func NewErrEmailBanned() *APIError {
	return newErr(KindEmailBanned, http.StatusUnauthorized, "Email has been banned")
}

func NewErrInvalidSignature(err error) *APIError {
	e := newErr(KindInvalidSignature, http.StatusUnauthorized, "Invalid token signature")
	e.Err = err
	return e
}

func NewErrTokenExpired(err error) *APIError {
	e := newErr(KindTokenExpired, http.StatusUnauthorized, "Token has expired")
	e.Err = err
	return e
}

func NewErrMalformedToken(err error) *APIError {
	e := newErr(KindMalformedToken, http.StatusUnauthorized, "Malformed token")
	e.Err = err
	return e
}

func NewErrUnauthorized(msg string) *APIError {
	return newErr(KindUnauthorized, http.StatusUnauthorized, msg)
}
