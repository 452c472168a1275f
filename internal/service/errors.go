package service

import (
	"errors"

	"github.com/dtroode/auth-server/internal/apierror"
	"github.com/dtroode/auth-server/internal/token"
)

// tokenError maps a codec parse failure onto the matching API error.
func tokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return apierror.NewErrTokenExpired(err)
	case errors.Is(err, token.ErrInvalidSignature):
		return apierror.NewErrInvalidSignature(err)
	default:
		return apierror.NewErrMalformedToken(err)
	}
}
