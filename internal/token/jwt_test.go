package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/auth-server/internal/model"
)

func newTestJWT() *JWT {
	return NewJWT(map[model.TokenKind]KindConfig{
		model.TokenKindAccess:         {Secret: "access-secret", TTL: 15 * time.Minute},
		model.TokenKindRefresh:        {Secret: "refresh-secret", TTL: 100 * 24 * time.Hour},
		model.TokenKindEmailVerify:    {Secret: "verify-secret", TTL: 7 * 24 * time.Hour},
		model.TokenKindForgotPassword: {Secret: "forgot-secret", TTL: 7 * 24 * time.Hour},
	})
}

func TestJWT_Roundtrip(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	for _, kind := range []model.TokenKind{
		model.TokenKindAccess,
		model.TokenKindRefresh,
		model.TokenKindEmailVerify,
		model.TokenKindForgotPassword,
	} {
		t.Run(string(kind), func(t *testing.T) {
			tok, err := j.Issue(kind, u, nil)
			require.NoError(t, err)

			claims, err := j.Parse(tok, kind)
			require.NoError(t, err)
			assert.Equal(t, u, claims.Subject)
			assert.Equal(t, kind, claims.Kind)
			assert.NotEmpty(t, claims.ID)
			assert.Equal(t, j.kinds[kind].TTL, claims.ExpiresAt.Sub(claims.IssuedAt))
		})
	}
}

func TestJWT_PinnedExpiry(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	first, err := j.Issue(model.TokenKindRefresh, u, nil)
	require.NoError(t, err)
	firstClaims, err := j.Parse(first, model.TokenKindRefresh)
	require.NoError(t, err)

	second, err := j.Issue(model.TokenKindRefresh, u, &firstClaims.ExpiresAt)
	require.NoError(t, err)
	secondClaims, err := j.Parse(second, model.TokenKindRefresh)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, firstClaims.ExpiresAt.Equal(secondClaims.ExpiresAt))
}

func TestJWT_KindMismatch(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	access, err := j.Issue(model.TokenKindAccess, u, nil)
	require.NoError(t, err)

	// signed with another kind's secret
	_, err = j.Parse(access, model.TokenKindRefresh)
	require.ErrorIs(t, err, ErrInvalidSignature)

	shared := NewJWT(map[model.TokenKind]KindConfig{
		model.TokenKindAccess:  {Secret: "same", TTL: time.Minute},
		model.TokenKindRefresh: {Secret: "same", TTL: time.Hour},
	})
	access, err = shared.Issue(model.TokenKindAccess, u, nil)
	require.NoError(t, err)
	_, err = shared.Parse(access, model.TokenKindRefresh)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestJWT_Expired(t *testing.T) {
	j := newTestJWT()
	u := uuid.New()

	tok, err := j.Issue(model.TokenKindAccess, u, nil)
	require.NoError(t, err)

	j.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = j.Parse(tok, model.TokenKindAccess)
	require.ErrorIs(t, err, ErrExpired)
}

func TestJWT_Malformed(t *testing.T) {
	j := newTestJWT()

	_, err := j.Parse("not-a-token", model.TokenKindAccess)
	require.ErrorIs(t, err, ErrMalformed)

	_, err = j.Parse("", model.TokenKindAccess)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestJWT_RejectsNonHMAC(t *testing.T) {
	j := newTestJWT()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID:    uuid.New(),
		TokenType: model.TokenKindAccess,
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = j.Parse(s, model.TokenKindAccess)
	require.Error(t, err)
}

func TestJWT_UnknownKind(t *testing.T) {
	j := NewJWT(map[model.TokenKind]KindConfig{
		model.TokenKindAccess: {Secret: "s", TTL: time.Minute},
	})

	_, err := j.Issue(model.TokenKindRefresh, uuid.New(), nil)
	require.Error(t, err)

	_, err = j.Parse("x", model.TokenKindRefresh)
	require.ErrorIs(t, err, ErrMalformed)
}
