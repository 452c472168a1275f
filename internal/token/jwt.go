package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/auth-server/internal/model"
)

// Parse failures. Every error returned by Parse wraps exactly one of these.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrMalformed        = errors.New("malformed token")
)

// Claims represents JWT claims with token kind and user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID       `json:"user_id"`
	TokenType model.TokenKind `json:"token_type"`
}

// KindConfig holds the signing secret and default lifetime of one token kind.
type KindConfig struct {
	Secret string
	TTL    time.Duration
}

// JWT implements TokenManager backed by symmetric HMAC, one secret per kind.
type JWT struct {
	kinds map[model.TokenKind]KindConfig
	now   func() time.Time
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a new JWT token manager. Every kind that will be issued or
// parsed must be present in kinds.
func NewJWT(kinds map[model.TokenKind]KindConfig) *JWT {
	return &JWT{kinds: kinds, now: time.Now}
}

// Issue signs a token of the given kind for subject. A non-nil expiresAt pins
// the expiry instead of applying the kind's TTL.
func (j *JWT) Issue(kind model.TokenKind, subject uuid.UUID, expiresAt *time.Time) (string, error) {
	cfg, ok := j.kinds[kind]
	if !ok {
		return "", fmt.Errorf("unknown token kind %q", kind)
	}

	now := j.now()
	exp := now.Add(cfg.TTL)
	if expiresAt != nil {
		exp = *expiresAt
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID:    subject,
		TokenType: kind,
	})

	tokenString, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Parse validates tokenString as a token of the given kind and returns its claims.
func (j *JWT) Parse(tokenString string, kind model.TokenKind) (model.Claims, error) {
	cfg, ok := j.kinds[kind]
	if !ok {
		return model.Claims{}, fmt.Errorf("%w: unknown token kind %q", ErrMalformed, kind)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	},
		jwt.WithTimeFunc(j.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return model.Claims{}, classify(err)
	}
	if !token.Valid {
		return model.Claims{}, fmt.Errorf("%w: token is invalid", ErrMalformed)
	}
	if claims.TokenType != kind {
		return model.Claims{}, fmt.Errorf("%w: token kind mismatch: %s", ErrMalformed, claims.TokenType)
	}
	if claims.UserID == uuid.Nil {
		return model.Claims{}, fmt.Errorf("%w: missing subject", ErrMalformed)
	}

	return model.Claims{
		ID:        claims.ID,
		Subject:   claims.UserID,
		Kind:      claims.TokenType,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
