// Package password derives and verifies salted password digests.
package password

import (
	"fmt"
	"strings"

	"github.com/dtroode/auth-server/internal/model"
)

// Algorithm names accepted by New.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Params configures the hashers.
type Params struct {
	Algorithm  string
	Time       uint32
	MemKiB     uint32
	Par        uint8
	BcryptCost int
}

// Hasher hashes with the configured algorithm and verifies digests of any
// supported algorithm, so existing accounts keep working after a switch.
type Hasher struct {
	primary model.PasswordHasher
	argon   *Argon2id
	bcrypt  *Bcrypt
}

var _ model.PasswordHasher = (*Hasher)(nil)

// New creates a Hasher for the configured algorithm.
func New(p Params) (*Hasher, error) {
	h := &Hasher{
		argon:  NewArgon2id(p.Time, p.MemKiB, p.Par),
		bcrypt: NewBcrypt(p.BcryptCost),
	}

	switch p.Algorithm {
	case "", AlgorithmArgon2id:
		h.primary = h.argon
	case AlgorithmBcrypt:
		h.primary = h.bcrypt
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", p.Algorithm)
	}

	return h, nil
}

// Hash derives a digest with the primary algorithm.
func (h *Hasher) Hash(password string) (string, error) {
	return h.primary.Hash(password)
}

// Verify checks password against digest.
func (h *Hasher) Verify(password, digest string) (bool, error) {
	switch {
	case strings.HasPrefix(digest, argon2idPrefix):
		return h.argon.Verify(password, digest)
	case strings.HasPrefix(digest, "$2"):
		return h.bcrypt.Verify(password, digest)
	default:
		return false, ErrUnknownDigest
	}
}
