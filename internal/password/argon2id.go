package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2idPrefix = "$argon2id$"
	saltLen        = 16
	keyLen         = 32
)

var (
	ErrUnknownDigest   = errors.New("unknown digest format")
	ErrMalformedDigest = errors.New("malformed digest")
)

// Argon2id hashes passwords with argon2id and a random salt. Digests use the
// PHC string format: $argon2id$v=19$m=<KiB>,t=<time>,p=<threads>$<salt>$<key>.
type Argon2id struct {
	time   uint32
	memKiB uint32
	par    uint8
}

// NewArgon2id creates an argon2id hasher. Zero values fall back to the
// RFC 9106 second recommended option.
func NewArgon2id(time, memKiB uint32, par uint8) *Argon2id {
	if time == 0 {
		time = 3
	}
	if memKiB == 0 {
		memKiB = 64 * 1024
	}
	if par == 0 {
		par = 4
	}
	return &Argon2id{time: time, memKiB: memKiB, par: par}
}

func (a *Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.time, a.memKiB, a.par, keyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version, a.memKiB, a.time, a.par,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the key with the parameters stored in digest.
func (a *Argon2id) Verify(password, digest string) (bool, error) {
	parts := strings.Split(digest, "$")
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("%w: unsupported version %d", ErrMalformedDigest, version)
	}

	var (
		memKiB, time uint32
		par          uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memKiB, &time, &par); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	}

	got := argon2.IDKey([]byte(password), salt, time, memKiB, par, uint32(len(want)))

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
