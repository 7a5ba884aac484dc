// Package cryptox implements password hashing for stored credentials.
//
// New hashes are produced with argon2id (or bcrypt when configured) and
// encoded together with their parameters, so a hash written under old
// settings keeps verifying after the settings change.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"

	saltLength = 16
	keyLength  = 32

	// MaxBcryptPasswordLength is the most bytes bcrypt accepts.
	MaxBcryptPasswordLength = 72
)

var (
	ErrInvalidHash         = errors.New("invalid password hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
	ErrUnknownAlgorithm    = errors.New("unknown password hash algorithm")
	ErrPasswordTooLong     = errors.New("password too long for bcrypt")
)

var b64 = base64.RawStdEncoding

// Params tunes the hasher. Memory is in KiB.
type Params struct {
	Algorithm  string
	Memory     uint32
	Iterations uint32
	Threads    uint8
	BcryptCost int
}

// DefaultParams follows the RFC 9106 second recommended option for argon2id.
func DefaultParams() Params {
	return Params{
		Algorithm:  AlgorithmArgon2id,
		Memory:     64 * 1024,
		Iterations: 3,
		Threads:    4,
		BcryptCost: bcrypt.DefaultCost,
	}
}

// PasswordHasher hashes and verifies passwords. It is safe for concurrent use.
type PasswordHasher struct {
	params Params
}

func NewPasswordHasher(p Params) (*PasswordHasher, error) {
	switch p.Algorithm {
	case AlgorithmArgon2id:
		if p.Memory == 0 || p.Iterations == 0 || p.Threads == 0 {
			return nil, fmt.Errorf("argon2id parameters must be positive: %+v", p)
		}
	case AlgorithmBcrypt:
		if p.BcryptCost < bcrypt.MinCost || p.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", p.BcryptCost)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, p.Algorithm)
	}
	return &PasswordHasher{params: p}, nil
}

// Hash derives a salted hash of plaintext using the configured algorithm.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if h.params.Algorithm == AlgorithmBcrypt {
		if len(plaintext) > MaxBcryptPasswordLength {
			return "", ErrPasswordTooLong
		}
		b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.params.BcryptCost)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	salt := common.GenerateRandByteArray(saltLength)
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Threads, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Iterations, h.params.Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

// Verify reports whether plaintext matches encoded. A malformed hash is an
// error; a mismatch is (false, nil).
func (h *PasswordHasher) Verify(plaintext, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(plaintext))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
		}
	}

	p, salt, key, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

// NeedsRehash reports whether encoded was produced with a different
// algorithm or different parameters than the hasher currently uses.
func (h *PasswordHasher) NeedsRehash(encoded string) bool {
	if isBcrypt(encoded) {
		if h.params.Algorithm != AlgorithmBcrypt {
			return true
		}
		cost, err := bcrypt.Cost([]byte(encoded))
		return err != nil || cost != h.params.BcryptCost
	}

	if h.params.Algorithm != AlgorithmArgon2id {
		return true
	}
	p, _, _, err := decodeArgon2id(encoded)
	if err != nil {
		return true
	}
	return p.Memory != h.params.Memory || p.Iterations != h.params.Iterations || p.Threads != h.params.Threads
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

// decodeArgon2id parses "$argon2id$v=19$m=65536,t=3,p=4$<salt>$<key>".
func decodeArgon2id(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != AlgorithmArgon2id {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Threads); err != nil {
		return p, nil, nil, ErrInvalidHash
	}
	if p.Memory == 0 || p.Iterations == 0 || p.Threads == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	p.Algorithm = AlgorithmArgon2id
	return p, salt, key, nil
}
