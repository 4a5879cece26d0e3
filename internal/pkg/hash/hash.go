package hash

import (
	"errors"
	"strings"
)

// ErrUnknownAlgorithm is returned when the configured password algorithm is not supported.
var ErrUnknownAlgorithm = errors.New("hash: unknown password algorithm")

const (
	// AlgorithmBcrypt selects bcrypt for new password hashes.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects argon2id for new password hashes.
	AlgorithmArgon2id = "argon2id"
)

// Hash produces a one-way representation of a secret and verifies plaintext against it.
type Hash interface {
	// Hash returns the encoded hash of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches hashed.
	Verify(hashed, str string) bool
}

// PasswordConfig selects and tunes the password hasher.
type PasswordConfig struct {
	// Algorithm is AlgorithmBcrypt or AlgorithmArgon2id. Empty means bcrypt.
	Algorithm string
	// BcryptCost is the bcrypt work factor.
	BcryptCost int
	// Pepper is appended to the plaintext by both algorithms.
	Pepper string
}

// Password hashes new passwords with the configured algorithm and verifies stored
// hashes of either algorithm, detected from the encoded prefix.
type Password struct {
	primary  Hash
	bcrypt   *Bcrypt
	argon2id *Argon2id
}

// NewPassword builds the password hasher described by cfg.
func NewPassword(cfg PasswordConfig) (*Password, error) {
	p := &Password{
		bcrypt:   NewBcrypt(cfg.BcryptCost, cfg.Pepper),
		argon2id: NewArgon2id(cfg.Pepper),
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Algorithm)) {
	case "", AlgorithmBcrypt:
		p.primary = p.bcrypt
	case AlgorithmArgon2id:
		p.primary = p.argon2id
	default:
		return nil, ErrUnknownAlgorithm
	}

	return p, nil
}

// Hash hashes a plaintext password with the primary algorithm.
func (p *Password) Hash(plaintext string) ([]byte, error) {
	return p.primary.Hash(plaintext)
}

// Verify checks plaintext against a bcrypt or argon2id encoded hash.
func (p *Password) Verify(hashed, plaintext string) bool {
	if strings.HasPrefix(hashed, argon2idPrefix) {
		return p.argon2id.Verify(hashed, plaintext)
	}

	return p.bcrypt.Verify(hashed, plaintext)
}
