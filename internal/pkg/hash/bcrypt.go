package hash

import "golang.org/x/crypto/bcrypt"

// ErrPasswordTooLong is returned when plaintext plus pepper exceeds bcrypt's
// 72-byte input. The limit counts bytes, not characters.
var ErrPasswordTooLong = bcrypt.ErrPasswordTooLong

const bcryptMaxBytes = 72

// Bcrypt hashes passwords with bcrypt. The pepper is appended to the plaintext
// and lives in configuration, never next to the hashes.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's accepted range
// falls back to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost, pepper: pepper}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	input := h.peppered(plaintext)
	if len(input) > bcryptMaxBytes {
		return nil, ErrPasswordTooLong
	}
	return bcrypt.GenerateFromPassword(input, h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.peppered(plaintext)) == nil
}

func (h *Bcrypt) peppered(plaintext string) []byte {
	return []byte(plaintext + h.pepper)
}
