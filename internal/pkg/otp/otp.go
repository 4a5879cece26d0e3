package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

// ErrInvalidDigits is returned when a generator is configured outside the supported width.
var ErrInvalidDigits = errors.New("otp: digits must be between 4 and 10")

// DefaultDigits is the width used for login codes.
const DefaultDigits = 6

// Generator produces one-time codes.
type Generator interface {
	// Generate returns a new code.
	Generate() (string, error)
	// Valid reports whether code could have come from Generate.
	Valid(code string) bool
}

// Numeric generates decimal codes without a leading zero, in [10^(d-1), 10^d - 1].
// For six digits that is 100000 to 999999 inclusive.
type Numeric struct {
	digits int
	min    *big.Int
	span   *big.Int
}

// NewNumeric returns a Numeric generator of the given width reading from crypto/rand.
func NewNumeric(digits int) (*Numeric, error) {
	if digits < 4 || digits > 10 {
		return nil, ErrInvalidDigits
	}

	lower := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)

	return &Numeric{
		digits: digits,
		min:    lower,
		span:   new(big.Int).Sub(upper, lower),
	}, nil
}

// Generate returns a uniformly random code.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(rand.Reader, n.span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(v.Add(v, n.min).Int64(), 10), nil
}

// Valid reports whether code has the generator's shape. It says nothing about
// whether the code was issued.
func (n *Numeric) Valid(code string) bool {
	if len(code) != n.digits || code[0] == '0' {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}

	return true
}
