package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the HS512 key size in bytes.
const MinSecretLen = 64

var (
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes")
	ErrTokenExpired       = errors.New("JWT token has expired")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingSessionID   = errors.New("token has no session id")
)

// JWT binds a session id to a signed, expiring token.
type JWT interface {
	Generate(sessionID string) (string, error)
	Verify(token string) (Claims, error)
}

type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL should match the session lifetime.
	TTL   time.Duration
	Clock interface{ Now() time.Time }
	// UUID fills the jti claim.
	UUID interface{ Generate() string }
}

// Claims are the registered claims plus the session store key.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}
