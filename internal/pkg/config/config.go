// Package config resolves dotted keys such as "modules.identity.otp.ttl_seconds"
// against defaults, an optional file and the environment.
package config

import (
	"io"
	"time"
)

// Config is read-only after construction, except for file reloads. Missing or
// malformed values yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64

	// GetSecond and GetMinute scale an integer value to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetArray accepts a list or a "a,b,c" string. Blank elements are dropped.
	GetArray(key string) []string
}
