package entity

import (
	"errors"
	"time"
)

var (
	ErrOTPNoActive          = errors.New("no active otp")
	ErrOTPExpired           = errors.New("otp expired")
	ErrOTPAttemptsExhausted = errors.New("otp attempts exhausted")
	ErrOTPMismatch          = errors.New("otp mismatch")
	ErrPendingLoginRequired = errors.New("pending login required")
)

// OTP is a one-time passcode issued after a successful password check.
// Only the digest of the code is kept. Seq is a store-assigned monotonic number
// that orders records created within the same timestamp.
type OTP struct {
	ID        int64
	Seq       int64
	UserID    int64
	CodeHash  string
	CreatedAt time.Time
	ExpiresAt time.Time
	Consumed  bool
	Attempts  int
}

// ExpiredAt reports whether the record is past its expiry at now.
func (o OTP) ExpiredAt(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// Exhausted reports whether no verification attempts are left.
func (o OTP) Exhausted(maxAttempts int) bool {
	return o.Attempts >= maxAttempts
}

// Remaining returns how many verification attempts are left, never negative.
func (o OTP) Remaining(maxAttempts int) int {
	return max(maxAttempts-o.Attempts, 0)
}

// VerifyResult is the outcome of checking a submitted code.
type VerifyResult int

const (
	VerifyResultUnknown VerifyResult = iota
	VerifyResultSuccess
	VerifyResultNoActiveOTP
	VerifyResultExpired
	VerifyResultTooManyAttempts
	VerifyResultMismatch
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyResultSuccess:
		return "success"
	case VerifyResultNoActiveOTP:
		return "no_active_otp"
	case VerifyResultExpired:
		return "expired"
	case VerifyResultTooManyAttempts:
		return "too_many_attempts"
	case VerifyResultMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Err returns the sentinel matching a failed result, or nil for success.
func (r VerifyResult) Err() error {
	switch r {
	case VerifyResultSuccess:
		return nil
	case VerifyResultNoActiveOTP:
		return ErrOTPNoActive
	case VerifyResultExpired:
		return ErrOTPExpired
	case VerifyResultTooManyAttempts:
		return ErrOTPAttemptsExhausted
	case VerifyResultMismatch:
		return ErrOTPMismatch
	default:
		return ErrOTPNoActive
	}
}

// Restart reports whether the login has to start over after this result.
func (r VerifyResult) Restart() bool {
	return r == VerifyResultNoActiveOTP || r == VerifyResultExpired || r == VerifyResultTooManyAttempts
}
