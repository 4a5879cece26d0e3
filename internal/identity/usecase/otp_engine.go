package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// otpEngine issues and checks one-time codes. Stored records only carry the HMAC
// of a code; the plaintext is returned once from Generate and never persisted.
type otpEngine struct {
	repo   repoDB
	hmac   hash.Hash
	code   otp.Generator
	uid    uid.NumberID
	clock  clock.Clocker
	policy func() (ttl time.Duration, maxAttempts int)
}

func (e *otpEngine) Generate(ctx context.Context, userID int64) (string, *entity.OTP, error) {
	code, err := e.code.Generate()
	if err != nil {
		return "", nil, err
	}

	digest, err := e.hmac.Hash(code)
	if err != nil {
		return "", nil, err
	}

	ttl, _ := e.policy()
	now := e.clock.Now()

	rec, err := e.repo.CreateOTP(ctx, entity.OTP{
		ID:        e.uid.Generate(),
		UserID:    userID,
		CodeHash:  string(digest),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return "", nil, err
	}

	return code, rec, nil
}

// Verify checks code against the user's latest unconsumed OTP. The returned record
// reflects the state after the attempt and is nil for NoActiveOTP.
func (e *otpEngine) Verify(ctx context.Context, userID int64, code string) (entity.VerifyResult, *entity.OTP, error) {
	rec, err := e.repo.FindLatestUnconsumedOTP(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.VerifyResultNoActiveOTP, nil, nil
	}
	if err != nil {
		return entity.VerifyResultUnknown, nil, err
	}

	_, maxAttempts := e.policy()
	now := e.clock.Now()

	if rec.ExpiredAt(now) {
		return entity.VerifyResultExpired, rec, nil
	}
	if rec.Exhausted(maxAttempts) {
		return entity.VerifyResultTooManyAttempts, rec, nil
	}

	// A malformed code is still a wrong attempt; it just skips the digest.
	if !e.code.Valid(code) || !e.hmac.Verify(rec.CodeHash, code) {
		attempts, ok, err := e.repo.IncrementOTPAttempts(ctx, rec.ID, maxAttempts)
		if err != nil {
			return entity.VerifyResultUnknown, nil, err
		}
		if !ok {
			return e.reclassify(ctx, rec.ID, maxAttempts, now)
		}

		rec.Attempts = attempts
		return entity.VerifyResultMismatch, rec, nil
	}

	ok, err := e.repo.ConsumeOTP(ctx, rec.ID, maxAttempts, now)
	if err != nil {
		return entity.VerifyResultUnknown, nil, err
	}
	if !ok {
		return e.reclassify(ctx, rec.ID, maxAttempts, now)
	}

	rec.Consumed = true
	return entity.VerifyResultSuccess, rec, nil
}

// reclassify explains a lost compare-and-swap from the record's current state.
func (e *otpEngine) reclassify(ctx context.Context, id int64, maxAttempts int, now time.Time) (entity.VerifyResult, *entity.OTP, error) {
	rec, err := e.repo.FindOTPByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		return entity.VerifyResultNoActiveOTP, nil, nil
	}
	if err != nil {
		return entity.VerifyResultUnknown, nil, err
	}

	switch {
	case rec.Consumed:
		return entity.VerifyResultNoActiveOTP, rec, nil
	case rec.ExpiredAt(now):
		return entity.VerifyResultExpired, rec, nil
	case rec.Exhausted(maxAttempts):
		return entity.VerifyResultTooManyAttempts, rec, nil
	default:
		return entity.VerifyResultNoActiveOTP, rec, nil
	}
}
