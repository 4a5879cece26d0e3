package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Code string `validate:"required,max=32"`
}

type VerifyOTPOutput struct {
	UserID int64
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	sess, err := s.requestSession(ctx)
	if err != nil {
		return nil, err
	}

	if !sess.HasPending() {
		return nil, goerror.NewBusinessCause(entity.ErrPendingLoginRequired, "Start login first.", goerror.CodeUnauthorized)
	}

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInputMsg(err, "Enter OTP")
	}

	userID := sess.PendingUserID
	result, rec, err := s.otp.Verify(ctx, userID, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify otp", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch {
	case result == entity.VerifyResultSuccess:
		sess.Promote()
	case result.Restart():
		sess.ClearPending()
	}

	if result != entity.VerifyResultMismatch {
		if err := s.repoSession.Save(ctx, sess); err != nil {
			slog.ErrorContext(ctx, "failed to save session", "user_id", userID, "error", err)
			return nil, goerror.NewServer(err)
		}
	}

	switch result {
	case entity.VerifyResultSuccess:
		slog.InfoContext(ctx, "user logged in", "user_id", userID)
		return &VerifyOTPOutput{UserID: userID}, nil

	case entity.VerifyResultExpired:
		slog.WarnContext(ctx, "otp expired", "user_id", userID)
		return nil, goerror.NewBusinessCause(entity.ErrOTPExpired, "OTP expired. Please login again.",
			goerror.CodeUnauthorized, "next", "login")

	case entity.VerifyResultTooManyAttempts:
		slog.WarnContext(ctx, "otp attempts exhausted", "user_id", userID)
		return nil, goerror.NewBusinessCause(entity.ErrOTPAttemptsExhausted, "Too many wrong attempts. Please login again.",
			goerror.CodeTooManyRequest, "next", "login")

	case entity.VerifyResultMismatch:
		_, maxAttempts := s.otpPolicy()
		slog.WarnContext(ctx, "otp mismatch", "user_id", userID, "attempts", rec.Attempts)
		return nil, goerror.NewBusinessCause(entity.ErrOTPMismatch, "Wrong OTP. Try again.",
			goerror.CodeUnauthorized, "next", "verify", "attempts_remaining", strconv.Itoa(rec.Remaining(maxAttempts)))

	default:
		slog.WarnContext(ctx, "no active otp", "user_id", userID)
		return nil, goerror.NewBusinessCause(entity.ErrOTPNoActive, "No OTP found, request login again.",
			goerror.CodeUnauthorized, "next", "login")
	}
}
