package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const otpMailSubject = "Your login OTP"

type LoginInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	UserID    int64
	ExpiresAt time.Time
	// OTPSent is false when the notifier failed. The OTP is still valid.
	OTPSent bool
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	sess, err := s.requestSession(ctx)
	if err != nil {
		return nil, err
	}

	in.Username = strings.TrimSpace(in.Username)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInputMsg(err, "Fill all fields")
	}

	user, err := s.repoDB.FindUserByUsername(ctx, in.Username)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "username", in.Username)
		return nil, goerror.NewBusiness("Invalid username or password", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by username", "username", in.Username, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(user.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, goerror.NewBusiness("Invalid username or password", goerror.CodeUnauthorized)
	}

	code, rec, err := s.otp.Generate(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess.SetPending(user.ID)
	if err := s.repoSession.Save(ctx, sess); err != nil {
		slog.ErrorContext(ctx, "failed to save session", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ttl := rec.ExpiresAt.Sub(rec.CreatedAt)
	body := fmt.Sprintf("Hello %s,\n\nYour OTP is: %s\nIt will expire in %d minutes.\n\nIf you didn't request this, ignore.",
		user.Username, code, int(ttl/time.Minute))

	sent := true
	if err := s.notifier.Send(ctx, user.Email, otpMailSubject, body); err != nil {
		sent = false
		slog.WarnContext(ctx, "failed to send otp email", "user_id", user.ID, "error", err)
	}

	return &LoginOutput{
		UserID:    user.ID,
		ExpiresAt: rec.ExpiresAt,
		OTPSent:   sent,
	}, nil
}
