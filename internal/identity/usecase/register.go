package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
)

type RegisterInput struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,max=72"`
}

func (s *Usecase) Register(ctx context.Context, in RegisterInput) error {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInputMsg(err, "Fill all fields")
	}

	_, err := s.repoDB.FindUserByUsernameOrEmail(ctx, in.Username, in.Email)
	if err == nil {
		slog.WarnContext(ctx, "username or email already registered", "username", in.Username)
		return goerror.NewBusiness("Username or email already exists", goerror.CodeConflict)
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo find user by username or email", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	hashed, err := s.password.Hash(in.Password)
	if errors.Is(err, hash.ErrPasswordTooLong) {
		return goerror.NewInvalidInput(nil, "password", "Password is too long")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash password", "error", err)
		return goerror.NewServer(err)
	}

	user := entity.User{
		ID:           s.uid.Generate(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hashed),
		CreatedAt:    s.clock.Now(),
	}

	err = s.repoDB.CreateUser(ctx, user)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "concurrent registration for the same username or email", "username", in.Username)
		return goerror.NewBusiness("Username or email already exists", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo create user", "username", in.Username, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)

	return nil
}
