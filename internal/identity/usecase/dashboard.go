package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type DashboardOutput struct {
	UserID   int64
	Username string
	Email    string
}

func (s *Usecase) Dashboard(ctx context.Context) (*DashboardOutput, error) {
	ctx, span := s.startSpan(ctx, "Dashboard")
	defer span.End()

	sess, err := s.requestSession(ctx)
	if err != nil {
		return nil, err
	}

	if !sess.Authenticated() {
		return nil, goerror.NewBusiness("Login first.", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.FindUserByID(ctx, sess.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session points to a missing user", "user_id", sess.UserID)
		return nil, goerror.NewBusiness("Login first.", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find user by id", "user_id", sess.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DashboardOutput{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}
