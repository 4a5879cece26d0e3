package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	sess, err := s.requestSession(ctx)
	if err != nil {
		return err
	}

	userID := sess.UserID
	sess.ClearAuthenticated()

	if sess.Empty() {
		err = s.repoSession.Delete(ctx, sess.ID)
	} else {
		err = s.repoSession.Save(ctx, sess)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to clear session", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}

	if userID != 0 {
		slog.InfoContext(ctx, "user logged out", "user_id", userID)
	}

	return nil
}
