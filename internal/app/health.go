package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type healthResponse struct {
	Database string `json:"database"`
	Sessions string `json:"sessions"`
}

func (healthResponse) Message() string { return "ok" }

// health reports whether the configured backing stores answer a ping.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Database: "memory", Sessions: "memory"}

	if a.dbConn != nil {
		if err := a.dbConn.Ping(ctx); err != nil {
			slog.ErrorContext(ctx, "health check database failed", "error", err)
			return nil, goerror.NewBusiness("Database unavailable", goerror.CodeUnavailable)
		}
		resp.Database = "postgres"
	}

	if a.cacheConn != nil {
		if err := a.cacheConn.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "health check redis failed", "error", err)
			return nil, goerror.NewBusiness("Session store unavailable", goerror.CodeUnavailable)
		}
		resp.Sessions = "redis"
	}

	return resp, nil
}
