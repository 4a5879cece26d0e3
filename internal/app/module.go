package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/otpgate/internal/identity"
)

func (a *App) initModules() {
	a.router.GET("/health", a.health)

	if err := identity.New(a.ctx, identity.Dependency{
		DBConn:     a.dbConn,
		Router:     a.router,
		Sessions:   a.sessions,
		Mail:       a.mail,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		HMAC:       a.hmac,
		Password:   a.password,
		Clock:      a.clock,
		Code:       a.code,
		Validator:  a.validator,
	}); err != nil {
		slog.Error("failed to init module identity", "error", err)
		os.Exit(1)
	}
}
