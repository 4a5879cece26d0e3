package identity

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/identity/inbound"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/email"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/memory"
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

// Dependency wires the identity module. DBConn is optional: without it users and
// OTPs live in process memory.
type Dependency struct {
	DBConn     *pgxpool.Pool
	Router     *router.Router             `validate:"required"`
	Sessions   session.Store              `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Code       otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(ctx context.Context, dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoSession: dep.Sessions,
		Validator:   dep.Validator,
		Config:      dep.Config,
		Password:    dep.Password,
		HMAC:        dep.HMAC,
		Code:        dep.Code,
		UID:         dep.UID,
		Clock:       dep.Clock,
		Instrument:  dep.Instrument,
		Notifier: email.NewEmail(dep.Mail, dep.Instrument, email.Config{
			MaxRetries: uint64(max(dep.Config.GetInt("mail.retry.max_retries"), 0)),
			BaseDelay:  time.Duration(dep.Config.GetInt("mail.retry.base_delay_ms")) * time.Millisecond,
			Timeout:    dep.Config.GetSecond("mail.timeout_seconds"),
		}),
	}

	if dep.DBConn != nil {
		if err := db.Migrate(ctx, dep.DBConn); err != nil {
			return err
		}
		ucDep.RepoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		ucDep.RepoDB = memory.New()
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
