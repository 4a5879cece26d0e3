package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPTTL         = 300 * time.Second
	defaultOTPMaxAttempts = 5
)

var errSessionMissing = errors.New("session missing from request context")

type repoDB interface {
	FindUserByUsername(ctx context.Context, username string) (*entity.User, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)
	FindUserByID(ctx context.Context, id int64) (*entity.User, error)
	CreateUser(ctx context.Context, user entity.User) error

	CreateOTP(ctx context.Context, o entity.OTP) (*entity.OTP, error)
	FindLatestUnconsumedOTP(ctx context.Context, userID int64) (*entity.OTP, error)
	FindOTPByID(ctx context.Context, id int64) (*entity.OTP, error)
	IncrementOTPAttempts(ctx context.Context, id int64, maxAttempts int) (attempts int, ok bool, err error)
	ConsumeOTP(ctx context.Context, id int64, maxAttempts int, now time.Time) (bool, error)
}

type repoSession interface {
	Save(ctx context.Context, s *session.Session) error
	Delete(ctx context.Context, id string) error
}

type notifier interface {
	Send(ctx context.Context, address, subject, body string) error
}

type Usecase struct {
	repoDB      repoDB
	repoSession repoSession
	notifier    notifier
	validator   validator.Validator
	cfg         config.Config
	password    hash.Hash
	uid         uid.NumberID
	clock       clock.Clocker
	ins         instrument.Instrumentation
	otp         *otpEngine
}

type Dependency struct {
	RepoDB      repoDB
	RepoSession repoSession
	Notifier    notifier
	Validator   validator.Validator
	Config      config.Config
	Password    hash.Hash
	HMAC        hash.Hash
	Code        otp.Generator
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:      dep.RepoDB,
		repoSession: dep.RepoSession,
		notifier:    dep.Notifier,
		validator:   dep.Validator,
		cfg:         dep.Config,
		password:    dep.Password,
		uid:         dep.UID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}

	s.otp = &otpEngine{
		repo:   dep.RepoDB,
		hmac:   dep.HMAC,
		code:   dep.Code,
		uid:    dep.UID,
		clock:  dep.Clock,
		policy: s.otpPolicy,
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// otpPolicy reads TTL and attempt limit on every call so config reloads apply to the next OTP.
func (s *Usecase) otpPolicy() (time.Duration, int) {
	ttl := s.cfg.GetSecond("modules.identity.otp.ttl_seconds")
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}

	maxAttempts := s.cfg.GetInt("modules.identity.otp.max_attempts")
	if maxAttempts <= 0 {
		maxAttempts = defaultOTPMaxAttempts
	}

	return ttl, maxAttempts
}

func (s *Usecase) requestSession(ctx context.Context) (*session.Session, error) {
	sess := session.FromContext(ctx)
	if sess == nil {
		return nil, goerror.NewServer(errSessionMissing)
	}
	return sess, nil
}
