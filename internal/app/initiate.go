package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
)

const pingTimeout = 5 * time.Second

// fatal aborts startup. Nothing is served until every dependency is ready.
func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func (a *App) initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := config.NewViper(path, config.Options{
		Defaults:    defaultConfig,
		EnvBindings: envBindings,
		Watch:       true,
	})
	if err != nil {
		fatal("failed to load config", err)
	}

	//nolint:errcheck,gosec // TZ is advisory
	os.Setenv("TZ", cfg.GetString("app.tz"))
	a.config = cfg
}

func (a *App) initInstrument() {
	c := a.config
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          c.GetBool("instrument.enabled"),
		ServiceName:      c.GetString("instrument.service_name"),
		ServiceVersion:   c.GetString("instrument.service_version"),
		Environment:      c.GetString("instrument.env"),
		OTLPEndpoint:     c.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       c.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: c.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  c.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       c.GetArray("instrument.log_mask_fields"),
		LogLevel:         c.GetString("instrument.log_level"),
	})
	if err != nil {
		fatal("failed to init instrumentation", err)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	var err error

	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))

	if a.password, err = hash.NewPassword(hash.PasswordConfig{
		Algorithm:  a.config.GetString("hash.password.algorithm"),
		BcryptCost: a.config.GetInt("hash.bcrypt.cost"),
		Pepper:     a.config.GetString("hash.password.pepper"),
	}); err != nil {
		fatal("failed to init password hasher", err)
	}
	if a.validator, err = validator.NewV10Validator(); err != nil {
		fatal("failed to init validator", err)
	}
	if a.uid, err = uid.NewSnowflake(); err != nil {
		fatal("failed to init snowflake ids", err)
	}
	if a.oid, err = uid.NewObjectIDGenerator(); err != nil {
		fatal("failed to init session ids", err)
	}
	if a.code, err = otp.NewNumeric(otp.DefaultDigits); err != nil {
		fatal("failed to init otp generator", err)
	}
}

func (a *App) initJWT() {
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.sessionTTL(),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		fatal("failed to init session cookie signer", err)
	}
	a.jwt = signer
}

func (a *App) sessionTTL() time.Duration {
	return a.config.GetMinute("app.server.session.ttl_minutes")
}

// initDatabase leaves dbConn nil without DATABASE_URL; the identity module
// then keeps users and OTPs in memory.
func (a *App) initDatabase() {
	dsn := strings.TrimSpace(a.config.GetString("database.url"))
	if dsn == "" {
		slog.Warn("database url is empty, users and otps are kept in memory")
		return
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		fatal("failed to parse database url", err)
	}
	poolCfg.MaxConns = a.config.GetInt32("database.pool.max_conns")
	poolCfg.MinConns = a.config.GetInt32("database.pool.min_conns")
	poolCfg.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	poolCfg.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	poolCfg.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, poolCfg)
	if err != nil {
		fatal("failed to create database pool", err)
	}

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		fatal("failed to ping database", err)
	}
	a.dbConn = pool
}

func (a *App) initCache() {
	url := strings.TrimSpace(a.config.GetString("redis.url"))
	if url == "" {
		return
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		fatal("failed to parse redis url", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fatal("failed to ping redis", err)
	}
	a.cacheConn = rdb
}

func (a *App) initSessions() {
	if a.cacheConn != nil {
		a.sessions = session.NewRedis(a.cacheConn, a.sessionTTL())
		return
	}

	slog.Warn("redis url is empty, sessions are kept in memory")
	a.sessions = session.NewMemory(a.clock, a.sessionTTL())
}

// initMail falls back to printing messages on the console when no SMTP
// server is configured.
func (a *App) initMail() {
	cfg := mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	}
	if !cfg.Configured() {
		slog.Warn("mail server is not configured, emails are printed to console")
		a.mail = mail.NewConsole(a.console)
		return
	}

	client, err := mail.NewSMTP(cfg)
	if err != nil {
		fatal("failed to init smtp mail", err)
	}
	a.mail = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		OID:        a.oid,
		JWT:        a.jwt,
		Instrument: a.ins,
		Sessions:   a.sessions,
		Cookie: router.CookieConfig{
			Name:   a.config.GetString("app.server.cookie.name"),
			Secure: a.config.GetBool("app.server.cookie.secure"),
			MaxAge: a.sessionTTL(),
		},
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers lists resources in the order Stop releases them.
func (a *App) initClosers() {
	a.closers = []closer{
		{"instrument", a.ins.Shutdown},
		{"mail", func(context.Context) error { return a.mail.Close() }},
		{"redis", func(context.Context) error {
			if a.cacheConn == nil {
				return nil
			}
			return a.cacheConn.Close()
		}},
		{"database", func(context.Context) error {
			if a.dbConn != nil {
				a.dbConn.Close()
			}
			return nil
		}},
		{"config", func(context.Context) error { return a.config.Close() }},
	}
}
