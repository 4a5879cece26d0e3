package app

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/session"
)

// devSecret is only meant for local runs; deployments set SECRET_KEY.
const devSecret = "otpgate-dev-secret-change-me-otpgate-dev-secret-change-me-0123456789"

// defaultConfig is applied before config.yaml and the environment.
var defaultConfig = map[string]any{
	"app.tz": "UTC",

	"app.server.http.address":                     ":8080",
	"app.server.http.read_timeout_seconds":        15,
	"app.server.http.read_header_timeout_seconds": 5,
	"app.server.http.write_timeout_seconds":       15,
	"app.server.http.idle_timeout_seconds":        60,
	"app.server.cookie.secure":                    false,
	"app.server.session.ttl_minutes":              int(session.DefaultTTL / time.Minute),

	"instrument.enabled":                 false,
	"instrument.service_name":            "otpgate",
	"instrument.service_version":         "dev",
	"instrument.env":                     "local",
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 15,
	"instrument.log_level":               "info",
	"instrument.log_mask_fields":         []string{"password", "otp", "code", "cookie", "set-cookie", "authorization"},

	"modules.identity.otp.ttl_seconds":  300,
	"modules.identity.otp.max_attempts": 5,

	"database.pool.max_conns":                   10,
	"database.pool.min_conns":                   1,
	"database.pool.max_conn_lifetime_seconds":   1800,
	"database.pool.max_conn_idle_seconds":       300,
	"database.pool.health_check_period_seconds": 30,

	"mail.port":                587,
	"mail.timeout_seconds":     15,
	"mail.retry.max_retries":   2,
	"mail.retry.base_delay_ms": 200,

	"hash.password.algorithm": hash.AlgorithmBcrypt,
	"hash.bcrypt.cost":        12,
	"hash.hmac.secret":        devSecret,

	"jwt.secret": devSecret,
	"jwt.issuer": "otpgate",
}

// envBindings lets the documented variable names override nested keys.
var envBindings = map[string][]string{
	"modules.identity.otp.ttl_seconds":  {"OTP_EXPIRY_SECONDS"},
	"modules.identity.otp.max_attempts": {"MAX_OTP_ATTEMPTS"},
	"database.url":                      {"DATABASE_URL"},
	"redis.url":                         {"REDIS_URL"},
	"mail.host":                         {"MAIL_SERVER"},
	"mail.port":                         {"MAIL_PORT"},
	"mail.username":                     {"MAIL_USERNAME"},
	"mail.password":                     {"MAIL_PASSWORD"},
	"mail.from":                         {"MAIL_FROM"},
	"jwt.secret":                        {"SECRET_KEY"},
	"hash.hmac.secret":                  {"SECRET_KEY"},
	"app.server.http.address":           {"HTTP_ADDRESS"},
}
