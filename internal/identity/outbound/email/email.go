package email

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultMaxRetries = 2
	defaultBaseDelay  = 200 * time.Millisecond
	defaultTimeout    = 15 * time.Second
)

// Config tunes delivery. Zero values fall back to the defaults.
type Config struct {
	MaxRetries uint64
	BaseDelay  time.Duration
	Timeout    time.Duration
}

// Email delivers notifications through a mail client with a bounded retry policy.
type Email struct {
	client     mail.Mail
	ins        instrument.Instrumentation
	maxRetries uint64
	baseDelay  time.Duration
	timeout    time.Duration
}

func NewEmail(client mail.Mail, ins instrument.Instrumentation, cfg Config) *Email {
	e := &Email{
		client:     client,
		ins:        ins,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		timeout:    cfg.Timeout,
	}
	if e.maxRetries == 0 {
		e.maxRetries = defaultMaxRetries
	}
	if e.baseDelay <= 0 {
		e.baseDelay = defaultBaseDelay
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}

	return e
}

func (e *Email) backoff() retry.Backoff {
	b := retry.NewExponential(e.baseDelay)
	b = retry.WithJitterPercent(10, b)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxRetries(e.maxRetries, b)
}

// Send delivers a plain-text message to address. Transient failures are retried;
// invalid messages and cancellations are not.
func (e *Email) Send(ctx context.Context, address, subject, body string) error {
	ctx, span := e.ins.Tracer("identity.outbound.email").Start(ctx, "Send")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	msg := mail.Message{
		To:       []string{address},
		Subject:  subject,
		TextBody: body,
	}

	attempt := 0
	err := retry.Do(ctx, e.backoff(), func(ctx context.Context) error {
		attempt++
		err := e.client.Send(ctx, msg)
		if err == nil || permanent(err) {
			return err
		}

		slog.WarnContext(ctx, "mail delivery attempt failed", "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})

	span.SetAttributes(attribute.Int("mail.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func permanent(err error) bool {
	return errors.Is(err, mail.ErrNoRecipients) ||
		errors.Is(err, mail.ErrNoSender) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
