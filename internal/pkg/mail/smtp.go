package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// ErrHostRequired is returned by NewSMTP when the server address is incomplete.
var ErrHostRequired = errors.New("mail: smtp host and port are required")

const crlf = "\r\n"

// SMTPConfig configures the SMTP client.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is used when a Message has no From. Empty means Username.
	From string
}

// Configured reports whether the config holds everything needed to deliver mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SMTP sends mail with net/smtp, which upgrades to STARTTLS when the server offers it.
type SMTP struct {
	addr string
	from string
	auth smtp.Auth
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port <= 0 {
		return nil, ErrHostRequired
	}

	s := &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.From,
	}
	if s.from == "" {
		s.from = cfg.Username
	}
	if cfg.Username != "" && cfg.Password != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return s, nil
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rcpt := msg.Recipients()
	if len(rcpt) == 0 {
		return ErrNoRecipients
	}

	if msg.From == "" {
		msg.From = s.from
	}
	if msg.From == "" {
		return ErrNoSender
	}

	// net/smtp has no context support; this is the last point we can bail out.
	if err := ctx.Err(); err != nil {
		return err
	}

	return smtp.SendMail(s.addr, s.auth, msg.From, rcpt, compose(msg))
}

func (s *SMTP) Close() error {
	return nil
}

// compose renders msg as an RFC 5322 message. Bcc is never written to the headers.
func compose(msg Message) []byte {
	body, contentType := buildBody(msg)

	var b strings.Builder
	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString(crlf)
	}

	header("From", msg.From)
	header("To", strings.Join(msg.To, ", "))
	if len(msg.Cc) > 0 {
		header("Cc", strings.Join(msg.Cc, ", "))
	}
	header("Subject", msg.Subject)
	header("MIME-Version", "1.0")
	header("Content-Type", contentType)
	b.WriteString(crlf)
	b.WriteString(body)

	return []byte(b.String())
}

func buildBody(msg Message) (body, contentType string) {
	switch {
	case msg.HTMLBody == "":
		return msg.TextBody, "text/plain; charset=UTF-8"
	case msg.TextBody == "":
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	boundary := multipartBoundary()

	var b strings.Builder
	part := func(ct, content string) {
		fmt.Fprintf(&b, "--%s%sContent-Type: %s; charset=UTF-8%s%s%s%s", boundary, crlf, ct, crlf, crlf, content, crlf)
	}
	part("text/plain", msg.TextBody)
	part("text/html", msg.HTMLBody)
	fmt.Fprintf(&b, "--%s--", boundary)

	return b.String(), "multipart/alternative; boundary=" + boundary
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "otpgate-boundary-fallback"
	}
	return "otpgate-boundary-" + hex.EncodeToString(b[:])
}
