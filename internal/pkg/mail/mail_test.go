package mail

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Send(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	err := c.Send(context.Background(), Message{
		To:       []string{"a@x.com"},
		Subject:  "Your login OTP",
		TextBody: "Hello alice,\n\nYour OTP is: 123456",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== EMAIL (DEV) ===")
	assert.Contains(t, out, "To: a@x.com")
	assert.Contains(t, out, "Subject: Your login OTP")
	assert.Contains(t, out, "Your OTP is: 123456")
	assert.NoError(t, c.Close())
}

func TestConsole_SendErrors(t *testing.T) {
	c := NewConsole(&bytes.Buffer{})

	assert.ErrorIs(t, c.Send(context.Background(), Message{}), ErrNoRecipients)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Send(ctx, Message{To: []string{"a@x.com"}}), context.Canceled)
}

func TestSMTPConfig_Configured(t *testing.T) {
	assert.False(t, SMTPConfig{}.Configured())
	assert.False(t, SMTPConfig{Host: "smtp.local", Username: "u"}.Configured())
	assert.True(t, SMTPConfig{Host: "smtp.local", Username: "u", Password: "p"}.Configured())
}

func TestNewSMTP(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	assert.ErrorIs(t, err, ErrHostRequired)

	s, err := NewSMTP(SMTPConfig{Host: "smtp.local", Port: 587, Username: "bot@x.com", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:587", s.addr)
	assert.Equal(t, "bot@x.com", s.from)
}

func TestSMTP_SendValidation(t *testing.T) {
	s, err := NewSMTP(SMTPConfig{Host: "smtp.local", Port: 587})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@x.com"}}), ErrNoSender)
}

func TestBuildBody(t *testing.T) {
	body, ct := buildBody(Message{TextBody: "hi"})
	assert.Equal(t, "hi", body)
	assert.Equal(t, "text/plain; charset=UTF-8", ct)

	body, ct = buildBody(Message{TextBody: "hi", HTMLBody: "<b>hi</b>"})
	assert.Contains(t, ct, "multipart/alternative; boundary=otpgate-boundary-")
	assert.Contains(t, body, "<b>hi</b>")
}

func TestCompose(t *testing.T) {
	raw := string(compose(Message{
		From:     "bot@x.com",
		To:       []string{"a@x.com", "b@x.com"},
		Cc:       []string{"c@x.com"},
		Bcc:      []string{"secret@x.com"},
		Subject:  "Your login OTP",
		TextBody: "Your OTP is: 123456",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: bot@x.com\r\nTo: a@x.com, b@x.com\r\nCc: c@x.com\r\n"))
	assert.Contains(t, raw, "Subject: Your login OTP\r\n")
	assert.Contains(t, raw, "\r\n\r\nYour OTP is: 123456")
	assert.NotContains(t, raw, "secret@x.com")
}

func TestMessage_Recipients(t *testing.T) {
	m := Message{To: []string{"a"}, Cc: []string{"b"}, Bcc: []string{"c"}}
	assert.Equal(t, []string{"a", "b", "c"}, m.Recipients())
	assert.Empty(t, Message{}.Recipients())
}
