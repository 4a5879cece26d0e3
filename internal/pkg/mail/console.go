package mail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console is a Mail implementation that prints messages instead of delivering them.
// It is the development fallback used when SMTP credentials are not configured.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Send writes the message to the underlying writer.
func (c *Console) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(msg.Recipients()) == 0 {
		return ErrNoRecipients
	}

	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "=== EMAIL (DEV) ===\nTo: %s\nSubject: %s\n\n%s\n===================\n",
		strings.Join(msg.To, ", "), msg.Subject, body)
	return err
}

// Close implements io.Closer for interface compatibility.
func (c *Console) Close() error {
	return nil
}
