package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipients is returned when a message has no To, Cc or Bcc address.
	ErrNoRecipients = errors.New("mail: no recipients")
	// ErrNoSender is returned when neither the message nor the client has a From address.
	ErrNoSender = errors.New("mail: no sender")
)

// Message is a single email. TextBody is the canonical content; HTMLBody is an
// optional alternative part.
type Message struct {
	From     string
	To       []string
	Cc       []string
	Bcc      []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Recipients returns every envelope address: To, then Cc, then Bcc.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	out = append(out, m.To...)
	out = append(out, m.Cc...)
	return append(out, m.Bcc...)
}

// Mail delivers messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
