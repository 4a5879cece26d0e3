package session

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyID is returned when a store is asked to persist a session without an ID.
var ErrEmptyID = errors.New("session: empty id")

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

// Session is the per-browser state carried between requests.
//
// PendingUserID identifies a user who passed the password check and still has to
// confirm the emailed OTP. UserID identifies a fully authenticated user.
// A zero value means the reference is absent.
type Session struct {
	ID            string
	PendingUserID int64
	UserID        int64

	// rotate is request-scoped and never persisted.
	rotate bool
}

// New returns an empty session with the given ID.
func New(id string) *Session {
	return &Session{ID: id}
}

// SetPending records the user awaiting OTP confirmation.
func (s *Session) SetPending(userID int64) {
	s.PendingUserID = userID
}

// HasPending reports whether a login is in progress.
func (s *Session) HasPending() bool {
	return s.PendingUserID != 0
}

// ClearPending drops the in-progress login.
func (s *Session) ClearPending() {
	s.PendingUserID = 0
}

// Promote turns the pending reference into the authenticated one. The session
// must then move to a new ID so an identifier planted before login is worthless.
func (s *Session) Promote() {
	s.UserID = s.PendingUserID
	s.PendingUserID = 0
	s.rotate = true
}

// NeedsRotation reports whether Promote ran during this request.
func (s *Session) NeedsRotation() bool {
	return s.rotate
}

// MoveTo returns a copy of s stored under id.
func (s *Session) MoveTo(id string) *Session {
	return &Session{ID: id, PendingUserID: s.PendingUserID, UserID: s.UserID}
}

// Authenticated reports whether the session belongs to a verified user.
func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

// ClearAuthenticated drops the authenticated reference.
func (s *Session) ClearAuthenticated() {
	s.UserID = 0
}

// Empty reports whether the session holds no reference at all.
func (s *Session) Empty() bool {
	return s.PendingUserID == 0 && s.UserID == 0
}

// Store persists sessions between requests.
type Store interface {
	// Load returns the stored session, or a fresh one with the same ID when nothing is stored.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session attached to ctx, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}
