package session

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
)

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// Memory keeps sessions in process memory. Entries expire lazily on Load.
type Memory struct {
	mu      sync.Mutex
	clock   clock.Clocker
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemory returns an in-memory store. A non-positive ttl falls back to DefaultTTL.
func NewMemory(clk clock.Clocker, ttl time.Duration) *Memory {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory{
		clock:   clk,
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (m *Memory) Load(ctx context.Context, id string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return New(id), nil
	}
	if !m.clock.Now().Before(e.expiresAt) {
		delete(m.entries, id)
		return New(id), nil
	}

	s := e.session
	return &s, nil
}

func (m *Memory) Save(ctx context.Context, s *Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.ID == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *s
	stored.rotate = false
	m.entries[s.ID] = memoryEntry{session: stored, expiresAt: m.clock.Now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, id)
	return nil
}
