package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"go.uber.org/atomic"
)

// Memory is a process-local credential store. Every method holds the lock for the whole
// read-modify-write, which gives the OTP updates the same compare-and-swap semantics as
// the conditional UPDATE of the Postgres store.
type Memory struct {
	mu      sync.RWMutex
	seq     *atomic.Int64
	users   map[int64]entity.User
	otps    map[int64]entity.OTP
	byOwner map[int64][]int64
}

func New() *Memory {
	return &Memory{
		seq:     atomic.NewInt64(0),
		users:   make(map[int64]entity.User),
		otps:    make(map[int64]entity.OTP),
		byOwner: make(map[int64][]int64),
	}
}

func (m *Memory) FindUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *Memory) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *Memory) FindUserByID(ctx context.Context, id int64) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &u, nil
}

func (m *Memory) CreateUser(ctx context.Context, user entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return goerror.ErrConflict
	}
	for _, u := range m.users {
		if u.Username == user.Username || strings.EqualFold(u.Email, user.Email) {
			return goerror.ErrConflict
		}
	}

	m.users[user.ID] = user
	return nil
}

func (m *Memory) CreateOTP(ctx context.Context, o entity.OTP) (*entity.OTP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[o.UserID]; !ok {
		return nil, goerror.ErrNotFound
	}
	if _, ok := m.otps[o.ID]; ok {
		return nil, goerror.ErrConflict
	}

	o.Seq = m.seq.Inc()
	o.Consumed = false
	o.Attempts = 0
	m.otps[o.ID] = o
	m.byOwner[o.UserID] = append(m.byOwner[o.UserID], o.ID)

	return &o, nil
}

func (m *Memory) FindLatestUnconsumedOTP(ctx context.Context, userID int64) (*entity.OTP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var candidates []entity.OTP
	for _, id := range m.byOwner[userID] {
		if o := m.otps[id]; !o.Consumed {
			candidates = append(candidates, o)
		}
	}
	if len(candidates) == 0 {
		return nil, goerror.ErrNotFound
	}

	latest := slices.MaxFunc(candidates, func(a, b entity.OTP) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Seq, b.Seq)
	})

	return &latest, nil
}

func (m *Memory) FindOTPByID(ctx context.Context, id int64) (*entity.OTP, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.otps[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &o, nil
}

func (m *Memory) IncrementOTPAttempts(ctx context.Context, id int64, maxAttempts int) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.otps[id]
	if !ok || o.Consumed || o.Attempts >= maxAttempts {
		return 0, false, nil
	}

	o.Attempts++
	m.otps[id] = o
	return o.Attempts, true, nil
}

func (m *Memory) ConsumeOTP(ctx context.Context, id int64, maxAttempts int, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.otps[id]
	if !ok || o.Consumed || o.Attempts >= maxAttempts || o.ExpiredAt(now) {
		return false, nil
	}

	o.Consumed = true
	m.otps[id] = o
	return true, nil
}
