package uid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// ErrStableNodeIdentityUnavailable is returned when neither /etc/machine-id nor
// the hostname can identify this node.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity")

const objectIDSize = 32

// ObjectIDGenerator produces 64-char hex IDs laid out as
//
//	[0:6]   unix milliseconds
//	[6:12]  node hash
//	[12:14] pid
//	[14:18] counter
//	[18:32] crypto/rand
//
// The random tail keeps IDs unguessable, which is what session keys need.
type ObjectIDGenerator struct {
	prefix  [14]byte // node hash and pid, fixed for the process
	counter atomic.Uint32
	now     func() time.Time
}

func NewObjectIDGenerator() (*ObjectIDGenerator, error) {
	src, err := stableNodeIdentity()
	if err != nil {
		return nil, err
	}

	g := &ObjectIDGenerator{now: time.Now}

	sum := sha256.Sum256([]byte(src))
	copy(g.prefix[6:12], sum[:6])
	binary.BigEndian.PutUint16(g.prefix[12:14], uint16(os.Getpid())) //nolint:gosec // truncation is fine

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, err
	}
	g.counter.Store(binary.BigEndian.Uint32(seed[:]))

	return g, nil
}

// stableNodeIdentity returns /etc/machine-id, falling back to the hostname.
func stableNodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}

func (g *ObjectIDGenerator) Generate() string {
	var raw [objectIDSize]byte
	copy(raw[:], g.prefix[:])

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(g.now().UnixMilli())) //nolint:gosec // positive after 1970
	copy(raw[0:6], ts[2:])

	binary.BigEndian.PutUint32(raw[14:18], g.counter.Add(1))

	// crypto/rand.Read never fails on supported platforms.
	_, _ = rand.Read(raw[18:])

	return hex.EncodeToString(raw[:])
}
