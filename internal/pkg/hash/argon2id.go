package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

var errArgon2idFormat = errors.New("hash: malformed argon2id hash")

// argon2Params are the tunables encoded into every hash, so old hashes keep
// verifying after the defaults change.
type argon2Params struct {
	memory      uint32 // KiB
	iterations  uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

// Argon2id hashes passwords with argon2id in the PHC string format
// ($argon2id$v=19$m=...,t=...,p=...$salt$key).
type Argon2id struct {
	params argon2Params
	pepper string
	// sema bounds concurrent hashes; each one holds params.memory KiB.
	sema chan struct{}
}

func NewArgon2id(pepper string) *Argon2id {
	return &Argon2id{
		params: argon2Params{
			memory:      32 * 1024,
			iterations:  3,
			parallelism: 2,
			saltLen:     16,
			keyLen:      32,
		},
		pepper: pepper,
		sema:   make(chan struct{}, 2),
	}
}

func (a *Argon2id) Hash(str string) ([]byte, error) {
	salt := make([]byte, a.params.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("hash: argon2id salt: %w", err)
	}

	key := a.derive(str, salt, a.params)

	return fmt.Appendf(nil, "%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix, argon2.Version,
		a.params.memory, a.params.iterations, a.params.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (a *Argon2id) Verify(hashed, str string) bool {
	if str == "" {
		return false
	}

	p, salt, key, err := decodeArgon2id(hashed)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, a.derive(str, salt, p)) == 1
}

func (a *Argon2id) derive(str string, salt []byte, p argon2Params) []byte {
	a.sema <- struct{}{}
	defer func() { <-a.sema }()

	return argon2.IDKey([]byte(str+a.pepper), salt, p.iterations, p.memory, p.parallelism, p.keyLen)
}

func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	rest, ok := strings.CutPrefix(encoded, argon2idPrefix)
	if !ok {
		return p, nil, nil, errArgon2idFormat
	}

	parts := strings.Split(rest, "$")
	if len(parts) != 4 {
		return p, nil, nil, errArgon2idFormat
	}

	var version int
	if _, err := fmt.Sscanf(parts[0], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errArgon2idFormat
	}
	if _, err := fmt.Sscanf(parts[1], "m=%d,t=%d,p=%d", &p.memory, &p.iterations, &p.parallelism); err != nil {
		return p, nil, nil, errArgon2idFormat
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return p, nil, nil, errArgon2idFormat
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errArgon2idFormat
	}

	p.saltLen = uint32(len(salt)) //nolint:gosec // bounded by input
	p.keyLen = uint32(len(key))   //nolint:gosec // bounded by input

	return p, salt, key, nil
}
