package session

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldPending = "pending_user_id"
	fieldUser    = "user_id"
)

// Redis stores each session as a hash whose TTL slides on every save.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis-backed store. A non-positive ttl falls back to DefaultTTL.
func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Redis{
		client: client,
		prefix: "session:",
		ttl:    ttl,
	}
}

func (r *Redis) Load(ctx context.Context, id string) (*Session, error) {
	values, err := r.client.HGetAll(ctx, r.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return New(id), nil
	}
	if err != nil {
		return nil, err
	}

	s := New(id)
	if s.PendingUserID, err = parseID(values[fieldPending]); err != nil {
		return nil, err
	}
	if s.UserID, err = parseID(values[fieldUser]); err != nil {
		return nil, err
	}

	return s, nil
}

func (r *Redis) Save(ctx context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrEmptyID
	}

	key := r.prefix + s.ID
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldPending, strconv.FormatInt(s.PendingUserID, 10),
			fieldUser, strconv.FormatInt(s.UserID, 10),
		)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})

	return err
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}

func parseID(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
