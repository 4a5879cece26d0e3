package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

const otpColumns = `id, seq, user_id, code_hash, created_at, expires_at, consumed, attempts`

func scanOTP(row pgx.Row) (*entity.OTP, error) {
	var o entity.OTP
	if err := row.Scan(&o.ID, &o.Seq, &o.UserID, &o.CodeHash, &o.CreatedAt, &o.ExpiresAt, &o.Consumed, &o.Attempts); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *DB) CreateOTP(ctx context.Context, o entity.OTP) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "CreateOTP")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanOTP(s.conn.QueryRow(ctx,
		`INSERT INTO identity_otps (id, user_id, code_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+otpColumns,
		o.ID, o.UserID, o.CodeHash, o.CreatedAt, o.ExpiresAt))
	if err != nil {
		return nil, translate(err)
	}

	return rec, nil
}

func (s *DB) FindLatestUnconsumedOTP(ctx context.Context, userID int64) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindLatestUnconsumedOTP")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanOTP(s.conn.QueryRow(ctx,
		`SELECT `+otpColumns+` FROM identity_otps
		WHERE user_id = $1 AND consumed = false
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`, userID))
	if err != nil {
		return nil, translate(err)
	}

	return rec, nil
}

func (s *DB) FindOTPByID(ctx context.Context, id int64) (_ *entity.OTP, err error) {
	ctx, span := s.startSpan(ctx, "FindOTPByID")
	defer func() { s.endSpan(span, err) }()

	rec, err := scanOTP(s.conn.QueryRow(ctx, `SELECT `+otpColumns+` FROM identity_otps WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}

	return rec, nil
}

// IncrementOTPAttempts bumps the counter only while the record is unconsumed and below
// maxAttempts. ok is false when that condition no longer holds.
func (s *DB) IncrementOTPAttempts(ctx context.Context, id int64, maxAttempts int) (attempts int, ok bool, err error) {
	ctx, span := s.startSpan(ctx, "IncrementOTPAttempts")
	defer func() { s.endSpan(span, err) }()

	err = s.conn.QueryRow(ctx,
		`UPDATE identity_otps SET attempts = attempts + 1
		WHERE id = $1 AND consumed = false AND attempts < $2
		RETURNING attempts`, id, maxAttempts).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, translate(err)
	}

	return attempts, true, nil
}

// ConsumeOTP marks the record consumed only while it is unconsumed, below maxAttempts
// and not expired at now.
func (s *DB) ConsumeOTP(ctx context.Context, id int64, maxAttempts int, now time.Time) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeOTP")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE identity_otps SET consumed = true
		WHERE id = $1 AND consumed = false AND attempts < $2 AND expires_at >= $3`,
		id, maxAttempts, now)
	if err != nil {
		return false, translate(err)
	}

	return tag.RowsAffected() == 1, nil
}
