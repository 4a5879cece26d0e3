package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "identity.outbound.db"

// pgErrors maps SQLSTATE codes to repository sentinels. A foreign key failure
// means the referenced user no longer exists.
var pgErrors = map[string]error{
	"23505": goerror.ErrConflict,
	"23503": goerror.ErrNotFound,
}

// DB is the Postgres repository for users and OTP records.
type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgErrors[pgErr.Code]; ok {
			return sentinel
		}
	}
	return err
}

func (s *DB) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return s.ins.Tracer(tracerName).Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
		),
	)
}

// endSpan marks the span failed unless err is an expected repository outcome.
func (s *DB) endSpan(span trace.Span, err error) {
	defer span.End()

	if err == nil || errors.Is(err, goerror.ErrNotFound) || errors.Is(err, goerror.ErrConflict) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
