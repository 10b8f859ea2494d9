package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/txpress/taxi-api/internal/ports/out/clock"
	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

const selectLive = `
	SELECT body_hash, status_code, content_type, location, body, created_at
	FROM idempotency_keys
	WHERE (idempotency_key, subject, method, route) = ($1, $2, $3, $4)
	  AND created_at > $5`

// A live row for the scope keeps its response; an expired one is overwritten.
const upsertFirst = `
	INSERT INTO idempotency_keys
		(idempotency_key, subject, method, route, body_hash, status_code, content_type, location, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (idempotency_key, subject, method, route) DO UPDATE
	SET body_hash = EXCLUDED.body_hash,
	    status_code = EXCLUDED.status_code,
	    content_type = EXCLUDED.content_type,
	    location = EXCLUDED.location,
	    body = EXCLUDED.body,
	    created_at = EXCLUDED.created_at
	WHERE idempotency_keys.created_at <= $11`

var errNilPool = errors.New("nil postgres pool")

// Store keeps start-journey replays in the idempotency_keys table.
// Rows older than ttl, as measured by clk, count as absent.
type Store struct {
	pool  *pgxpool.Pool
	ttl   time.Duration
	clock clock.Clock
}

func NewStore(pool *pgxpool.Pool, ttl time.Duration, clk clock.Clock) *Store {
	return &Store{pool: pool, ttl: ttl, clock: clk}
}

func (s *Store) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

// cutoff is the oldest created_at still considered live.
func (s *Store) cutoff() time.Time {
	if s.ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(-s.ttl)
}

func scopeArgs(fp idempotency.Fingerprint) []any {
	return []any{string(fp.Key), string(fp.Subject), fp.Method, fp.Route}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx, selectLive, append(scopeArgs(fp), s.cutoff())...).
		Scan(&rec.BodyHash, &rec.StatusCode, &rec.ContentType, &rec.Location, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if rec.Body == nil {
		rec.Body = []byte{}
	}
	args := append(scopeArgs(fp),
		rec.BodyHash, rec.StatusCode, rec.ContentType, rec.Location, rec.Body, rec.CreatedAt.UTC(), s.cutoff())
	_, err := s.pool.Exec(ctx, upsertFirst, args...)
	return err
}
