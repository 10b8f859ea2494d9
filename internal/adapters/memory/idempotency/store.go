package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/txpress/taxi-api/internal/ports/out/clock"
	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

// Store is an in-memory implementation of idempotency.Store.
// It is safe for concurrent use. Expired records are dropped lazily on access.
type Store struct {
	mu    sync.Mutex
	m     map[idempotency.Fingerprint]idempotency.Record
	ttl   time.Duration
	clock clock.Clock
}

// NewStore returns a store whose records live for ttl as measured by clk. ttl <= 0 keeps records forever.
func NewStore(ttl time.Duration, clk clock.Clock) *Store {
	return &Store{
		m:     make(map[idempotency.Fingerprint]idempotency.Record),
		ttl:   ttl,
		clock: clk,
	}
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	_ = ctx
	scope := fp.Scope()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[scope]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	if s.expired(rec) {
		delete(s.m, scope)
		return idempotency.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	_ = ctx
	scope := fp.Scope()
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.m[scope]; ok && !s.expired(existing) {
		return nil
	}
	s.m[scope] = cloneRecord(rec)
	return nil
}

func (s *Store) expired(rec idempotency.Record) bool {
	if s.ttl <= 0 || s.clock == nil {
		return false
	}
	return !s.clock.Now().Before(rec.CreatedAt.Add(s.ttl))
}

func cloneRecord(r idempotency.Record) idempotency.Record {
	r.Body = append([]byte(nil), r.Body...)
	return r
}
