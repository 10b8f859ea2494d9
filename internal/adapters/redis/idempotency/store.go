package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

const keyPrefix = "txpress:idem:"

// Store is a Redis implementation of idempotency.Store.
// Records expire through the key TTL; SETNX keeps the first record of a scope.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

type stored struct {
	BodyHash    string    `json:"body_hash"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Location    string    `json:"location,omitempty"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

func redisKey(fp idempotency.Fingerprint) string {
	return keyPrefix + strings.Join([]string{string(fp.Key), string(fp.Subject), fp.Method, fp.Route}, "\x1f")
}

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.client == nil {
		return idempotency.Record{}, false, errors.New("nil redis client")
	}
	raw, err := s.client.Get(ctx, redisKey(fp)).Bytes()
	if errors.Is(err, redis.Nil) {
		return idempotency.Record{}, false, nil
	}
	if err != nil {
		return idempotency.Record{}, false, err
	}
	var v stored
	if err := json.Unmarshal(raw, &v); err != nil {
		return idempotency.Record{}, false, err
	}
	return idempotency.Record{
		BodyHash:    v.BodyHash,
		StatusCode:  v.StatusCode,
		ContentType: v.ContentType,
		Location:    v.Location,
		Body:        v.Body,
		CreatedAt:   v.CreatedAt.UTC(),
	}, true, nil
}

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.client == nil {
		return errors.New("nil redis client")
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	raw, err := json.Marshal(stored{
		BodyHash:    rec.BodyHash,
		StatusCode:  rec.StatusCode,
		ContentType: rec.ContentType,
		Location:    rec.Location,
		Body:        rec.Body,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, redisKey(fp), raw, s.ttl).Err()
}
