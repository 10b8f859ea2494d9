package idempotency

import (
	"context"
	"time"

	"github.com/txpress/taxi-api/internal/domain"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies a journey-start request made by one taxi.
// Records are stored under Scope; BodyHash travels with the record so a reused key
// carrying a different body is distinguishable from a retry.
type Fingerprint struct {
	Key      Key
	Subject  domain.TaxiNumber
	Method   string
	Route    string
	BodyHash string
}

// Scope returns fp without its body hash.
func (fp Fingerprint) Scope() Fingerprint {
	fp.BodyHash = ""
	return fp
}

// Record is the stored response we can replay for a duplicate request.
// Location is empty when the original response carried no Location header.
type Record struct {
	BodyHash    string
	StatusCode  int
	ContentType string
	Location    string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying safe responses on retries.
//
// Get looks up by fp.Scope() and reports found=false for absent or expired records.
// Put keeps the first record written for a scope; later writes are ignored.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
