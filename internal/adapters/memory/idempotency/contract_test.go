package idempotency

import (
	"testing"
	"time"

	"github.com/txpress/taxi-api/internal/adapters/contracttest"
	memclock "github.com/txpress/taxi-api/internal/adapters/memory/clock"
	idempotencyport "github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

func TestContract_IdempotencyStore(t *testing.T) {
	contracttest.RunIdempotencyStore(t, func(t *testing.T) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(time.Hour, memclock.NewManualClock(time.Now().UTC())), nil
	})
}
