package idempotency

import (
	"context"
	"testing"
	"time"

	memclock "github.com/txpress/taxi-api/internal/adapters/memory/clock"
	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Unix(1000, 0).UTC())
	s := NewStore(time.Minute, clk)
	fp := idempotency.Fingerprint{Key: "k1", Subject: "ab-123", Method: "POST", Route: "/taxis/{num}/start-journey", BodyHash: "h"}
	rec := idempotency.Record{BodyHash: "h", StatusCode: 201, Body: []byte(`{}`), CreatedAt: clk.Now()}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}
	clk.Advance(59 * time.Second)
	if _, ok, _ := s.Get(context.Background(), fp); !ok {
		t.Fatalf("Get() before expiry ok=false, want true")
	}
	clk.Advance(time.Second)
	if _, ok, _ := s.Get(context.Background(), fp); ok {
		t.Fatalf("Get() after expiry ok=true, want false")
	}

	// An expired scope can be written again.
	rec2 := rec
	rec2.Body = []byte(`{"id":"2"}`)
	rec2.CreatedAt = clk.Now()
	_ = s.Put(context.Background(), fp, rec2)
	got, ok, _ := s.Get(context.Background(), fp)
	if !ok || string(got.Body) != `{"id":"2"}` {
		t.Fatalf("Get()=%+v ok=%v", got, ok)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewStore(0, nil)
	fp := idempotency.Fingerprint{Key: "k1", Subject: "ab-123"}
	body := []byte("abc")
	_ = s.Put(context.Background(), fp, idempotency.Record{Body: body})
	body[0] = 'z'

	got, _, _ := s.Get(context.Background(), fp)
	got.Body[1] = 'z'
	again, _, _ := s.Get(context.Background(), fp)
	if string(again.Body) != "abc" {
		t.Fatalf("Body=%q want=%q", string(again.Body), "abc")
	}
}
