package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memclock "github.com/txpress/taxi-api/internal/adapters/memory/clock"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/clock"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T, clk *memclock.ManualClock) *Codec {
	t.Helper()
	c, err := NewCodec(Options{
		Secret: []byte(testSecret),
		Issuer: "txpress-test",
		TTL: map[Kind]time.Duration{
			KindAuth:         time.Hour,
			KindSearch:       30 * time.Minute,
			KindRegistration: 10 * time.Minute,
		},
		Clock: clk,
	})
	require.NoError(t, err)
	return c
}

func TestCodec_SealOpen(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, memclock.NewManualClock(time.Now().UTC()))
	in := domain.AuthSession{TaxiNumber: "ab-123", FullName: "Jane Roe"}

	tok, err := c.Seal(KindAuth, "ab-123", in)
	require.NoError(t, err)

	var out domain.AuthSession
	require.NoError(t, c.Open(KindAuth, "ab-123", tok, &out))
	assert.Equal(t, in, out)
}

func TestCodec_RejectsWrongBinding(t *testing.T) {
	t.Parallel()

	c := newTestCodec(t, memclock.NewManualClock(time.Now().UTC()))
	tok, err := c.Seal(KindSearch, "search-1", domain.SearchSession{ID: "search-1"})
	require.NoError(t, err)

	var out domain.SearchSession
	assert.ErrorIs(t, c.Open(KindSearch, "search-2", tok, &out), ErrInvalidToken)
	assert.ErrorIs(t, c.Open(KindAuth, "search-1", tok, &out), ErrInvalidToken)
	assert.ErrorIs(t, c.Open(KindSearch, "search-1", tok+"x", &out), ErrInvalidToken)
	assert.ErrorIs(t, c.Open(KindSearch, "search-1", "garbage", &out), ErrInvalidToken)
}

func TestCodec_Expiry(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Now().UTC())
	c := newTestCodec(t, clk)
	tok, err := c.Seal(KindRegistration, "reg-1", domain.PendingRegistration{ID: "reg-1", Number: "ab-123"})
	require.NoError(t, err)

	var out domain.PendingRegistration
	clk.Advance(5 * time.Minute)
	require.NoError(t, c.Open(KindRegistration, "reg-1", tok, &out))

	clk.Advance(10 * time.Minute)
	assert.ErrorIs(t, c.Open(KindRegistration, "reg-1", tok, &out), ErrInvalidToken)
}

func TestCodec_RejectsForeignSecret(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Now().UTC())
	c := newTestCodec(t, clk)
	other, err := NewCodec(Options{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		Issuer: "txpress-test",
		TTL:    map[Kind]time.Duration{KindAuth: time.Hour, KindSearch: time.Hour, KindRegistration: time.Hour},
		Clock:  clk,
	})
	require.NoError(t, err)

	tok, err := other.Seal(KindAuth, "ab-123", domain.AuthSession{TaxiNumber: "ab-123"})
	require.NoError(t, err)
	var out domain.AuthSession
	assert.ErrorIs(t, c.Open(KindAuth, "ab-123", tok, &out), ErrInvalidToken)
}

func TestNewCodec_Validation(t *testing.T) {
	t.Parallel()

	clk := memclock.NewManualClock(time.Now().UTC())
	ttl := map[Kind]time.Duration{KindAuth: time.Hour, KindSearch: time.Hour, KindRegistration: time.Hour}

	_, err := NewCodec(Options{Secret: []byte("short"), TTL: ttl, Clock: clk})
	assert.Error(t, err)

	_, err = NewCodec(Options{Secret: []byte(testSecret), TTL: map[Kind]time.Duration{KindAuth: time.Hour}, Clock: clk})
	assert.Error(t, err)

	_, err = NewCodec(Options{Secret: []byte(testSecret), TTL: ttl})
	assert.Error(t, err)
}

func TestCodec_RejectsForeignIssuer(t *testing.T) {
	t.Parallel()

	fixed := clock.Func(func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) })
	ttl := map[Kind]time.Duration{KindAuth: time.Hour, KindSearch: time.Hour, KindRegistration: time.Hour}
	a, err := NewCodec(Options{Secret: []byte(testSecret), Issuer: "a", TTL: ttl, Clock: fixed})
	require.NoError(t, err)
	b, err := NewCodec(Options{Secret: []byte(testSecret), Issuer: "b", TTL: ttl, Clock: fixed})
	require.NoError(t, err)

	tok, err := a.Seal(KindSearch, "s-1", domain.SearchSession{ID: "s-1"})
	require.NoError(t, err)
	var out domain.SearchSession
	require.NoError(t, a.Open(KindSearch, "s-1", tok, &out))
	assert.ErrorIs(t, b.Open(KindSearch, "s-1", tok, &out), ErrInvalidToken)
}
