package journeys

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	memstores "github.com/txpress/taxi-api/internal/adapters/memory/stores"
	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

var departure = time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	stores  memstores.Set
	metrics *metrics.Metrics
	auth    domain.AuthSession
	from    domain.StandID
	to      domain.StandID
}

func newFixture(t *testing.T, ownershipCheck bool) fixture {
	t.Helper()
	ctx := context.Background()
	st := memstores.New()
	if err := st.Stands.CreateMany(ctx, []domain.Stand{{ID: "s-a", Name: "A"}, {ID: "s-b", Name: "B"}}); err != nil {
		t.Fatalf("seed stands: %v", err)
	}
	for _, n := range []domain.TaxiNumber{"ab-123", "zz-999"} {
		if err := st.Taxis.CreateWithOwner(ctx, domain.Taxi{ID: domain.TaxiID("t-" + n), Number: n, Brand: "Toyota", SeatCount: 4}, domain.Owner{FullName: "Owner"}); err != nil {
			t.Fatalf("seed taxi: %v", err)
		}
	}
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(st.Journeys, st.Bookings, st.Stands, Options{Metrics: m, OwnershipCheck: ownershipCheck})
	return fixture{
		svc:     svc,
		stores:  st,
		metrics: m,
		auth:    domain.AuthSession{TaxiNumber: "ab-123", FullName: "Owner"},
		from:    "s-a",
		to:      "s-b",
	}
}

func (f fixture) criteria() domain.JourneyCriteria {
	return domain.JourneyCriteria{Origin: f.from, Destination: f.to, DepartureSchedule: departure}
}

func (f fixture) start(t *testing.T) domain.Journey {
	t.Helper()
	j, err := f.svc.StartJourney(context.Background(), f.auth, "ab-123", f.criteria())
	if err != nil {
		t.Fatalf("StartJourney err=%v", err)
	}
	return j
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperr.HasCode(err, code) {
		t.Fatalf("err=%v (type=%T), want code=%s", err, err, code)
	}
}

func TestService_StartJourney(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	f.svc.SetNewJourneyIDForTest(func() domain.JourneyID { return "j-1" })

	j := f.start(t)
	if j.ID != "j-1" || j.OwnerNumber != "ab-123" || j.Closed || j.ReservedSeats != 0 || !j.DepartureSchedule.Equal(departure) {
		t.Fatalf("journey=%+v", j)
	}
	if !j.Cancellable() || !j.Closable() {
		t.Fatalf("fresh journey should be cancellable and closable")
	}

	ok, err := f.svc.HasJourneyInProgress(context.Background(), "AB-123")
	if err != nil || !ok {
		t.Fatalf("HasJourneyInProgress=%v err=%v", ok, err)
	}

	_, err = f.svc.StartJourney(context.Background(), f.auth, "ab-123", f.criteria())
	requireCode(t, err, apperr.CodeJourneyInProgress)
	if ae, _ := apperr.As(err); ae.Status() != 400 {
		t.Fatalf("status=%d want=400", ae.Status())
	}
	if got := testutil.ToFloat64(f.metrics.JourneyStartConflicts); got != 1 {
		t.Fatalf("conflicts=%v want=1", got)
	}
}

func TestService_StartJourney_Rejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.StartJourney(ctx, domain.AuthSession{}, "ab-123", f.criteria())
	requireCode(t, err, apperr.CodeNoCredentials)

	_, err = f.svc.StartJourney(ctx, domain.AuthSession{TaxiNumber: "zz-999"}, "ab-123", f.criteria())
	requireCode(t, err, apperr.CodeNoCredentials)

	c := f.criteria()
	c.Destination = "s-unknown"
	_, err = f.svc.StartJourney(ctx, f.auth, "ab-123", c)
	requireCode(t, err, apperr.CodeUnknownStand)

	c = f.criteria()
	c.Destination = c.Origin
	_, err = f.svc.StartJourney(ctx, f.auth, "ab-123", c)
	requireCode(t, err, apperr.CodeValidation)

	c = f.criteria()
	c.DepartureSchedule = time.Time{}
	_, err = f.svc.StartJourney(ctx, f.auth, "ab-123", c)
	requireCode(t, err, apperr.CodeValidation)

	if ok, _ := f.svc.HasJourneyInProgress(ctx, "ab-123"); ok {
		t.Fatalf("rejected start left a journey in progress")
	}
}

func TestService_StartJourney_ConcurrentStartsOpenOne(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	const n = 32
	var ok, conflicts atomic.Int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := f.svc.StartJourney(context.Background(), f.auth, "ab-123", f.criteria())
			switch {
			case err == nil:
				ok.Add(1)
			case apperr.HasCode(err, apperr.CodeJourneyInProgress):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("StartJourney err=%v", err)
	}
	if ok.Load() != 1 || conflicts.Load() != n-1 {
		t.Fatalf("ok=%d conflicts=%d want=1/%d", ok.Load(), conflicts.Load(), n-1)
	}
	list, _ := f.svc.ListJourneys(context.Background(), f.auth, "ab-123")
	if len(list) != 1 {
		t.Fatalf("journeys=%d want=1", len(list))
	}
}

func TestService_GetJourney(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	j := f.start(t)

	got, err := f.svc.GetJourney(context.Background(), j.ID)
	if err != nil || got.ID != j.ID {
		t.Fatalf("GetJourney=%+v err=%v", got, err)
	}
	_, err = f.svc.GetJourney(context.Background(), "nope")
	requireCode(t, err, apperr.CodeUnknownJourney)
}

func TestService_InProgressAndList(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.GetInProgressJourney(ctx, f.auth, "ab-123")
	requireCode(t, err, apperr.CodeNoActiveJourney)

	first := f.start(t)
	got, err := f.svc.GetInProgressJourney(ctx, f.auth, "ab-123")
	if err != nil || got.ID != first.ID {
		t.Fatalf("GetInProgressJourney=%+v err=%v", got, err)
	}

	if err := f.svc.CloseJourney(ctx, f.auth, "ab-123", first.ID); err != nil {
		t.Fatalf("CloseJourney err=%v", err)
	}
	_, err = f.svc.GetInProgressJourney(ctx, f.auth, "ab-123")
	requireCode(t, err, apperr.CodeNoActiveJourney)

	c := f.criteria()
	c.DepartureSchedule = departure.Add(24 * time.Hour)
	second, err := f.svc.StartJourney(ctx, f.auth, "ab-123", c)
	if err != nil {
		t.Fatalf("second StartJourney err=%v", err)
	}

	list, err := f.svc.ListJourneys(ctx, f.auth, "ab-123")
	if err != nil {
		t.Fatalf("ListJourneys err=%v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("list=%+v", list)
	}

	_, err = f.svc.ListJourneys(ctx, domain.AuthSession{}, "ab-123")
	requireCode(t, err, apperr.CodeNoCredentials)
	_, err = f.svc.GetInProgressJourney(ctx, domain.AuthSession{}, "ab-123")
	requireCode(t, err, apperr.CodeNoCredentials)
}

func TestService_CancelJourney(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	j := f.start(t)

	if err := f.svc.CancelJourney(ctx, f.auth, "ab-123", j.ID); err != nil {
		t.Fatalf("CancelJourney err=%v", err)
	}
	_, err := f.svc.GetJourney(ctx, j.ID)
	requireCode(t, err, apperr.CodeUnknownJourney)
	if ok, _ := f.svc.HasJourneyInProgress(ctx, "ab-123"); ok {
		t.Fatalf("cancelled journey still in progress")
	}

	err = f.svc.CancelJourney(ctx, f.auth, "ab-123", j.ID)
	requireCode(t, err, apperr.CodeUnknownJourney)

	if got := testutil.ToFloat64(f.metrics.JourneysCancelled); got != 1 {
		t.Fatalf("cancelled=%v want=1", got)
	}
}

func TestService_CancelJourney_WithBooking(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	j := f.start(t)
	if err := f.stores.Bookings.Create(ctx, domain.Booking{ID: "b-1", JourneyID: j.ID, ReservedSeats: 1}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	err := f.svc.CancelJourney(ctx, f.auth, "ab-123", j.ID)
	requireCode(t, err, apperr.CodeHasBookings)
	if ae, _ := apperr.As(err); ae.Status() != 400 {
		t.Fatalf("status=%d want=400", ae.Status())
	}

	got, err := f.svc.GetJourney(ctx, j.ID)
	if err != nil || got.Cancellable() {
		t.Fatalf("journey=%+v err=%v, want kept and not cancellable", got, err)
	}
}

// bookingsBlind reports no bookings, so the storage-level guard is the only protection.
type bookingsBlind struct{}

func (bookingsBlind) Create(context.Context, domain.Booking) error { return nil }
func (bookingsBlind) ExistsForJourney(context.Context, domain.JourneyID) (bool, error) {
	return false, nil
}

func TestService_CancelJourney_StorageGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	j := f.start(t)
	if err := f.stores.Bookings.Create(ctx, domain.Booking{ID: "b-1", JourneyID: j.ID, ReservedSeats: 1}); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	svc := NewService(f.stores.Journeys, bookingsBlind{}, f.stores.Stands, Options{OwnershipCheck: true})
	err := svc.CancelJourney(ctx, f.auth, "ab-123", j.ID)
	requireCode(t, err, apperr.CodeHasBookings)
}

func TestService_CloseJourney_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	ctx := context.Background()
	j := f.start(t)

	for i := 0; i < 2; i++ {
		if err := f.svc.CloseJourney(ctx, f.auth, "ab-123", j.ID); err != nil {
			t.Fatalf("CloseJourney #%d err=%v", i, err)
		}
	}
	got, _ := f.svc.GetJourney(ctx, j.ID)
	if !got.Closed || got.Closable() || got.Cancellable() {
		t.Fatalf("journey=%+v", got)
	}
	if n := testutil.ToFloat64(f.metrics.JourneysClosed); n != 1 {
		t.Fatalf("closed=%v want=1", n)
	}

	err := f.svc.CloseJourney(ctx, f.auth, "ab-123", "nope")
	requireCode(t, err, apperr.CodeUnknownJourney)
}

func TestService_Ownership(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	intruder := domain.AuthSession{TaxiNumber: "zz-999", FullName: "Other"}

	t.Run("checked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		j := f.start(t)

		requireCode(t, f.svc.CancelJourney(ctx, intruder, "zz-999", j.ID), apperr.CodeUnknownJourney)
		requireCode(t, f.svc.CloseJourney(ctx, intruder, "zz-999", j.ID), apperr.CodeUnknownJourney)
		got, _ := f.svc.GetJourney(ctx, j.ID)
		if got.Closed {
			t.Fatalf("intruder closed the journey")
		}
	})

	t.Run("unchecked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, false)
		j := f.start(t)

		if err := f.svc.CloseJourney(ctx, intruder, "zz-999", j.ID); err != nil {
			t.Fatalf("CloseJourney err=%v", err)
		}
	})

	t.Run("path must match session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, true)
		j := f.start(t)

		requireCode(t, f.svc.CancelJourney(ctx, f.auth, "zz-999", j.ID), apperr.CodeNoCredentials)
	})
}

// foldingStands resolves ids case-insensitively, like a uuid column does.
type foldingStands struct {
	standrepo.Repository
}

func (r foldingStands) GetByID(ctx context.Context, id domain.StandID) (domain.Stand, error) {
	return r.Repository.GetByID(ctx, domain.StandID(strings.ToLower(string(id))))
}

func TestService_StartJourney_StoresStandIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)
	svc := NewService(f.stores.Journeys, f.stores.Bookings, foldingStands{f.stores.Stands}, Options{OwnershipCheck: true})
	ctx := context.Background()

	_, err := svc.StartJourney(ctx, f.auth, "ab-123", domain.JourneyCriteria{Origin: "s-a", Destination: "S-A", DepartureSchedule: departure})
	requireCode(t, err, apperr.CodeValidation)

	j, err := svc.StartJourney(ctx, f.auth, "ab-123", domain.JourneyCriteria{Origin: "S-A", Destination: "S-B", DepartureSchedule: departure})
	if err != nil {
		t.Fatalf("StartJourney err=%v", err)
	}
	if j.Origin != "s-a" || j.Destination != "s-b" {
		t.Fatalf("origin=%s destination=%s want stored ids", j.Origin, j.Destination)
	}
	got, err := svc.GetJourney(ctx, j.ID)
	if err != nil || got.Origin != "s-a" {
		t.Fatalf("GetJourney=%+v err=%v", got, err)
	}
}
