package contracttest

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
	idempotencyport "github.com/txpress/taxi-api/internal/ports/out/idempotency"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
	"github.com/txpress/taxi-api/internal/ports/out/searchrepo"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

type CleanupFunc = func()

// Stores is a set of repositories sharing one backing store, so journeys can reference
// taxis and stands created through the other repos.
type Stores struct {
	Stands   standrepo.Repository
	Taxis    taxirepo.Repository
	Journeys journeyrepo.Repository
	Bookings bookingrepo.Repository
	Search   searchrepo.Repository
}

type StoresFactory func(t *testing.T) (Stores, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func open(t *testing.T, newStores StoresFactory) Stores {
	t.Helper()
	s, cleanup := newStores(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}
	return s
}

// uniqueNumber returns a taxi number that does not collide across runs against a shared database.
func uniqueNumber(prefix string) domain.TaxiNumber {
	return domain.TaxiNumber(prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func seedTaxi(t *testing.T, s Stores, seats int) domain.Taxi {
	t.Helper()
	taxi := domain.Taxi{
		ID:        domain.TaxiID(uuid.NewString()),
		Number:    uniqueNumber("tx"),
		Brand:     "Toyota",
		SeatCount: seats,
	}
	if err := s.Taxis.CreateWithOwner(context.Background(), taxi, domain.Owner{FullName: "Jane Roe", PasswordDigest: "digest"}); err != nil {
		t.Fatalf("seed taxi: %v", err)
	}
	return taxi
}

func seedStands(t *testing.T, s Stores, names ...string) []domain.Stand {
	t.Helper()
	out := make([]domain.Stand, 0, len(names))
	for _, n := range names {
		out = append(out, domain.Stand{ID: domain.StandID(uuid.NewString()), Name: n})
	}
	if err := s.Stands.CreateMany(context.Background(), out); err != nil {
		t.Fatalf("seed stands: %v", err)
	}
	return out
}

func newJourney(owner domain.TaxiNumber, from, to domain.StandID, at time.Time) domain.Journey {
	return domain.Journey{
		ID:                domain.JourneyID(uuid.NewString()),
		OwnerNumber:       owner,
		Origin:            from,
		Destination:       to,
		DepartureSchedule: at,
	}
}

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      idempotencyport.Key("k-" + uuid.NewString()),
		Subject:  "ab-123",
		Method:   "POST",
		Route:    "/taxis/{num}/start-journey",
		BodyHash: "hash-abc",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		BodyHash:    "hash-abc",
		StatusCode:  201,
		ContentType: "application/json",
		Location:    "http://localhost:8000/taxis/ab-123/journey/j-1",
		Body:        []byte(`{"id":"j-1"}`),
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"j-1"}` || got.StatusCode != 201 || got.BodyHash != "hash-abc" || got.ContentType != "application/json" ||
		got.Location != rec.Location {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Lookup ignores the body hash so key reuse with another body is detectable.
	other := fp
	other.BodyHash = "hash-def"
	got, ok, err = store.Get(ctx, other)
	if err != nil || !ok || got.BodyHash != "hash-abc" {
		t.Fatalf("Get other body: ok=%v err=%v rec=%+v", ok, err, got)
	}

	// First write wins.
	rec2 := rec
	rec2.BodyHash = "hash-def"
	rec2.Body = []byte(`{"id":"j-2"}`)
	if err := store.Put(ctx, other, rec2); err != nil {
		t.Fatalf("Put second: %v", err)
	}
	got, _, _ = store.Get(ctx, fp)
	if string(got.Body) != `{"id":"j-1"}` {
		t.Fatalf("expected first record to survive, got %q", string(got.Body))
	}

	// Another subject is another scope.
	foreign := fp
	foreign.Subject = "zz-999"
	if _, ok, err := store.Get(ctx, foreign); err != nil || ok {
		t.Fatalf("Get foreign subject: ok=%v err=%v", ok, err)
	}
}

func RunStandRepo(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()
	s := open(t, newStores)

	prefix := uuid.NewString()[:8]
	stands := seedStands(t, s, prefix+" Zeta", prefix+" Alpha")

	got, err := s.Stands.GetByID(ctx, stands[0].ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != stands[0] {
		t.Fatalf("GetByID=%+v want=%+v", got, stands[0])
	}

	if _, err := s.Stands.GetByID(ctx, domain.StandID(uuid.NewString())); !errors.Is(err, standrepo.ErrNotFound) {
		t.Fatalf("GetByID unknown err=%v want=%v", err, standrepo.ErrNotFound)
	}

	all, err := s.Stands.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var mine []domain.Stand
	for _, st := range all {
		if strings.HasPrefix(st.Name, prefix) {
			mine = append(mine, st)
		}
	}
	if len(mine) != 2 || mine[0].Name != prefix+" Alpha" || mine[1].Name != prefix+" Zeta" {
		t.Fatalf("unexpected ordering: %#v", mine)
	}
}

func RunTaxiRepo(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()
	s := open(t, newStores)

	taxi := seedTaxi(t, s, 4)

	ok, err := s.Taxis.Exists(ctx, taxi.Number)
	if err != nil || !ok {
		t.Fatalf("Exists=%v err=%v want=true", ok, err)
	}
	ok, err = s.Taxis.Exists(ctx, domain.TaxiNumber(strings.ToUpper(string(taxi.Number))))
	if err != nil || !ok {
		t.Fatalf("Exists upper=%v err=%v want=true", ok, err)
	}

	got, err := s.Taxis.GetByNumber(ctx, taxi.Number)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if got.Number != taxi.Number || got.Brand != "Toyota" || got.SeatCount != 4 || got.ID != taxi.ID {
		t.Fatalf("GetByNumber=%+v want=%+v", got, taxi)
	}

	owner, err := s.Taxis.GetOwner(ctx, taxi.Number)
	if err != nil || owner.FullName != "Jane Roe" || owner.PasswordDigest != "digest" {
		t.Fatalf("GetOwner=%+v err=%v", owner, err)
	}

	dup := taxi
	dup.ID = domain.TaxiID(uuid.NewString())
	dup.Number = domain.TaxiNumber(strings.ToUpper(string(taxi.Number)))
	if err := s.Taxis.CreateWithOwner(ctx, dup, domain.Owner{FullName: "Other", PasswordDigest: "x"}); !errors.Is(err, taxirepo.ErrAlreadyExists) {
		t.Fatalf("CreateWithOwner dup err=%v want=%v", err, taxirepo.ErrAlreadyExists)
	}
	owner, _ = s.Taxis.GetOwner(ctx, taxi.Number)
	if owner.FullName != "Jane Roe" {
		t.Fatalf("owner overwritten by failed create: %+v", owner)
	}

	missing := uniqueNumber("nx")
	if _, err := s.Taxis.GetByNumber(ctx, missing); !errors.Is(err, taxirepo.ErrNotFound) {
		t.Fatalf("GetByNumber missing err=%v want=%v", err, taxirepo.ErrNotFound)
	}
	if _, err := s.Taxis.GetOwner(ctx, missing); !errors.Is(err, taxirepo.ErrNotFound) {
		t.Fatalf("GetOwner missing err=%v want=%v", err, taxirepo.ErrNotFound)
	}
	if ok, err := s.Taxis.Exists(ctx, missing); err != nil || ok {
		t.Fatalf("Exists missing=%v err=%v", ok, err)
	}
}

func RunJourneyRepos(t *testing.T, newStores StoresFactory) {
	t.Helper()

	t.Run("lifecycle", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStores)
		taxi := seedTaxi(t, s, 4)
		st := seedStands(t, s, "A", "B")
		base := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

		if ok, err := s.Journeys.HasInProgress(ctx, taxi.Number); err != nil || ok {
			t.Fatalf("HasInProgress before=%v err=%v", ok, err)
		}
		if _, err := s.Journeys.GetInProgress(ctx, taxi.Number); !errors.Is(err, journeyrepo.ErrNotFound) {
			t.Fatalf("GetInProgress before err=%v", err)
		}

		j1 := newJourney(taxi.Number, st[0].ID, st[1].ID, base)
		if err := s.Journeys.Create(ctx, j1); err != nil {
			t.Fatalf("Create j1: %v", err)
		}
		got, err := s.Journeys.GetByID(ctx, j1.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if got.OwnerNumber != taxi.Number || got.Origin != st[0].ID || got.Destination != st[1].ID || !got.DepartureSchedule.Equal(base) || got.Closed || got.ReservedSeats != 0 {
			t.Fatalf("GetByID=%+v", got)
		}

		j2 := newJourney(taxi.Number, st[1].ID, st[0].ID, base.Add(time.Hour))
		if err := s.Journeys.Create(ctx, j2); !errors.Is(err, journeyrepo.ErrInProgress) {
			t.Fatalf("Create second open err=%v want=%v", err, journeyrepo.ErrInProgress)
		}

		inProgress, err := s.Journeys.GetInProgress(ctx, taxi.Number)
		if err != nil || inProgress.ID != j1.ID {
			t.Fatalf("GetInProgress=%+v err=%v", inProgress, err)
		}

		if err := s.Journeys.Close(ctx, j1.ID); err != nil {
			t.Fatalf("Close: %v", err)
		}
		if err := s.Journeys.Close(ctx, j1.ID); err != nil {
			t.Fatalf("Close again: %v", err)
		}
		if ok, _ := s.Journeys.HasInProgress(ctx, taxi.Number); ok {
			t.Fatalf("HasInProgress after close=true")
		}

		if err := s.Journeys.Create(ctx, j2); err != nil {
			t.Fatalf("Create j2 after close: %v", err)
		}

		list, err := s.Journeys.ListByOwner(ctx, taxi.Number)
		if err != nil {
			t.Fatalf("ListByOwner: %v", err)
		}
		if len(list) != 2 || list[0].ID != j2.ID || list[1].ID != j1.ID || !list[1].Closed {
			t.Fatalf("ListByOwner=%+v", list)
		}

		if err := s.Journeys.Delete(ctx, j2.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.Journeys.GetByID(ctx, j2.ID); !errors.Is(err, journeyrepo.ErrNotFound) {
			t.Fatalf("GetByID deleted err=%v", err)
		}
		if err := s.Journeys.Delete(ctx, j2.ID); !errors.Is(err, journeyrepo.ErrNotFound) {
			t.Fatalf("Delete missing err=%v", err)
		}
		if err := s.Journeys.Close(ctx, j2.ID); !errors.Is(err, journeyrepo.ErrNotFound) {
			t.Fatalf("Close missing err=%v", err)
		}
	})

	t.Run("bookings block delete", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStores)
		taxi := seedTaxi(t, s, 4)
		st := seedStands(t, s, "A", "B")

		j := newJourney(taxi.Number, st[0].ID, st[1].ID, time.Date(2030, 2, 1, 8, 0, 0, 0, time.UTC))
		if err := s.Journeys.Create(ctx, j); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if ok, err := s.Bookings.ExistsForJourney(ctx, j.ID); err != nil || ok {
			t.Fatalf("ExistsForJourney before=%v err=%v", ok, err)
		}
		if err := s.Bookings.Create(ctx, domain.Booking{ID: domain.BookingID(uuid.NewString()), JourneyID: j.ID, ReservedSeats: 2}); err != nil {
			t.Fatalf("Create booking: %v", err)
		}
		if ok, err := s.Bookings.ExistsForJourney(ctx, j.ID); err != nil || !ok {
			t.Fatalf("ExistsForJourney after=%v err=%v", ok, err)
		}
		got, _ := s.Journeys.GetByID(ctx, j.ID)
		if got.ReservedSeats != 2 {
			t.Fatalf("ReservedSeats=%d want=2", got.ReservedSeats)
		}
		if err := s.Journeys.Delete(ctx, j.ID); !errors.Is(err, journeyrepo.ErrHasBookings) {
			t.Fatalf("Delete booked err=%v want=%v", err, journeyrepo.ErrHasBookings)
		}

		err := s.Bookings.Create(ctx, domain.Booking{ID: domain.BookingID(uuid.NewString()), JourneyID: domain.JourneyID(uuid.NewString()), ReservedSeats: 1})
		if !errors.Is(err, bookingrepo.ErrUnknownJourney) {
			t.Fatalf("Create booking unknown journey err=%v want=%v", err, bookingrepo.ErrUnknownJourney)
		}
	})

	t.Run("concurrent create keeps one open journey", func(t *testing.T) {
		ctx := context.Background()
		s := open(t, newStores)
		taxi := seedTaxi(t, s, 4)
		st := seedStands(t, s, "A", "B")

		const n = 16
		var created, conflicts atomic.Int32
		var g errgroup.Group
		for i := 0; i < n; i++ {
			at := time.Date(2030, 3, 1, 8, i, 0, 0, time.UTC)
			g.Go(func() error {
				err := s.Journeys.Create(ctx, newJourney(taxi.Number, st[0].ID, st[1].ID, at))
				switch {
				case err == nil:
					created.Add(1)
				case errors.Is(err, journeyrepo.ErrInProgress):
					conflicts.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("concurrent Create: %v", err)
		}
		if created.Load() != 1 || conflicts.Load() != n-1 {
			t.Fatalf("created=%d conflicts=%d want=1/%d", created.Load(), conflicts.Load(), n-1)
		}
		list, _ := s.Journeys.ListByOwner(ctx, taxi.Number)
		if len(list) != 1 {
			t.Fatalf("ListByOwner len=%d want=1", len(list))
		}
	})
}

func RunSearchRepo(t *testing.T, newStores StoresFactory) {
	t.Helper()
	ctx := context.Background()
	s := open(t, newStores)

	st := seedStands(t, s, "A", "B", "C")
	late := seedTaxi(t, s, 4)
	early := seedTaxi(t, s, 6)
	closed := seedTaxi(t, s, 4)
	other := seedTaxi(t, s, 4)
	base := time.Date(2030, 4, 1, 8, 0, 0, 0, time.UTC)

	jLate := newJourney(late.Number, st[0].ID, st[1].ID, base.Add(2*time.Hour))
	jEarly := newJourney(early.Number, st[0].ID, st[1].ID, base)
	jClosed := newJourney(closed.Number, st[0].ID, st[1].ID, base.Add(time.Hour))
	jOther := newJourney(other.Number, st[0].ID, st[2].ID, base)
	for _, j := range []domain.Journey{jLate, jEarly, jClosed, jOther} {
		if err := s.Journeys.Create(ctx, j); err != nil {
			t.Fatalf("Create %s: %v", j.ID, err)
		}
	}
	if err := s.Journeys.Close(ctx, jClosed.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Bookings.Create(ctx, domain.Booking{ID: domain.BookingID(uuid.NewString()), JourneyID: jEarly.ID, ReservedSeats: 2}); err != nil {
		t.Fatalf("Create booking: %v", err)
	}

	got, err := s.Search.FindOpenByRoute(ctx, st[0].ID, st[1].ID)
	if err != nil {
		t.Fatalf("FindOpenByRoute: %v", err)
	}
	if len(got) != 2 || got[0].JourneyID != jEarly.ID || got[1].JourneyID != jLate.ID {
		t.Fatalf("FindOpenByRoute=%+v", got)
	}
	if got[0].Number != early.Number || got[0].SeatCount != 6 || got[0].ReservedSeats != 2 || got[0].AvailableSeats() != 4 || got[0].Brand != "Toyota" {
		t.Fatalf("candidate=%+v", got[0])
	}

	none, err := s.Search.FindOpenByRoute(ctx, st[1].ID, st[0].ID)
	if err != nil || len(none) != 0 {
		t.Fatalf("FindOpenByRoute reversed=%+v err=%v", none, err)
	}

	c, err := s.Search.GetByJourney(ctx, jClosed.ID)
	if err != nil || !c.Closed || c.Number != closed.Number || c.Origin != st[0].ID || c.Destination != st[1].ID {
		t.Fatalf("GetByJourney closed=%+v err=%v", c, err)
	}
	if _, err := s.Search.GetByJourney(ctx, domain.JourneyID(uuid.NewString())); !errors.Is(err, searchrepo.ErrNotFound) {
		t.Fatalf("GetByJourney missing err=%v want=%v", err, searchrepo.ErrNotFound)
	}
}
