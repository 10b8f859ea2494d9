package searches

import (
	"context"
	"strings"
	"testing"
	"time"

	memstores "github.com/txpress/taxi-api/internal/adapters/memory/stores"
	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
)

var base = time.Date(2030, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	stores memstores.Set
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	st := memstores.New()
	if err := st.Stands.CreateMany(ctx, []domain.Stand{{ID: "s-a", Name: "A"}, {ID: "s-b", Name: "B"}, {ID: "s-c", Name: "C"}}); err != nil {
		t.Fatalf("seed stands: %v", err)
	}
	seed := []struct {
		number domain.TaxiNumber
		seats  int
		j      domain.Journey
	}{
		{"late-1", 4, domain.Journey{ID: "j-late", Origin: "s-a", Destination: "s-b", DepartureSchedule: base.Add(time.Hour)}},
		{"early-1", 6, domain.Journey{ID: "j-early", Origin: "s-a", Destination: "s-b", DepartureSchedule: base}},
		{"other-1", 4, domain.Journey{ID: "j-other", Origin: "s-a", Destination: "s-c", DepartureSchedule: base}},
	}
	for _, sd := range seed {
		if err := st.Taxis.CreateWithOwner(ctx, domain.Taxi{ID: domain.TaxiID("t-" + sd.number), Number: sd.number, Brand: "Skoda", SeatCount: sd.seats}, domain.Owner{FullName: "Owner"}); err != nil {
			t.Fatalf("seed taxi: %v", err)
		}
		sd.j.OwnerNumber = sd.number
		if err := st.Journeys.Create(ctx, sd.j); err != nil {
			t.Fatalf("seed journey: %v", err)
		}
	}
	svc := NewService(st.Search, st.Stands, nil, nil)
	svc.SetNewSearchIDForTest(func() domain.SearchID { return "q-1" })
	return fixture{svc: svc, stores: st}
}

func (f fixture) search(t *testing.T) domain.SearchSession {
	t.Helper()
	sess, err := f.svc.PerformSearch(context.Background(), domain.SearchCriteria{DepartureStandID: "s-a", ArrivalStandID: "s-b"})
	if err != nil {
		t.Fatalf("PerformSearch err=%v", err)
	}
	return sess
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperr.HasCode(err, code) {
		t.Fatalf("err=%v (type=%T), want code=%s", err, err, code)
	}
}

func TestService_PerformSearch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	if sess.ID != "q-1" || sess.Selection != nil || sess.Criteria.ArrivalStandID != "s-b" {
		t.Fatalf("session=%+v", sess)
	}

	ctx := context.Background()
	_, err := f.svc.PerformSearch(ctx, domain.SearchCriteria{DepartureStandID: "s-a"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = f.svc.PerformSearch(ctx, domain.SearchCriteria{DepartureStandID: "s-a", ArrivalStandID: "s-a"})
	requireCode(t, err, apperr.CodeValidation)
	_, err = f.svc.PerformSearch(ctx, domain.SearchCriteria{DepartureStandID: "s-a", ArrivalStandID: "s-zz"})
	requireCode(t, err, apperr.CodeUnknownStand)
}

func TestService_SessionMustMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	ctx := context.Background()

	_, err := f.svc.GetSearch(ctx, "q-1", nil)
	requireCode(t, err, apperr.CodeUnknownSearch)
	_, err = f.svc.ListCandidateTaxis(ctx, "q-2", &sess)
	requireCode(t, err, apperr.CodeUnknownSearch)
	_, err = f.svc.SelectTaxi(ctx, "q-2", &sess, "early-1", 1, "j-early")
	requireCode(t, err, apperr.CodeUnknownSearch)
	_, err = f.svc.GetSelection(ctx, "q-2", &sess)
	requireCode(t, err, apperr.CodeUnknownSearch)

	got, err := f.svc.GetSearch(ctx, "q-1", &sess)
	if err != nil || got.ID != "q-1" {
		t.Fatalf("GetSearch=%+v err=%v", got, err)
	}
}

func TestService_ListCandidateTaxis(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	ctx := context.Background()

	got, err := f.svc.ListCandidateTaxis(ctx, sess.ID, &sess)
	if err != nil {
		t.Fatalf("ListCandidateTaxis err=%v", err)
	}
	if len(got) != 2 || got[0].JourneyID != "j-early" || got[1].JourneyID != "j-late" {
		t.Fatalf("candidates=%+v", got)
	}

	if err := f.stores.Journeys.Close(ctx, "j-early"); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	got, _ = f.svc.ListCandidateTaxis(ctx, sess.ID, &sess)
	if len(got) != 1 || got[0].JourneyID != "j-late" {
		t.Fatalf("candidates after close=%+v", got)
	}
}

func TestService_SelectTaxi(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	ctx := context.Background()

	updated, err := f.svc.SelectTaxi(ctx, sess.ID, &sess, "EARLY-1", 3, "j-early")
	if err != nil {
		t.Fatalf("SelectTaxi err=%v", err)
	}
	if updated.Selection == nil || updated.Selection.TaxiNumber != "early-1" || updated.Selection.SeatCount != 3 || updated.Selection.JourneyID != "j-early" {
		t.Fatalf("selection=%+v", updated.Selection)
	}
	if sess.Selection != nil {
		t.Fatalf("input session mutated")
	}

	view, err := f.svc.GetSelection(ctx, sess.ID, &updated)
	if err != nil {
		t.Fatalf("GetSelection err=%v", err)
	}
	if view.Seats != 3 || view.Taxi.Number != "early-1" || view.Taxi.AvailableSeats() != 6 {
		t.Fatalf("view=%+v", view)
	}
}

func TestService_SelectTaxi_Rejects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		number  domain.TaxiNumber
		seats   int
		journey domain.JourneyID
		code    string
	}{
		{"zero seats", "early-1", 0, "j-early", apperr.CodeValidation},
		{"too many seats", "early-1", 7, "j-early", apperr.CodeValidation},
		{"unknown journey", "early-1", 1, "j-nope", apperr.CodeUnknownJourney},
		{"foreign taxi", "late-1", 1, "j-early", apperr.CodeValidation},
		{"other route", "other-1", 1, "j-other", apperr.CodeValidation},
	}
	for _, tc := range cases {
		_, err := f.svc.SelectTaxi(ctx, sess.ID, &sess, tc.number, tc.seats, tc.journey)
		if !apperr.HasCode(err, tc.code) {
			t.Fatalf("%s: err=%v want code=%s", tc.name, err, tc.code)
		}
		if ae, _ := apperr.As(err); ae.Status() != 400 {
			t.Fatalf("%s: status=%d want=400", tc.name, ae.Status())
		}
	}

	if err := f.stores.Journeys.Close(ctx, "j-late"); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	_, err := f.svc.SelectTaxi(ctx, sess.ID, &sess, "late-1", 1, "j-late")
	requireCode(t, err, apperr.CodeValidation)
}

func TestService_GetSelection_Edges(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	sess := f.search(t)
	ctx := context.Background()

	_, err := f.svc.GetSelection(ctx, sess.ID, &sess)
	requireCode(t, err, apperr.CodeNoSelection)

	updated, err := f.svc.SelectTaxi(ctx, sess.ID, &sess, "late-1", 1, "j-late")
	if err != nil {
		t.Fatalf("SelectTaxi err=%v", err)
	}
	if err := f.stores.Journeys.Delete(ctx, "j-late"); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	_, err = f.svc.GetSelection(ctx, sess.ID, &updated)
	requireCode(t, err, apperr.CodeUnknownJourney)
	if ae, _ := apperr.As(err); ae.Status() != 404 {
		t.Fatalf("status=%d want=404", ae.Status())
	}
}

// foldingStands resolves ids case-insensitively, like a uuid column does.
type foldingStands struct {
	standrepo.Repository
}

func (r foldingStands) GetByID(ctx context.Context, id domain.StandID) (domain.Stand, error) {
	return r.Repository.GetByID(ctx, domain.StandID(strings.ToLower(string(id))))
}

func TestService_SearchKeepsStoredStandIDs(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	svc := NewService(f.stores.Search, foldingStands{f.stores.Stands}, nil, nil)
	svc.SetNewSearchIDForTest(func() domain.SearchID { return "q-1" })
	ctx := context.Background()

	sess, err := svc.PerformSearch(ctx, domain.SearchCriteria{DepartureStandID: "S-A", ArrivalStandID: "S-B"})
	if err != nil {
		t.Fatalf("PerformSearch err=%v", err)
	}
	if sess.Criteria.DepartureStandID != "s-a" || sess.Criteria.ArrivalStandID != "s-b" {
		t.Fatalf("criteria=%+v want stored ids", sess.Criteria)
	}

	got, err := svc.ListCandidateTaxis(ctx, sess.ID, &sess)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListCandidateTaxis len=%d err=%v", len(got), err)
	}
	if _, err := svc.SelectTaxi(ctx, sess.ID, &sess, got[0].Number, 1, got[0].JourneyID); err != nil {
		t.Fatalf("SelectTaxi on listed candidate err=%v", err)
	}

	_, err = svc.PerformSearch(ctx, domain.SearchCriteria{DepartureStandID: "s-a", ArrivalStandID: "S-A"})
	requireCode(t, err, apperr.CodeValidation)
}
