package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	memclock "github.com/txpress/taxi-api/internal/adapters/memory/clock"
	memidempotency "github.com/txpress/taxi-api/internal/adapters/memory/idempotency"
	memstores "github.com/txpress/taxi-api/internal/adapters/memory/stores"
	"github.com/txpress/taxi-api/internal/app/journeys"
	"github.com/txpress/taxi-api/internal/app/searches"
	"github.com/txpress/taxi-api/internal/app/stands"
	"github.com/txpress/taxi-api/internal/app/taxis"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/platform/password"
	"github.com/txpress/taxi-api/internal/platform/session"
)

const testBaseURL = "http://api.test"

var testDeparture = time.Date(2030, 5, 1, 9, 30, 0, 0, time.UTC)

type testAPI struct {
	h      http.Handler
	clock  *memclock.ManualClock
	stores memstores.Set
	reg    *prometheus.Registry
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	st := memstores.New()

	codec, err := session.NewCodec(session.Options{
		Secret: []byte(strings.Repeat("k", session.MinSecretLen)),
		Issuer: "test",
		TTL: map[session.Kind]time.Duration{
			session.KindAuth:         time.Hour,
			session.KindSearch:       time.Hour,
			session.KindRegistration: 10 * time.Minute,
		},
		Clock: clk,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	svc := Services{
		Stands:   stands.NewService(st.Stands, log),
		Taxis:    taxis.NewService(st.Taxis, password.NewBcryptHasher(bcrypt.MinCost), log, m),
		Journeys: journeys.NewService(st.Journeys, st.Bookings, st.Stands, journeys.Options{Logger: log, Metrics: m, OwnershipCheck: true}),
		Searches: searches.NewService(st.Search, st.Stands, log, m),
	}
	api := NewServer(svc, codec, memidempotency.NewStore(time.Hour, clk), ServerOptions{
		BaseURL: testBaseURL,
		Logger:  log,
		Clock:   clk,
	})
	h := NewRouterWithOptions(api, RouterOptions{Logger: log, Metrics: m, Gatherer: reg})
	return &testAPI{h: h, clock: clk, stores: st, reg: reg}
}

func (a *testAPI) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithHeader(t, method, path, body, nil, cookies...)
}

func (a *testAPI) doWithHeader(t *testing.T, method, path, body string, hdr http.Header, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no cookie %q in response; got %v", name, rec.Result().Cookies())
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v body=%s", err, rec.Body.String())
	}
	return out
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"errorDescription"`
	ErrorCode        string `json:"errorCode"`
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantError, wantCode string) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, wantStatus, rec.Body.String())
	}
	got := decode[errorBody](t, rec)
	if got.Error != wantError || got.ErrorCode != wantCode {
		t.Fatalf("error=%q code=%q want=%q/%q", got.Error, got.ErrorCode, wantError, wantCode)
	}
	if got.ErrorDescription == "" {
		t.Fatalf("errorDescription should be set")
	}
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status=%d want=%d body=%s", rec.Code, want, rec.Body.String())
	}
}

type linksBody map[string]struct {
	Href string `json:"href"`
}

// addStands creates named stands and returns their URLs in order.
func (a *testAPI) addStands(t *testing.T, names ...string) []string {
	t.Helper()
	b, _ := json.Marshal(map[string][]string{"taxi_ranks": names})
	rec := a.do(t, http.MethodPost, "/taxi-ranks", string(b))
	requireStatus(t, rec, http.StatusCreated)
	resp := decode[struct {
		TaxiRanks []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"taxi_ranks"`
	}](t, rec)
	out := make([]string, 0, len(resp.TaxiRanks))
	for _, s := range resp.TaxiRanks {
		out = append(out, s.ID)
	}
	return out
}

// register runs both registration steps and returns the auth cookie.
func (a *testAPI) register(t *testing.T, number string, seats int) *http.Cookie {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/taxis/registration?number="+number, "")
	requireStatus(t, rec, http.StatusOK)
	start := decode[struct {
		ID string `json:"id"`
	}](t, rec)
	pending := cookieNamed(t, rec, start.ID)

	b, _ := json.Marshal(map[string]any{
		"owner":        "Jane Driver",
		"password":     "correct horse",
		"car_brand":    "Toyota",
		"num_of_seats": seats,
	})
	rec = a.do(t, http.MethodPost, "/taxis/registration/"+start.ID+"/complete", string(b), pending)
	requireStatus(t, rec, http.StatusCreated)
	return cookieNamed(t, rec, strings.ToLower(number))
}

func journeyBody(from, to string, at time.Time) string {
	b, _ := json.Marshal(map[string]any{
		"departure_id":       from,
		"arrival_id":         to,
		"departure_schedule": at,
	})
	return string(b)
}

func (a *testAPI) startJourney(t *testing.T, number string, auth *http.Cookie, from, to string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/taxis/"+number+"/start-journey", journeyBody(from, to, testDeparture), auth)
	requireStatus(t, rec, http.StatusCreated)
	return decode[struct {
		ID string `json:"id"`
	}](t, rec).ID
}
