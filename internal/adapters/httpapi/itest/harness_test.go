package itest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/txpress/taxi-api/internal/adapters/httpapi"
	memidempotency "github.com/txpress/taxi-api/internal/adapters/memory/idempotency"
	memstores "github.com/txpress/taxi-api/internal/adapters/memory/stores"
	pgidempotency "github.com/txpress/taxi-api/internal/adapters/postgres/idempotency"
	pgstores "github.com/txpress/taxi-api/internal/adapters/postgres/stores"
	postgres_testutil "github.com/txpress/taxi-api/internal/adapters/postgres/testutil"
	"github.com/txpress/taxi-api/internal/app/journeys"
	"github.com/txpress/taxi-api/internal/app/searches"
	"github.com/txpress/taxi-api/internal/app/stands"
	"github.com/txpress/taxi-api/internal/app/taxis"
	"github.com/txpress/taxi-api/internal/platform/clock"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/platform/password"
	"github.com/txpress/taxi-api/internal/platform/session"
	"github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
	idempotencyport "github.com/txpress/taxi-api/internal/ports/out/idempotency"
	"github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
	"github.com/txpress/taxi-api/internal/ports/out/searchrepo"
	"github.com/txpress/taxi-api/internal/ports/out/standrepo"
	"github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type repos struct {
	stands   standrepo.Repository
	taxis    taxirepo.Repository
	journeys journeyrepo.Repository
	bookings bookingrepo.Repository
	search   searchrepo.Repository
	idem     idempotencyport.Store
}

type testServer struct {
	baseURL string
	client  *http.Client
	repos   repos
}

func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := clock.NewSystemClock()
	var r repos
	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		st := pgstores.New(pool)
		r = repos{st.Stands, st.Taxis, st.Journeys, st.Bookings, st.Search, pgidempotency.NewStore(pool, time.Hour, clk)}
	case backendMemory:
		st := memstores.New()
		r = repos{st.Stands, st.Taxis, st.Journeys, st.Bookings, st.Search, memidempotency.NewStore(time.Hour, clk)}
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	log := zaptest.NewLogger(t)
	m := metrics.New(prometheus.NewRegistry())
	codec, err := session.NewCodec(session.Options{
		Secret: []byte("itest-secret-itest-secret-itest-secret"),
		Issuer: "itest",
		TTL: map[session.Kind]time.Duration{
			session.KindAuth:         time.Hour,
			session.KindSearch:       time.Hour,
			session.KindRegistration: time.Hour,
		},
		Clock: clk,
	})
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	// Links must point at the listening server, which only knows its URL once started.
	var handler http.Handler
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.ServeHTTP(w, req)
	}))
	t.Cleanup(srv.Close)

	api := httpapi.NewServer(httpapi.Services{
		Stands:   stands.NewService(r.stands, log),
		Taxis:    taxis.NewService(r.taxis, password.NewBcryptHasher(bcrypt.MinCost), log, m),
		Journeys: journeys.NewService(r.journeys, r.bookings, r.stands, journeys.Options{Logger: log, Metrics: m, OwnershipCheck: true}),
		Searches: searches.NewService(r.search, r.stands, log, m),
	}, codec, r.idem, httpapi.ServerOptions{BaseURL: srv.URL, Logger: log})
	handler = httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{Logger: log, Metrics: m})

	return &testServer{baseURL: srv.URL, client: newClient(t), repos: r}
}

// newClient returns a browser-like client: it keeps cookies and does not follow redirects.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "http://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

// do sends a request with client's cookie jar. path may be absolute (a followed link).
func (s *testServer) do(t *testing.T, client *http.Client, method, path string, body any, hdr http.Header) (int, []byte) {
	t.Helper()
	status, out, err := s.send(client, method, path, body, hdr)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return status, out
}

// send is do without *testing.T, for use from worker goroutines.
func (s *testServer) send(client *http.Client, method, path string, body any, hdr http.Header) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), rd)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	return resp.StatusCode, out, err
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

type linkSet map[string]struct {
	Href string `json:"href"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireStatus(t *testing.T, status int, body []byte, want int) {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
}

func requireErrorCode(t *testing.T, status int, body []byte, wantStatus int, wantCode string) {
	t.Helper()
	requireStatus(t, status, body, wantStatus)
	got := mustUnmarshal[errorResponse](t, body)
	if got.ErrorCode != wantCode {
		t.Fatalf("errorCode=%q want=%q body=%s", got.ErrorCode, wantCode, string(body))
	}
}

// uniqueNumber keeps tests independent on a shared database.
func uniqueNumber(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
