package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/platform/metrics"
)

type RouterOptions struct {
	// AllowedOrigins enables CORS with credentials for the listed origins. Empty disables CORS.
	AllowedOrigins []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// NewRouter constructs the API HTTP router with default options.
func NewRouter(s *Server) http.Handler {
	return NewRouterWithOptions(s, RouterOptions{})
}

func NewRouterWithOptions(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(opts.Logger, opts.Metrics))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", idempotencyKeyHeader},
			ExposedHeaders:   []string{"Set-Cookie", "Location"},
			AllowCredentials: true,
		}).Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/taxi-ranks", func(r chi.Router) {
		r.Post("/", s.AddStands)
		r.Get("/", s.ListStands)
		r.Get("/{id}", s.GetStand)
	})

	r.Post("/taxis/registration", s.StartRegistration)
	r.Post("/taxis/registration/{id}/complete", s.FinishRegistration)
	r.Post("/taxis/login", s.Login)
	r.Route("/taxis/{num}", func(r chi.Router) {
		r.Use(s.AuthSessionMiddleware)
		r.Get("/", s.GetTaxi)
		r.Get("/owner", s.GetOwner)
		r.Post("/start-journey", s.StartJourney)
		r.Get("/in-progress-journey", s.GetInProgressJourney)
		r.Get("/trips", s.ListJourneys)
		r.Get("/journey/{id}", s.GetJourney)
		r.Delete("/journey/{id}/cancel", s.CancelJourney)
		r.Patch("/journey/{id}/close", s.CloseJourney)
	})

	r.Post("/searches", s.PerformSearch)
	r.Route("/searches/{id}", func(r chi.Router) {
		r.Use(s.SearchSessionMiddleware)
		r.Get("/", s.GetSearch)
		r.Get("/taxis", s.ListCandidateTaxis)
		r.Post("/taxi/{num}/seats/{seats}/select", s.SelectTaxi)
		r.Get("/selection", s.GetSelection)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, r, notFoundRoute())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, r, notFoundRoute())
	})
	return r
}
