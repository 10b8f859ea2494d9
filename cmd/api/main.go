package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/adapters/httpapi"
	memidempotency "github.com/txpress/taxi-api/internal/adapters/memory/idempotency"
	memstores "github.com/txpress/taxi-api/internal/adapters/memory/stores"
	postgres "github.com/txpress/taxi-api/internal/adapters/postgres"
	pgidempotency "github.com/txpress/taxi-api/internal/adapters/postgres/idempotency"
	pgstores "github.com/txpress/taxi-api/internal/adapters/postgres/stores"
	redisadapter "github.com/txpress/taxi-api/internal/adapters/redis"
	redisidempotency "github.com/txpress/taxi-api/internal/adapters/redis/idempotency"
	"github.com/txpress/taxi-api/internal/app/journeys"
	"github.com/txpress/taxi-api/internal/app/searches"
	"github.com/txpress/taxi-api/internal/app/stands"
	"github.com/txpress/taxi-api/internal/app/taxis"
	platformclock "github.com/txpress/taxi-api/internal/platform/clock"
	"github.com/txpress/taxi-api/internal/platform/config"
	"github.com/txpress/taxi-api/internal/platform/logger"
	"github.com/txpress/taxi-api/internal/platform/metrics"
	"github.com/txpress/taxi-api/internal/platform/password"
	"github.com/txpress/taxi-api/internal/platform/session"
	bookingrepoport "github.com/txpress/taxi-api/internal/ports/out/bookingrepo"
	idempotencyport "github.com/txpress/taxi-api/internal/ports/out/idempotency"
	journeyrepoport "github.com/txpress/taxi-api/internal/ports/out/journeyrepo"
	searchrepoport "github.com/txpress/taxi-api/internal/ports/out/searchrepo"
	standrepoport "github.com/txpress/taxi-api/internal/ports/out/standrepo"
	taxirepoport "github.com/txpress/taxi-api/internal/ports/out/taxirepo"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid logger config: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := platformclock.NewSystemClock()

	var (
		standRepo   standrepoport.Repository
		taxiRepo    taxirepoport.Repository
		journeyRepo journeyrepoport.Repository
		bookingRepo bookingrepoport.Repository
		searchRepo  searchrepoport.Repository
		idemStore   idempotencyport.Store
	)

	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		st := pgstores.New(pool)
		standRepo, taxiRepo, journeyRepo, bookingRepo, searchRepo = st.Stands, st.Taxis, st.Journeys, st.Bookings, st.Search
		idemStore = pgidempotency.NewStore(pool, cfg.IdempotencyTTL, clk)
	default:
		st := memstores.New()
		standRepo, taxiRepo, journeyRepo, bookingRepo, searchRepo = st.Stands, st.Taxis, st.Journeys, st.Bookings, st.Search
		idemStore = memidempotency.NewStore(cfg.IdempotencyTTL, clk)
	}

	// Redis takes over idempotency when configured, whatever the storage backend.
	if cfg.RedisURL != "" {
		client, err := redisadapter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = client.Close() }()
		idemStore = redisidempotency.NewStore(client, cfg.IdempotencyTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	codec, err := session.NewCodec(session.Options{
		Secret: cfg.Session.Secret,
		Issuer: cfg.Session.Issuer,
		TTL: map[session.Kind]time.Duration{
			session.KindAuth:         cfg.Session.AuthTTL,
			session.KindSearch:       cfg.Session.SearchTTL,
			session.KindRegistration: cfg.Session.RegistrationTTL,
		},
		Clock: clk,
	})
	if err != nil {
		return fmt.Errorf("session codec: %w", err)
	}

	svc := httpapi.Services{
		Stands:   stands.NewService(standRepo, log),
		Taxis:    taxis.NewService(taxiRepo, password.NewBcryptHasher(cfg.BcryptCost), log, m),
		Journeys: journeys.NewService(journeyRepo, bookingRepo, standRepo, journeys.Options{Logger: log, Metrics: m, OwnershipCheck: cfg.JourneyOwnershipCheck}),
		Searches: searches.NewService(searchRepo, standRepo, log, m),
	}
	api := httpapi.NewServer(svc, codec, idemStore, httpapi.ServerOptions{
		BaseURL:      cfg.BaseURL,
		CookieSecure: cfg.Session.CookieSecure,
		Logger:       log,
		Clock:        clk,
	})
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageBackend),
			zap.Bool("redis_idempotency", cfg.RedisURL != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
