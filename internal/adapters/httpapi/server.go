package httpapi

import (
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/journeys"
	"github.com/txpress/taxi-api/internal/app/searches"
	"github.com/txpress/taxi-api/internal/app/stands"
	"github.com/txpress/taxi-api/internal/app/taxis"
	"github.com/txpress/taxi-api/internal/platform/clock"
	"github.com/txpress/taxi-api/internal/platform/logger"
	"github.com/txpress/taxi-api/internal/platform/session"
	portclock "github.com/txpress/taxi-api/internal/ports/out/clock"
	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

// Services are the application services exposed over HTTP.
type Services struct {
	Stands   *stands.Service
	Taxis    *taxis.Service
	Journeys *journeys.Service
	Searches *searches.Service
}

type ServerOptions struct {
	// BaseURL prefixes every hypermedia link.
	BaseURL      string
	CookieSecure bool
	Logger       *zap.Logger
	// Clock stamps idempotency records. Defaults to the system clock.
	Clock portclock.Clock
}

// Server is the HTTP adapter. Handlers translate requests into service calls and
// session cookies into domain sessions.
type Server struct {
	Services

	Sessions *session.Codec
	// Idem is optional; without it Idempotency-Key headers are ignored.
	Idem idempotency.Store

	links        links
	cookieSecure bool
	log          *zap.Logger
	clock        portclock.Clock
}

func NewServer(svc Services, sessions *session.Codec, idem idempotency.Store, opts ServerOptions) *Server {
	clk := opts.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Server{
		Services:     svc,
		Sessions:     sessions,
		Idem:         idem,
		links:        newLinks(opts.BaseURL),
		cookieSecure: opts.CookieSecure,
		log:          logger.Component(opts.Logger, "httpapi"),
		clock:        clk,
	}
}
