package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/ports/out/idempotency"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	routeStartJourney    = "/taxis/{num}/start-journey"
)

// idemCall is an in-flight idempotent request. The zero value records nothing.
type idemCall struct {
	s  *Server
	fp idempotency.Fingerprint
}

// beginIdempotent replays a stored response when the request is a retry and rejects a key
// reused with a different body. It returns ok=false when the response has been written.
//
// canonical is the parsed request; hashing it instead of the raw bytes makes retries with
// reformatted JSON match.
func (s *Server) beginIdempotent(w http.ResponseWriter, r *http.Request, subject domain.TaxiNumber, route string, canonical any) (idemCall, bool) {
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key == "" || s.Idem == nil {
		return idemCall{}, true
	}

	bodyHash, err := hashBody(canonical)
	if err != nil {
		s.writeError(w, r, err)
		return idemCall{}, false
	}
	fp := idempotency.Fingerprint{
		Key:      idempotency.Key(key),
		Subject:  subject,
		Method:   r.Method,
		Route:    route,
		BodyHash: bodyHash,
	}

	rec, found, err := s.Idem.Get(r.Context(), fp)
	if err != nil {
		s.log.Error("idempotency lookup failed", zap.String("route", route), zap.Error(err))
		writeAPIError(w, r, apperr.Internal(err))
		return idemCall{}, false
	}
	if found {
		if rec.BodyHash != bodyHash {
			writeAPIError(w, r, apperr.InvalidRequest(apperr.CodeIdempotencyReuse, "idempotency key reuse with different payload"))
			return idemCall{}, false
		}
		if rec.Location != "" {
			w.Header().Set("Location", rec.Location)
		}
		w.Header().Set("Content-Type", rec.ContentType)
		w.WriteHeader(rec.StatusCode)
		_, _ = w.Write(rec.Body)
		return idemCall{}, false
	}
	return idemCall{s: s, fp: fp}, true
}

// remember stores the response for later replays. Failures are logged only; the
// request itself already succeeded.
func (c idemCall) remember(ctx context.Context, status int, location string, body []byte) {
	if c.s == nil {
		return
	}
	err := c.s.Idem.Put(ctx, c.fp, idempotency.Record{
		BodyHash:    c.fp.BodyHash,
		StatusCode:  status,
		ContentType: "application/json",
		Location:    location,
		Body:        body,
		CreatedAt:   c.s.clock.Now().UTC(),
	})
	if err != nil {
		c.s.log.Warn("idempotency record not stored", zap.String("route", c.fp.Route), zap.Error(err))
	}
}

func hashBody(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
