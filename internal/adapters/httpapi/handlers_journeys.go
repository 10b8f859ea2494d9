package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
)

func (s *Server) StartJourney(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := pathTaxiNumber(r)
	auth := AuthSessionFromContext(ctx)
	// Checked before idempotency lookups so replays never leak across taxis.
	if !auth.Covers(number) {
		writeAPIError(w, r, apperr.Unauthorized())
		return
	}

	var req startJourneyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c := req.criteria()

	idem, ok := s.beginIdempotent(w, r, number, routeStartJourney, c)
	if !ok {
		return
	}

	j, err := s.Journeys.StartJourney(ctx, auth, number, c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := startJourneyResponse{
		ID:    string(j.ID),
		Links: linkSet{"self": {Href: s.links.journey(j.OwnerNumber, j.ID)}},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(resp); err != nil {
		s.writeError(w, r, err)
		return
	}
	location := resp.Links["self"].Href
	idem.remember(ctx, http.StatusCreated, location, buf.Bytes())

	w.Header().Set("Location", location)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) GetInProgressJourney(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	j, err := s.Journeys.GetInProgressJourney(ctx, AuthSessionFromContext(ctx), pathTaxiNumber(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.journeyDTO(j))
}

func (s *Server) GetJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := s.journeyIDParam(w, r)
	if !ok {
		return
	}
	j, err := s.Journeys.GetJourney(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.journeyDTO(j))
}

func (s *Server) ListJourneys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	number := pathTaxiNumber(r)
	js, err := s.Journeys.ListJourneys(ctx, AuthSessionFromContext(ctx), number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]journeyDTO, 0, len(js))
	for _, j := range js {
		out = append(out, s.journeyDTO(j))
	}
	writeJSON(w, http.StatusOK, journeyListResponse{
		Trips: out,
		Links: linkSet{"self": {Href: s.links.journeys(number)}},
	})
}

func (s *Server) CancelJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := s.journeyIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := s.Journeys.CancelJourney(ctx, AuthSessionFromContext(ctx), pathTaxiNumber(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CloseJourney(w http.ResponseWriter, r *http.Request) {
	id, ok := s.journeyIDParam(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := s.Journeys.CloseJourney(ctx, AuthSessionFromContext(ctx), pathTaxiNumber(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// journeyIDParam answers 404 for ids that cannot name a journey.
func (s *Server) journeyIDParam(w http.ResponseWriter, r *http.Request) (domain.JourneyID, bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeAPIError(w, r, apperr.NotFound(apperr.CodeUnknownJourney, "Unknown journey"))
		return "", false
	}
	return domain.JourneyID(id), true
}
