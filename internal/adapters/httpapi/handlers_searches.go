package httpapi

import (
	"net/http"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/session"
)

func unknownSearch() *apperr.Error {
	return apperr.NotFound(apperr.CodeUnknownSearch, "Unknown search")
}

func (s *Server) PerformSearch(w http.ResponseWriter, r *http.Request) {
	var req searchCriteriaDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Searches.PerformSearch(r.Context(), domain.SearchCriteria{
		DepartureStandID: standIDFromRef(req.DepartureID),
		ArrivalStandID:   standIDFromRef(req.ArrivalID),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSearchSession(w, r, sess)
}

func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := searchIDParam(w, r)
	if !ok {
		return
	}
	sess, err := s.Searches.GetSearch(ctx, id, SearchSessionFromContext(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.searchResponse(sess))
}

func (s *Server) ListCandidateTaxis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := searchIDParam(w, r)
	if !ok {
		return
	}
	cs, err := s.Searches.ListCandidateTaxis(ctx, id, SearchSessionFromContext(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]candidateTaxiDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, s.candidateWithLinks(id, c))
	}
	writeJSON(w, http.StatusOK, taxiListResponse{
		Taxis: out,
		Links: linkSet{
			"self":   {Href: s.links.searchTaxis(id)},
			"search": {Href: s.links.search(id)},
		},
	})
}

func (s *Server) SelectTaxi(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := searchIDParam(w, r)
	if !ok {
		return
	}
	seats, err := pathInt(r, "seats")
	if err != nil {
		writeAPIError(w, r, apperr.Validation("invalid seat count", map[string]any{"seats": "must be an integer"}))
		return
	}
	journeyID, err := queryUUID(r, "journey")
	if err != nil {
		writeAPIError(w, r, apperr.Validation("invalid journey", map[string]any{"journey": "required uuid"}))
		return
	}

	sess, err := s.Searches.SelectTaxi(ctx, id, SearchSessionFromContext(ctx), pathTaxiNumber(r), seats, domain.JourneyID(journeyID))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSearchSession(w, r, sess)
}

func (s *Server) GetSelection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := searchIDParam(w, r)
	if !ok {
		return
	}
	v, err := s.Searches.GetSelection(ctx, id, SearchSessionFromContext(ctx))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{
		Taxi:          candidateDTO(v.Taxi),
		ReservedSeats: v.Seats,
		Links: linkSet{
			"self":   {Href: s.links.selection(id)},
			"search": {Href: s.links.search(id)},
			"taxi":   {Href: s.links.taxi(v.Taxi.Number)},
		},
	})
}

// writeSearchSession re-issues the search cookie and answers 201 with the resource.
func (s *Server) writeSearchSession(w http.ResponseWriter, r *http.Request, sess domain.SearchSession) {
	if err := s.setSessionCookie(w, session.KindSearch, string(sess.ID), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", s.links.search(sess.ID))
	writeJSON(w, http.StatusCreated, s.searchResponse(sess))
}

func searchIDParam(w http.ResponseWriter, r *http.Request) (domain.SearchID, bool) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeAPIError(w, r, unknownSearch())
		return "", false
	}
	return domain.SearchID(id), true
}
