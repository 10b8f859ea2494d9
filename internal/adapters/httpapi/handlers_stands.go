package httpapi

import (
	"net/http"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/domain"
)

func unknownStand() *apperr.Error {
	return apperr.NotFound(apperr.CodeUnknownStand, "Unknown taxi rank")
}

func (s *Server) AddStands(w http.ResponseWriter, r *http.Request) {
	var req addStandsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := s.Stands.AddStands(r.Context(), req.TaxiRanks)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.standList(out))
}

func (s *Server) ListStands(w http.ResponseWriter, r *http.Request) {
	out, err := s.Stands.ListStands(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.standList(out))
}

func (s *Server) GetStand(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeAPIError(w, r, unknownStand())
		return
	}
	st, err := s.Stands.GetStand(r.Context(), domain.StandID(id))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standResponse{
		Stand: s.standDTO(st),
		Links: linkSet{
			"self":       {Href: s.links.stand(st.ID)},
			"taxi_ranks": {Href: s.links.stands()},
		},
	})
}
