package httpapi

import (
	"net/http"

	"github.com/txpress/taxi-api/internal/app/apperr"
	"github.com/txpress/taxi-api/internal/app/taxis"
	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/session"
)

func (s *Server) StartRegistration(w http.ResponseWriter, r *http.Request) {
	number, err := queryString(r, "number")
	if err != nil {
		writeAPIError(w, r, apperr.Validation("missing taxi number", map[string]any{"number": "required"}))
		return
	}
	pending, err := s.Taxis.StartRegistration(r.Context(), number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.setSessionCookie(w, session.KindRegistration, string(pending.ID), pending); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, startRegistrationResponse{
		ID:    string(pending.ID),
		Links: linkSet{"next": {Href: s.links.registrationComplete(pending.ID)}},
	})
}

func (s *Server) FinishRegistration(w http.ResponseWriter, r *http.Request) {
	raw, err := pathUUID(r, "id")
	if err != nil {
		writeAPIError(w, r, apperr.NotFound(apperr.CodeUnknownRegistration, "Unknown registration id"))
		return
	}
	id := domain.RegistrationID(raw)

	var req finishRegistrationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.Taxis.FinishRegistration(r.Context(), id, s.pendingRegistration(r, id), taxis.RegistrationDetails{
		FullName:  req.Owner,
		Password:  req.Password,
		Brand:     req.CarBrand,
		SeatCount: req.NumOfSeats,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.expireCookie(w, string(id))
	if err := s.setSessionCookie(w, session.KindAuth, string(res.Taxi.Number), res.Session); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", s.links.owner(res.Taxi.Number))
	writeJSON(w, http.StatusCreated, finishRegistrationResponse{
		ID:    string(res.Taxi.ID),
		Links: linkSet{"self": {Href: s.links.owner(res.Taxi.Number)}},
	})
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.Taxis.Login(r.Context(), req.Number, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.setSessionCookie(w, session.KindAuth, string(sess.TaxiNumber), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerResponse{Name: sess.FullName, Links: s.links.ownerLinks(sess.TaxiNumber)})
}

func (s *Server) GetTaxi(w http.ResponseWriter, r *http.Request) {
	t, err := s.Taxis.GetTaxi(r.Context(), pathTaxiNumber(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taxiResponse{
		Number:        string(t.Number),
		Brand:         t.Brand,
		NumberOfSeats: t.SeatCount,
		Links:         linkSet{"self": {Href: s.links.taxi(t.Number)}},
	})
}

func (s *Server) GetOwner(w http.ResponseWriter, r *http.Request) {
	number := pathTaxiNumber(r)
	name, err := s.Taxis.GetOwner(r.Context(), AuthSessionFromContext(r.Context()), number)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ownerResponse{Name: name, Links: s.links.ownerLinks(number)})
}
