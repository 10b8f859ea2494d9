package httpapi

import (
	"errors"
	"net/http"

	"github.com/txpress/taxi-api/internal/domain"
	"github.com/txpress/taxi-api/internal/platform/session"
)

// Session cookies are named after the entity they belong to (taxi number, search id,
// registration id) so one browser can hold several of them side by side.

func (s *Server) setSessionCookie(w http.ResponseWriter, kind session.Kind, key string, payload any) error {
	token, err := s.Sessions.Seal(kind, key, payload)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     key,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.Sessions.TTL(kind).Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) expireCookie(w http.ResponseWriter, key string) {
	http.SetCookie(w, &http.Cookie{
		Name:     key,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// openSessionCookie decodes the cookie named key into out.
// A missing cookie and an invalid token both yield session.ErrInvalidToken.
func (s *Server) openSessionCookie(r *http.Request, kind session.Kind, key string, out any) error {
	c, err := r.Cookie(key)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return session.ErrInvalidToken
		}
		return err
	}
	return s.Sessions.Open(kind, key, c.Value, out)
}

func (s *Server) authSession(r *http.Request, number domain.TaxiNumber) domain.AuthSession {
	var sess domain.AuthSession
	if err := s.openSessionCookie(r, session.KindAuth, string(number), &sess); err != nil {
		return domain.AuthSession{}
	}
	// The token is bound to its cookie name; the payload must agree.
	if sess.TaxiNumber != number {
		return domain.AuthSession{}
	}
	return sess
}

func (s *Server) searchSession(r *http.Request, id domain.SearchID) *domain.SearchSession {
	var sess domain.SearchSession
	if err := s.openSessionCookie(r, session.KindSearch, string(id), &sess); err != nil {
		return nil
	}
	return &sess
}

func (s *Server) pendingRegistration(r *http.Request, id domain.RegistrationID) *domain.PendingRegistration {
	var p domain.PendingRegistration
	if err := s.openSessionCookie(r, session.KindRegistration, string(id), &p); err != nil {
		return nil
	}
	return &p
}
