package httpapi

import (
	"net/http"

	"github.com/txpress/taxi-api/internal/domain"
)

// AuthSessionMiddleware decodes the auth cookie named after the {num} path parameter and
// stores the session in request context. Requests without a valid cookie pass through with
// the zero session; the services decide which operations need one.
func (s *Server) AuthSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.authSession(r, pathTaxiNumber(r))
		next.ServeHTTP(w, r.WithContext(WithAuthSession(r.Context(), sess)))
	})
}

// SearchSessionMiddleware decodes the search cookie named after the {id} path parameter.
// A missing, tampered or expired cookie leaves a nil session in context.
func (s *Server) SearchSessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *domain.SearchSession
		if id, err := pathUUID(r, "id"); err == nil {
			sess = s.searchSession(r, domain.SearchID(id))
		}
		next.ServeHTTP(w, r.WithContext(WithSearchSession(r.Context(), sess)))
	})
}
