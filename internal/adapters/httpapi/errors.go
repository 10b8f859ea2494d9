package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/txpress/taxi-api/internal/app/apperr"
)

// errorResponse is the error envelope shared by every endpoint.
type errorResponse struct {
	Error            string                             `json:"error"`
	ErrorDescription string                             `json:"errorDescription"`
	ErrorCode        string                             `json:"errorCode"`
	Details          nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestID        nullable.Nullable[string]         `json:"requestId,omitempty"`
}

func writeAPIError(w http.ResponseWriter, r *http.Request, ae *apperr.Error) {
	er := errorResponse{
		Error:            ae.Kind.PublicCode(),
		ErrorDescription: ae.Message,
		ErrorCode:        ae.Code,
	}
	if ae.Details != nil {
		er.Details = nullable.NewNullableWithValue(ae.Details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.RequestID = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, ae.Status(), er)
}

// writeError renders err. Errors that are not *apperr.Error are logged and hidden behind a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		s.log.Error("unhandled error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		ae = apperr.Internal(err)
	}
	writeAPIError(w, r, ae)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func malformedBody() *apperr.Error {
	return apperr.InvalidRequest(apperr.CodeValidation, "malformed JSON body")
}

const maxBodyBytes = 1 << 20

// decodeJSON reads r's body into dst and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeAPIError(w, r, malformedBody())
		return false
	}
	return true
}

func notFoundRoute() *apperr.Error {
	return apperr.NotFound("not_found", "Resource not found")
}
