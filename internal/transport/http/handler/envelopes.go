package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-wishlist-api/internal/domain"
	jwtinfra "github.com/go-wishlist-api/internal/infrastructure/jwt"
	"github.com/go-wishlist-api/internal/pkg/validate"
	"github.com/go-wishlist-api/internal/transport/http/middleware"
)

// MessageEnvelope is the generic response wrapper. Remaining is only set on
// QuantityExceeded errors.
type MessageEnvelope struct {
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Remaining *int   `json:"remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, ErrorKind: kind})
}

var kindStatus = map[string]int{
	domain.KindValidation:       http.StatusBadRequest,
	domain.KindNotFound:         http.StatusNotFound,
	domain.KindForbidden:        http.StatusForbidden,
	domain.KindUnauthorized:     http.StatusUnauthorized,
	domain.KindQuantityExceeded: http.StatusConflict,
	domain.KindNothingToCancel:  http.StatusConflict,
	domain.KindAlreadyBlocked:   http.StatusConflict,
	domain.KindInvalidState:     http.StatusConflict,
	domain.KindConflict:         http.StatusConflict,
}

// httpError maps a service error to its status code and stable kind.
// Persistence failures are not echoed back to the caller.
func httpError(w http.ResponseWriter, err error) {
	kind := domain.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		writeError(w, http.StatusInternalServerError, kind, "internal server error")
		return
	}
	env := MessageEnvelope{Error: err.Error(), ErrorKind: kind}
	var qe *domain.QuantityExceededError
	if errors.As(err, &qe) {
		remaining := qe.Remaining
		env.Remaining = &remaining
	}
	writeJSON(w, status, env)
}

// decode reads a JSON body into dst and runs its validate tags. An empty body
// leaves dst at its zero value.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid request body")
			return false
		}
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, domain.KindValidation, err.Error())
		return false
	}
	return true
}

func mustClaims(w http.ResponseWriter, r *http.Request) (*jwtinfra.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.KindUnauthorized, "unauthorized")
		return nil, false
	}
	return claims, true
}
