package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-wishlist-api/internal/domain"
)

// writeJSONError writes a JSON-encoded error response with the correct Content-Type.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	body := map[string]string{"error": msg}
	switch status {
	case http.StatusUnauthorized:
		body["error_kind"] = domain.KindUnauthorized
	case http.StatusForbidden:
		body["error_kind"] = domain.KindForbidden
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
