package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive-be/internal/apperr"
)

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a service error to its HTTP status and writes the
// structured error body. Internal causes are logged, never serialized.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	if code == apperr.CodeInternal {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, apperr.HTTPStatus(code), map[string]any{
		"error": apperr.New(code, apperr.MessageOf(err)),
	})
}

// paginationParams reads the $skip/$limit query parameters (plain skip/limit
// accepted as aliases). Anything unparseable falls back to zero.
func paginationParams(r *http.Request) (skip, limit int) {
	q := r.URL.Query()
	read := func(keys ...string) int {
		for _, key := range keys {
			if v := q.Get(key); v != "" {
				if n, err := strconv.Atoi(v); err == nil {
					return n
				}
			}
		}
		return 0
	}
	return read("$skip", "skip"), read("$limit", "limit")
}
