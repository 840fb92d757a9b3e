package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"zetflix/internal/embed"
	"zetflix/internal/playback"
	"zetflix/internal/surface"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, name, detail string) {
	writeJSON(w, code, errorBody{Error: name, Detail: detail})
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusBadRequest, "bad_request", detail)
}

func writeNotFound(w http.ResponseWriter, detail string) {
	writeError(w, http.StatusNotFound, "not_found", detail)
}

// writeCommandError maps playback and surface errors onto HTTP statuses.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playback.ErrNoProvidersAvailable):
		writeError(w, http.StatusUnprocessableEntity, "no_providers", err.Error())
	case errors.Is(err, playback.ErrNotEpisodic):
		writeError(w, http.StatusUnprocessableEntity, "not_episodic", err.Error())
	case errors.Is(err, embed.ErrUnsupportedKind), errors.Is(err, embed.ErrMissingTemplate):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_kind", err.Error())
	case errors.Is(err, playback.ErrInvalidNumber):
		writeBadRequest(w, err.Error())
	case errors.Is(err, playback.ErrIdle):
		writeError(w, http.StatusConflict, "idle", err.Error())
	case errors.Is(err, playback.ErrNoMoreProviders):
		writeError(w, http.StatusConflict, "no_more_providers", err.Error())
	case errors.Is(err, playback.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, surface.ErrStaleToken):
		writeError(w, http.StatusConflict, "stale_token", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(v)
}
