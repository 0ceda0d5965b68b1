package component

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusHandler serves c.Status() as JSON.
func StatusHandler(c Component) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, c.Status())
	}
}

// ActionHandler runs fn and answers with an empty body.
func ActionHandler(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Action failed")
			WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// SetHandler passes the "value" query parameter to set. Unparseable values
// are a client error.
func SetHandler(set func(raw string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("value")
		if err := set(raw); err != nil {
			WriteError(w, StatusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// StatusFor maps a command error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidValue), errors.Is(err, ErrUnsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}
