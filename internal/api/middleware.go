package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/db"
)

// isPoll reports whether path is one of the page's read-only requests. The
// page polls these every second, so they are neither journalled nor logged
// above debug.
func isPoll(path string) bool {
	switch {
	case path == "/", path == "/ws", path == "/journal":
		return true
	case strings.HasPrefix(path, "/static/"):
		return true
	case strings.HasSuffix(path, "/status"), strings.Contains(path, "/status/"):
		return true
	}
	return false
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := zerolog.InfoLevel
		if isPoll(r.URL.Path) {
			level = zerolog.DebugLevel
		}
		log.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// journalMiddleware records every command request with its outcome.
func (s *Server) journalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.journal == nil || isPoll(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := db.RecordCommand(ctx, s.journal, db.SourceHTTP, r.Method, r.URL.RequestURI(), status); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to journal command")
		}
	})
}
