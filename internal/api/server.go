package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/db"
	"github.com/thatsimonsguy/brew-controller/internal/component"
	"github.com/thatsimonsguy/brew-controller/internal/config"
	"github.com/thatsimonsguy/brew-controller/internal/datadog"
	"github.com/thatsimonsguy/brew-controller/system/shutdown"
)

type Server struct {
	root    component.Component
	config  *config.Config
	journal *sql.DB
	page    *template.Template
	hub     *Hub
	quit    func()
	router  chi.Router
}

type ModifyResponse struct {
	Matched bool `json:"matched"`
}

var (
	reboot   = shutdown.Reboot
	powerOff = shutdown.PowerOff
)

// NewServer serves root. journal may be nil. quit is called by /quit.
func NewServer(root component.Component, cfg *config.Config, journal *sql.DB, quit func()) (*Server, error) {
	page, err := loadPage(cfg.TemplateDir)
	if err != nil {
		return nil, err
	}
	s := &Server{
		root:    root,
		config:  cfg,
		journal: journal,
		page:    page,
		hub:     NewHub(),
		quit:    quit,
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Use(s.journalMiddleware)

	r.Get("/", s.handleIndex)
	r.Get("/static/main.js", handleMainJS)
	r.Get("/status", s.handleStatus)
	r.Get("/modify/*", s.handleModify)
	r.Get("/journal", s.handleJournal)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/reboot", s.handleHost(reboot, "rebooting system."))
	r.Get("/shutdown", s.handleHost(powerOff, "shutting down system."))
	r.Get("/quit", s.handleQuit)

	s.root.Register(r, "")
	return r
}

// Start serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", addr).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Push broadcasts the whole-tree status to websocket clients every period.
func (s *Server) Push(ctx context.Context) error {
	if s.hub.ClientCount() == 0 {
		return nil
	}
	s.hub.Broadcast(s.root.Status())
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	component.WriteJSON(w, http.StatusOK, s.root.Status())
}

// handleModify dispatches a slash or space separated path, e.g.
// /modify/brewery%20hlt%20pump%20toggle.
func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	if r.URL.RawPath != "" {
		// chi routed on the escaped path, so the wildcard is still encoded.
		var err error
		if raw, err = url.PathUnescape(raw); err != nil {
			component.WriteError(w, http.StatusBadRequest, "invalid path encoding")
			return
		}
	}

	path := component.SplitPath(raw)
	matched, err := s.root.Modify(path)
	datadog.Count("modify", 1, "matched:"+strconv.FormatBool(matched))
	if err != nil {
		log.Warn().Err(err).Strs("path", path).Msg("Modify rejected")
		component.WriteError(w, component.StatusFor(err), err.Error())
		return
	}
	component.WriteJSON(w, http.StatusOK, ModifyResponse{Matched: matched})
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		component.WriteError(w, http.StatusNotFound, "journal disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			component.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	commands, err := db.RecentCommands(r.Context(), s.journal, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read journal")
		component.WriteError(w, http.StatusInternalServerError, "failed to read journal")
		return
	}
	if commands == nil {
		commands = []db.Command{}
	}
	component.WriteJSON(w, http.StatusOK, commands)
}

func (s *Server) handleHost(action func() error, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(); err != nil {
			log.Error().Err(err).Str("path", r.URL.Path).Msg("Host command failed")
			component.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(reply))
	}
}

func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	log.Info().Msg("Quit requested")
	w.WriteHeader(http.StatusOK)
	if s.quit != nil {
		s.quit()
	}
}
