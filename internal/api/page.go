package api

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/brew-controller/internal/component"
)

const pageTemplate = "static_main.html"

//go:embed templates/static_main.html
var templates embed.FS

//go:embed static/main.js
var mainJS []byte

// loadPage parses the page from dir, or the built-in page when dir is empty.
func loadPage(dir string) (*template.Template, error) {
	if dir == "" {
		return template.ParseFS(templates, "templates/"+pageTemplate)
	}
	t, err := template.ParseFiles(filepath.Join(dir, pageTemplate))
	if err != nil {
		return nil, fmt.Errorf("failed to load page template from %s: %w", dir, err)
	}
	return t, nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := map[string]any{
		"title":          s.config.Title,
		"brewery_layout": template.HTML(s.root.Layout()),
		"update_js":      template.JS(s.root.Script(nil)),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, ctx); err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		component.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func handleMainJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = w.Write(mainJS)
}
