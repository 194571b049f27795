package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
)

const defaultLocale = "en"

// Reloader re-reads source settings; *settings.Store satisfies it
type Reloader interface {
	Reload() error
}

type Handler struct {
	service  *enrich.Service
	settings Reloader
}

func New(service *enrich.Service, settings Reloader) *Handler {
	return &Handler{
		service:  service,
		settings: settings,
	}
}

// Routes builds the router for the metadata API
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthcheck", h.HandleHealthcheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata/sources", h.HandleSources)
		r.Get("/metadata/search", h.HandleSearch)
		r.Get("/metadata/auto", h.HandleAuto)
		r.Get("/books/{id}", h.HandleGetBook)
		r.Put("/books/{id}", h.HandlePutBook)
		r.Post("/books/{id}/metadata", h.HandleApply)
		r.Post("/books/{id}/enrich", h.HandleEnrich)
		r.Post("/settings/reload", h.HandleReload)
	})
	return r
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	http.Error(w, message, code)
}
