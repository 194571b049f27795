package handlers

import (
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
	"github.com/lehigh-university-libraries/bookmeta/internal/models"
)

func (h *Handler) HandleSources(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.service.Registry.Status())
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := h.searchRequest(w, r)
	if !ok {
		return
	}
	req.User = strings.TrimSpace(r.URL.Query().Get("user"))

	result := h.service.Explore(r.Context(), req)
	if result.Records == nil {
		result.Records = []models.MetaRecord{}
	}
	h.writeJSON(w, result)
}

func (h *Handler) HandleAuto(w http.ResponseWriter, r *http.Request) {
	req, ok := h.searchRequest(w, r)
	if !ok {
		return
	}

	rec, found := h.service.AutoFetch(r.Context(), req)
	if !found {
		h.writeError(w, "No metadata found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, rec)
}

func (h *Handler) searchRequest(w http.ResponseWriter, r *http.Request) (enrich.Request, bool) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		h.writeError(w, "Missing query parameter q", http.StatusBadRequest)
		return enrich.Request{}, false
	}

	locale := strings.TrimSpace(r.URL.Query().Get("locale"))
	if locale == "" {
		locale = defaultLocale
	}
	return enrich.Request{Query: query, Locale: locale}, true
}
