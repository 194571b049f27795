package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lehigh-university-libraries/bookmeta/internal/enrich"
	"github.com/lehigh-university-libraries/bookmeta/internal/merge"
	"github.com/lehigh-university-libraries/bookmeta/internal/models"
	"github.com/lehigh-university-libraries/bookmeta/internal/storage"
)

// ApplyRequest is the body of POST /api/books/{id}/metadata. An empty policy
// follows the smart_merge setting.
type ApplyRequest struct {
	Record models.MetaRecord `json:"record"`
	Policy string            `json:"policy,omitempty"`
}

// ApplyResponse reports the book after the merge
type ApplyResponse struct {
	Book    models.Book `json:"book"`
	Fields  []string    `json:"fields"`
	Changed bool        `json:"changed"`
}

func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.service.Books.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, book)
}

func (h *Handler) HandlePutBook(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimSpace(chi.URLParam(r, "id"))

	var book models.Book
	if err := json.NewDecoder(r.Body).Decode(&book); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	book.ID = bookID

	if err := h.service.Books.Commit(r.Context(), book); err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.writeJSON(w, book)
}

func (h *Handler) HandleApply(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimSpace(chi.URLParam(r, "id"))

	var body ApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !body.Record.Usable() {
		h.writeError(w, "Record needs a title or an author", http.StatusBadRequest)
		return
	}

	mergePolicy := merge.PolicyFor(h.service.Settings.Current().SmartMerge)
	if body.Policy != "" {
		parsed, err := merge.ParsePolicy(body.Policy)
		if err != nil {
			h.writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		mergePolicy = parsed
	}

	outcome, err := h.service.Apply(r.Context(), body.Record, bookID, mergePolicy)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	fields := outcome.Fields
	if fields == nil {
		fields = []string{}
	}
	h.writeJSON(w, ApplyResponse{Book: outcome.Book, Fields: fields, Changed: outcome.Changed()})
}

func (h *Handler) HandleEnrich(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimSpace(chi.URLParam(r, "id"))

	enrichment, err := h.service.AutoEnrich(r.Context(), bookID)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}
	if enrichment.Fields == nil {
		enrichment.Fields = []string{}
	}
	h.writeJSON(w, enrichment)
}

func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.settings == nil {
		h.writeError(w, "Settings are not reloadable", http.StatusNotImplemented)
		return
	}
	if err := h.settings.Reload(); err != nil {
		h.writeError(w, "Failed to reload settings: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, h.service.Settings.Current())
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, enrich.ErrNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}
