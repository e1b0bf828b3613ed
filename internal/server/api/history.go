package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// maxHistoryLimit caps the limit query parameter.
const maxHistoryLimit = 500

// HistoryHandler serves recognition history from the store.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a new HistoryHandler with the given store.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type recognitionResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Language    string `json:"language"`
	Backend     string `json:"backend,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type historyResponse struct {
	Recognitions []recognitionResponse `json:"recognitions"`
}

// ServeHTTP handles GET /api/history?limit=N, GET /api/history/{id} and
// DELETE /api/history.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/history"), "/")

	switch {
	case id != "" && r.Method == http.MethodGet:
		h.get(w, id)
	case id != "":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	case r.Method == http.MethodGet:
		h.list(w, r)
	case r.Method == http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *HistoryHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	recs, err := h.store.Recognitions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	resp := historyResponse{Recognitions: make([]recognitionResponse, 0, len(recs))}
	for _, rec := range recs {
		resp.Recognitions = append(resp.Recognitions, toRecognitionResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HistoryHandler) get(w http.ResponseWriter, id string) {
	rec, err := h.store.Recognitions().GetByID(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Recognition not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get recognition")
		return
	}
	writeJSON(w, http.StatusOK, toRecognitionResponse(rec))
}

func toRecognitionResponse(rec *store.Recognition) recognitionResponse {
	return recognitionResponse{
		ID:          rec.ID,
		Label:       rec.Label,
		Word:        rec.Word,
		Translation: rec.Translation,
		Language:    rec.Language,
		Backend:     rec.Backend,
		CreatedAt:   rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *HistoryHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Recognitions().Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
