package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
)

type Handler struct {
	sessionStore *storage.SessionStore
	repo         gallery.Repository
	saved        *savedstate.Handle
	stateStore   *savedstate.Store
	metrics      *Metrics
}

// New creates a handler. stateStore may be nil, in which case the last query
// is only kept in memory.
func New(repo gallery.Repository, saved *savedstate.Handle, stateStore *savedstate.Store) *Handler {
	sessionStore := storage.New()
	return &Handler{
		sessionStore: sessionStore,
		repo:         repo,
		saved:        saved,
		stateStore:   stateStore,
		metrics:      newMetrics(sessionStore.Len),
	}
}

// Close tears down every session and persists the saved state
func (h *Handler) Close() {
	h.sessionStore.CloseAll()
	h.persist()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSONStatus(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*storage.Session, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func (h *Handler) persist() {
	if h.stateStore == nil {
		return
	}
	if err := h.stateStore.Save(h.saved); err != nil {
		slog.Warn("Unable to persist saved state", "path", h.stateStore.Path, "err", err)
	}
}
