package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
)

// SessionResponse describes one gallery list scope
type SessionResponse struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchRequest is the body of a search submission
type SearchRequest struct {
	Query string `json:"query"`
}

// ArtworkItem is one list entry with its derived thumbnail
type ArtworkItem struct {
	models.Artwork
	Label        string `json:"label"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// LoadStateResponse is the JSON form of paging.LoadState
type LoadStateResponse struct {
	Status                 string `json:"status"`
	EndOfPaginationReached bool   `json:"end_of_pagination_reached"`
	Error                  string `json:"error,omitempty"`
}

// ArtworksResponse is the current snapshot of a session's results
type ArtworksResponse struct {
	Query      string            `json:"query"`
	Generation uint64            `json:"generation"`
	Items      []ArtworkItem     `json:"items"`
	Refresh    LoadStateResponse `json:"refresh"`
	Prepend    LoadStateResponse `json:"prepend"`
	Append     LoadStateResponse `json:"append"`
	CanRetry   bool              `json:"can_retry"`
}

func newSessionResponse(session *storage.Session) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		Query:     session.Gallery.State().Query,
		CreatedAt: session.CreatedAt,
	}
}

func newLoadStateResponse(state paging.LoadState) LoadStateResponse {
	resp := LoadStateResponse{
		Status:                 state.Status.String(),
		EndOfPaginationReached: state.EndOfPaginationReached,
	}
	if state.Err != nil {
		resp.Error = state.Err.Error()
	}
	return resp
}

func newArtworksResponse(query string, snapshot paging.Snapshot[models.Artwork]) ArtworksResponse {
	items := make([]ArtworkItem, 0, len(snapshot.Items))
	for _, artwork := range snapshot.Items {
		items = append(items, ArtworkItem{
			Artwork:      artwork,
			Label:        artwork.Label(),
			ThumbnailURL: artwork.ThumbnailURL(),
		})
	}
	return ArtworksResponse{
		Query:      query,
		Generation: snapshot.Generation,
		Items:      items,
		Refresh:    newLoadStateResponse(snapshot.LoadStates.Refresh),
		Prepend:    newLoadStateResponse(snapshot.LoadStates.Prepend),
		Append:     newLoadStateResponse(snapshot.LoadStates.Append),
		CanRetry:   snapshot.LoadStates.Refresh.Status == paging.Failed || snapshot.LoadStates.Append.Status == paging.Failed,
	}
}

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessionStore.Create(h.saved, h.repo)
	slog.Info("Created session", "session_id", session.ID, "query", session.Gallery.State().Query)
	h.writeJSONStatus(w, newSessionResponse(session), http.StatusCreated)
}

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessionStore.GetAll()
	sessionList := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		sessionList = append(sessionList, newSessionResponse(session))
	}
	h.writeJSON(w, sessionList)
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}
	h.writeJSON(w, newSessionResponse(session))
}

func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !h.sessionStore.Delete(sessionID) {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	h.persist()
	slog.Info("Deleted session", "session_id", sessionID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session.Gallery.Dispatch(viewmodel.Search{Query: req.Query})
	h.metrics.Searches.Inc()
	h.writeJSON(w, newSessionResponse(session))
}

// HandleArtworks returns the loaded results. An index parameter marks that
// item as displayed, which loads pages around it first.
func (h *Handler) HandleArtworks(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil || index < 0 {
			h.writeError(w, "Invalid index: "+raw, http.StatusBadRequest)
			return
		}
		// load failures are reported through the load states
		if err := session.Gallery.Access(r.Context(), index); err != nil {
			slog.Debug("Access did not complete", "session_id", session.ID, "index", index, "err", err)
		}
	}

	h.writeArtworks(w, session)
}

func (h *Handler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, chi.URLParam(r, "sessionID"))
	if !ok {
		return
	}

	if err := session.Gallery.Retry(r.Context()); err != nil {
		slog.Debug("Retry did not complete", "session_id", session.ID, "err", err)
	}
	h.writeArtworks(w, session)
}

func (h *Handler) writeArtworks(w http.ResponseWriter, session *storage.Session) {
	snapshot := session.Gallery.Pager().Snapshot()
	h.writeJSON(w, newArtworksResponse(session.Gallery.State().Query, snapshot))
}
