package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
	"github.com/lehigh-university-libraries/gallery/internal/viewmodel"
)

// ArtworkDetailResponse is the resolved detail of one artwork
type ArtworkDetailResponse struct {
	Status       string          `json:"status"`
	Artwork      *models.Artwork `json:"artwork,omitempty"`
	Label        string          `json:"label,omitempty"`
	ThumbnailURL string          `json:"thumbnail_url,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// HandleArtwork loads one artwork and waits for the result
func (h *Handler) HandleArtwork(w http.ResponseWriter, r *http.Request) {
	saved := savedstate.New(map[string]any{viewmodel.ArtworkIDKey: chi.URLParam(r, "id")})
	vm := viewmodel.NewArtworkDetailViewModel(saved, h.repo)
	defer vm.Close()

	state, err := vm.Wait(r.Context())
	if err != nil {
		h.writeError(w, "Request cancelled", http.StatusServiceUnavailable)
		return
	}

	switch status := state.LoadStatus.(type) {
	case viewmodel.Loaded:
		h.metrics.ArtworkLoads.WithLabelValues("loaded").Inc()
		artwork := status.Artwork
		h.writeJSON(w, ArtworkDetailResponse{
			Status:       "loaded",
			Artwork:      &artwork,
			Label:        artwork.Label(),
			ThumbnailURL: artwork.ThumbnailURL(),
			ImageURL:     artwork.FullImageURL(),
		})
	case viewmodel.LoadFailed:
		if status.Message == viewmodel.MissingIDMessage {
			h.metrics.ArtworkLoads.WithLabelValues("invalid_id").Inc()
			h.writeError(w, status.Message, http.StatusBadRequest)
			return
		}
		h.metrics.ArtworkLoads.WithLabelValues("failed").Inc()
		// the cause stays in the logs
		h.writeJSONStatus(w, ArtworkDetailResponse{Status: "failed"}, http.StatusBadGateway)
	default:
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}
