package gallery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/gallery/internal/catalog"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
)

// API is the part of the catalog client the repository depends on
type API interface {
	Searcher
	Artwork(ctx context.Context, id int) (*models.ArtworkResponse, error)
}

// Repository lays out gallery data retrieval. Everything comes from the
// remote catalog; nothing is stored locally.
type Repository interface {
	// SearchResultStream returns a cold pager of artworks matching query
	SearchResultStream(query string) *paging.Pager[int, models.Artwork]

	// ArtworkByID loads one artwork. Failures never surface as errors.
	ArtworkByID(ctx context.Context, id int) models.RemoteResult[models.Artwork]
}

// DataRepository implements Repository over the catalog API
type DataRepository struct {
	api API
}

// NewDataRepository creates a repository backed by api
func NewDataRepository(api API) *DataRepository {
	return &DataRepository{api: api}
}

// PagingConfig is the pager configuration used for search results
func PagingConfig() paging.Config {
	return paging.Config{PageSize: APIPageSizeLimit}
}

func (r *DataRepository) SearchResultStream(query string) *paging.Pager[int, models.Artwork] {
	return paging.NewPager[int, models.Artwork](PagingConfig(), nil, NewPagingSource(r.api, query))
}

func (r *DataRepository) ArtworkByID(ctx context.Context, id int) models.RemoteResult[models.Artwork] {
	resp, err := r.api.Artwork(ctx, id)
	if err != nil {
		var statusErr *catalog.StatusError
		switch {
		case errors.As(err, &statusErr):
			slog.Warn("GET request for artwork failed", "id", id, "status", statusErr.Code, "body", statusErr.Body)
		case errors.Is(err, catalog.ErrEmptyBody):
			slog.Warn("GET request for artwork returned no data", "id", id)
		default:
			slog.Warn("Exception caught while executing artwork request", "id", id, "err", err)
		}
		return models.Failure[models.Artwork]{Message: err.Error()}
	}
	if resp == nil || resp.Data == nil {
		slog.Warn("GET request for artwork returned no data", "id", id)
		return models.Failure[models.Artwork]{Message: fmt.Sprintf("artwork %d: %s", id, catalog.ErrEmptyBody)}
	}

	slog.Debug("GET request for artwork was successful", "id", id)
	return models.Success[models.Artwork]{Data: *resp.Data}
}
