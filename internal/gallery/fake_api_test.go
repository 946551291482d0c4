package gallery

import (
	"context"
	"sync"

	"github.com/lehigh-university-libraries/gallery/internal/models"
)

// fakeAPI serves a corpus of numbered artworks
type fakeAPI struct {
	mu       sync.Mutex
	corpus   []models.Artwork
	requests []int
	err      error
}

func newFakeAPI(n int) *fakeAPI {
	corpus := make([]models.Artwork, n)
	for i := range corpus {
		title := "Artwork"
		corpus[i] = models.Artwork{ID: i, Title: &title}
	}
	return &fakeAPI{corpus: corpus}
}

func (f *fakeAPI) Search(ctx context.Context, query string, page, limit int) (*models.ArtworkListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, page)
	if f.err != nil {
		return nil, f.err
	}

	start := (page - 1) * limit
	if start > len(f.corpus) {
		start = len(f.corpus)
	}
	end := start + limit
	if end > len(f.corpus) {
		end = len(f.corpus)
	}
	return &models.ArtworkListResponse{
		Data: f.corpus[start:end],
		Pagination: models.PaginationInfo{
			Total:       len(f.corpus),
			TotalPages:  (len(f.corpus) + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
			Offset:      start,
		},
	}, nil
}

func (f *fakeAPI) Artwork(ctx context.Context, id int) (*models.ArtworkResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.corpus {
		if f.corpus[i].ID == id {
			artwork := f.corpus[i]
			return &models.ArtworkResponse{Data: &artwork}, nil
		}
	}
	return &models.ArtworkResponse{}, nil
}

func (f *fakeAPI) pagesRequested() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.requests))
	copy(out, f.requests)
	return out
}
