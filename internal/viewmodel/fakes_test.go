package viewmodel

import (
	"context"
	"errors"
	"sync"

	"github.com/lehigh-university-libraries/gallery/internal/models"
)

// fakeAPI serves a numbered corpus for every query. Requests for queries in
// blocked wait until the channel is closed or the request is cancelled.
type fakeAPI struct {
	mu       sync.Mutex
	corpus   int
	searches map[string][]int
	lookups  int
	blocked  map[string]chan struct{}
	missing  bool
}

func newFakeAPI(corpus int) *fakeAPI {
	return &fakeAPI{
		corpus:   corpus,
		searches: make(map[string][]int),
		blocked:  make(map[string]chan struct{}),
	}
}

func (f *fakeAPI) block(query string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.blocked[query] = ch
	return ch
}

func (f *fakeAPI) Search(ctx context.Context, query string, page, limit int) (*models.ArtworkListResponse, error) {
	f.mu.Lock()
	f.searches[query] = append(f.searches[query], page)
	gate := f.blocked[query]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var data []models.Artwork
	for i := (page - 1) * limit; i < page*limit && i < f.corpus; i++ {
		title := query
		data = append(data, models.Artwork{ID: i, Title: &title})
	}
	return &models.ArtworkListResponse{Data: data}, nil
}

func (f *fakeAPI) Artwork(ctx context.Context, id int) (*models.ArtworkResponse, error) {
	f.mu.Lock()
	f.lookups++
	missing := f.missing
	f.mu.Unlock()

	if missing {
		return nil, errors.New("HTTP response status code: 404, body: not found")
	}
	title := "Nighthawks"
	return &models.ArtworkResponse{Data: &models.Artwork{ID: id, Title: &title}}, nil
}

func (f *fakeAPI) searchPages(query string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.searches[query]...)
}

func (f *fakeAPI) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}
