package gallery

import (
	"context"

	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
)

const (
	// StartingPageIndex is the first page of every search
	StartingPageIndex = 1
	// APIPageSizeLimit is the page size requested from the API
	APIPageSizeLimit = 10
)

// Searcher runs one paged search request
type Searcher interface {
	Search(ctx context.Context, query string, page, limit int) (*models.ArtworkListResponse, error)
}

// PagingSource provides pages of artworks for one query, keyed by the
// 1-based API page index.
// See https://api.artic.edu/docs/#pagination
type PagingSource struct {
	api   Searcher
	query string
}

// NewPagingSource creates a source for query; "" browses everything
func NewPagingSource(api Searcher, query string) *PagingSource {
	return &PagingSource{api: api, query: query}
}

// Load fetches the page at params.Key, or the first page when Key is nil.
// The page size is fixed by the API limit regardless of params.LoadSize.
func (s *PagingSource) Load(ctx context.Context, params paging.LoadParams[int]) paging.LoadResult[int, models.Artwork] {
	pageIndex := StartingPageIndex
	if params.Key != nil {
		pageIndex = *params.Key
	}

	resp, err := s.api.Search(ctx, s.query, pageIndex, APIPageSizeLimit)
	if err != nil {
		return paging.ErrorResult[int, models.Artwork](err)
	}

	data := resp.Data
	if data == nil {
		data = []models.Artwork{}
	}

	var prevKey, nextKey *int
	if pageIndex != StartingPageIndex {
		prev := pageIndex - 1
		prevKey = &prev
	}
	// Only an empty page ends the data; a short page is followed by one more
	// request that comes back empty.
	if len(data) > 0 {
		next := pageIndex + 1
		nextKey = &next
	}
	return paging.PageResult(data, prevKey, nextKey)
}

// RefreshKey picks the page to reload first from the page closest to the
// anchor position.
func (s *PagingSource) RefreshKey(state paging.State[int, models.Artwork]) *int {
	if state.AnchorPosition == nil {
		return nil
	}
	page := state.ClosestPageToPosition(*state.AnchorPosition)
	if page == nil {
		return nil
	}
	if page.PrevKey != nil {
		key := *page.PrevKey + 1
		return &key
	}
	if page.NextKey != nil {
		key := *page.NextKey - 1
		return &key
	}
	return nil
}
