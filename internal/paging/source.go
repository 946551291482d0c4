// Package paging loads keyed pages of data on demand and keeps the pages that
// have been loaded so they can be replayed to any number of subscribers.
package paging

import "context"

// LoadType tells a Source which edge of the loaded data a request is for
type LoadType int

const (
	LoadRefresh LoadType = iota
	LoadPrepend
	LoadAppend
)

func (t LoadType) String() string {
	switch t {
	case LoadRefresh:
		return "refresh"
	case LoadPrepend:
		return "prepend"
	case LoadAppend:
		return "append"
	default:
		return "unknown"
	}
}

// LoadParams describes one page request. Key is nil for the very first load
// when the pager was created without an initial key.
type LoadParams[K comparable] struct {
	Key      *K
	LoadSize int
	Type     LoadType
}

// Page is one chunk of loaded data. A nil PrevKey or NextKey marks the
// boundary of the data set in that direction.
type Page[K comparable, V any] struct {
	Data    []V
	PrevKey *K
	NextKey *K
}

// LoadResult holds either a Page or the error that prevented loading it
type LoadResult[K comparable, V any] struct {
	Page *Page[K, V]
	Err  error
}

// PageResult builds a successful LoadResult
func PageResult[K comparable, V any](data []V, prevKey, nextKey *K) LoadResult[K, V] {
	return LoadResult[K, V]{Page: &Page[K, V]{Data: data, PrevKey: prevKey, NextKey: nextKey}}
}

// ErrorResult builds a failed LoadResult
func ErrorResult[K comparable, V any](err error) LoadResult[K, V] {
	return LoadResult[K, V]{Err: err}
}

// Source loads pages by key
type Source[K comparable, V any] interface {
	// Load fetches a single page. Failures are reported through
	// LoadResult.Err rather than by panicking or blocking forever.
	Load(ctx context.Context, params LoadParams[K]) LoadResult[K, V]

	// RefreshKey returns the key to reload from when the pager is refreshed
	// after pages have been loaded, or nil to start from the initial key.
	RefreshKey(state State[K, V]) *K
}

// State is the pager state handed to Source.RefreshKey
type State[K comparable, V any] struct {
	Pages          []Page[K, V]
	AnchorPosition *int
	Config         Config
}

// ClosestPageToPosition returns the loaded page holding the item at anchor,
// clamped to the first or last page. It returns nil if nothing is loaded.
func (s State[K, V]) ClosestPageToPosition(anchor int) *Page[K, V] {
	if len(s.Pages) == 0 {
		return nil
	}
	if anchor < 0 {
		return &s.Pages[0]
	}
	offset := anchor
	for i := range s.Pages {
		if offset < len(s.Pages[i].Data) {
			return &s.Pages[i]
		}
		offset -= len(s.Pages[i].Data)
	}
	return &s.Pages[len(s.Pages)-1]
}
