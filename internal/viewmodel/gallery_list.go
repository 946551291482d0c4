package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/paging"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
)

const (
	// LastSearchQueryKey holds the query restored on the next launch
	LastSearchQueryKey = "last_search_query"
	// DefaultQuery is empty and returns the whole collection
	DefaultQuery = ""
)

// Action is a user action on the gallery list screen
type Action interface {
	isAction()
}

// Search is submitted from the search bar
type Search struct {
	Query string
}

func (Search) isAction() {}

// GalleryListState is the UI state of the gallery list
type GalleryListState struct {
	Query string
}

// GalleryViewModel turns search actions into a paged stream of results.
// Each distinct query gets a fresh pager and the previous one is closed.
type GalleryViewModel struct {
	saved *savedstate.Handle
	repo  gallery.Repository

	mu      sync.RWMutex
	state   GalleryListState
	pager   *paging.Pager[int, models.Artwork]
	changed chan struct{}
	closed  bool
}

// NewGalleryViewModel restores the last query from saved and starts a
// stream for it, so results exist before any user input.
func NewGalleryViewModel(saved *savedstate.Handle, repo gallery.Repository) *GalleryViewModel {
	initialQuery := DefaultQuery
	if query, ok := saved.String(LastSearchQueryKey); ok {
		initialQuery = query
	}

	vm := &GalleryViewModel{
		saved:   saved,
		repo:    repo,
		changed: make(chan struct{}),
	}
	vm.Dispatch(Search{Query: initialQuery})
	return vm
}

// Dispatch applies an action. Searching for the current query again is a
// no-op.
func (vm *GalleryViewModel) Dispatch(action Action) {
	switch a := action.(type) {
	case Search:
		vm.search(a.Query)
	default:
		slog.Warn("Ignoring unknown gallery action", "action", action)
	}
}

func (vm *GalleryViewModel) search(query string) {
	vm.mu.Lock()
	if vm.closed || (vm.pager != nil && vm.state.Query == query) {
		vm.mu.Unlock()
		return
	}
	previous := vm.pager
	vm.pager = vm.repo.SearchResultStream(query)
	vm.state = GalleryListState{Query: query}
	close(vm.changed)
	vm.changed = make(chan struct{})
	vm.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	slog.Debug("Search query changed", "query", query)
}

// State returns the current UI state
func (vm *GalleryViewModel) State() GalleryListState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.state
}

// Queries follows the current query. The channel receives the query at
// subscription time and then every change, and closes with ctx or the view
// model.
func (vm *GalleryViewModel) Queries(ctx context.Context) <-chan string {
	out := make(chan string, 1)

	vm.mu.RLock()
	last, changed, closed := vm.state.Query, vm.changed, vm.closed
	vm.mu.RUnlock()
	if closed {
		close(out)
		return out
	}
	out <- last

	go func() {
		defer close(out)
		for {
			select {
			case <-changed:
			case <-ctx.Done():
				return
			}

			vm.mu.RLock()
			query, closed := vm.state.Query, vm.closed
			changed = vm.changed
			vm.mu.RUnlock()
			if closed {
				return
			}
			if query == last {
				continue
			}
			select {
			case out <- query:
				last = query
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Pager returns the stream for the current query
func (vm *GalleryViewModel) Pager() *paging.Pager[int, models.Artwork] {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.pager
}

// Access forwards a display signal to the current stream. A stream that was
// replaced while loading is not an error.
func (vm *GalleryViewModel) Access(ctx context.Context, index int) error {
	pager := vm.Pager()
	return vm.superseded(pager, pager.Access(ctx, index))
}

// Retry repeats the failed load of the current stream
func (vm *GalleryViewModel) Retry(ctx context.Context) error {
	pager := vm.Pager()
	return vm.superseded(pager, pager.Retry(ctx))
}

func (vm *GalleryViewModel) superseded(pager *paging.Pager[int, models.Artwork], err error) error {
	if errors.Is(err, paging.ErrClosed) {
		vm.mu.RLock()
		defer vm.mu.RUnlock()
		if !vm.closed && vm.pager != pager {
			return nil
		}
	}
	return err
}

// Subscribe follows the stream of whatever query is current. When the query
// changes, snapshots of the old stream stop and the new stream is replayed
// from its start. The channel closes with ctx or the view model.
func (vm *GalleryViewModel) Subscribe(ctx context.Context) <-chan paging.Snapshot[models.Artwork] {
	out := make(chan paging.Snapshot[models.Artwork])

	go func() {
		defer close(out)
		for {
			vm.mu.RLock()
			pager, changed, closed := vm.pager, vm.changed, vm.closed
			vm.mu.RUnlock()
			if closed {
				return
			}

			if !vm.forward(ctx, pager, changed, out) {
				return
			}
		}
	}()
	return out
}

// forward copies snapshots of one pager to out until the query changes. It
// returns false once ctx is done.
func (vm *GalleryViewModel) forward(ctx context.Context, pager *paging.Pager[int, models.Artwork], changed <-chan struct{}, out chan<- paging.Snapshot[models.Artwork]) bool {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	updates := pager.Subscribe(streamCtx)

	for {
		select {
		case <-ctx.Done():
			return false
		case <-changed:
			return true
		case snapshot, ok := <-updates:
			if !ok {
				select {
				case <-ctx.Done():
					return false
				case <-changed:
					return true
				}
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
				return false
			case <-changed:
				return true
			}
		}
	}
}

// Close tears the scope down: the current stream is closed and the query is
// saved for the next launch.
func (vm *GalleryViewModel) Close() {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return
	}
	vm.closed = true
	vm.saved.Set(LastSearchQueryKey, vm.state.Query)
	close(vm.changed)
	pager := vm.pager
	vm.mu.Unlock()

	if pager != nil {
		pager.Close()
	}
}
