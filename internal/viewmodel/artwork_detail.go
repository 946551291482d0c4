package viewmodel

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lehigh-university-libraries/gallery/internal/gallery"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/savedstate"
)

// ArtworkIDKey is the navigation argument naming the artwork to show
const ArtworkIDKey = "id"

// MissingIDMessage is the failure reported when no usable id was passed
const MissingIDMessage = "Failed to extract artwork ID from navigation arguments"

// LoadStatus is the load status of the artwork detail screen: Loading,
// Loaded or LoadFailed.
type LoadStatus interface {
	isLoadStatus()
}

// Loading means the request is in flight
type Loading struct{}

// Loaded carries the artwork
type Loaded struct {
	Artwork models.Artwork
}

// LoadFailed carries the reason. It is meant for logs, not for display.
type LoadFailed struct {
	Message string
}

func (Loading) isLoadStatus()    {}
func (Loaded) isLoadStatus()     {}
func (LoadFailed) isLoadStatus() {}

// ArtworkDetailState is the UI state of the artwork detail screen
type ArtworkDetailState struct {
	LoadStatus LoadStatus
}

// ArtworkDetailViewModel loads one artwork once. There is no user input on
// the detail screen and no retry; the state is terminal once resolved.
type ArtworkDetailViewModel struct {
	mu     sync.RWMutex
	state  ArtworkDetailState
	done   chan struct{}
	cancel context.CancelFunc
}

// NewArtworkDetailViewModel reads the artwork id from saved and starts
// loading it. A missing id fails right away without a request.
func NewArtworkDetailViewModel(saved *savedstate.Handle, repo gallery.Repository) *ArtworkDetailViewModel {
	vm := &ArtworkDetailViewModel{
		state:  ArtworkDetailState{LoadStatus: Loading{}},
		done:   make(chan struct{}),
		cancel: func() {},
	}

	id, ok := saved.Int(ArtworkIDKey)
	if !ok || id < 0 {
		slog.Error(MissingIDMessage, "value", saved.Values()[ArtworkIDKey])
		vm.state = ArtworkDetailState{LoadStatus: LoadFailed{Message: MissingIDMessage}}
		close(vm.done)
		return vm
	}

	ctx, cancel := context.WithCancel(context.Background())
	vm.cancel = cancel
	go vm.load(ctx, repo, id)
	return vm
}

func (vm *ArtworkDetailViewModel) load(ctx context.Context, repo gallery.Repository, id int) {
	defer close(vm.done)

	result := repo.ArtworkByID(ctx, id)
	if ctx.Err() != nil {
		// the scope was closed; nobody is listening
		return
	}

	var status LoadStatus
	switch r := result.(type) {
	case models.Success[models.Artwork]:
		status = Loaded{Artwork: r.Data}
	case models.Failure[models.Artwork]:
		slog.Debug("Artwork load failed", "id", id, "err", r.Message)
		status = LoadFailed{Message: r.Message}
	default:
		status = LoadFailed{Message: "unexpected result"}
	}

	vm.mu.Lock()
	vm.state = ArtworkDetailState{LoadStatus: status}
	vm.mu.Unlock()
}

// State returns the current UI state
func (vm *ArtworkDetailViewModel) State() ArtworkDetailState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.state
}

// Done is closed once the load has resolved or the view model was closed
func (vm *ArtworkDetailViewModel) Done() <-chan struct{} {
	return vm.done
}

// Wait blocks until the load resolves and returns the final state
func (vm *ArtworkDetailViewModel) Wait(ctx context.Context) (ArtworkDetailState, error) {
	select {
	case <-vm.done:
		return vm.State(), nil
	case <-ctx.Done():
		return vm.State(), ctx.Err()
	}
}

// Close cancels a load still in flight
func (vm *ArtworkDetailViewModel) Close() {
	vm.cancel()
}
