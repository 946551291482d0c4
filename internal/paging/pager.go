package paging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by operations on a closed Pager
var ErrClosed = errors.New("pager closed")

// DefaultPageSize is used when Config.PageSize is not set
const DefaultPageSize = 10

// Config controls page sizes and how far ahead of the accessed item the
// pager loads. Placeholders for unloaded items are never produced.
type Config struct {
	PageSize         int
	PrefetchDistance int // defaults to PageSize
	InitialLoadSize  int // defaults to 3 * PageSize
}

func (c Config) withDefaults() Config {
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PrefetchDistance <= 0 {
		c.PrefetchDistance = c.PageSize
	}
	if c.InitialLoadSize <= 0 {
		c.InitialLoadSize = 3 * c.PageSize
	}
	return c
}

// Snapshot is the materialized view of everything loaded so far
type Snapshot[V any] struct {
	Items      []V
	LoadStates LoadStates
	Generation uint64
}

// Pager drives a Source on demand and caches the loaded pages for the
// lifetime of its owner. At most one load per edge and key is in flight at a
// time, and loads run in the pager's own scope so Close cancels them.
type Pager[K comparable, V any] struct {
	config     Config
	initialKey *K
	source     Source[K, V]

	scope  context.Context
	cancel context.CancelFunc
	group  singleflight.Group

	mu          sync.Mutex
	pages       []Page[K, V]
	states      LoadStates
	anchor      *int
	generation  uint64
	started     bool
	closed      bool
	subscribers map[chan Snapshot[V]]struct{}
}

// NewPager creates a cold pager; nothing is loaded until Access or Refresh
func NewPager[K comparable, V any](config Config, initialKey *K, source Source[K, V]) *Pager[K, V] {
	scope, cancel := context.WithCancel(context.Background())
	return &Pager[K, V]{
		config:      config.withDefaults(),
		initialKey:  initialKey,
		source:      source,
		scope:       scope,
		cancel:      cancel,
		subscribers: make(map[chan Snapshot[V]]struct{}),
	}
}

// Config returns the effective configuration
func (p *Pager[K, V]) Config() Config {
	return p.config
}

// Access signals that the item at index is being displayed. The first call
// triggers the initial load; later calls load further pages in either
// direction until index is within the prefetch distance of both edges.
func (p *Pager[K, V]) Access(ctx context.Context, index int) error {
	if index < 0 {
		index = 0
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	anchor := index
	p.anchor = &anchor
	needsStart := !p.started
	p.mu.Unlock()

	if needsStart {
		if err := p.Refresh(ctx); err != nil {
			return err
		}
	}

	for {
		more, err := p.appendStep(ctx, index, false)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	for {
		shift, more, err := p.prependStep(ctx, index, false)
		if err != nil {
			return err
		}
		index += shift
		if !more {
			return nil
		}
	}
}

// Refresh discards the loaded pages once a new first page has loaded. When
// an item has been accessed the source picks the key to restart from and the
// anchor moves to the same offset inside the new first page.
// A failed refresh keeps the pages that were already loaded.
func (p *Pager[K, V]) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	key := p.initialKey
	anchorOffset := -1
	if len(p.pages) > 0 && p.anchor != nil {
		key = p.source.RefreshKey(p.stateLocked())
		anchorOffset = p.offsetInPageLocked(*p.anchor)
	}
	gen := p.generation
	p.started = true
	p.states.Refresh = LoadState{Status: Loading}
	p.notifyLocked()
	p.mu.Unlock()

	result, err := p.fetch(ctx, LoadParams[K]{Key: key, LoadSize: p.config.InitialLoadSize, Type: LoadRefresh})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if err != nil {
		if p.states.Refresh.Status == Loading {
			p.states.Refresh = LoadState{Status: NotLoading}
			if len(p.pages) == 0 {
				p.started = false
			}
			p.notifyLocked()
		}
		return err
	}
	if gen != p.generation {
		// a concurrent refresh already replaced the pages
		return nil
	}
	if result.Err != nil {
		slog.Debug("Refresh failed", "key", keyString(key), "err", result.Err)
		p.states.Refresh = LoadState{Status: Failed, Err: result.Err}
		p.notifyLocked()
		return result.Err
	}

	page := *result.Page
	p.pages = []Page[K, V]{page}
	p.generation++
	if anchorOffset >= 0 {
		a := min(anchorOffset, max(len(page.Data)-1, 0))
		p.anchor = &a
	}
	p.states = LoadStates{
		Refresh: LoadState{Status: NotLoading},
		Prepend: LoadState{Status: NotLoading, EndOfPaginationReached: page.PrevKey == nil},
		Append:  LoadState{Status: NotLoading, EndOfPaginationReached: page.NextKey == nil},
	}
	p.notifyLocked()
	return nil
}

// Retry repeats whichever load failed last. The refresh takes priority over
// append and prepend failures.
func (p *Pager[K, V]) Retry(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	states := p.states
	index := p.anchorLocked()
	p.mu.Unlock()

	switch {
	case states.Refresh.Status == Failed:
		if err := p.Refresh(ctx); err != nil {
			return err
		}
		p.mu.Lock()
		index = p.anchorLocked()
		p.mu.Unlock()
		return p.Access(ctx, index)
	case states.Append.Status == Failed:
		if _, err := p.appendStep(ctx, index, true); err != nil {
			return err
		}
		return p.Access(ctx, index)
	case states.Prepend.Status == Failed:
		shift, _, err := p.prependStep(ctx, index, true)
		if err != nil {
			return err
		}
		return p.Access(ctx, index+shift)
	}
	return nil
}

// Snapshot returns the items loaded so far in key order
func (p *Pager[K, V]) Snapshot() Snapshot[V] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe returns a channel that immediately receives the current snapshot
// and then every change. Slow readers only see the latest snapshot. The
// channel is closed when ctx is done or the pager is closed.
func (p *Pager[K, V]) Subscribe(ctx context.Context) <-chan Snapshot[V] {
	ch := make(chan Snapshot[V], 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch
	}
	p.subscribers[ch] = struct{}{}
	ch <- p.snapshotLocked()
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
		case <-p.scope.Done():
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
	}()
	return ch
}

// Close cancels in-flight loads and releases subscribers. Results that
// arrive afterwards are dropped.
func (p *Pager[K, V]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.cancel()
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}

// appendStep performs at most one append load. It reports whether another
// step may be needed.
func (p *Pager[K, V]) appendStep(ctx context.Context, index int, force bool) (bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false, ErrClosed
	}
	if len(p.pages) == 0 || (!force && p.states.Append.Status == Failed) {
		p.mu.Unlock()
		return false, nil
	}
	last := p.pages[len(p.pages)-1]
	if last.NextKey == nil {
		p.mu.Unlock()
		return false, nil
	}
	if !force && p.countLocked() > index+p.config.PrefetchDistance {
		p.mu.Unlock()
		return false, nil
	}
	key := *last.NextKey
	gen := p.generation
	p.states.Append = LoadState{Status: Loading}
	p.notifyLocked()
	p.mu.Unlock()

	result, err := p.fetch(ctx, LoadParams[K]{Key: &key, LoadSize: p.config.PageSize, Type: LoadAppend})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false, ErrClosed
	}
	if err != nil {
		if p.states.Append.Status == Loading {
			p.states.Append = LoadState{Status: NotLoading}
			p.notifyLocked()
		}
		return false, err
	}
	if gen != p.generation {
		return false, nil
	}
	tail := p.pages[len(p.pages)-1]
	if tail.NextKey == nil || *tail.NextKey != key {
		// another caller sharing this load already applied it
		return true, nil
	}
	if result.Err != nil {
		slog.Debug("Append failed", "key", keyString(&key), "err", result.Err)
		p.states.Append = LoadState{Status: Failed, Err: result.Err}
		p.notifyLocked()
		return false, result.Err
	}
	p.pages = append(p.pages, *result.Page)
	p.states.Append = LoadState{Status: NotLoading, EndOfPaginationReached: result.Page.NextKey == nil}
	p.notifyLocked()
	return true, nil
}

// prependStep performs at most one prepend load and returns how far the
// accessed index moved because of it.
func (p *Pager[K, V]) prependStep(ctx context.Context, index int, force bool) (int, bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, false, ErrClosed
	}
	if len(p.pages) == 0 || (!force && p.states.Prepend.Status == Failed) {
		p.mu.Unlock()
		return 0, false, nil
	}
	first := p.pages[0]
	if first.PrevKey == nil || (!force && index >= p.config.PrefetchDistance) {
		p.mu.Unlock()
		return 0, false, nil
	}
	key := *first.PrevKey
	gen := p.generation
	p.states.Prepend = LoadState{Status: Loading}
	p.notifyLocked()
	p.mu.Unlock()

	result, err := p.fetch(ctx, LoadParams[K]{Key: &key, LoadSize: p.config.PageSize, Type: LoadPrepend})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, false, ErrClosed
	}
	if err != nil {
		if p.states.Prepend.Status == Loading {
			p.states.Prepend = LoadState{Status: NotLoading}
			p.notifyLocked()
		}
		return 0, false, err
	}
	if gen != p.generation {
		return 0, false, nil
	}
	head := p.pages[0]
	if head.PrevKey == nil || *head.PrevKey != key {
		return 0, false, nil
	}
	if result.Err != nil {
		slog.Debug("Prepend failed", "key", keyString(&key), "err", result.Err)
		p.states.Prepend = LoadState{Status: Failed, Err: result.Err}
		p.notifyLocked()
		return 0, false, result.Err
	}
	p.pages = append([]Page[K, V]{*result.Page}, p.pages...)
	p.states.Prepend = LoadState{Status: NotLoading, EndOfPaginationReached: result.Page.PrevKey == nil}
	shift := len(result.Page.Data)
	if p.anchor != nil {
		moved := *p.anchor + shift
		p.anchor = &moved
	}
	p.notifyLocked()
	return shift, true, nil
}

// fetch runs the load in the pager scope, shared with any concurrent caller
// asking for the same edge and key. The caller stops waiting when ctx is
// done but the load itself is only cancelled by Close.
func (p *Pager[K, V]) fetch(ctx context.Context, params LoadParams[K]) (LoadResult[K, V], error) {
	flightKey := params.Type.String() + ":" + keyString(params.Key)
	ch := p.group.DoChan(flightKey, func() (any, error) {
		return p.source.Load(p.scope, params), nil
	})

	select {
	case <-ctx.Done():
		return LoadResult[K, V]{}, ctx.Err()
	case res := <-ch:
		return res.Val.(LoadResult[K, V]), nil
	}
}

func (p *Pager[K, V]) stateLocked() State[K, V] {
	pages := make([]Page[K, V], len(p.pages))
	copy(pages, p.pages)
	var anchor *int
	if p.anchor != nil {
		a := *p.anchor
		anchor = &a
	}
	return State[K, V]{Pages: pages, AnchorPosition: anchor, Config: p.config}
}

func (p *Pager[K, V]) anchorLocked() int {
	if p.anchor == nil {
		return 0
	}
	return *p.anchor
}

// offsetInPageLocked returns where position falls inside the loaded page
// that holds it, clamped the same way as ClosestPageToPosition.
func (p *Pager[K, V]) offsetInPageLocked(position int) int {
	if position < 0 {
		return 0
	}
	start := 0
	for i, page := range p.pages {
		if position < start+len(page.Data) || i == len(p.pages)-1 {
			return min(position-start, max(len(page.Data)-1, 0))
		}
		start += len(page.Data)
	}
	return 0
}

func (p *Pager[K, V]) countLocked() int {
	n := 0
	for _, page := range p.pages {
		n += len(page.Data)
	}
	return n
}

func (p *Pager[K, V]) snapshotLocked() Snapshot[V] {
	items := make([]V, 0, p.countLocked())
	for _, page := range p.pages {
		items = append(items, page.Data...)
	}
	return Snapshot[V]{Items: items, LoadStates: p.states, Generation: p.generation}
}

// notifyLocked hands the latest snapshot to every subscriber, replacing any
// snapshot that has not been read yet. Only this method sends, under p.mu,
// so the send never blocks.
func (p *Pager[K, V]) notifyLocked() {
	if len(p.subscribers) == 0 {
		return
	}
	snapshot := p.snapshotLocked()
	for ch := range p.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

func keyString[K comparable](key *K) string {
	if key == nil {
		return "initial"
	}
	return fmt.Sprint(*key)
}
