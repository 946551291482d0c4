package paging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listSource serves a fixed slice keyed by item offset. Refresh and append
// keys are the first offset of the page, prepend keys the offset just past
// the page.
type listSource struct {
	items []int

	mu    sync.Mutex
	calls map[LoadType]int
	fail  func(params LoadParams[int]) error
	block chan struct{}
}

func newListSource(n int) *listSource {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return &listSource{items: items, calls: make(map[LoadType]int)}
}

func (s *listSource) Load(ctx context.Context, params LoadParams[int]) LoadResult[int, int] {
	s.mu.Lock()
	s.calls[params.Type]++
	fail := s.fail
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ErrorResult[int, int](ctx.Err())
		}
	}
	if fail != nil {
		if err := fail(params); err != nil {
			return ErrorResult[int, int](err)
		}
	}

	start := 0
	if params.Key != nil {
		start = *params.Key
	}
	if params.Type == LoadPrepend {
		start -= params.LoadSize
		if start < 0 {
			start = 0
		}
	}
	end := start + params.LoadSize
	if end > len(s.items) {
		end = len(s.items)
	}

	var prev, next *int
	if start > 0 {
		p := start
		prev = &p
	}
	if end < len(s.items) {
		n := end
		next = &n
	}
	data := make([]int, end-start)
	copy(data, s.items[start:end])
	return PageResult(data, prev, next)
}

func (s *listSource) RefreshKey(state State[int, int]) *int {
	if state.AnchorPosition == nil {
		return nil
	}
	page := state.ClosestPageToPosition(*state.AnchorPosition)
	if page == nil || len(page.Data) == 0 {
		return nil
	}
	start := page.Data[0]
	return &start
}

func (s *listSource) callCount(t LoadType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[t]
}

func ascending(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestAccessLoadsWithinPrefetchDistance(t *testing.T) {
	tests := []struct {
		index    int
		expected int
	}{
		{index: 0, expected: 30},
		{index: 10, expected: 30},
		{index: 50, expected: 70},
		{index: 80, expected: 100},
		{index: 150, expected: 170},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("scroll to %d", tt.index), func(t *testing.T) {
			source := newListSource(200)
			pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
			defer pager.Close()

			require.NoError(t, pager.Access(context.Background(), tt.index))

			snapshot := pager.Snapshot()
			assert.Equal(t, ascending(tt.expected), snapshot.Items)
			assert.Equal(t, 1, source.callCount(LoadRefresh))
		})
	}
}

func TestAccessWithLargerPages(t *testing.T) {
	source := newListSource(400)
	pager := NewPager[int, int](Config{PageSize: 20}, nil, source)
	defer pager.Close()

	require.NoError(t, pager.Access(context.Background(), 150))

	items := pager.Snapshot().Items
	assert.GreaterOrEqual(t, len(items), 170)
	assert.Equal(t, ascending(len(items)), items)
}

func TestAccessStopsAtEndOfData(t *testing.T) {
	source := newListSource(45)
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	require.NoError(t, pager.Access(context.Background(), 1000))

	snapshot := pager.Snapshot()
	assert.Len(t, snapshot.Items, 45)
	assert.True(t, snapshot.LoadStates.Append.EndOfPaginationReached)
	assert.True(t, snapshot.LoadStates.Prepend.EndOfPaginationReached)
}

func TestConcurrentAccessSharesLoads(t *testing.T) {
	source := newListSource(200)
	source.block = make(chan struct{})
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, pager.Access(context.Background(), 0))
		}()
	}

	// let every goroutine join the in-flight refresh before it completes
	time.Sleep(50 * time.Millisecond)
	close(source.block)
	wg.Wait()

	assert.Equal(t, 1, source.callCount(LoadRefresh))
	assert.Equal(t, ascending(30), pager.Snapshot().Items)
}

func TestSubscribeReplaysWithoutRefetching(t *testing.T) {
	source := newListSource(200)
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	require.NoError(t, pager.Access(context.Background(), 50))
	appends := source.callCount(LoadAppend)

	ctx, cancel := context.WithCancel(context.Background())
	first := <-pager.Subscribe(ctx)
	cancel()

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	second := <-pager.Subscribe(ctx2)

	assert.Equal(t, ascending(70), first.Items)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, source.callCount(LoadRefresh))
	assert.Equal(t, appends, source.callCount(LoadAppend))
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	source := newListSource(200)
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := pager.Subscribe(ctx)

	initial := <-updates
	assert.Empty(t, initial.Items)

	require.NoError(t, pager.Access(context.Background(), 0))

	deadline := time.After(time.Second)
	for {
		select {
		case snapshot := <-updates:
			if len(snapshot.Items) == 30 {
				return
			}
		case <-deadline:
			t.Fatal("did not receive loaded snapshot")
		}
	}
}

func TestAppendFailureKeepsPagesAndRetries(t *testing.T) {
	source := newListSource(200)
	var failed atomic.Bool
	source.fail = func(params LoadParams[int]) error {
		if params.Type == LoadAppend && *params.Key == 30 && !failed.Load() {
			failed.Store(true)
			return errors.New("connection reset")
		}
		return nil
	}
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	err := pager.Access(context.Background(), 25)
	require.Error(t, err)

	snapshot := pager.Snapshot()
	assert.Equal(t, ascending(30), snapshot.Items)
	assert.Equal(t, Failed, snapshot.LoadStates.Append.Status)
	assert.True(t, snapshot.LoadStates.HasError())

	// a failed edge is not reloaded by scrolling alone
	require.NoError(t, pager.Access(context.Background(), 29))
	assert.Len(t, pager.Snapshot().Items, 30)

	require.NoError(t, pager.Retry(context.Background()))
	snapshot = pager.Snapshot()
	assert.Equal(t, ascending(40), snapshot.Items)
	assert.Equal(t, NotLoading, snapshot.LoadStates.Append.Status)
}

func TestRefreshFailureAndRetry(t *testing.T) {
	source := newListSource(200)
	var failed atomic.Bool
	source.fail = func(params LoadParams[int]) error {
		if params.Type == LoadRefresh && !failed.Load() {
			failed.Store(true)
			return errors.New("no such host")
		}
		return nil
	}
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	require.Error(t, pager.Access(context.Background(), 0))
	snapshot := pager.Snapshot()
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, Failed, snapshot.LoadStates.Refresh.Status)
	assert.EqualError(t, snapshot.LoadStates.Refresh.Err, "no such host")

	require.NoError(t, pager.Retry(context.Background()))
	assert.Equal(t, ascending(30), pager.Snapshot().Items)
}

func TestRefreshFromAnchor(t *testing.T) {
	source := newListSource(200)
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	require.NoError(t, pager.Access(context.Background(), 55))
	require.NoError(t, pager.Refresh(context.Background()))

	// the refreshed page starts at the page holding the anchor
	items := pager.Snapshot().Items
	require.NotEmpty(t, items)
	assert.Equal(t, 50, items[0])

	// scrolling back to the top prepends the earlier pages in order
	require.NoError(t, pager.Access(context.Background(), 0))
	items = pager.Snapshot().Items
	assert.Equal(t, 40, items[0])
	for i := 1; i < len(items); i++ {
		assert.Equal(t, items[i-1]+1, items[i])
	}
}

func TestRetryAfterAnchoredRefreshLoadsAroundAnchor(t *testing.T) {
	source := newListSource(1000)
	var failing atomic.Bool
	source.fail = func(params LoadParams[int]) error {
		if params.Type == LoadRefresh && failing.Swap(false) {
			return errors.New("timeout")
		}
		return nil
	}
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)
	defer pager.Close()

	require.NoError(t, pager.Access(context.Background(), 150))
	assert.Equal(t, ascending(170), pager.Snapshot().Items)
	appends := source.callCount(LoadAppend)

	failing.Store(true)
	require.Error(t, pager.Refresh(context.Background()))
	assert.Len(t, pager.Snapshot().Items, 170)

	require.NoError(t, pager.Retry(context.Background()))

	// the reload restarts at the anchored page and only fills the prefetch
	// window around it
	items := pager.Snapshot().Items
	require.Len(t, items, 40)
	assert.Equal(t, 140, items[0])
	assert.Equal(t, 179, items[len(items)-1])
	assert.Equal(t, appends, source.callCount(LoadAppend))
	assert.Equal(t, 1, source.callCount(LoadPrepend))
}

func TestCloseCancelsInFlightLoad(t *testing.T) {
	source := newListSource(200)
	source.block = make(chan struct{})
	pager := NewPager[int, int](Config{PageSize: 10}, nil, source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates := pager.Subscribe(ctx)
	<-updates

	done := make(chan error, 1)
	go func() {
		done <- pager.Access(context.Background(), 0)
	}()

	time.Sleep(20 * time.Millisecond)
	pager.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Access did not return after Close")
	}

	// drain whatever was buffered; the channel must be closed
	for range updates {
	}
	assert.Empty(t, pager.Snapshot().Items)
	assert.ErrorIs(t, pager.Access(context.Background(), 0), ErrClosed)
}

func TestClosestPageToPosition(t *testing.T) {
	one, two := 1, 2
	state := State[int, string]{
		Pages: []Page[int, string]{
			{Data: []string{"a", "b"}, NextKey: &one},
			{Data: []string{"c", "d", "e"}, PrevKey: &one, NextKey: &two},
		},
	}

	assert.Equal(t, &state.Pages[0], state.ClosestPageToPosition(-1))
	assert.Equal(t, &state.Pages[0], state.ClosestPageToPosition(1))
	assert.Equal(t, &state.Pages[1], state.ClosestPageToPosition(2))
	assert.Equal(t, &state.Pages[1], state.ClosestPageToPosition(99))
	assert.Nil(t, State[int, string]{}.ClosestPageToPosition(0))
}
