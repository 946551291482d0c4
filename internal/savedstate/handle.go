// Package savedstate keeps the small amount of UI state that outlives a
// view model: navigation arguments and the last search query.
package savedstate

import (
	"math"
	"strconv"
	"sync"
)

// Handle is a concurrent key/value map of scalar values
type Handle struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates a handle seeded with values
func New(values map[string]any) *Handle {
	h := &Handle{values: make(map[string]any, len(values))}
	for k, v := range values {
		h.values[k] = v
	}
	return h
}

func (h *Handle) Get(key string) (any, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.values[key]
	return v, ok
}

// Set stores value; a nil value removes the key
func (h *Handle) Set(key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if value == nil {
		delete(h.values, key)
		return
	}
	h.values[key] = value
}

// String returns the value for key if it is a string
func (h *Handle) String(key string) (string, bool) {
	v, ok := h.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the value for key if it holds an integer that fits in an int.
// Numeric strings are accepted since navigation arguments often arrive as
// text.
func (h *Handle) Int(key string) (int, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// Values returns a copy of everything in the handle
func (h *Handle) Values() map[string]any {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]any, len(h.values))
	for k, v := range h.values {
		out[k] = v
	}
	return out
}
