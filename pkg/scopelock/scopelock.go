// Package scopelock serializes validate-then-write sequences that race on the
// same workload scope. Capacity validation reads aggregate sums and the
// subsequent insert is a separate statement; two concurrent requests against
// the same teacher or room could otherwise both pass the check and jointly
// overshoot the ceiling. Locks are per-process; multi-instance deployments
// need a database advisory lock instead.
package scopelock

import (
	"sort"
	"sync"
)

// Registry hands out one mutex per scope key.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRegistry constructs an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

func (r *Registry) lockFor(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}
	return l
}

// Acquire locks every key and returns a release function. Keys are
// deduplicated and locked in sorted order so two requests sharing a subset of
// scopes cannot deadlock.
func (r *Registry) Acquire(keys ...string) func() {
	uniq := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if key != "" {
			uniq[key] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(uniq))
	for key := range uniq {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		l := r.lockFor(key)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
