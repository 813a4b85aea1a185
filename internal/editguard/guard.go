// Package editguard tracks entities that are being edited locally so that a
// background refresh does not overwrite them mid-edit.
package editguard

import (
	"sort"
	"sync"
)

// Guard is a concurrency safe, reference counted set of keys under edit.
type Guard struct {
	mu      sync.RWMutex
	editing map[string]int
}

func New() *Guard {
	return &Guard{editing: make(map[string]int)}
}

// Begin marks key as being edited until the returned release is called.
// Nested Begin calls for the same key are counted; release is idempotent.
func (g *Guard) Begin(key string) (release func()) {
	g.mu.Lock()
	g.editing[key]++
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.editing[key] <= 1 {
				delete(g.editing, key)
				return
			}
			g.editing[key]--
		})
	}
}

// Do runs fn while key is held.
func (g *Guard) Do(key string, fn func() error) error {
	release := g.Begin(key)
	defer release()
	return fn()
}

func (g *Guard) IsEditing(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.editing[key] > 0
}

// Editing returns the keys under edit, sorted.
func (g *Guard) Editing() []string {
	g.mu.RLock()
	keys := make([]string, 0, len(g.editing))
	for k := range g.editing {
		keys = append(keys, k)
	}
	g.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (g *Guard) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.editing)
}

// Merge applies a refresh. The result follows fresh, except that items whose
// key is under edit keep their local version, and locally edited items that
// fresh no longer contains are appended in their local order.
func Merge[T any](g *Guard, local, fresh []T, key func(T) string) []T {
	held := make(map[string]T)
	var heldOrder []string
	for _, item := range local {
		k := key(item)
		if g.IsEditing(k) {
			if _, dup := held[k]; !dup {
				heldOrder = append(heldOrder, k)
			}
			held[k] = item
		}
	}

	out := make([]T, 0, len(fresh)+len(held))
	seen := make(map[string]bool, len(fresh))
	for _, item := range fresh {
		k := key(item)
		seen[k] = true
		if mine, ok := held[k]; ok {
			out = append(out, mine)
			continue
		}
		out = append(out, item)
	}
	for _, k := range heldOrder {
		if !seen[k] {
			out = append(out, held[k])
		}
	}
	return out
}
