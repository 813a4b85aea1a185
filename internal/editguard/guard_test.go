package editguard

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type order struct {
	Key    string
	Status string
}

func key(o order) string { return o.Key }

func TestGuard_BeginRelease(t *testing.T) {
	g := New()
	assert.False(t, g.IsEditing("a"))

	release := g.Begin("a")
	assert.True(t, g.IsEditing("a"))
	assert.Equal(t, 1, g.Len())

	release()
	release()
	assert.False(t, g.IsEditing("a"))
	assert.Equal(t, 0, g.Len())
}

func TestGuard_NestedBegin(t *testing.T) {
	g := New()
	outer := g.Begin("a")
	inner := g.Begin("a")

	inner()
	assert.True(t, g.IsEditing("a"), "outer edit still open")

	outer()
	assert.False(t, g.IsEditing("a"))
}

func TestGuard_Do(t *testing.T) {
	g := New()
	err := g.Do("x", func() error {
		assert.True(t, g.IsEditing("x"))
		return fmt.Errorf("boom")
	})
	assert.EqualError(t, err, "boom")
	assert.False(t, g.IsEditing("x"))
}

func TestGuard_Editing(t *testing.T) {
	g := New()
	g.Begin("b")
	g.Begin("a")
	assert.Equal(t, []string{"a", "b"}, g.Editing())
}

func TestGuard_Concurrent(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			release := g.Begin(fmt.Sprintf("k%d", i%5))
			_ = g.IsEditing("k0")
			release()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, g.Len())
}

func TestMerge(t *testing.T) {
	g := New()
	defer g.Begin("2")()
	defer g.Begin("4")()

	local := []order{
		{"1", "pending"},
		{"2", "edited"},
		{"3", "pending"},
		{"4", "draft"},
	}
	fresh := []order{
		{"2", "approved"},
		{"1", "approved"},
		{"5", "pending"},
	}

	got := Merge(g, local, fresh, key)
	assert.Equal(t, []order{
		{"2", "edited"},
		{"1", "approved"},
		{"5", "pending"},
		{"4", "draft"},
	}, got)
}

func TestMerge_NothingHeld(t *testing.T) {
	g := New()
	local := []order{{"1", "old"}}
	fresh := []order{{"1", "new"}}
	assert.Equal(t, fresh, Merge(g, local, fresh, key))
}
