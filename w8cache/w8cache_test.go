package w8cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memaxo/zephyr/w8cache"
)

func TestW8Cache(t *testing.T) {
	var evicted []*w8cache.Entry[string, string]
	cache := w8cache.New(2, func(e *w8cache.Entry[string, string]) {
		evicted = append(evicted, e)
	})

	cache.Set("foo", "foo", 2)
	cache.Set("bar", "bar", 1)
	cache.Set("baz", "baz", 3)

	assert.Equal(t, []*w8cache.Entry[string, string]{{
		Key:    "bar",
		Value:  "bar",
		Weight: float64(1),
	}}, evicted)

	v, ok := cache.Get("foo")
	assert.Equal(t, "foo", v)
	assert.True(t, ok)

	v, ok = cache.Get("bar")
	assert.Equal(t, "", v)
	assert.False(t, ok)
}

func TestW8CacheRanking(t *testing.T) {
	cache := w8cache.New[string, int](10, nil)

	cache.Set("a", 1, 5)
	cache.Set("b", 2, 1)
	cache.Set("c", 3, 3)
	assert.Equal(t, 3, cache.Count())

	// updating a weight reorders the heap
	cache.Set("a", 1, 0.5)

	worst := cache.PopWorst()
	assert.Equal(t, "a", worst.Key)
	worst = cache.PopWorst()
	assert.Equal(t, "b", worst.Key)

	assert.Equal(t, 1, cache.Count())
	assert.Nil(t, cache.Remove("missing"))

	removed := cache.Remove("c")
	assert.Equal(t, 3, removed.Value)
	assert.Nil(t, cache.PopWorst())
}
