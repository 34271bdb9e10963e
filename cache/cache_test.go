package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		return "v" + key.(string), nil
	}

	v, err := c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "va", v)
	assert.Equal(t, 1, loads)

	// second get hits the cache
	v, err = c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "va", v)
	assert.Equal(t, 1, loads)

	// load errors are not cached
	_, err = c.GetOrLoad("b", func(any) (any, error) {
		return nil, errors.New("load failed")
	})
	assert.Error(t, err)
	_, ok := c.Get("b")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	var stats Stats

	stats.Hit()
	stats.Hit()
	stats.Miss()

	changed, hit, miss := stats.Stats()
	assert.True(t, changed)
	assert.Equal(t, int64(2), hit)
	assert.Equal(t, int64(1), miss)

	changed, _, _ = stats.Stats()
	assert.False(t, changed)
}
