// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memaxo/zephyr/stackedmap"
)

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := make(map[string]string)
	src["foo"] = "bar"

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	})

	tests := []struct {
		f        func()
		depth    int
		putKey   string
		putValue string
		getKey   string
		want     string
		found    bool
	}{
		{func() {}, 1, "", "", "foo", "bar", true},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", "baz", true},
		{func() {}, 2, "foo", "baz1", "foo", "baz1", true},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", "qux", true},
		{func() { sm.Pop() }, 2, "", "", "foo", "baz1", true},
		{func() { sm.Pop() }, 1, "", "", "foo", "bar", true},
		{func() {}, 1, "", "", "missing", "", false},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", "", false},
		{func() { sm.PopTo(0) }, 0, "", "", "", "", false},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			v, found, err := sm.Get(test.getKey)
			assert.Nil(err)
			assert.Equal(test.found, found)
			assert.Equal(test.want, v)
		}
	}
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New(func(_ string) (string, bool, error) {
		return "", false, nil
	})

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(func(k, v string) bool {
		assert.Equal(kvs[i].k, k)
		assert.Equal(kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(len(kvs), i)

	i = 0
	sm.Journal(func(_, _ string) bool {
		i++
		return false
	})
	assert.Equal(1, i, "journal traverse should abort")
}
