// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/kv"
)

func newTestDB(t *testing.T) *LevelDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetPutDelete(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Get([]byte("k"))
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("k"), []byte("v")))

	v, err := db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("k")))

	has, err = db.Has([]byte("k"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestSnapshot(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Put([]byte("k"), []byte("v1")))

	snapshot := db.Snapshot()
	defer snapshot.Release()

	require.NoError(t, db.Put([]byte("k"), []byte("v2")))

	v, err := snapshot.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)

	v, err = db.Get([]byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestBulk(t *testing.T) {
	db := newTestDB(t)

	bulk := db.Bulk()
	for i := 0; i < 10; i++ {
		require.NoError(t, bulk.Put([]byte(fmt.Sprintf("k%d", i)), []byte("v")))
	}

	// not visible until written
	has, err := db.Has([]byte("k0"))
	assert.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, bulk.Write())

	has, err = db.Has([]byte("k9"))
	assert.NoError(t, err)
	assert.True(t, has)
}

func TestIterate(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Put([]byte(fmt.Sprintf("k%d", i)), []byte(fmt.Sprintf("v%d", i))))
	}

	iter := db.Iterate(kv.Range{Start: []byte("k1"), Limit: []byte("k4")})
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.NoError(t, iter.Error())
	assert.Equal(t, []string{"k1", "k2", "k3"}, keys)
}
