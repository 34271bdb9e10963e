// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync/atomic"
	"time"

	"github.com/qianbin/directcache"

	"github.com/memaxo/zephyr/cache"
)

// rowCache fronts the persistent store with a raw account-row cache.
// Decoded accounts live in a separate LRU above it.
type rowCache struct {
	rows *directcache.Cache

	stats       cache.Stats
	lastLogTime atomic.Int64
}

func newRowCache(sizeBytes int) *rowCache {
	c := &rowCache{
		rows: directcache.New(sizeBytes),
	}
	c.lastLogTime.Store(time.Now().UnixNano())
	return c
}

// Get returns a copy of the cached row, or nil.
func (c *rowCache) Get(key []byte) []byte {
	var row []byte
	if c.rows.AdvGet(key, func(val []byte) {
		row = append([]byte(nil), val...)
	}, false) {
		c.stats.Hit()
	} else {
		c.stats.Miss()
	}
	c.log()
	return row
}

func (c *rowCache) Set(key, row []byte) {
	_ = c.rows.Set(key, row)
}

func (c *rowCache) Del(key []byte) {
	c.rows.Del(key)
}

func (c *rowCache) log() {
	now := time.Now().UnixNano()
	last := c.lastLogTime.Swap(now)

	if now-last > int64(time.Second*20) {
		should, hit, miss := c.stats.Stats()
		if should {
			logStats("account row cache stats", hit, miss)
		}
		metricCacheHitMiss().SetWithLabel(hit, map[string]string{"type": "row", "event": "hit"})
		metricCacheHitMiss().SetWithLabel(miss, map[string]string{"type": "row", "event": "miss"})
	} else {
		c.lastLogTime.CompareAndSwap(now, last)
	}
}

func logStats(msg string, hit, miss int64) {
	var hitrate float64
	if total := hit + miss; total > 0 {
		hitrate = float64(hit) / float64(total)
	}
	logger.Info(msg, "hit", hit, "miss", miss, "hitrate", hitrate)
}
