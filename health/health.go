// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"

	"github.com/memaxo/zephyr/zephyr"
)

// BlockIngestion reports the last best block the node took in.
type BlockIngestion struct {
	ID        *zephyr.Bytes32 `json:"id"`
	Timestamp *time.Time      `json:"timestamp"`
}

type Status struct {
	Healthy           bool            `json:"healthy"`
	BlockIngestion    *BlockIngestion `json:"blockIngestion"`
	ChainBootstrapped bool            `json:"chainBootstrapped"`
}

type Health struct {
	lock              sync.RWMutex
	newBestBlock      time.Time
	bestBlockID       *zephyr.Bytes32
	bootstrapStatus   bool
	timeBetweenBlocks time.Duration
}

// New creates a tracker that calls the node healthy while best blocks
// keep arriving within timeBetweenBlocks of each other.
func New(timeBetweenBlocks time.Duration) *Health {
	return &Health{
		timeBetweenBlocks: timeBetweenBlocks,
	}
}

// NewSolo solo nodes have no sync phase, so they start bootstrapped.
func NewSolo(timeBetweenBlocks time.Duration) *Health {
	h := New(timeBetweenBlocks)
	h.bootstrapStatus = true
	return h
}

func (h *Health) NewBestBlock(ID zephyr.Bytes32) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.newBestBlock = time.Now()
	h.bestBlockID = &ID
}

func (h *Health) BootstrapStatus(bootstrapped bool) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.bootstrapStatus = bootstrapped
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	blockIngest := &BlockIngestion{
		ID:        h.bestBlockID,
		Timestamp: &h.newBestBlock,
	}

	healthy := time.Since(h.newBestBlock) <= h.timeBetweenBlocks &&
		h.bootstrapStatus

	return &Status{
		Healthy:           healthy,
		BlockIngestion:    blockIngest,
		ChainBootstrapped: h.bootstrapStatus,
	}, nil
}
