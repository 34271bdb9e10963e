// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/co"
	"github.com/memaxo/zephyr/zephyr"
)

// ValidateChain re-checks every committed block: linkage to its
// predecessor (or the genesis marker), content/hash consistency, double
// spending across the whole chain and any attached proofs. Per-block
// checks fan out over a worker pool; the failure at the lowest height
// wins and is reported with its index and the expected/actual values.
func (c *Chain) ValidateChain(ctx context.Context) error {
	c.lock.RLock()
	blocks := append([]*block.Block(nil), c.blocks...)
	base := c.base
	c.lock.RUnlock()

	if len(blocks) == 0 {
		return ErrEmptyChain
	}

	// double spend detection is inherently sequential: one pass
	// accumulating spent tx hashes before the fan-out
	spent := make(map[zephyr.Bytes32]uint64)
	for i, b := range blocks {
		for _, trx := range b.Transactions() {
			txHash := trx.Hash()
			if prev, ok := spent[txHash]; ok {
				return errors.WithMessagef(ErrDoubleSpending,
					"tx %v in block #%d and #%d", txHash, prev, base+uint64(i))
			}
			spent[txHash] = base + uint64(i)
		}
	}

	errs := make([]error, len(blocks))
	co.Parallel(func(enqueue co.Enqueue) {
		for i := range blocks {
			enqueue(func() {
				if ctx.Err() != nil {
					errs[i] = ctx.Err()
					return
				}
				errs[i] = c.validateBlock(blocks, base, i)
			})
		}
	})
	for i, err := range errs {
		if err != nil {
			return errors.WithMessagef(err, "block #%d", base+uint64(i))
		}
	}
	return nil
}

func (c *Chain) validateBlock(blocks []*block.Block, base uint64, i int) error {
	b := blocks[i]
	h := b.Header()
	if h.Height() != base+uint64(i) {
		return errors.WithMessagef(ErrInvalidBlockHash,
			"height %d recorded at slot %d", h.Height(), base+uint64(i))
	}
	if i == 0 {
		// the oldest retained block is a checkpoint unless it is genesis
		if base == 0 && h.ParentHash() != zephyr.GenesisParentHash {
			return errors.WithMessagef(ErrInvalidParentHash,
				"genesis marker missing, parent %v", h.ParentHash())
		}
	} else if parent := blocks[i-1].Hash(); h.ParentHash() != parent {
		return errors.WithMessagef(ErrInvalidParentHash,
			"declared %v, actual parent %v", h.ParentHash(), parent)
	}
	if txsRoot := b.Transactions().RootHash(); h.TxsRoot() != txsRoot {
		return errors.WithMessagef(ErrInvalidBlockHash,
			"txs root declared %v, computed %v", h.TxsRoot(), txsRoot)
	}
	for _, trx := range b.Transactions() {
		if p := trx.Proof(); p != nil {
			if err := c.verifyProof(p); err != nil {
				return errors.WithMessagef(ErrProofVerification, "tx %v: %v", trx.Hash(), err)
			}
		}
	}
	return nil
}
