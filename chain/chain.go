// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package chain manages the committed block sequence: admission through
// the validator gate and the state transition engine, durable persistence,
// tip reversion and checkpoint pruning.
package chain

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/co"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

var logger = log.WithContext("pkg", "chain")

// Gate is the validator gate consulted before a block enters the chain.
type Gate interface {
	ValidateBlock(b *block.Block, parent *block.Header) error
}

// Options carries the chain's optional collaborators.
type Options struct {
	// Gate validates candidate blocks. A nil gate admits any block that
	// links to the tip and passes the engine's root check.
	Gate Gate
	// Stake drives reward distribution and performance bookkeeping.
	// Nil disables both.
	Stake *staking.Ledger
	// VerifyProof checks externally supplied tx proofs during
	// ValidateChain. Nil falls back to the digest check.
	VerifyProof func(*tx.Proof) error
}

// Chain is the ordered committed block sequence behind one reader/writer
// access point. Readers proceed concurrently; AddBlock, RevertBlock and
// Prune are exclusive.
//
// It's thread-safe.
type Chain struct {
	store kv.Store
	st    *state.State
	rt    *runtime.Runtime
	gate  Gate
	stake *staking.Ledger

	verifyProof func(*tx.Proof) error

	lock sync.RWMutex
	// base is the height of blocks[0]; it advances with pruning.
	base   uint64
	blocks []*block.Block
	// heights maps block hash to height, txIndex tx hash to block hash.
	heights map[zephyr.Bytes32]uint64
	txIndex map[zephyr.Bytes32]zephyr.Bytes32
	// difficulty accumulates over the retained blocks.
	difficulty uint64

	tick co.Signal
}

// New opens the chain over the given store. On a fresh store the genesis
// block is committed; otherwise the persisted sequence is reloaded and
// checked against both the genesis block and the supplied state.
func New(store kv.Store, st *state.State, genesis *block.Block, opts Options) (*Chain, error) {
	h := genesis.Header()
	if h.Height() != 0 {
		return nil, errors.New("genesis height != 0")
	}
	if h.ParentHash() != zephyr.GenesisParentHash {
		return nil, errors.WithMessage(ErrInvalidParentHash, "genesis parent marker missing")
	}
	if len(genesis.Transactions()) != 0 {
		return nil, errors.New("genesis block must carry no transactions")
	}

	c := &Chain{
		store:       store,
		st:          st,
		rt:          runtime.New(st),
		gate:        opts.Gate,
		stake:       opts.Stake,
		verifyProof: opts.VerifyProof,
		heights:     make(map[zephyr.Bytes32]uint64),
		txIndex:     make(map[zephyr.Bytes32]zephyr.Bytes32),
	}
	if c.verifyProof == nil {
		c.verifyProof = (*tx.Proof).Verify
	}

	latest, err := loadHeightProp(store, latestHeightKey)
	if err != nil {
		if !store.IsNotFound(err) {
			return nil, errors.Wrap(err, "load chain")
		}
		// fresh store: the supplied state must be the genesis state
		if root := st.StateRoot(); root != h.StateRoot() {
			return nil, errors.Wrapf(state.ErrInconsistent,
				"genesis state root: declared %v, built %v", h.StateRoot(), root)
		}
		bulk := store.Bulk()
		if err := saveBlock(bulk, genesis); err != nil {
			return nil, errors.Wrap(err, "persist genesis")
		}
		if err := saveHeightProp(bulk, latestHeightKey, 0); err != nil {
			return nil, errors.Wrap(err, "persist genesis")
		}
		if err := saveHeightProp(bulk, baseHeightKey, 0); err != nil {
			return nil, errors.Wrap(err, "persist genesis")
		}
		if err := saveSnapshot(bulk, st); err != nil {
			return nil, errors.Wrap(err, "persist genesis")
		}
		if err := bulk.Write(); err != nil {
			return nil, errors.Wrap(err, "persist genesis")
		}
		c.append(genesis)
		metricChainHeight().Set(0)
		return c, nil
	}

	base, err := loadHeightProp(store, baseHeightKey)
	if err != nil {
		return nil, errors.Wrap(err, "load chain base")
	}
	for height := base; height <= latest; height++ {
		hash, err := loadBlockHash(store, height)
		if err != nil {
			return nil, errors.Wrapf(err, "load block index #%d", height)
		}
		b, err := loadBlock(store, hash)
		if err != nil {
			return nil, errors.Wrapf(err, "load block #%d", height)
		}
		if computed := b.Hash(); computed != hash {
			return nil, errors.WithMessagef(ErrInvalidBlockHash,
				"block #%d: stored %v, computed %v", height, hash, computed)
		}
		c.append(b)
	}
	if base == 0 && c.blocks[0].Hash() != genesis.Hash() {
		return nil, errors.New("genesis mismatch")
	}
	if root, tip := st.StateRoot(), c.blocks[len(c.blocks)-1].Header(); root != tip.StateRoot() {
		return nil, errors.Wrapf(state.ErrInconsistent,
			"state root %v does not match tip #%d root %v", root, tip.Height(), tip.StateRoot())
	}
	metricChainHeight().Set(int64(latest))
	return c, nil
}

// append records the block in the in-memory index. Callers hold the write
// lock (or are still inside New).
func (c *Chain) append(b *block.Block) {
	if len(c.blocks) == 0 {
		c.base = b.Header().Height()
	}
	c.blocks = append(c.blocks, b)
	hash := b.Hash()
	c.heights[hash] = b.Header().Height()
	for _, trx := range b.Transactions() {
		c.txIndex[trx.Hash()] = hash
	}
	c.difficulty += b.Header().Difficulty()
}

// AddBlock commits a block to the chain tip: gate validation, transaction
// application with the declared-root check, reward settlement and durable
// persistence run as one exclusive section. Failure at any step leaves
// chain and state untouched.
func (c *Chain) AddBlock(newBlock *block.Block) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	tip := c.blocks[len(c.blocks)-1]
	h := newBlock.Header()
	if h.ParentHash() != tip.Hash() {
		return errors.WithMessagef(ErrInvalidParentHash,
			"block #%d: declared %v, tip %v", h.Height(), h.ParentHash(), tip.Hash())
	}
	if h.Height() != tip.Header().Height()+1 {
		return errors.WithMessagef(ErrInvalidBlockHash,
			"block height %d does not follow tip #%d", h.Height(), tip.Header().Height())
	}
	if txsRoot := newBlock.Transactions().RootHash(); h.TxsRoot() != txsRoot {
		return errors.WithMessagef(ErrInvalidBlockHash,
			"block #%d: txs root declared %v, computed %v", h.Height(), h.TxsRoot(), txsRoot)
	}
	if c.gate != nil {
		if err := c.gate.ValidateBlock(newBlock, tip.Header()); err != nil {
			return err
		}
	}

	// the engine reverts the applied prefix itself on failure
	if err := c.rt.ApplyBlock(newBlock); err != nil {
		return err
	}
	credits := c.settleRewards(newBlock)

	bulk := c.store.Bulk()
	persist := func() error {
		if err := saveBlock(bulk, newBlock); err != nil {
			return err
		}
		if err := saveHeightProp(bulk, latestHeightKey, h.Height()); err != nil {
			return err
		}
		if err := saveSnapshot(bulk, c.st); err != nil {
			return err
		}
		return bulk.Write()
	}
	if err := persist(); err != nil {
		c.unwind(newBlock, credits)
		return errors.Wrap(err, "persist block")
	}

	c.append(newBlock)
	metricBlockCommits().Add(1)
	metricChainHeight().Set(int64(h.Height()))
	c.tick.Broadcast()
	return nil
}

// settleRewards mints the block reward to the signer's stakeholders and
// books produced/missed slots. Blocks signed by unregistered proposers
// settle nothing.
func (c *Chain) settleRewards(b *block.Block) []staking.Credit {
	if c.stake == nil {
		return nil
	}
	h := b.Header()
	signer, err := h.Signer()
	if err != nil {
		return nil
	}

	if seq, err := c.stake.Schedule(h.ParentHash(), h.Height()); err == nil {
		for _, addr := range seq {
			if addr == signer {
				break
			}
			if err := c.stake.RecordMissed(addr); err != nil {
				logger.Debug("record missed slot", "addr", addr, "err", err)
			}
		}
	}
	if err := c.stake.RecordProduced(signer); err != nil {
		logger.Debug("record produced block", "signer", signer, "err", err)
	}

	credits, err := c.stake.DistributeRewards(signer, h.Height())
	if err != nil {
		if !errors.Is(err, staking.ErrValidatorNotFound) {
			logger.Warn("reward distribution failed", "signer", signer, "err", err)
		}
		// claw back whatever was minted before the failure
		c.debitCredits(credits)
		return nil
	}
	return credits
}

// unwind restores the in-memory state after a failed persist, so memory
// and disk cannot diverge.
func (c *Chain) unwind(b *block.Block, credits []staking.Credit) {
	c.debitCredits(credits)
	if err := c.rt.RevertBlock(b); err != nil {
		logger.Error("failed to unwind block", "height", b.Header().Height(), "err", err)
	}
}

func (c *Chain) debitCredits(credits []staking.Credit) {
	for i := len(credits) - 1; i >= 0; i-- {
		if err := c.rt.DebitBalance(credits[i].Addr, credits[i].Amount); err != nil {
			logger.Error("failed to unwind reward credit", "addr", credits[i].Addr, "err", err)
		}
	}
}

// RevertBlock removes the current chain tip, reverting its transactions
// and re-persisting state and index. Only the tip may be reverted; reward
// credits settled at commit are not clawed back.
func (c *Chain) RevertBlock(b *block.Block) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if len(c.blocks) <= 1 {
		return errors.WithMessage(ErrEmptyChain, "only the genesis block remains")
	}
	tip := c.blocks[len(c.blocks)-1]
	if b.Hash() != tip.Hash() {
		return errors.WithMessagef(ErrNotTip, "block %v, tip %v", b.Hash(), tip.Hash())
	}

	if err := c.rt.RevertBlock(tip); err != nil {
		return err
	}

	tipHeight := tip.Header().Height()
	bulk := c.store.Bulk()
	persist := func() error {
		if err := deleteBlock(bulk, tip.Hash(), tipHeight); err != nil {
			return err
		}
		if err := saveHeightProp(bulk, latestHeightKey, tipHeight-1); err != nil {
			return err
		}
		if err := saveSnapshot(bulk, c.st); err != nil {
			return err
		}
		return bulk.Write()
	}
	if err := persist(); err != nil {
		// put the block back so memory stays aligned with disk
		if aerr := c.rt.ApplyBlock(tip); aerr != nil {
			logger.Error("failed to restore reverted block", "height", tipHeight, "err", aerr)
		}
		return errors.Wrap(err, "persist revert")
	}

	c.blocks = c.blocks[:len(c.blocks)-1]
	delete(c.heights, tip.Hash())
	for _, trx := range tip.Transactions() {
		delete(c.txIndex, trx.Hash())
	}
	c.difficulty -= tip.Header().Difficulty()
	metricBlockReverts().Add(1)
	metricChainHeight().Set(int64(tipHeight - 1))
	c.tick.Broadcast()
	return nil
}

// Prune drops the oldest blocks beyond maxBlocks, checkpoint style.
// Account state is untouched. It returns the number of pruned blocks.
func (c *Chain) Prune(maxBlocks int) (int, error) {
	if maxBlocks < 1 {
		maxBlocks = 1
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	excess := len(c.blocks) - maxBlocks
	if excess <= 0 {
		return 0, nil
	}

	pruned := c.blocks[:excess]
	bulk := c.store.Bulk()
	for _, b := range pruned {
		if err := deleteBlock(bulk, b.Hash(), b.Header().Height()); err != nil {
			return 0, errors.Wrap(err, "persist prune")
		}
	}
	if err := saveHeightProp(bulk, baseHeightKey, c.base+uint64(excess)); err != nil {
		return 0, errors.Wrap(err, "persist prune")
	}
	if err := bulk.Write(); err != nil {
		return 0, errors.Wrap(err, "persist prune")
	}

	for _, b := range pruned {
		delete(c.heights, b.Hash())
		for _, trx := range b.Transactions() {
			delete(c.txIndex, trx.Hash())
		}
		c.difficulty -= b.Header().Difficulty()
	}
	c.base += uint64(excess)
	c.blocks = append([]*block.Block(nil), c.blocks[excess:]...)
	metricBlocksPruned().Add(int64(excess))
	return excess, nil
}

// Height returns the tip height.
func (c *Chain) Height() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.blocks[len(c.blocks)-1].Header().Height()
}

// BestBlock returns the chain tip.
func (c *Chain) BestBlock() *block.Block {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.blocks[len(c.blocks)-1]
}

// Genesis returns the oldest retained block, height 0 unless pruned.
func (c *Chain) Genesis() *block.Block {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.blocks[0]
}

// Difficulty returns the cumulative difficulty of the retained blocks.
func (c *Chain) Difficulty() uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.difficulty
}

// GetBlock returns the committed block at the given height.
func (c *Chain) GetBlock(height uint64) (*block.Block, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if height < c.base || height >= c.base+uint64(len(c.blocks)) {
		return nil, errors.WithMessagef(ErrNotFound, "block #%d", height)
	}
	return c.blocks[height-c.base], nil
}

// GetBlockByHash returns the committed block with the given hash.
func (c *Chain) GetBlockByHash(hash zephyr.Bytes32) (*block.Block, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	height, ok := c.heights[hash]
	if !ok {
		return nil, errors.WithMessagef(ErrNotFound, "block %v", hash)
	}
	return c.blocks[height-c.base], nil
}

// FindTransaction locates a committed transaction by hash, returning it
// with the hash of its containing block.
func (c *Chain) FindTransaction(txHash zephyr.Bytes32) (*tx.Transaction, zephyr.Bytes32, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()

	blockHash, ok := c.txIndex[txHash]
	if !ok {
		return nil, zephyr.Bytes32{}, errors.WithMessagef(ErrNotFound, "tx %v", txHash)
	}
	b := c.blocks[c.heights[blockHash]-c.base]
	for _, trx := range b.Transactions() {
		if trx.Hash() == txHash {
			return trx, blockHash, nil
		}
	}
	return nil, zephyr.Bytes32{}, errors.WithMessagef(ErrNotFound, "tx %v", txHash)
}

// HasTransaction reports whether the transaction is already committed.
func (c *Chain) HasTransaction(txHash zephyr.Bytes32) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()
	_, ok := c.txIndex[txHash]
	return ok
}

// Ticker creates a waiter signaled whenever the best block changes.
func (c *Chain) Ticker() co.Waiter {
	return c.tick.NewWaiter()
}

// Iterator is a restartable cursor over the committed blocks, oldest
// first.
type Iterator struct {
	blocks []*block.Block
	idx    int
}

// Iter snapshots the committed sequence for iteration. Blocks committed
// after the call are not observed.
func (c *Chain) Iter() *Iterator {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return &Iterator{
		blocks: append([]*block.Block(nil), c.blocks...),
		idx:    -1,
	}
}

// Next advances the cursor, reporting whether a block is available.
func (it *Iterator) Next() bool {
	if it.idx+1 >= len(it.blocks) {
		return false
	}
	it.idx++
	return true
}

// Block returns the block at the cursor.
func (it *Iterator) Block() *block.Block {
	return it.blocks[it.idx]
}

// Reset rewinds the cursor for another pass.
func (it *Iterator) Reset() {
	it.idx = -1
}
