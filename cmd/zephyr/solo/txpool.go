// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"bytes"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/co"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// TxPool buffers signed transactions until the packing loop drains
// them. It is the node's submission surface: whatever feeds the node
// (tooling, tests, an API layer kept outside this repo) hands
// transactions to Add.
type TxPool struct {
	ch    *chain.Chain
	tag   byte
	limit int

	mu        sync.Mutex
	txsByHash map[zephyr.Bytes32]*tx.Transaction

	added co.Signal
}

// NewTxPool creates a pool bound to the given chain and chain tag.
// limit caps the number of pending transactions.
func NewTxPool(ch *chain.Chain, tag byte, limit int) *TxPool {
	return &TxPool{
		ch:        ch,
		tag:       tag,
		limit:     limit,
		txsByHash: make(map[zephyr.Bytes32]*tx.Transaction),
	}
}

// Add screens the cheap rejections at the door; anything stateful is
// left to the adopt step of the packing loop.
func (p *TxPool) Add(newTx *tx.Transaction) error {
	if newTx.ChainTag() != p.tag {
		return errors.New("bad tx: chain tag mismatch")
	}
	if newTx.Size() > zephyr.MaxTxSize {
		return errors.New("tx rejected: size too large")
	}
	if err := tx.ValidatePayload(newTx.Payload()); err != nil {
		return errors.WithMessage(err, "bad tx")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	hash := newTx.Hash()
	if _, ok := p.txsByHash[hash]; ok {
		return errors.New("known tx")
	}
	if p.ch.HasTransaction(hash) {
		return errors.New("known tx")
	}
	if len(p.txsByHash) >= p.limit {
		return errors.New("tx rejected: pool is full")
	}

	p.txsByHash[hash] = newTx
	p.added.Signal()
	return nil
}

// Executables returns the pending set ordered for adoption: grouped by
// sender, ascending nonce, ties broken by hash. Same-sender sequences
// therefore adopt in nonce order within one block.
func (p *TxPool) Executables() tx.Transactions {
	txs := p.Dump()
	sort.Slice(txs, func(i, j int) bool {
		si, sj := txs[i].Sender(), txs[j].Sender()
		if cmp := bytes.Compare(si.Bytes(), sj.Bytes()); cmp != 0 {
			return cmp < 0
		}
		if txs[i].Nonce() != txs[j].Nonce() {
			return txs[i].Nonce() < txs[j].Nonce()
		}
		hi, hj := txs[i].Hash(), txs[j].Hash()
		return bytes.Compare(hi.Bytes(), hj.Bytes()) < 0
	})
	return txs
}

// Remove drops a pending transaction, reporting whether it was there.
func (p *TxPool) Remove(txHash zephyr.Bytes32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.txsByHash[txHash]; !ok {
		return false
	}
	delete(p.txsByHash, txHash)
	return true
}

// Len returns the number of pending transactions.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.txsByHash)
}

// Dump returns the pending set in no particular order.
func (p *TxPool) Dump() tx.Transactions {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := make(tx.Transactions, 0, len(p.txsByHash))
	for _, pending := range p.txsByHash {
		txs = append(txs, pending)
	}
	return txs
}

// AddedWaiter wakes whenever a transaction lands in the pool. It drives
// the on-demand packing mode.
func (p *TxPool) AddedWaiter() co.Waiter {
	return p.added.NewWaiter()
}
