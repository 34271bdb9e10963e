// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

func (c *Consensus) validateHeader(header *block.Header, parent *block.Header, nowTimestamp uint64) error {
	if header.Height() != parent.Height()+1 {
		if header.Height() <= parent.Height() {
			return errKnownBlock
		}
		return consensusError(fmt.Sprintf("block height not sequential: parent %v, current %v", parent.Height(), header.Height()))
	}

	if header.ParentHash() != parent.Hash() {
		return consensusError(fmt.Sprintf("block parent mismatch: want %v, have %v", parent.Hash(), header.ParentHash()))
	}

	if header.Timestamp() <= parent.Timestamp() {
		return consensusError(fmt.Sprintf("block timestamp behind parents: parent %v, current %v", parent.Timestamp(), header.Timestamp()))
	}

	if (header.Timestamp()-parent.Timestamp())%zephyr.BlockInterval() != 0 {
		return consensusError(fmt.Sprintf("block interval not rounded: parent %v, current %v", parent.Timestamp(), header.Timestamp()))
	}

	if header.Timestamp() > nowTimestamp+zephyr.TimestampWindow() {
		return errFutureBlock
	}

	if d := header.Difficulty(); d > 0 && !zephyr.SolvesPuzzle(header.SigningHash(), d) {
		return consensusError(fmt.Sprintf("block puzzle unsolved: difficulty %v, digest %v", d, header.SigningHash()))
	}

	return nil
}

func (c *Consensus) validateProposer(header *block.Header, parent *block.Header) error {
	signer, err := header.Signer()
	if err != nil {
		return consensusError(fmt.Sprintf("block signer unavailable: %v", err))
	}

	if c.stake == nil {
		return nil
	}
	scheduled, err := c.stake.IsScheduled(parent.Hash(), header.Height(), signer)
	if err != nil {
		if errors.Is(err, staking.ErrNoLeaders) {
			// no validator registered yet, the network still runs on
			// signature checks alone
			return nil
		}
		return err
	}
	if !scheduled {
		return consensusError(fmt.Sprintf("block signer unscheduled: %v", signer))
	}
	return nil
}

func (c *Consensus) validateBody(b *block.Block) error {
	header := b.Header()
	txs := b.Transactions()

	if len(txs) > zephyr.MaxBlockTxs() {
		return consensusError(fmt.Sprintf("block txs exceed limit: limit %v, have %v", zephyr.MaxBlockTxs(), len(txs)))
	}
	if root := txs.RootHash(); header.TxsRoot() != root {
		return consensusError(fmt.Sprintf("block txs root mismatch: want %v, have %v", root, header.TxsRoot()))
	}
	if len(txs) == 0 {
		return nil
	}

	// Transactions are tallied, not failed fast. The block is rejected
	// only when the valid fraction falls below the configured threshold,
	// reporting the first invalid tx.
	sb := c.rt.Sandbox()
	valid := make(map[zephyr.Bytes32]bool, len(txs))
	var firstInvalid error
	for _, trx := range txs {
		if err := c.validateTransaction(sb, valid, trx); err != nil {
			if firstInvalid == nil {
				firstInvalid = errors.WithMessagef(err, "tx %v", trx.Hash())
			}
			continue
		}
		valid[trx.Hash()] = true
	}

	threshold := zephyr.TxValidityThreshold()
	ratio := float64(len(valid)) / float64(len(txs))
	if ratio < threshold {
		return consensusError(fmt.Sprintf("block tx validity below threshold: want %v, have %v: %v", threshold, ratio, firstInvalid))
	}
	return nil
}

func (c *Consensus) validateTransaction(sb *runtime.Sandbox, valid map[zephyr.Bytes32]bool, trx *tx.Transaction) error {
	if trx.ChainTag() != c.tag {
		return errors.Errorf("chain tag mismatch: want %v, have %v", c.tag, trx.ChainTag())
	}
	if size := trx.Size(); size > zephyr.MaxTxSize {
		return errors.Errorf("size %v exceeds limit %v", size, zephyr.MaxTxSize)
	}
	if valid[trx.Hash()] {
		return errors.New("duplicated in block")
	}
	if err := tx.ValidatePayload(trx.Payload()); err != nil {
		return err
	}

	signer, err := trx.Signer()
	if err != nil {
		return errors.WithMessage(err, "signer unavailable")
	}
	if signer != trx.Sender() {
		return errors.Errorf("signer %v does not match sender %v", signer, trx.Sender())
	}

	if proof := trx.Proof(); proof != nil {
		if err := c.verifyProof(proof); err != nil {
			return err
		}
	}

	// state validity against the block-local overlay, so txs observe the
	// effects of the valid txs before them
	return sb.ApplyTransaction(trx)
}
