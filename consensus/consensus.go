// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package consensus implements the validator gate. A proposed block runs
// through header, proposer and body checks here before the chain manager
// is allowed to commit it.
package consensus

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/tx"
)

var logger = log.WithContext("pkg", "consensus")

// BlockWriter commits validated blocks, normally the chain manager.
type BlockWriter interface {
	AddBlock(b *block.Block) error
}

// Options carries the gate's optional collaborators.
type Options struct {
	// Stake supplies the proposer schedule. Nil skips the schedule
	// membership check.
	Stake *staking.Ledger
	// VerifyProof checks externally supplied tx proofs. Nil falls back
	// to the digest check.
	VerifyProof func(*tx.Proof) error
	// Tag is the chain tag transactions must be bound to, derived from
	// the genesis hash.
	Tag byte
	// Now returns the wall clock in unix seconds. Nil uses time.Now,
	// tests inject a fixed clock.
	Now func() uint64
}

// Consensus decides whether a proposed block may enter the chain.
type Consensus struct {
	rt          *runtime.Runtime
	stake       *staking.Ledger
	verifyProof func(*tx.Proof) error
	tag         byte
	now         func() uint64
}

// New creates the gate over the live state.
func New(rt *runtime.Runtime, opts Options) *Consensus {
	c := &Consensus{
		rt:          rt,
		stake:       opts.Stake,
		verifyProof: opts.VerifyProof,
		tag:         opts.Tag,
		now:         opts.Now,
	}
	if c.verifyProof == nil {
		c.verifyProof = (*tx.Proof).Verify
	}
	if c.now == nil {
		c.now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return c
}

// ValidateBlock checks a proposed block against its parent: header shape
// and timestamp window, puzzle solution, proposer signature and schedule
// membership, and the per-transaction validity tally. A nil error means
// the block may be committed.
func (c *Consensus) ValidateBlock(b *block.Block, parent *block.Header) error {
	if b == nil {
		return errors.New("parameter is nil, must be *block.Block")
	}
	startTime := time.Now()
	defer func() {
		metricValidationDuration().Observe(time.Since(startTime).Milliseconds())
	}()

	header := b.Header()
	if err := c.validateHeader(header, parent, c.now()); err != nil {
		metricBlockRejects().AddWithLabel(1, map[string]string{"stage": "header"})
		return err
	}
	if err := c.validateProposer(header, parent); err != nil {
		metricBlockRejects().AddWithLabel(1, map[string]string{"stage": "proposer"})
		return err
	}
	if err := c.validateBody(b); err != nil {
		metricBlockRejects().AddWithLabel(1, map[string]string{"stage": "body"})
		return err
	}
	return nil
}

// CommitBlock runs the final signature and declared-root checks over a
// validated block and hands it to the writer. The root equality itself is
// enforced by the state transition engine inside AddBlock.
func (c *Consensus) CommitBlock(w BlockWriter, b *block.Block) error {
	if b == nil {
		return errors.New("parameter is nil, must be *block.Block")
	}
	header := b.Header()
	signer, err := header.Signer()
	if err != nil {
		return consensusError(fmt.Sprintf("block signer unavailable: %v", err))
	}
	if header.StateRoot().IsZero() {
		return consensusError(fmt.Sprintf("block state root missing: %v", b.Hash()))
	}
	if err := w.AddBlock(b); err != nil {
		return err
	}
	logger.Debug("block committed", "height", header.Height(), "hash", b.Hash(), "signer", signer)
	return nil
}
