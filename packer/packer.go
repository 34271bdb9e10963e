// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package packer assembles candidate blocks: it adopts pending
// transactions onto the chain tip, derives the roots and signs the
// header.
package packer

import (
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/zephyr"
)

// Options carries the packer's optional collaborators.
type Options struct {
	// Stake supplies the proposer schedule. Nil packs unconditionally.
	Stake *staking.Ledger
	// Tag is the chain tag adopted transactions must be bound to.
	Tag byte
	// Difficulty is declared on packed blocks; a non-zero value makes
	// Pack grind the nonce until the signing hash meets it.
	Difficulty uint64
}

// Packer packs txs and builds new blocks on behalf of one proposer.
type Packer struct {
	chain      *chain.Chain
	rt         *runtime.Runtime
	proposer   zephyr.Address
	stake      *staking.Ledger
	tag        byte
	difficulty uint64
}

// New creates a new Packer instance. The runtime must be bound to the
// same state the chain commits against.
func New(c *chain.Chain, rt *runtime.Runtime, proposer zephyr.Address, opts Options) *Packer {
	return &Packer{
		chain:      c,
		rt:         rt,
		proposer:   proposer,
		stake:      opts.Stake,
		tag:        opts.Tag,
		difficulty: opts.Difficulty,
	}
}

// Schedule prepares a packing flow onto the given parent. In staked mode
// the proposer must appear in the leader sequence for the next height;
// an empty ledger packs unconditionally while the network bootstraps.
// The block timestamp is the first interval boundary at or after
// nowTimestamp.
func (p *Packer) Schedule(parent *block.Header, nowTimestamp uint64) (*Flow, error) {
	if p.stake != nil {
		scheduled, err := p.stake.IsScheduled(parent.Hash(), parent.Height()+1, p.proposer)
		if err != nil && !errors.Is(err, staking.ErrNoLeaders) {
			return nil, err
		}
		if err == nil && !scheduled {
			return nil, errNotScheduled
		}
	}

	when := parent.Timestamp() + zephyr.BlockInterval()
	if nowTimestamp > when {
		gap := nowTimestamp - parent.Timestamp()
		steps := (gap + zephyr.BlockInterval() - 1) / zephyr.BlockInterval()
		when = parent.Timestamp() + steps*zephyr.BlockInterval()
	}

	return newFlow(p, parent, when), nil
}
