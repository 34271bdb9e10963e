// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds height-0 blocks: balance allocations, initial
// validators and the network identity derived from them.
package genesis

import (
	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/zephyr"
)

// Genesis to build genesis block.
type Genesis struct {
	builder *Builder
	id      zephyr.Bytes32
	name    string
}

// Build materializes the genesis state into st and returns the genesis
// block. Meant for fresh stores only: allocations and stakes are written
// as-is, so building twice over the same store doubles them.
func (g *Genesis) Build(store kv.Store, st *state.State) (*block.Block, error) {
	return g.builder.Build(store, st)
}

// Block returns the genesis block without touching any persistent store.
// The chain uses it as the identity anchor when reloading.
func (g *Genesis) Block() (*block.Block, error) {
	store, err := lvldb.NewMem()
	if err != nil {
		return nil, err
	}
	return g.builder.Build(store, state.New(store))
}

// ID returns genesis block hash, the network identity.
func (g *Genesis) ID() zephyr.Bytes32 {
	return g.id
}

// ChainTag returns the chain tag, the last byte of the genesis ID.
// Transactions carry it to bind themselves to one network.
func (g *Genesis) ChainTag() byte {
	return g.id[31]
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}
