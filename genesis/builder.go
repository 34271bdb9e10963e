// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/zephyr"
)

// Builder helper to build genesis block.
type Builder struct {
	timestamp uint64

	allocs     []alloc
	validators []seedValidator
	stateProcs []func(st *state.State) error
}

type alloc struct {
	addr    zephyr.Address
	balance *uint256.Int
}

type seedValidator struct {
	addr  zephyr.Address
	stake *uint256.Int
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// Alloc creates the account at addr with the given balance.
func (b *Builder) Alloc(addr zephyr.Address, balance *uint256.Int) *Builder {
	b.allocs = append(b.allocs, alloc{addr, balance})
	return b
}

// Validator registers addr as an initial validator. The stake is debited
// from the account's allocation, so the allocation must cover it.
func (b *Builder) Validator(addr zephyr.Address, stake *uint256.Int) *Builder {
	b.validators = append(b.validators, seedValidator{addr, stake})
	return b
}

// State add a state process.
func (b *Builder) State(proc func(st *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ComputeID compute genesis ID.
func (b *Builder) ComputeID() (zephyr.Bytes32, error) {
	store, err := lvldb.NewMem()
	if err != nil {
		return zephyr.Bytes32{}, err
	}
	blk, err := b.Build(store, state.New(store))
	if err != nil {
		return zephyr.Bytes32{}, err
	}
	return blk.Hash(), nil
}

// Build build genesis block according to presets. Initial validators are
// registered through the staking book on the same store, which locks
// their stakes before the state root is taken.
func (b *Builder) Build(store kv.Store, st *state.State) (*block.Block, error) {
	accs := make([]*state.Account, 0, len(b.allocs))
	for _, a := range b.allocs {
		if a.balance == nil {
			return nil, errors.Errorf("%v: balance must be set", a.addr)
		}
		acc := state.NewAccount(a.addr)
		acc.Balance = new(uint256.Int).Set(a.balance)
		accs = append(accs, acc)
	}
	if len(accs) > 0 {
		if err := st.UpdateAccounts(accs...); err != nil {
			return nil, errors.Wrap(err, "alloc accounts")
		}
	}

	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}

	if len(b.validators) > 0 {
		lgr, err := staking.NewLedger(store, runtime.New(st))
		if err != nil {
			return nil, errors.Wrap(err, "open staking book")
		}
		for _, v := range b.validators {
			if v.stake == nil {
				return nil, errors.Errorf("validator %v: stake must be set", v.addr)
			}
			if err := lgr.Stake(v.addr, new(uint256.Int).Set(v.stake), 0); err != nil {
				return nil, errors.Wrapf(err, "seed validator %v", v.addr)
			}
		}
	}

	return new(block.Builder).
		Height(0).
		Timestamp(b.timestamp).
		ParentHash(zephyr.GenesisParentHash).
		StateRoot(st.StateRoot()).
		Build(), nil
}
