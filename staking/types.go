// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/zephyr"
)

// weightScale is the fixed point scale of performance weights, in basis
// points. A fresh validator starts at full weight.
const weightScale = 10000

// emaWindow is the smoothing window of the performance moving average.
const emaWindow = 100

// Validator is a staked block producer.
type Validator struct {
	Address     zephyr.Address
	Stake       *uint256.Int
	PerfWeight  uint32 // basis points, see weightScale
	Online      bool
	StartHeight uint64
	Produced    uint64
	Missed      uint64
}

func newValidator(addr zephyr.Address, height uint64) *Validator {
	return &Validator{
		Address:     addr,
		Stake:       new(uint256.Int),
		PerfWeight:  weightScale,
		Online:      true,
		StartHeight: height,
	}
}

// Copy returns a deep copy.
func (v *Validator) Copy() *Validator {
	cpy := *v
	cpy.Stake = new(uint256.Int).Set(v.Stake)
	return &cpy
}

// IsEmpty returns whether the entry can be treated as empty.
func (v *Validator) IsEmpty() bool {
	return v.Stake.IsZero() && v.Produced == 0 && v.Missed == 0
}

// recordProduced moves the performance weight toward full.
func (v *Validator) recordProduced() {
	v.Produced++
	v.PerfWeight += (weightScale - v.PerfWeight) / emaWindow
}

// recordMissed decays the performance weight.
func (v *Validator) recordMissed() {
	v.Missed++
	v.PerfWeight -= v.PerfWeight / emaWindow
}

// scaleByPerf scales amount by the validator's performance weight.
func (v *Validator) scaleByPerf(amount *uint256.Int) *uint256.Int {
	scaled := new(uint256.Int).Mul(amount, uint256.NewInt(uint64(v.PerfWeight)))
	return scaled.Div(scaled, uint256.NewInt(weightScale))
}

// rankWeight converts a total stake into the float weight used by the
// ranked leader group, scaled by performance.
func (v *Validator) rankWeight(totalStake *uint256.Int) float64 {
	var stake float64
	if totalStake.IsUint64() {
		stake = float64(totalStake.Uint64())
	} else {
		stake = math.MaxUint64
	}
	return stake * float64(v.PerfWeight) / weightScale
}

// Delegation assigns a delegator's stake to a validator for shared
// rewards. A delegator backs at most one validator at a time.
type Delegation struct {
	Delegator   zephyr.Address
	Validator   zephyr.Address
	Amount      *uint256.Int
	StartHeight uint64
}

// Copy returns a deep copy.
func (d *Delegation) Copy() *Delegation {
	cpy := *d
	cpy.Amount = new(uint256.Int).Set(d.Amount)
	return &cpy
}
