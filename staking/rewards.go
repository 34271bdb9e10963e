// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

// RewardAt returns the base block reward at the given height. The reward
// starts at the configured initial amount and decays geometrically once
// per reward era, truncating toward zero.
func RewardAt(height uint64) *uint256.Int {
	reward := uint256.NewInt(zephyr.InitialBlockReward())

	num := zephyr.RewardDecayNumerator()
	den := zephyr.RewardDecayDenominator()
	if den == 0 || num >= den {
		return reward
	}

	n := uint256.NewInt(num)
	d := uint256.NewInt(den)
	for eras := height / uint64(zephyr.RewardDecayInterval()); eras > 0 && !reward.IsZero(); eras-- {
		reward.Mul(reward, n)
		reward.Div(reward, d)
	}
	return reward
}

// Credit is one minted reward, addressed to its recipient. Commit paths
// keep the credits of a block so a failed persist can unwind them.
type Credit struct {
	Addr   zephyr.Address
	Amount *uint256.Int
}

// DistributeRewards mints the block reward for the proposer of the block
// at the given height. The base reward is scaled by the proposer's
// performance weight, then split pro rata between the proposer's own
// stake and its delegations. Rounding dust goes to the proposer. It
// returns the minted credits; on a mid distribution failure the credits
// minted before the failure come back with the error so the caller can
// unwind them.
func (l *Ledger) DistributeRewards(proposer zephyr.Address, height uint64) ([]Credit, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[proposer]
	if v == nil {
		return nil, errors.WithMessagef(ErrValidatorNotFound, "distribute rewards %v", proposer)
	}

	pot := v.scaleByPerf(RewardAt(height))
	if pot.IsZero() {
		return nil, nil
	}

	var credits []Credit
	total := l.totalStake(v)
	validatorShare := new(uint256.Int).Set(pot)
	if !total.IsZero() {
		for _, d := range l.delegations {
			if d.Validator != proposer || d.Amount.IsZero() {
				continue
			}
			share := new(uint256.Int).Mul(pot, d.Amount)
			share.Div(share, total)
			if share.IsZero() {
				continue
			}
			if err := l.engine.CreditBalance(d.Delegator, share); err != nil {
				return credits, err
			}
			credits = append(credits, Credit{d.Delegator, share})
			validatorShare.Sub(validatorShare, share)
		}
	}
	if !validatorShare.IsZero() {
		if err := l.engine.CreditBalance(proposer, validatorShare); err != nil {
			return credits, err
		}
		credits = append(credits, Credit{proposer, validatorShare})
	}
	metricRewardsMinted(pot)
	return credits, nil
}
