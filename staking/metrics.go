// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/metrics"
)

var (
	metricLockedTotal    = metrics.LazyLoadGauge("staking_locked_total")
	metricValidatorCount = metrics.LazyLoadGauge("staking_validator_count")
	metricRewardsTotal   = metrics.LazyLoadCounter("staking_rewards_minted_total")
)

func metricRewardsMinted(amount *uint256.Int) {
	if amount.LtUint64(math.MaxInt64) {
		metricRewardsTotal().Add(int64(amount.Uint64()))
	}
}

func addStakedMetric(amount *uint256.Int) {
	if amount.LtUint64(math.MaxInt64) {
		metricLockedTotal().Add(int64(amount.Uint64()))
	}
}

func subStakedMetric(amount *uint256.Int) {
	if amount.LtUint64(math.MaxInt64) {
		metricLockedTotal().Add(-int64(amount.Uint64()))
	}
}
