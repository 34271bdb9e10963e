// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import "github.com/memaxo/zephyr/metrics"

var (
	metricBlockCommits = metrics.LazyLoadCounter("chain_block_commits_total")
	metricBlockReverts = metrics.LazyLoadCounter("chain_block_reverts_total")
	metricBlocksPruned = metrics.LazyLoadCounter("chain_blocks_pruned_total")
	metricChainHeight  = metrics.LazyLoadGauge("chain_best_height")
)
