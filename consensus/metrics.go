// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import "github.com/memaxo/zephyr/metrics"

var (
	metricValidationDuration = metrics.LazyLoadHistogram("consensus_validation_duration_ms", metrics.Bucket10s)
	metricBlockRejects       = metrics.LazyLoadCounterVec("consensus_reject_count", []string{"stage"})
)
