// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import "github.com/memaxo/zephyr/metrics"

var (
	metricTxAdopted    = metrics.LazyLoadCounter("packer_adopted_count")
	metricPackDuration = metrics.LazyLoadHistogram("packer_pack_duration_ms", metrics.Bucket10s)
)
