// Copyright (c) 2024 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import "github.com/memaxo/zephyr/metrics"

var (
	metricTransferInserts = metrics.LazyLoadCounter("logdb_transfer_insert_count")
)
