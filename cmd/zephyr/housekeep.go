// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"

	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/zephyr"
)

func houseKeeping(ctx context.Context, c *chain.Chain) {
	log.Debug("enter house keeping")
	defer log.Debug("leave house keeping")

	go checkClockOffset()

	clockSyncTicker := time.NewTicker(10 * time.Minute)
	defer clockSyncTicker.Stop()

	bestBlock := c.Ticker()

	for {
		select {
		case <-ctx.Done():
			return
		case <-bestBlock.C():
			best := c.BestBlock()
			log.Debug("best block updated", "height", best.Header().Height(), "txs", len(best.Transactions()))
		case <-clockSyncTicker.C:
			go checkClockOffset()
		}
	}
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		log.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > time.Duration(zephyr.BlockInterval())*time.Second/2 {
		log.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}
