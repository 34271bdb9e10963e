// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package solo runs the node without peers: one local proposer packs
// pending transactions into blocks on a fixed interval or on demand.
package solo

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/co"
	"github.com/memaxo/zephyr/health"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/packer"
	"github.com/memaxo/zephyr/zephyr"
)

var logger = log.WithContext("pkg", "solo")

// Options tunes the solo packing behavior.
type Options struct {
	// OnDemand packs only when transactions are pending, skipping the
	// empty interval blocks.
	OnDemand bool
	// BlockInterval is the packing cadence in seconds. Zero falls back
	// to the protocol interval.
	BlockInterval uint64
	// PruneBlocks, when positive, trims the in-memory chain to that
	// many recent blocks after each commit.
	PruneBlocks int
}

// Solo is the standalone client without p2p: one proposer packing
// against the local chain.
type Solo struct {
	ch      *chain.Chain
	packer  *packer.Packer
	pool    *TxPool
	logDB   *logdb.LogDB
	master  *Master
	tracker *health.Health
	options Options
}

// New returns a Solo instance.
func New(
	ch *chain.Chain,
	pk *packer.Packer,
	pool *TxPool,
	logDB *logdb.LogDB,
	master *Master,
	tracker *health.Health,
	options Options,
) *Solo {
	if options.BlockInterval == 0 {
		options.BlockInterval = zephyr.BlockInterval()
	}
	return &Solo{
		ch:      ch,
		packer:  pk,
		pool:    pool,
		logDB:   logDB,
		master:  master,
		tracker: tracker,
		options: options,
	}
}

// Pool returns the node's transaction submission surface.
func (s *Solo) Pool() *TxPool {
	return s.pool
}

// Run packs blocks until ctx is done.
func (s *Solo) Run(ctx context.Context) error {
	goes := &co.Goes{}

	defer func() {
		<-ctx.Done()
		goes.Wait()
	}()

	logger.Info("prepared to pack block")

	goes.Go(func() {
		s.loop(ctx)
	})

	return nil
}

func (s *Solo) loop(ctx context.Context) {
	logger.Debug("enter packing loop")
	defer logger.Debug("leave packing loop")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	added := s.pool.AddedWaiter()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping packing service......")
			return
		case <-ticker.C:
			if s.options.OnDemand {
				// a nonce gap parks txs; give them another chance
				if s.pool.Len() > 0 {
					s.tryPack()
				}
				continue
			}
			if uint64(time.Now().Unix())%s.options.BlockInterval == 0 {
				s.tryPack()
			}
		case <-added.C():
			if s.options.OnDemand {
				s.tryPack()
			}
		}
	}
}

func (s *Solo) tryPack() {
	if err := s.packing(); err != nil {
		if packer.IsNotScheduled(err) {
			logger.Debug("slot not ours", "err", err)
			return
		}
		logger.Error("failed to pack block", "err", err)
	}
}

// packing assembles one block on the current tip. The declared
// timestamp is the next interval boundary; it may lead the wall clock
// by up to one interval, which stays well inside the accepted window.
func (s *Solo) packing() error {
	best := s.ch.BestBlock()
	now := uint64(time.Now().Unix())

	flow, err := s.packer.Schedule(best.Header(), now)
	if err != nil {
		return errors.WithMessage(err, "schedule")
	}

	txs := s.pool.Executables()
	var txsToRemove []zephyr.Bytes32
	defer func() {
		for _, hash := range txsToRemove {
			s.pool.Remove(hash)
		}
	}()

	adopted := 0
	for _, trx := range txs {
		if err := flow.Adopt(trx); err != nil {
			if packer.IsBlockFull(err) {
				break
			}
			if packer.IsTxNotAdoptableNow(err) {
				continue
			}
			logger.Debug("tx dropped during adoption", "hash", trx.Hash(), "err", err)
			txsToRemove = append(txsToRemove, trx.Hash())
			continue
		}
		adopted++
	}

	if s.options.OnDemand && adopted == 0 {
		return nil
	}

	newBlock, err := flow.Pack(s.master.PrivateKey)
	if err != nil {
		return errors.WithMessage(err, "pack")
	}
	if err := s.ch.AddBlock(newBlock); err != nil {
		return errors.WithMessage(err, "commit block")
	}

	// chained now, the pool no longer owns these
	for _, trx := range newBlock.Transactions() {
		txsToRemove = append(txsToRemove, trx.Hash())
	}

	if err := s.logDB.Prepare(newBlock.Header()).Insert(newBlock.Transactions()).Commit(); err != nil {
		logger.Error("failed to write transfer log", "err", err)
	}

	s.tracker.NewBestBlock(newBlock.Hash())

	logger.Info("📦 new block packed",
		"txs", len(newBlock.Transactions()),
		"id", shortID(newBlock.Header()),
	)

	if s.options.PruneBlocks > 0 {
		if n, err := s.ch.Prune(s.options.PruneBlocks); err != nil {
			logger.Warn("failed to prune chain", "err", err)
		} else if n > 0 {
			logger.Debug("pruned history", "blocks", n)
		}
	}
	return nil
}

func shortID(header *block.Header) string {
	hash := header.Hash()
	return fmt.Sprintf("[#%v…%x]", header.Height(), hash[28:])
}
