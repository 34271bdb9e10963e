// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/consensus"
	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/genesis"
	"github.com/memaxo/zephyr/health"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/packer"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

func newSolo(t *testing.T, options Options) *Solo {
	t.Helper()

	db, err := lvldb.NewMem()
	require.NoError(t, err)

	gene := genesis.NewDevnet()
	st := state.New(db)
	b0, err := gene.Build(db, st)
	require.NoError(t, err)

	engine := runtime.New(st)
	ledger, err := staking.NewLedger(db, engine)
	require.NoError(t, err)

	gate := consensus.New(engine, consensus.Options{Stake: ledger, Tag: gene.ChainTag()})
	ch, err := chain.New(db, st, b0, chain.Options{Gate: gate, Stake: ledger})
	require.NoError(t, err)

	logDB, err := logdb.NewMem()
	require.NoError(t, err)

	master := &Master{PrivateKey: genesis.DevAccounts()[0].PrivateKey}
	pk := packer.New(ch, engine, master.Address(), packer.Options{Stake: ledger, Tag: gene.ChainTag()})
	pool := NewTxPool(ch, gene.ChainTag(), 16)
	tracker := health.NewSolo(time.Minute)

	return New(ch, pk, pool, logDB, master, tracker, options)
}

func devTransfer(t *testing.T, tag byte, from genesis.DevAccount, to zephyr.Address, amount, nonce uint64) *tx.Transaction {
	t.Helper()
	trx := new(tx.Builder).
		ChainTag(tag).
		Sender(from.Address).
		Recipient(to).
		Amount(uint256.NewInt(amount)).
		Nonce(nonce).
		Build()
	sig, err := cry.Sign(trx.SigningHash(), from.PrivateKey)
	require.NoError(t, err)
	return trx.WithSignature(sig)
}

func TestInitSolo(t *testing.T) {
	solo := newSolo(t, Options{})

	require.NoError(t, solo.packing())

	best := solo.ch.BestBlock()
	assert.Equal(t, uint64(1), best.Header().Height())
	assert.Len(t, best.Transactions(), 0)

	status, err := solo.tracker.Status()
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, best.Hash(), *status.BlockIngestion.ID)
}

func TestSoloPacksPendingTxs(t *testing.T) {
	solo := newSolo(t, Options{})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()

	trx := devTransfer(t, tag, accounts[0], accounts[1].Address, 500, 0)
	require.NoError(t, solo.pool.Add(trx))
	require.Equal(t, 1, solo.pool.Len())

	require.NoError(t, solo.packing())

	best := solo.ch.BestBlock()
	require.Len(t, best.Transactions(), 1)
	assert.Equal(t, trx.Hash(), best.Transactions()[0].Hash())
	assert.Equal(t, 0, solo.pool.Len())
	assert.True(t, solo.ch.HasTransaction(trx.Hash()))

	// the transfer landed in the queryable log
	txHash := trx.Hash()
	transfers, err := solo.logDB.FilterTransfers(context.Background(), &logdb.TransferFilter{TxHash: &txHash})
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, accounts[0].Address, transfers[0].Sender)
	assert.Equal(t, accounts[1].Address, transfers[0].Recipient)
}

func TestSoloSameSenderNonceOrder(t *testing.T) {
	solo := newSolo(t, Options{})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()

	// submitted out of order; executables must hand them over sorted
	second := devTransfer(t, tag, accounts[1], accounts[2].Address, 20, 1)
	first := devTransfer(t, tag, accounts[1], accounts[2].Address, 10, 0)
	require.NoError(t, solo.pool.Add(second))
	require.NoError(t, solo.pool.Add(first))

	executables := solo.pool.Executables()
	require.Len(t, executables, 2)
	assert.Equal(t, uint64(0), executables[0].Nonce())
	assert.Equal(t, uint64(1), executables[1].Nonce())

	require.NoError(t, solo.packing())
	best := solo.ch.BestBlock()
	require.Len(t, best.Transactions(), 2)
	assert.Equal(t, first.Hash(), best.Transactions()[0].Hash())
	assert.Equal(t, second.Hash(), best.Transactions()[1].Hash())
}

func TestSoloOnDemand(t *testing.T) {
	solo := newSolo(t, Options{OnDemand: true})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()

	// nothing pending, nothing packed
	require.NoError(t, solo.packing())
	assert.Equal(t, uint64(0), solo.ch.BestBlock().Header().Height())

	trx := devTransfer(t, tag, accounts[0], accounts[1].Address, 100, 0)
	require.NoError(t, solo.pool.Add(trx))
	require.NoError(t, solo.packing())

	best := solo.ch.BestBlock()
	assert.Equal(t, uint64(1), best.Header().Height())
	require.Len(t, best.Transactions(), 1)
}

func TestSoloParksGappedNonce(t *testing.T) {
	solo := newSolo(t, Options{})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()

	// nonce 1 with no nonce-0 predecessor stays parked in the pool
	parked := devTransfer(t, tag, accounts[3], accounts[4].Address, 5, 1)
	require.NoError(t, solo.pool.Add(parked))

	require.NoError(t, solo.packing())

	best := solo.ch.BestBlock()
	assert.Len(t, best.Transactions(), 0)
	assert.Equal(t, 1, solo.pool.Len(), "gapped nonce should stay pending")

	// fill the gap; the next round packs both in order
	filler := devTransfer(t, tag, accounts[3], accounts[4].Address, 5, 0)
	require.NoError(t, solo.pool.Add(filler))
	require.NoError(t, solo.packing())

	best = solo.ch.BestBlock()
	require.Len(t, best.Transactions(), 2)
	assert.Equal(t, filler.Hash(), best.Transactions()[0].Hash())
	assert.Equal(t, parked.Hash(), best.Transactions()[1].Hash())
	assert.Equal(t, 0, solo.pool.Len())
}

func TestTxPoolAdd(t *testing.T) {
	solo := newSolo(t, Options{})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()

	badTag := devTransfer(t, tag+1, accounts[0], accounts[1].Address, 1, 0)
	err := solo.pool.Add(badTag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain tag mismatch")

	oversize := new(tx.Builder).
		ChainTag(tag).
		Sender(accounts[0].Address).
		Recipient(accounts[1].Address).
		Amount(uint256.NewInt(1)).
		Nonce(0).
		Payload(bytes.Repeat([]byte("a"), 33*1024)).
		Build()
	err = solo.pool.Add(oversize)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size too large")

	trx := devTransfer(t, tag, accounts[0], accounts[1].Address, 1, 0)
	require.NoError(t, solo.pool.Add(trx))
	err = solo.pool.Add(trx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known tx")

	// already chained counts as known too
	require.NoError(t, solo.packing())
	err = solo.pool.Add(trx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "known tx")
}

func TestTxPoolLimit(t *testing.T) {
	solo := newSolo(t, Options{})
	tag := solo.pool.tag
	accounts := genesis.DevAccounts()
	solo.pool.limit = 2

	require.NoError(t, solo.pool.Add(devTransfer(t, tag, accounts[0], accounts[1].Address, 1, 0)))
	require.NoError(t, solo.pool.Add(devTransfer(t, tag, accounts[0], accounts[1].Address, 1, 1)))

	err := solo.pool.Add(devTransfer(t, tag, accounts[0], accounts[1].Address, 1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool is full")
	assert.Equal(t, 2, solo.pool.Len())
}
