// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/logdb"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

var (
	alice = zephyr.BytesToAddress([]byte("alice"))
	bob   = zephyr.BytesToAddress([]byte("bob"))
	carol = zephyr.BytesToAddress([]byte("carol"))
)

func transferTx(from, to zephyr.Address, amount, nonce uint64) *tx.Transaction {
	return new(tx.Builder).
		Sender(from).
		Recipient(to).
		Amount(uint256.NewInt(amount)).
		Nonce(nonce).
		Build()
}

func TestLogDB(t *testing.T) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	// three blocks, two transfers each
	parentHash := zephyr.GenesisParentHash
	var headers []*block.Header
	var firstBlockTxs tx.Transactions
	for height := uint64(1); height <= 3; height++ {
		header := new(block.Builder).
			Height(height).
			Timestamp(1700000000 + height*10).
			ParentHash(parentHash).
			Build().
			Header()
		headers = append(headers, header)
		parentHash = header.Hash()

		txs := tx.Transactions{
			transferTx(alice, bob, height*100, height),
			transferTx(bob, carol, height, height),
		}
		if height == 1 {
			firstBlockTxs = txs
		}
		require.NoError(t, db.Prepare(header).Insert(txs).Commit())
	}

	all, err := db.FilterTransfers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, uint64(1), all[0].BlockHeight)
	assert.Equal(t, uint32(0), all[0].Index)
	assert.Equal(t, headers[0].Hash(), all[0].BlockHash)
	assert.Equal(t, alice, all[0].Sender)
	assert.Equal(t, bob, all[0].Recipient)
	assert.Equal(t, uint256.NewInt(100), all[0].Amount)

	got, err := db.FilterTransfers(ctx, &logdb.TransferFilter{
		Range: &logdb.Range{Unit: logdb.Block, From: 2, To: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].BlockHeight)

	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{
		Range: &logdb.Range{Unit: logdb.Time, From: 1700000030, To: 1700000030},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].BlockHeight)

	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{
		CriteriaSet: []*logdb.TransferCriteria{{Sender: &alice}},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, tr := range got {
		assert.Equal(t, alice, tr.Sender)
	}

	// criteria are OR-combined
	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{
		CriteriaSet: []*logdb.TransferCriteria{{Sender: &alice}, {Recipient: &carol}},
	})
	require.NoError(t, err)
	assert.Len(t, got, 6)

	txHash := all[2].TxHash
	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{TxHash: &txHash})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint256.NewInt(200), got[0].Amount)

	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{
		Order:   logdb.DESC,
		Options: &logdb.Options{Offset: 0, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(3), got[0].BlockHeight)
	assert.Equal(t, uint32(1), got[0].Index)

	got, err = db.FilterTransfers(ctx, &logdb.TransferFilter{
		Options: &logdb.Options{Offset: 4, Limit: 10},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// replaying a block batch keeps the record set stable
	require.NoError(t, db.Prepare(headers[0]).Insert(firstBlockTxs).Commit())
	all, err = db.FilterTransfers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	// abandoning a block drops its records
	require.NoError(t, db.Prepare(headers[2]).Commit(headers[2].Hash()))
	all, err = db.FilterTransfers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, tr := range all {
		assert.NotEqual(t, uint64(3), tr.BlockHeight)
	}
}
