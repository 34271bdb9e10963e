// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb keeps the queryable transfer log: one sqlite row per
// committed transaction, written in block batches.
package logdb

import (
	"context"
	"database/sql"

	"github.com/holiman/uint256"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

type LogDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(transferTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() {
	db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// Prepare starts a batch for the given block's transfers.
func (db *LogDB) Prepare(header *block.Header) *BlockBatch {
	return &BlockBatch{
		db:     db.db,
		header: header,
	}
}

// FilterTransfers returns transfer records matching the filter. A nil
// filter returns everything.
func (db *LogDB) FilterTransfers(ctx context.Context, filter *TransferFilter) ([]*Transfer, error) {
	if filter == nil {
		return db.queryTransfers(ctx, "SELECT * FROM transfer")
	}
	var args []any
	stmt := "SELECT * FROM transfer WHERE 1"
	condition := "blockHeight"
	if filter.Range != nil {
		if filter.Range.Unit == Time {
			condition = "blockTime"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}
	if filter.TxHash != nil {
		args = append(args, filter.TxHash.Bytes())
		stmt += " AND txHash = ? "
	}
	length := len(filter.CriteriaSet)
	if length > 0 {
		for i, criteria := range filter.CriteriaSet {
			if i == 0 {
				stmt += " AND (( 1 "
			} else {
				stmt += " OR ( 1 "
			}
			if criteria.Sender != nil {
				args = append(args, criteria.Sender.Bytes())
				stmt += " AND sender = ? "
			}
			if criteria.Recipient != nil {
				args = append(args, criteria.Recipient.Bytes())
				stmt += " AND recipient = ? "
			}
			if i == length-1 {
				stmt += " )) "
			} else {
				stmt += " ) "
			}
		}
	}
	if filter.Order == DESC {
		stmt += " ORDER BY blockHeight DESC,transferIndex DESC "
	} else {
		stmt += " ORDER BY blockHeight ASC,transferIndex ASC "
	}
	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryTransfers(ctx, stmt, args...)
}

func (db *LogDB) queryTransfers(ctx context.Context, stmt string, args ...any) ([]*Transfer, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			blockHash   []byte
			index       uint32
			blockHeight uint64
			blockTime   uint64
			txHash      []byte
			sender      []byte
			recipient   []byte
			amount      []byte
		)
		if err := rows.Scan(
			&blockHash,
			&index,
			&blockHeight,
			&blockTime,
			&txHash,
			&sender,
			&recipient,
			&amount,
		); err != nil {
			return nil, err
		}
		trans := &Transfer{
			BlockHash:   zephyr.BytesToBytes32(blockHash),
			Index:       index,
			BlockHeight: blockHeight,
			BlockTime:   blockTime,
			TxHash:      zephyr.BytesToBytes32(txHash),
			Sender:      zephyr.BytesToAddress(sender),
			Recipient:   zephyr.BytesToAddress(recipient),
			Amount:      new(uint256.Int).SetBytes(amount),
		}
		transfers = append(transfers, trans)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transfers, nil
}

// BlockBatch collects one block's transfers and writes them atomically.
type BlockBatch struct {
	db        *sql.DB
	header    *block.Header
	transfers []*Transfer
}

// Insert appends a transfer record per transaction.
func (bb *BlockBatch) Insert(txs tx.Transactions) *BlockBatch {
	for _, trx := range txs {
		bb.transfers = append(bb.transfers, newTransfer(bb.header, uint32(len(bb.transfers)), trx))
	}
	return bb
}

// Commit writes the batch in one sqlite transaction, dropping records of
// the abandoned blocks (reverted tips) along the way.
func (bb *BlockBatch) Commit(abandonedBlocks ...zephyr.Bytes32) error {
	return bb.execInTx(func(sqlTx *sql.Tx) error {
		for _, transfer := range bb.transfers {
			if _, err := sqlTx.Exec("INSERT OR REPLACE INTO transfer(blockHash ,transferIndex, blockHeight ,blockTime ,txHash ,sender ,recipient ,amount) VALUES ( ?, ?, ?, ?, ?, ?, ?, ?);",
				transfer.BlockHash.Bytes(),
				transfer.Index,
				transfer.BlockHeight,
				transfer.BlockTime,
				transfer.TxHash.Bytes(),
				transfer.Sender.Bytes(),
				transfer.Recipient.Bytes(),
				transfer.Amount.Bytes(),
			); err != nil {
				return err
			}
		}
		for _, hash := range abandonedBlocks {
			if _, err := sqlTx.Exec("DELETE FROM transfer WHERE blockHash = ?;", hash.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}

func (bb *BlockBatch) execInTx(proc func(*sql.Tx) error) error {
	sqlTx, err := bb.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(sqlTx); err != nil {
		sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return err
	}
	metricTransferInserts().Add(int64(len(bb.transfers)))
	return nil
}
