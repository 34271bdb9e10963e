// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Transfer is one balance movement as stored in db.
type Transfer struct {
	BlockHash   zephyr.Bytes32
	Index       uint32
	BlockHeight uint64
	BlockTime   uint64
	TxHash      zephyr.Bytes32
	Sender      zephyr.Address
	Recipient   zephyr.Address
	Amount      *uint256.Int
}

// newTransfer converts a committed transaction to its transfer record.
func newTransfer(header *block.Header, index uint32, trx *tx.Transaction) *Transfer {
	return &Transfer{
		BlockHash:   header.Hash(),
		Index:       index,
		BlockHeight: header.Height(),
		BlockTime:   header.Timestamp(),
		TxHash:      trx.Hash(),
		Sender:      trx.Sender(),
		Recipient:   trx.Recipient(),
		Amount:      trx.Amount(),
	}
}

type RangeType string

const (
	Block RangeType = "block"
	Time  RangeType = "time"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type TransferCriteria struct {
	Sender    *zephyr.Address // who sent tokens
	Recipient *zephyr.Address // who received tokens
}

// TransferFilter filter
type TransferFilter struct {
	TxHash      *zephyr.Bytes32
	CriteriaSet []*TransferCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
