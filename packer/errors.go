// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import "errors"

var (
	errBlockFull         = errors.New("block full")
	errTxNotAdoptableNow = errors.New("tx not adoptable now")
	errKnownTx           = errors.New("known tx")
	errNotScheduled      = errors.New("not scheduled")
)

// IsBlockFull the block holds as many txs as a block may carry.
func IsBlockFull(err error) bool {
	return errors.Is(err, errBlockFull)
}

// IsTxNotAdoptableNow tx can not be adopted now.
func IsTxNotAdoptableNow(err error) bool {
	return errors.Is(err, errTxNotAdoptableNow)
}

// IsKnownTx tx already chained or adopted.
func IsKnownTx(err error) bool {
	return errors.Is(err, errKnownTx)
}

// IsNotScheduled the proposer has no slot for the next block.
func IsNotScheduled(err error) bool {
	return errors.Is(err, errNotScheduled)
}

// IsBadTx not a valid tx.
func IsBadTx(err error) bool {
	return errors.As(err, &badTxError{})
}

type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}
