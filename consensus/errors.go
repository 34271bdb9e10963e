// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import "errors"

var (
	errFutureBlock = errors.New("block in the future")
	errKnownBlock  = errors.New("block already in chain")
)

// consensusError is a final verdict on a block. Messages carry the
// offending height, hash or value.
type consensusError string

func (err consensusError) Error() string {
	return string(err)
}

// IsFutureBlock reports whether the error indicates that the block
// timestamp is too far ahead of wall clock time.
func IsFutureBlock(err error) bool {
	return err == errFutureBlock
}

// IsKnownBlock reports whether the error indicates that the block
// targets an already committed height slot.
func IsKnownBlock(err error) bool {
	return err == errKnownBlock
}

// IsCritical reports whether the error is a verdict on the block itself
// rather than a transient local failure. A critically rejected block can
// never become valid.
func IsCritical(err error) bool {
	_, ok := err.(consensusError)
	return ok
}
