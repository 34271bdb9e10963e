// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

var (
	// ErrSenderNotFound the sending account does not exist.
	ErrSenderNotFound = errors.New("sender account not found")
	// ErrRecipientNotFound the receiving account does not exist.
	ErrRecipientNotFound = errors.New("recipient account not found")
	// ErrInsufficientBalance the debited account holds less than the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidTxNonce the transaction nonce does not equal the sender's
	// account nonce.
	ErrInvalidTxNonce = errors.New("invalid transaction nonce")
	// ErrSameSenderRecipient sender and recipient are the same address.
	ErrSameSenderRecipient = errors.New("sender and recipient are the same address")
	// ErrBalanceOverflow a credit would overflow the balance word.
	ErrBalanceOverflow = errors.New("balance overflow")
	// ErrNonceUnderflow a revert would decrement a zero nonce.
	ErrNonceUnderflow = errors.New("nonce underflow")
	// ErrStateRootMismatch the recomputed state root disagrees with the
	// root declared by the block.
	ErrStateRootMismatch = errors.New("block validation failed: state root mismatch")
)

// StateUpdateError wraps the failure of a transaction inside a block
// application. The applied prefix has been rolled back when it surfaces.
type StateUpdateError struct {
	TxHash zephyr.Bytes32
	Err    error
}

func (e *StateUpdateError) Error() string {
	return fmt.Sprintf("state update failed: tx %v: %v", e.TxHash, e.Err)
}

func (e *StateUpdateError) Unwrap() error {
	return e.Err
}
