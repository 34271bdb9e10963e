// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import "github.com/pkg/errors"

var (
	// ErrEmptyChain the chain holds no revertible block.
	ErrEmptyChain = errors.New("empty blockchain")
	// ErrInvalidBlockHash a block's content disagrees with its recorded hash.
	ErrInvalidBlockHash = errors.New("invalid block hash")
	// ErrInvalidParentHash a block does not link to its predecessor.
	ErrInvalidParentHash = errors.New("invalid previous hash")
	// ErrDoubleSpending the same transaction appears in more than one block.
	ErrDoubleSpending = errors.New("double spending")
	// ErrProofVerification an externally supplied proof failed to verify.
	ErrProofVerification = errors.New("proof verification failed")
	// ErrNotFound the requested block or transaction is not in the chain.
	ErrNotFound = errors.New("not found")
	// ErrNotTip the block to revert is not the current chain tip.
	ErrNotTip = errors.New("not the chain tip")
)
