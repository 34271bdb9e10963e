// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package zephyr

import "math/big"

// SolvesPuzzle reports whether the digest carries at least difficulty
// leading zero bits. Blocks declaring a non-zero difficulty must present
// a signing hash meeting it; staked networks run with difficulty 0.
func SolvesPuzzle(digest Bytes32, difficulty uint64) bool {
	if difficulty > 256 {
		return false
	}
	return uint64(256-new(big.Int).SetBytes(digest[:]).BitLen()) >= difficulty
}
