// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package zephyr

// Constants of the block chain.
const (
	// MaxTxSize upper bound of encoded transaction size, in bytes.
	MaxTxSize = 32 * 1024

	// SignatureLength length of a recoverable ECDSA signature, R || S || V.
	SignatureLength = 65
)

var (
	// GenesisParentHash the parent hash slot value reserved for the genesis block.
	// It can never collide with the hash of a real block.
	GenesisParentHash = Bytes32{0xff, 0xff, 0xff, 0xff}

	// StakingPoolAddress the address holding locked stakes. Stake and delegation
	// operations are balance conserving transfers between an account and this pool.
	StakingPoolAddress = BytesToAddress(Keccak256([]byte("zephyr-staking-pool")).Bytes()[12:])
)
