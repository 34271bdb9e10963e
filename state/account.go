// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/zephyr"
)

// Account is the ledger representation of an account.
// RLP encoded objects are stored in the account trie and in per-account rows.
type Account struct {
	Address zephyr.Address
	Balance *uint256.Int
	Nonce   uint64
}

// NewAccount creates an account with zero balance and nonce.
func NewAccount(addr zephyr.Address) *Account {
	return &Account{
		Address: addr,
		Balance: new(uint256.Int),
	}
}

// Copy returns a deep copy.
func (a *Account) Copy() *Account {
	return &Account{
		Address: a.Address,
		Balance: new(uint256.Int).Set(a.Balance),
		Nonce:   a.Nonce,
	}
}

func encodeAccount(a *Account) ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func decodeAccount(data []byte) (*Account, error) {
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return &a, nil
}
