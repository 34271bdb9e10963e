// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/zephyr"
)

func FuzzTransactionDecoding(f *testing.F) {
	seed, _ := rlp.EncodeToBytes(newTestTx())
	f.Add(seed)
	f.Add([]byte{0xc0})
	f.Fuzz(func(t *testing.T, input []byte) {
		var trx Transaction
		if err := rlp.DecodeBytes(input, &trx); err != nil {
			return
		}
		// whatever decoded must survive a re-encode round trip
		enc, err := rlp.EncodeToBytes(&trx)
		if err != nil {
			t.Errorf("re-encode: %v", err)
		}
		var again Transaction
		if err := rlp.DecodeBytes(enc, &again); err != nil {
			t.Errorf("re-decode: %v", err)
		}
		if trx.Hash() != again.Hash() {
			t.Errorf("hash changed across round trip")
		}
	})
}

func FuzzTransactionFields(f *testing.F) {
	f.Fuzz(func(t *testing.T, tag byte, amount uint64, nonce uint64, payload []byte) {
		trx := new(Builder).
			ChainTag(tag).
			Sender(zephyr.BytesToAddress([]byte("sender"))).
			Recipient(zephyr.BytesToAddress([]byte("recipient"))).
			Amount(uint256.NewInt(amount)).
			Nonce(nonce).
			Payload(payload).
			Build()

		enc, err := rlp.EncodeToBytes(trx)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var decoded Transaction
		if err := rlp.DecodeBytes(enc, &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Hash() != trx.Hash() {
			t.Errorf("hash mismatch")
		}
		if decoded.Nonce() != nonce || decoded.ChainTag() != tag {
			t.Errorf("field mismatch")
		}
	})
}
