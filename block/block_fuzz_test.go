// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"testing"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/memaxo/zephyr/zephyr"
)

func FuzzBlockDecoding(f *testing.F) {
	seed, _ := rlp.EncodeToBytes(newTestBlock())
	f.Add(seed)
	f.Fuzz(func(t *testing.T, input []byte) {
		var b Block
		if err := rlp.DecodeBytes(input, &b); err != nil {
			return
		}
		enc, err := rlp.EncodeToBytes(&b)
		if err != nil {
			t.Errorf("re-encode: %v", err)
		}
		var again Block
		if err := rlp.DecodeBytes(enc, &again); err != nil {
			t.Errorf("re-decode: %v", err)
		}
		if b.Hash() != again.Hash() {
			t.Errorf("hash changed across round trip")
		}
	})
}

func FuzzHeaderFields(f *testing.F) {
	f.Fuzz(func(t *testing.T, height, timestamp, difficulty, nonce uint64, parent []byte) {
		b := new(Builder).
			Height(height).
			Timestamp(timestamp).
			Difficulty(difficulty).
			Nonce(nonce).
			ParentHash(zephyr.BytesToBytes32(parent)).
			Build()

		enc, err := rlp.EncodeToBytes(b)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		var decoded Block
		if err := rlp.DecodeBytes(enc, &decoded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if decoded.Header().Height() != height || decoded.Hash() != b.Hash() {
			t.Errorf("round trip mismatch")
		}
	})
}
