// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package block defines the block type.
package block

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Block is an immutable block type.
type Block struct {
	header *Header
	txs    tx.Transactions
}

// Compose composes a block with the given header and txs.
// The TxsRoot is not verified here; to build up a block, use a Builder.
func Compose(header *Header, txs tx.Transactions) *Block {
	return &Block{
		header: header,
		txs:    txs.Copy(),
	}
}

// WithSignature creates a new block object with signature set.
func (b *Block) WithSignature(sig []byte) *Block {
	return &Block{
		header: b.header.withSignature(sig),
		txs:    b.txs,
	}
}

// Header returns the block header.
func (b *Block) Header() *Header {
	return b.header
}

// Transactions returns a copy of the transactions.
func (b *Block) Transactions() tx.Transactions {
	return b.txs.Copy()
}

// Hash returns the identifying digest of the block, which is its header hash.
func (b *Block) Hash() zephyr.Bytes32 {
	return b.header.Hash()
}

// Size returns the RLP-encoded size of the block.
func (b *Block) Size() uint64 {
	var c writeCounter
	rlp.Encode(&c, b)
	return uint64(c)
}

// EncodeRLP implements rlp.Encoder.
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []interface{}{
		b.header,
		b.txs,
	})
}

// DecodeRLP implements rlp.Decoder.
func (b *Block) DecodeRLP(s *rlp.Stream) error {
	payload := struct {
		Header Header
		Txs    tx.Transactions
	}{}

	if err := s.Decode(&payload); err != nil {
		return err
	}

	*b = Block{
		header: &payload.Header,
		txs:    payload.Txs,
	}
	return nil
}

func (b *Block) String() string {
	return b.header.String()
}

type writeCounter uint64

func (c *writeCounter) Write(buf []byte) (int, error) {
	*c += writeCounter(len(buf))
	return len(buf), nil
}
