package block

import (
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Builder to make it easy to build a block object.
type Builder struct {
	body headerBody
	txs  tx.Transactions
}

// Height set the block height.
func (b *Builder) Height(height uint64) *Builder {
	b.body.Height = height
	return b
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(ts uint64) *Builder {
	b.body.Timestamp = ts
	return b
}

// ParentHash set parent hash.
func (b *Builder) ParentHash(hash zephyr.Bytes32) *Builder {
	b.body.ParentHash = hash
	return b
}

// StateRoot set state root.
func (b *Builder) StateRoot(hash zephyr.Bytes32) *Builder {
	b.body.StateRoot = hash
	return b
}

// Difficulty set difficulty.
func (b *Builder) Difficulty(difficulty uint64) *Builder {
	b.body.Difficulty = difficulty
	return b
}

// Nonce set the puzzle nonce.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Transaction add a transaction.
func (b *Builder) Transaction(tx *tx.Transaction) *Builder {
	b.txs = append(b.txs, tx)
	return b
}

// Transactions add txs.
func (b *Builder) Transactions(txs tx.Transactions) *Builder {
	b.txs = append(b.txs, txs...)
	return b
}

// Build build a block object. The TxsRoot is computed from the added txs.
func (b *Builder) Build() *Block {
	header := b.body
	header.TxsRoot = b.txs.RootHash()

	return &Block{
		header: &Header{body: header},
		txs:    b.txs.Copy(),
	}
}
