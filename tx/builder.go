package tx

import (
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/zephyr"
)

// Builder to make it easy to build a transaction.
type Builder struct {
	body body
}

// ChainTag set chain tag.
func (b *Builder) ChainTag(tag byte) *Builder {
	b.body.ChainTag = tag
	return b
}

// Sender set the sender address.
func (b *Builder) Sender(addr zephyr.Address) *Builder {
	b.body.Sender = addr
	return b
}

// Recipient set the recipient address.
func (b *Builder) Recipient(addr zephyr.Address) *Builder {
	b.body.Recipient = addr
	return b
}

// Amount set the transferred amount.
func (b *Builder) Amount(amount *uint256.Int) *Builder {
	b.body.Amount = new(uint256.Int).Set(amount)
	return b
}

// Nonce set the sender account nonce the tx spends.
func (b *Builder) Nonce(nonce uint64) *Builder {
	b.body.Nonce = nonce
	return b
}

// Payload set the contract payload.
func (b *Builder) Payload(payload []byte) *Builder {
	b.body.Payload = append([]byte(nil), payload...)
	return b
}

// Proof attach a verification proof.
func (b *Builder) Proof(proof *Proof) *Builder {
	if proof == nil {
		b.body.Proof = nil
	} else {
		b.body.Proof = proof.Copy()
	}
	return b
}

// Build build tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	if tx.body.Amount == nil {
		tx.body.Amount = new(uint256.Int)
	}
	return &tx
}
