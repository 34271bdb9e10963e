// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the transaction type and its builder.
package tx

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/zephyr"
)

// Transaction is an immutable value-transfer tx.
type Transaction struct {
	body body

	cache struct {
		hash        atomic.Value
		signingHash atomic.Value
		signer      atomic.Value
		size        atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	ChainTag  byte
	Sender    zephyr.Address
	Recipient zephyr.Address
	Amount    *uint256.Int
	Nonce     uint64
	Payload   []byte
	Proof     *Proof `rlp:"nil"`
	Signature []byte
}

// ChainTag returns the chain tag the tx is bound to.
func (t *Transaction) ChainTag() byte {
	return t.body.ChainTag
}

// Sender returns the declared sender address.
// The declaration is only trustworthy once it matches Signer.
func (t *Transaction) Sender() zephyr.Address {
	return t.body.Sender
}

// Recipient returns the recipient address.
func (t *Transaction) Recipient() zephyr.Address {
	return t.body.Recipient
}

// Amount returns the transferred amount.
func (t *Transaction) Amount() *uint256.Int {
	return new(uint256.Int).Set(t.body.Amount)
}

// Nonce returns the sender account nonce the tx spends.
func (t *Transaction) Nonce() uint64 {
	return t.body.Nonce
}

// Payload returns the attached contract payload.
func (t *Transaction) Payload() []byte {
	return append([]byte(nil), t.body.Payload...)
}

// Proof returns the attached verification proof, or nil.
func (t *Transaction) Proof() *Proof {
	if t.body.Proof == nil {
		return nil
	}
	return t.body.Proof.Copy()
}

// Hash computes the identifying digest of the tx, over all body fields
// signature included.
func (t *Transaction) Hash() (hash zephyr.Bytes32) {
	if cached := t.cache.hash.Load(); cached != nil {
		return cached.(zephyr.Bytes32)
	}
	defer func() { t.cache.hash.Store(hash) }()

	return zephyr.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &t.body)
	})
}

// SigningHash computes the hash of all body fields excluding signature.
func (t *Transaction) SigningHash() (hash zephyr.Bytes32) {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(zephyr.Bytes32)
	}
	defer func() { t.cache.signingHash.Store(hash) }()

	return zephyr.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []interface{}{
			t.body.ChainTag,
			t.body.Sender,
			t.body.Recipient,
			t.body.Amount,
			t.body.Nonce,
			t.body.Payload,
			t.body.Proof,
		})
	})
}

// Signature returns a copy of the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// Signer extracts the signer address from the signature.
func (t *Transaction) Signer() (signer zephyr.Address, err error) {
	if cached := t.cache.signer.Load(); cached != nil {
		return cached.(zephyr.Address), nil
	}
	defer func() {
		if err == nil {
			t.cache.signer.Store(signer)
		}
	}()

	return cry.Signer(t.SigningHash(), t.body.Signature)
}

// WithSignature creates a new tx with signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// Size returns the RLP-encoded size of the tx.
func (t *Transaction) Size() uint64 {
	if cached := t.cache.size.Load(); cached != nil {
		return cached.(uint64)
	}
	var c writeCounter
	rlp.Encode(&c, &t.body)
	size := uint64(c)
	t.cache.size.Store(size)
	return size
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	if body.Amount == nil {
		body.Amount = new(uint256.Int)
	}
	*t = Transaction{body: body}
	return nil
}

func (t *Transaction) String() string {
	signer := "N/A"
	if s, err := t.Signer(); err == nil {
		signer = s.String()
	}
	return fmt.Sprintf(`
	Tx(%v)
	Sender:     %v (signed by %v)
	Recipient:  %v
	Amount:     %v
	Nonce:      %v
	Payload:    %x
	HasProof:   %v`,
		t.Hash(), t.body.Sender, signer, t.body.Recipient, t.body.Amount,
		t.body.Nonce, t.body.Payload, t.body.Proof != nil)
}

type writeCounter uint64

func (c *writeCounter) Write(b []byte) (int, error) {
	*c += writeCounter(len(b))
	return len(b), nil
}
