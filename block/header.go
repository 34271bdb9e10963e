// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package block

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/zephyr"
)

// Header contains all information about a block, except the tx list.
// It's immutable.
type Header struct {
	body headerBody

	cache struct {
		hash        atomic.Value
		signingHash atomic.Value
		signer      atomic.Value
	}
}

// headerBody body of header
type headerBody struct {
	Height     uint64
	Timestamp  uint64
	ParentHash zephyr.Bytes32

	TxsRoot   zephyr.Bytes32
	StateRoot zephyr.Bytes32

	Difficulty uint64
	Nonce      uint64

	Signature []byte
}

// Height returns the sequential height of the block, genesis being 0.
func (h *Header) Height() uint64 {
	return h.body.Height
}

// Timestamp returns the timestamp of the block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// ParentHash returns the hash of the parent block.
// For the genesis block it holds the genesis parent marker instead.
func (h *Header) ParentHash() zephyr.Bytes32 {
	return h.body.ParentHash
}

// TxsRoot returns the merkle root of the txs contained in the block.
func (h *Header) TxsRoot() zephyr.Bytes32 {
	return h.body.TxsRoot
}

// StateRoot returns the account state merkle root right after this block
// being applied.
func (h *Header) StateRoot() zephyr.Bytes32 {
	return h.body.StateRoot
}

// Difficulty returns the difficulty the block was produced at.
func (h *Header) Difficulty() uint64 {
	return h.body.Difficulty
}

// Nonce returns the puzzle nonce.
func (h *Header) Nonce() uint64 {
	return h.body.Nonce
}

// Hash computes the identifying digest of the header, over all body fields
// signature included.
func (h *Header) Hash() (hash zephyr.Bytes32) {
	if cached := h.cache.hash.Load(); cached != nil {
		return cached.(zephyr.Bytes32)
	}
	defer func() { h.cache.hash.Store(hash) }()

	return zephyr.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, &h.body)
	})
}

// SigningHash computes the hash of all header fields excluding signature.
func (h *Header) SigningHash() (hash zephyr.Bytes32) {
	if cached := h.cache.signingHash.Load(); cached != nil {
		return cached.(zephyr.Bytes32)
	}
	defer func() { h.cache.signingHash.Store(hash) }()

	return zephyr.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []interface{}{
			h.body.Height,
			h.body.Timestamp,
			h.body.ParentHash,

			h.body.TxsRoot,
			h.body.StateRoot,

			h.body.Difficulty,
			h.body.Nonce,
		})
	})
}

// Signature returns a copy of the signature.
func (h *Header) Signature() []byte {
	return append([]byte(nil), h.body.Signature...)
}

// withSignature creates a new Header object with signature set.
func (h *Header) withSignature(sig []byte) *Header {
	cpy := Header{body: h.body}
	cpy.body.Signature = append([]byte(nil), sig...)
	return &cpy
}

// Signer extracts the proposer address from the signature.
func (h *Header) Signer() (signer zephyr.Address, err error) {
	if h.body.Height == 0 {
		// special case for genesis block
		return zephyr.Address{}, nil
	}

	if cached := h.cache.signer.Load(); cached != nil {
		return cached.(zephyr.Address), nil
	}
	defer func() {
		if err == nil {
			h.cache.signer.Store(signer)
		}
	}()

	return cry.Signer(h.SigningHash(), h.body.Signature)
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody

	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	signer := "N/A"
	if s, err := h.Signer(); err == nil {
		signer = s.String()
	}
	return fmt.Sprintf(`
	Hash:        %v
	Height:      %v
	Timestamp:   %v
	ParentHash:  %v
	TxsRoot:     %v
	StateRoot:   %v
	Difficulty:  %v
	Nonce:       %v
	Signer:      %v`,
		h.Hash(), h.body.Height, h.body.Timestamp, h.body.ParentHash,
		h.body.TxsRoot, h.body.StateRoot, h.body.Difficulty, h.body.Nonce, signer)
}
