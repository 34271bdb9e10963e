// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package packer

import (
	"crypto/ecdsa"
	"time"

	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Flow is the stateful assembly of one candidate block.
type Flow struct {
	packer  *Packer
	parent  *block.Header
	when    uint64
	sb      *runtime.Sandbox
	adopted map[zephyr.Bytes32]bool
	txs     tx.Transactions
}

func newFlow(packer *Packer, parent *block.Header, when uint64) *Flow {
	return &Flow{
		packer:  packer,
		parent:  parent,
		when:    when,
		sb:      packer.rt.Sandbox(),
		adopted: make(map[zephyr.Bytes32]bool),
	}
}

// ParentHeader returns the header the flow packs onto.
func (f *Flow) ParentHeader() *block.Header {
	return f.parent
}

// When returns the timestamp the packed block will declare.
func (f *Flow) When() uint64 {
	return f.when
}

// Adopt tries to include the transaction in the block being packed.
// Adopted txs join the flow's overlay, so later adoptions observe their
// effects. A failed apply writes nothing to the overlay.
func (f *Flow) Adopt(trx *tx.Transaction) error {
	switch {
	case trx.ChainTag() != f.packer.tag:
		return badTxError{"chain tag mismatch"}
	case trx.Size() > zephyr.MaxTxSize:
		return badTxError{"size exceeds limit"}
	case len(f.txs) >= zephyr.MaxBlockTxs():
		return errBlockFull
	}

	if f.adopted[trx.Hash()] || f.packer.chain.HasTransaction(trx.Hash()) {
		return errKnownTx
	}
	if err := tx.ValidatePayload(trx.Payload()); err != nil {
		return badTxError{err.Error()}
	}

	signer, err := trx.Signer()
	if err != nil {
		return badTxError{"signer unavailable: " + err.Error()}
	}
	if signer != trx.Sender() {
		return badTxError{"signer does not match sender"}
	}
	if proof := trx.Proof(); proof != nil {
		if err := proof.Verify(); err != nil {
			return badTxError{err.Error()}
		}
	}

	if err := f.sb.ApplyTransaction(trx); err != nil {
		// a nonce ahead of the account waits for the gap to fill
		if errors.Is(err, runtime.ErrInvalidTxNonce) {
			if acc, aerr := f.sb.GetAccount(trx.Sender()); aerr == nil && acc != nil && trx.Nonce() > acc.Nonce {
				return errTxNotAdoptableNow
			}
		}
		return badTxError{err.Error()}
	}

	f.adopted[trx.Hash()] = true
	f.txs = append(f.txs, trx)
	metricTxAdopted().Add(1)
	return nil
}

// Pack derives the declared state root, builds the block and signs its
// header. The private key must belong to the packer's proposer.
func (f *Flow) Pack(privateKey *ecdsa.PrivateKey) (*block.Block, error) {
	if f.packer.proposer != zephyr.AddressFromPublicKey(&privateKey.PublicKey) {
		return nil, errors.New("private key mismatch")
	}
	startTime := time.Now()

	root, err := f.deriveRoot()
	if err != nil {
		return nil, err
	}

	builder := new(block.Builder).
		Height(f.parent.Height() + 1).
		Timestamp(f.when).
		ParentHash(f.parent.Hash()).
		StateRoot(root).
		Difficulty(f.packer.difficulty).
		Transactions(f.txs)

	newBlock := builder.Build()
	if d := f.packer.difficulty; d > 0 {
		for nonce := uint64(1); !zephyr.SolvesPuzzle(newBlock.Header().SigningHash(), d); nonce++ {
			newBlock = builder.Nonce(nonce).Build()
		}
	}

	sig, err := cry.Sign(newBlock.Header().SigningHash(), privateKey)
	if err != nil {
		return nil, err
	}
	metricPackDuration().Observe(time.Since(startTime).Milliseconds())
	return newBlock.WithSignature(sig), nil
}

// deriveRoot applies the adopted txs to the live state to obtain the
// declared root, then unwinds them again. The caller must not commit
// blocks while a pack is in flight.
func (f *Flow) deriveRoot() (zephyr.Bytes32, error) {
	rt := f.packer.rt
	for i, trx := range f.txs {
		if err := rt.ApplyTransaction(trx); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rerr := rt.RevertTransaction(f.txs[j]); rerr != nil {
					return zephyr.Bytes32{}, errors.Wrapf(rerr, "unwind tx %d", j)
				}
			}
			return zephyr.Bytes32{}, errors.Wrapf(err, "apply tx %d", i)
		}
	}
	root := rt.State().StateRoot()
	for i := len(f.txs) - 1; i >= 0; i-- {
		if err := rt.RevertTransaction(f.txs[i]); err != nil {
			return zephyr.Bytes32{}, errors.Wrapf(err, "unwind tx %d", i)
		}
	}
	return root, nil
}
