// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

// ErrProofMismatch the proof inputs do not digest to the declared hash.
var ErrProofMismatch = errors.New("proof digest mismatch")

// Proof is an externally produced verification artifact attached to a tx,
// e.g. a zero-knowledge proof. The core never interprets it beyond handing
// it to a proof verifier; Hash declares what the inputs are supposed to
// digest to.
type Proof struct {
	Hash   zephyr.Bytes32
	Inputs [][]byte
}

// Copy returns a deep copy.
func (p *Proof) Copy() *Proof {
	cpy := &Proof{
		Hash:   p.Hash,
		Inputs: make([][]byte, len(p.Inputs)),
	}
	for i, input := range p.Inputs {
		cpy.Inputs[i] = append([]byte(nil), input...)
	}
	return cpy
}

// Digest computes the digest of the proof inputs, the value Hash is
// expected to declare.
func (p *Proof) Digest() zephyr.Bytes32 {
	return zephyr.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, p.Inputs)
	})
}

// Verify checks that the inputs digest to the declared hash. It is the
// default verifier; deployments with a real proof system plug their own.
func (p *Proof) Verify() error {
	if p.Digest() != p.Hash {
		return errors.WithMessagef(ErrProofMismatch, "declared %v", p.Hash)
	}
	return nil
}
