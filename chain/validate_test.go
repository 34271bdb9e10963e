// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

func newValidatedChain(t *testing.T, opts Options) *Chain {
	t.Helper()
	c, _ := newTestChain(t, opts)
	for nonce := uint64(0); nonce < 3; nonce++ {
		b := buildNext(t, c, tx.Transactions{transfer(acctA, acctB, 10, nonce)})
		require.NoError(t, c.AddBlock(b))
	}
	return c
}

func TestValidateChain(t *testing.T) {
	c := newValidatedChain(t, Options{})
	assert.NoError(t, c.ValidateChain(context.Background()))
}

func TestValidateChainBrokenLinkage(t *testing.T) {
	c := newValidatedChain(t, Options{})

	// splice in a tip that does not link to its predecessor
	forged := new(block.Builder).
		Height(3).
		ParentHash(zephyr.Blake2b([]byte("elsewhere"))).
		StateRoot(c.blocks[3].Header().StateRoot()).
		Build()
	c.blocks[3] = forged

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrInvalidParentHash)
	assert.Contains(t, err.Error(), "block #3")
}

func TestValidateChainHeightMismatch(t *testing.T) {
	c := newValidatedChain(t, Options{})

	forged := new(block.Builder).
		Height(9).
		ParentHash(c.blocks[2].Hash()).
		StateRoot(c.blocks[3].Header().StateRoot()).
		Build()
	c.blocks[3] = forged

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrInvalidBlockHash)
	assert.Contains(t, err.Error(), "block #3")
}

func TestValidateChainGenesisMarker(t *testing.T) {
	c := newValidatedChain(t, Options{})

	forged := new(block.Builder).
		Height(0).
		ParentHash(zephyr.Blake2b([]byte("not the marker"))).
		StateRoot(c.blocks[0].Header().StateRoot()).
		Build()
	c.blocks[0] = forged

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrInvalidParentHash)
	assert.Contains(t, err.Error(), "block #0")
}

func TestValidateChainDoubleSpending(t *testing.T) {
	c := newValidatedChain(t, Options{})

	// hand-append a block replaying an already committed transaction
	replayed := c.blocks[1].Transactions()[0]
	forged := new(block.Builder).
		Height(4).
		ParentHash(c.blocks[3].Hash()).
		StateRoot(c.blocks[3].Header().StateRoot()).
		Transactions(tx.Transactions{replayed}).
		Build()
	c.blocks = append(c.blocks, forged)

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrDoubleSpending)
	assert.Contains(t, err.Error(), "block #1")
	assert.Contains(t, err.Error(), "block #4")
}

func TestValidateChainTxsRoot(t *testing.T) {
	c := newValidatedChain(t, Options{})

	// body swapped under an unchanged header
	c.blocks[2] = block.Compose(c.blocks[2].Header(), tx.Transactions{transfer(acctB, acctA, 1, 0)})

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrInvalidBlockHash)
	assert.Contains(t, err.Error(), "block #2")
}

func TestValidateChainProofs(t *testing.T) {
	c, _ := newTestChain(t, Options{})

	proven := new(tx.Builder).
		Sender(acctA).
		Recipient(acctB).
		Amount(uint256.NewInt(10)).
		Nonce(0).
		Proof(&tx.Proof{
			Hash:   zephyr.Blake2b([]byte("wrong digest")),
			Inputs: [][]byte{[]byte("input")},
		}).
		Build()
	b := buildNext(t, c, tx.Transactions{proven})
	require.NoError(t, c.AddBlock(b))

	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrProofVerification)
	assert.Contains(t, err.Error(), "block #1")
}

func TestValidateChainProofVerifierOption(t *testing.T) {
	reject := errors.New("rejected by verifier")
	c, _ := newTestChain(t, Options{
		VerifyProof: func(*tx.Proof) error { return reject },
	})

	good := &tx.Proof{Inputs: [][]byte{[]byte("input")}}
	good.Hash = good.Digest()
	proven := new(tx.Builder).
		Sender(acctA).
		Recipient(acctB).
		Amount(uint256.NewInt(10)).
		Nonce(0).
		Proof(good).
		Build()
	require.NoError(t, c.AddBlock(buildNext(t, c, tx.Transactions{proven})))

	// the injected verifier overrides the digest check
	err := c.ValidateChain(context.Background())
	assert.ErrorIs(t, err, ErrProofVerification)
}

func TestValidateChainCancelled(t *testing.T) {
	c := newValidatedChain(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.ValidateChain(ctx), context.Canceled)
}
