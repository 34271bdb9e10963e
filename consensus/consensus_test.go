// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package consensus

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/chain"
	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/staking"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

var _ chain.Gate = (*Consensus)(nil)

var recvAddr = zephyr.BytesToAddress([]byte("recv"))

// far enough ahead that interval-stepped children never look future
const testNow = uint64(1700003600)

type env struct {
	t       *testing.T
	store   kv.Store
	st      *state.State
	rt      *runtime.Runtime
	key     *ecdsa.PrivateKey
	addr    zephyr.Address
	genesis *block.Block
}

func newTestEnv(t *testing.T) *env {
	t.Helper()
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	st := state.New(store)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := zephyr.AddressFromPublicKey(&key.PublicKey)

	acc := state.NewAccount(addr)
	acc.Balance = uint256.NewInt(1000)
	require.NoError(t, st.UpdateAccounts(acc, state.NewAccount(recvAddr)))

	genesis := new(block.Builder).
		Height(0).
		Timestamp(1700000000).
		ParentHash(zephyr.GenesisParentHash).
		StateRoot(st.StateRoot()).
		Build()

	return &env{
		t:       t,
		store:   store,
		st:      st,
		rt:      runtime.New(st),
		key:     key,
		addr:    addr,
		genesis: genesis,
	}
}

func (e *env) gate(opts Options) *Consensus {
	if opts.Now == nil {
		opts.Now = func() uint64 { return testNow }
	}
	return New(e.rt, opts)
}

func (e *env) sign(b *block.Block) *block.Block {
	sig, err := cry.Sign(b.Header().SigningHash(), e.key)
	require.NoError(e.t, err)
	return b.WithSignature(sig)
}

// transfer builds a signed transfer whose sender matches the signing key.
func (e *env) transfer(from *ecdsa.PrivateKey, to zephyr.Address, amount, nonce uint64) *tx.Transaction {
	trx := new(tx.Builder).
		Sender(zephyr.AddressFromPublicKey(&from.PublicKey)).
		Recipient(to).
		Amount(uint256.NewInt(amount)).
		Nonce(nonce).
		Build()
	sig, err := cry.Sign(trx.SigningHash(), from)
	require.NoError(e.t, err)
	return trx.WithSignature(sig)
}

func plainTransfer(from, to zephyr.Address, amount, nonce uint64) *tx.Transaction {
	return new(tx.Builder).
		Sender(from).
		Recipient(to).
		Amount(uint256.NewInt(amount)).
		Nonce(nonce).
		Build()
}

func buildChild(parent *block.Header, txs tx.Transactions) *block.Block {
	return new(block.Builder).
		Height(parent.Height() + 1).
		Timestamp(parent.Timestamp() + zephyr.BlockInterval()).
		ParentHash(parent.Hash()).
		StateRoot(parent.StateRoot()).
		Transactions(txs).
		Build()
}

func TestValidateBlock(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	require.NoError(t, cons.ValidateBlock(e.sign(buildChild(parent, nil)), parent))

	// a block may spend the same sender repeatedly when nonces chain
	txs := tx.Transactions{
		e.transfer(e.key, recvAddr, 10, 0),
		e.transfer(e.key, recvAddr, 20, 1),
	}
	require.NoError(t, cons.ValidateBlock(e.sign(buildChild(parent, txs)), parent))

	// the tally is a dry run, the live state stays untouched
	acc, err := e.st.GetAccount(e.addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acc.Nonce)
	assert.Equal(t, uint256.NewInt(1000), acc.Balance)

	assert.EqualError(t, cons.ValidateBlock(nil, parent), "parameter is nil, must be *block.Block")
}

func TestValidateBlockHeader(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	build := func(height, timestamp uint64, parentHash zephyr.Bytes32) *block.Block {
		return e.sign(new(block.Builder).
			Height(height).
			Timestamp(timestamp).
			ParentHash(parentHash).
			StateRoot(parent.StateRoot()).
			Build())
	}

	err := cons.ValidateBlock(build(1, parent.Timestamp(), parent.Hash()), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "timestamp behind")

	err = cons.ValidateBlock(build(1, parent.Timestamp()+3, parent.Hash()), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "interval not rounded")

	err = cons.ValidateBlock(build(0, parent.Timestamp()+zephyr.BlockInterval(), parent.Hash()), parent)
	assert.True(t, IsKnownBlock(err))
	assert.False(t, IsCritical(err))

	err = cons.ValidateBlock(build(5, parent.Timestamp()+zephyr.BlockInterval(), parent.Hash()), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "height not sequential")

	err = cons.ValidateBlock(build(1, parent.Timestamp()+zephyr.BlockInterval(), zephyr.Blake2b([]byte("fork"))), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "parent mismatch")
}

func TestValidateBlockFuture(t *testing.T) {
	e := newTestEnv(t)
	parent := e.genesis.Header()
	// wall clock pinned to the genesis timestamp
	cons := e.gate(Options{Now: func() uint64 { return parent.Timestamp() }})

	require.NoError(t, cons.ValidateBlock(e.sign(buildChild(parent, nil)), parent))

	b := e.sign(new(block.Builder).
		Height(1).
		Timestamp(parent.Timestamp() + zephyr.TimestampWindow() + zephyr.BlockInterval()).
		ParentHash(parent.Hash()).
		StateRoot(parent.StateRoot()).
		Build())
	err := cons.ValidateBlock(b, parent)
	assert.True(t, IsFutureBlock(err))
	assert.False(t, IsCritical(err))
}

func TestValidateBlockPuzzle(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	const difficulty = 4
	build := func(nonce uint64) *block.Block {
		return new(block.Builder).
			Height(1).
			Timestamp(parent.Timestamp() + zephyr.BlockInterval()).
			ParentHash(parent.Hash()).
			StateRoot(parent.StateRoot()).
			Difficulty(difficulty).
			Nonce(nonce).
			Build()
	}

	// grind one nonce meeting the difficulty and one missing it
	var solved, unsolved *block.Block
	for nonce := uint64(0); solved == nil || unsolved == nil; nonce++ {
		require.Less(t, nonce, uint64(100000))
		b := build(nonce)
		if zephyr.SolvesPuzzle(b.Header().SigningHash(), difficulty) {
			if solved == nil {
				solved = b
			}
		} else if unsolved == nil {
			unsolved = b
		}
	}

	require.NoError(t, cons.ValidateBlock(e.sign(solved), parent))

	err := cons.ValidateBlock(e.sign(unsolved), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "puzzle unsolved")
}

func TestValidateBlockUnsigned(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	err := cons.ValidateBlock(buildChild(parent, nil), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "signer unavailable")
}

func TestValidateBlockBody(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	// header commits to no txs, body smuggles one in
	signed := e.sign(buildChild(parent, nil))
	forged := block.Compose(signed.Header(), tx.Transactions{e.transfer(e.key, recvAddr, 10, 0)})
	err := cons.ValidateBlock(forged, parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "txs root mismatch")

	many := make(tx.Transactions, 0, zephyr.MaxBlockTxs()+1)
	for i := 0; i <= zephyr.MaxBlockTxs(); i++ {
		many = append(many, plainTransfer(e.addr, recvAddr, 1, uint64(i)))
	}
	err = cons.ValidateBlock(e.sign(buildChild(parent, many)), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "txs exceed limit")
}

func TestValidateBlockTxTally(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	otherKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	forgedSender := plainTransfer(e.addr, recvAddr, 10, 0)
	sig, err := cry.Sign(forgedSender.SigningHash(), otherKey)
	require.NoError(t, err)
	forgedSender = forgedSender.WithSignature(sig)

	dup := e.transfer(e.key, recvAddr, 10, 0)

	looping := new(tx.Builder).
		Sender(e.addr).
		Recipient(recvAddr).
		Amount(uint256.NewInt(1)).
		Nonce(0).
		Payload([]byte("while(true){}")).
		Build()
	sig, err = cry.Sign(looping.SigningHash(), e.key)
	require.NoError(t, err)
	looping = looping.WithSignature(sig)

	badProof := new(tx.Builder).
		Sender(e.addr).
		Recipient(recvAddr).
		Amount(uint256.NewInt(1)).
		Nonce(0).
		Proof(&tx.Proof{
			Hash:   zephyr.Blake2b([]byte("not the digest")),
			Inputs: [][]byte{[]byte("input")},
		}).
		Build()
	sig, err = cry.Sign(badProof.SigningHash(), e.key)
	require.NoError(t, err)
	badProof = badProof.WithSignature(sig)

	tests := []struct {
		name string
		txs  tx.Transactions
		want string
	}{
		{"unsigned", tx.Transactions{plainTransfer(e.addr, recvAddr, 10, 0)}, "signer unavailable"},
		{"forged sender", tx.Transactions{forgedSender}, "does not match sender"},
		{"duplicated", tx.Transactions{dup, dup}, "duplicated in block"},
		{"bad nonce", tx.Transactions{e.transfer(e.key, recvAddr, 10, 5)}, "invalid transaction nonce"},
		{"overdrawn", tx.Transactions{e.transfer(e.key, recvAddr, 5000, 0)}, "insufficient balance"},
		{"dangerous payload", tx.Transactions{looping}, "dangerous pattern"},
		{"bad proof", tx.Transactions{badProof}, "proof digest mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cons.ValidateBlock(e.sign(buildChild(parent, tt.txs)), parent)
			assert.True(t, IsCritical(err))
			assert.Contains(t, err.Error(), "validity below threshold")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateBlockThreshold(t *testing.T) {
	zephyr.SetConfig(zephyr.Config{TxValidityThreshold: 0.5})
	defer zephyr.SetConfig(zephyr.Config{TxValidityThreshold: 1})

	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()

	valid := e.transfer(e.key, recvAddr, 10, 0)
	invalid := plainTransfer(e.addr, recvAddr, 10, 9)
	invalid2 := plainTransfer(e.addr, recvAddr, 20, 9)

	// one of two valid meets the halved threshold
	b := e.sign(buildChild(parent, tx.Transactions{valid, invalid}))
	require.NoError(t, cons.ValidateBlock(b, parent))

	// one of three does not
	b = e.sign(buildChild(parent, tx.Transactions{valid, invalid, invalid2}))
	err := cons.ValidateBlock(b, parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "validity below threshold")
}

func TestValidateBlockSchedule(t *testing.T) {
	e := newTestEnv(t)

	lgr, err := staking.NewLedger(e.store, e.rt)
	require.NoError(t, err)
	keys := make([]*ecdsa.PrivateKey, 3)
	for i := range keys {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		keys[i] = key

		addr := zephyr.AddressFromPublicKey(&key.PublicKey)
		acc := state.NewAccount(addr)
		acc.Balance = uint256.NewInt(5000)
		require.NoError(t, e.st.UpdateAccounts(acc))
		require.NoError(t, lgr.Stake(addr, uint256.NewInt(2000), 0))
	}
	cons := e.gate(Options{Stake: lgr})
	parent := e.genesis.Header()

	// every staked validator appears in the sequence
	b := buildChild(parent, nil)
	sig, err := cry.Sign(b.Header().SigningHash(), keys[0])
	require.NoError(t, err)
	require.NoError(t, cons.ValidateBlock(b.WithSignature(sig), parent))

	// a funded outsider does not
	err = cons.ValidateBlock(e.sign(buildChild(parent, nil)), parent)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "signer unscheduled")
}

func TestValidateBlockEmptyLedger(t *testing.T) {
	e := newTestEnv(t)
	lgr, err := staking.NewLedger(e.store, e.rt)
	require.NoError(t, err)
	cons := e.gate(Options{Stake: lgr})
	parent := e.genesis.Header()

	// with nothing staked the gate falls back to signature checks alone
	require.NoError(t, cons.ValidateBlock(e.sign(buildChild(parent, nil)), parent))
}

type stubWriter struct {
	got *block.Block
	err error
}

func (w *stubWriter) AddBlock(b *block.Block) error {
	if w.err != nil {
		return w.err
	}
	w.got = b
	return nil
}

func TestCommitBlock(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})
	parent := e.genesis.Header()
	w := &stubWriter{}

	err := cons.CommitBlock(w, buildChild(parent, nil))
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "signer unavailable")
	assert.Nil(t, w.got)

	rootless := e.sign(new(block.Builder).
		Height(1).
		Timestamp(parent.Timestamp() + zephyr.BlockInterval()).
		ParentHash(parent.Hash()).
		Build())
	err = cons.CommitBlock(w, rootless)
	assert.True(t, IsCritical(err))
	assert.Contains(t, err.Error(), "state root missing")
	assert.Nil(t, w.got)

	b := e.sign(buildChild(parent, nil))
	w.err = errors.New("disk full")
	assert.EqualError(t, cons.CommitBlock(w, b), "disk full")

	w.err = nil
	require.NoError(t, cons.CommitBlock(w, b))
	assert.Equal(t, b.Hash(), w.got.Hash())
}

func TestCommitBlockToChain(t *testing.T) {
	e := newTestEnv(t)
	cons := e.gate(Options{})

	c, err := chain.New(e.store, e.st, e.genesis, chain.Options{Gate: cons})
	require.NoError(t, err)

	trx := e.transfer(e.key, recvAddr, 30, 0)
	require.NoError(t, e.rt.ApplyTransaction(trx))
	root := e.st.StateRoot()
	require.NoError(t, e.rt.RevertTransaction(trx))

	b := e.sign(new(block.Builder).
		Height(1).
		Timestamp(e.genesis.Header().Timestamp() + zephyr.BlockInterval()).
		ParentHash(e.genesis.Hash()).
		StateRoot(root).
		Transactions(tx.Transactions{trx}).
		Build())

	require.NoError(t, cons.CommitBlock(c, b))
	assert.Equal(t, uint64(1), c.Height())
	assert.Equal(t, b.Hash(), c.BestBlock().Hash())

	acc, err := e.st.GetAccount(recvAddr)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(30), acc.Balance)

	// recommitting the same block is refused by the manager
	assert.Error(t, cons.CommitBlock(c, b))
}
