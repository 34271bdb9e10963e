// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/memaxo/zephyr/lvldb"
	"github.com/memaxo/zephyr/zephyr"
)

func newTestState(t *testing.T) *State {
	store, err := lvldb.NewMem()
	if err != nil {
		t.Fatal(err)
	}
	return New(store)
}

func TestGetMissingAccount(t *testing.T) {
	st := newTestState(t)

	acc, err := st.GetAccount(zephyr.BytesToAddress([]byte("nobody")))
	assert.Nil(t, err)
	assert.Nil(t, acc)
}

func TestSetGetAccount(t *testing.T) {
	st := newTestState(t)
	addr := zephyr.BytesToAddress([]byte("alice"))

	acc := NewAccount(addr)
	acc.Balance = uint256.NewInt(100)
	acc.Nonce = 3
	assert.Nil(t, st.SetAccount(acc))

	got, err := st.GetAccount(addr)
	assert.Nil(t, err)
	assert.Equal(t, addr, got.Address)
	assert.Equal(t, uint256.NewInt(100), got.Balance)
	assert.Equal(t, uint64(3), got.Nonce)

	// callers get copies
	got.Balance.AddUint64(got.Balance, 1)
	again, _ := st.GetAccount(addr)
	assert.Equal(t, uint256.NewInt(100), again.Balance)
}

func TestUpdateAccounts(t *testing.T) {
	st := newTestState(t)

	a := NewAccount(zephyr.BytesToAddress([]byte("a")))
	a.Balance = uint256.NewInt(70)
	b := NewAccount(zephyr.BytesToAddress([]byte("b")))
	b.Balance = uint256.NewInt(30)

	assert.Nil(t, st.UpdateAccounts(a, b))

	gotA, _ := st.GetAccount(a.Address)
	gotB, _ := st.GetAccount(b.Address)
	assert.Equal(t, uint256.NewInt(70), gotA.Balance)
	assert.Equal(t, uint256.NewInt(30), gotB.Balance)

	// the grouped write lands on the same root as two single writes
	other := newTestState(t)
	assert.Nil(t, other.SetAccount(a))
	assert.Nil(t, other.SetAccount(b))
	assert.Equal(t, other.StateRoot(), st.StateRoot())
}

func TestRemoveAccount(t *testing.T) {
	st := newTestState(t)
	addr := zephyr.BytesToAddress([]byte("bob"))

	acc := NewAccount(addr)
	acc.Balance = uint256.NewInt(42)
	assert.Nil(t, st.SetAccount(acc))

	rootBefore := st.StateRoot()

	assert.Nil(t, st.RemoveAccount(addr))
	got, err := st.GetAccount(addr)
	assert.Nil(t, err)
	assert.Nil(t, got)
	assert.NotEqual(t, rootBefore, st.StateRoot())

	// removing an absent account is a no-op
	assert.Nil(t, st.RemoveAccount(addr))
}

func TestStateRoot(t *testing.T) {
	a, b := newTestState(t), newTestState(t)
	assert.Equal(t, a.StateRoot(), b.StateRoot(), "empty states share a root")

	addr1 := zephyr.BytesToAddress([]byte("a1"))
	addr2 := zephyr.BytesToAddress([]byte("a2"))

	acc1 := NewAccount(addr1)
	acc1.Balance = uint256.NewInt(1)
	acc2 := NewAccount(addr2)
	acc2.Balance = uint256.NewInt(2)

	assert.Nil(t, a.SetAccount(acc1))
	assert.Nil(t, a.SetAccount(acc2))

	assert.Nil(t, b.SetAccount(acc2))
	assert.Nil(t, b.SetAccount(acc1))

	assert.Equal(t, a.StateRoot(), b.StateRoot(), "root is insertion order independent")

	acc1.Balance = uint256.NewInt(9)
	assert.Nil(t, a.SetAccount(acc1))
	assert.NotEqual(t, a.StateRoot(), b.StateRoot())
}

func TestAccountProof(t *testing.T) {
	st := newTestState(t)
	addr := zephyr.BytesToAddress([]byte("carol"))

	acc := NewAccount(addr)
	acc.Balance = uint256.NewInt(77)
	acc.Nonce = 1
	assert.Nil(t, st.SetAccount(acc))

	root := st.StateRoot()
	proof, ok := st.ProveAccount(addr)
	assert.True(t, ok)

	assert.True(t, VerifyAccountProof(root, acc, proof))

	// a claim about a different balance must fail
	forged := acc.Copy()
	forged.Balance = uint256.NewInt(1000000)
	assert.False(t, VerifyAccountProof(root, forged, proof))

	// or a different nonce
	forged = acc.Copy()
	forged.Nonce = 0
	assert.False(t, VerifyAccountProof(root, forged, proof))

	// stale proof against a new root
	acc.Balance = uint256.NewInt(78)
	assert.Nil(t, st.SetAccount(acc))
	assert.False(t, VerifyAccountProof(st.StateRoot(), acc, proof))
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, err := lvldb.NewMem()
	assert.Nil(t, err)
	st := New(store)

	for i := byte(0); i < 20; i++ {
		acc := NewAccount(zephyr.BytesToAddress([]byte{'a', i}))
		acc.Balance = uint256.NewInt(uint64(i) * 10)
		acc.Nonce = uint64(i)
		assert.Nil(t, st.SetAccount(acc))
	}
	root := st.StateRoot()

	accountsBlob, err := st.Serialize()
	assert.Nil(t, err)
	trieBlob := st.SerializeTrie()

	restored, err := Restore(store, accountsBlob, trieBlob)
	assert.Nil(t, err)
	assert.Equal(t, root, restored.StateRoot())

	for i := byte(0); i < 20; i++ {
		acc, err := restored.GetAccount(zephyr.BytesToAddress([]byte{'a', i}))
		assert.Nil(t, err)
		assert.Equal(t, uint256.NewInt(uint64(i)*10), acc.Balance)
		assert.Equal(t, uint64(i), acc.Nonce)
	}
}

func TestRestoreInconsistent(t *testing.T) {
	store, err := lvldb.NewMem()
	assert.Nil(t, err)
	st := New(store)

	acc := NewAccount(zephyr.BytesToAddress([]byte("dave")))
	acc.Balance = uint256.NewInt(5)
	assert.Nil(t, st.SetAccount(acc))

	accountsBlob, err := st.Serialize()
	assert.Nil(t, err)
	trieBlob := st.SerializeTrie()

	// account blob from a different state
	other := newTestState(t)
	otherAcc := NewAccount(zephyr.BytesToAddress([]byte("mallory")))
	otherAcc.Balance = uint256.NewInt(9999)
	assert.Nil(t, other.SetAccount(otherAcc))
	otherBlob, err := other.Serialize()
	assert.Nil(t, err)

	_, err = Restore(store, otherBlob, trieBlob)
	assert.ErrorIs(t, err, ErrInconsistent)

	// garbage blobs
	_, err = Restore(store, []byte{0xff}, trieBlob)
	assert.Error(t, err)
	_, err = Restore(store, accountsBlob, []byte{0xff})
	assert.Error(t, err)
}

func TestAccountCodec(t *testing.T) {
	acc := NewAccount(zephyr.BytesToAddress([]byte("x")))
	acc.Balance = uint256.NewInt(123456789)
	acc.Nonce = 42

	row, err := encodeAccount(acc)
	assert.Nil(t, err)

	decoded, err := decodeAccount(row)
	assert.Nil(t, err)
	assert.Equal(t, acc.Address, decoded.Address)
	assert.Equal(t, acc.Balance, decoded.Balance)
	assert.Equal(t, acc.Nonce, decoded.Nonce)

	_, err = decodeAccount([]byte{0xff, 0x00})
	assert.Error(t, err)
}
