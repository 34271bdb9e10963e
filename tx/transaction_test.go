// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/memaxo/zephyr/cry"
	"github.com/memaxo/zephyr/zephyr"
)

func newTestTx() *Transaction {
	return new(Builder).
		ChainTag(0x5a).
		Sender(zephyr.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")).
		Recipient(zephyr.MustParseAddress("0xd3ae78222beadb038203be21ed5ce7c9b1bff602")).
		Amount(uint256.NewInt(30)).
		Nonce(0).
		Payload([]byte{0x01, 0x02}).
		Build()
}

func TestTransactionFields(t *testing.T) {
	trx := newTestTx()

	assert.Equal(t, byte(0x5a), trx.ChainTag())
	assert.Equal(t, zephyr.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"), trx.Sender())
	assert.Equal(t, zephyr.MustParseAddress("0xd3ae78222beadb038203be21ed5ce7c9b1bff602"), trx.Recipient())
	assert.Equal(t, uint256.NewInt(30), trx.Amount())
	assert.Equal(t, uint64(0), trx.Nonce())
	assert.Equal(t, []byte{0x01, 0x02}, trx.Payload())
	assert.Nil(t, trx.Proof())
	assert.Equal(t, []byte{}, trx.Signature())
	assert.True(t, trx.Size() > 0)
}

func TestTransactionAccessorsCopy(t *testing.T) {
	trx := newTestTx()

	trx.Amount().AddUint64(trx.Amount(), 1)
	assert.Equal(t, uint256.NewInt(30), trx.Amount())

	trx.Payload()[0] = 0xff
	assert.Equal(t, []byte{0x01, 0x02}, trx.Payload())
}

func TestSigning(t *testing.T) {
	priv, _ := crypto.GenerateKey()
	sender := zephyr.AddressFromPublicKey(&priv.PublicKey)

	trx := new(Builder).
		ChainTag(0x5a).
		Sender(sender).
		Recipient(zephyr.BytesToAddress([]byte("recipient"))).
		Amount(uint256.NewInt(100)).
		Nonce(7).
		Build()

	_, err := trx.Signer()
	assert.Error(t, err, "unsigned tx has no signer")

	sig, err := cry.Sign(trx.SigningHash(), priv)
	assert.Nil(t, err)

	signed := trx.WithSignature(sig)
	signer, err := signed.Signer()
	assert.Nil(t, err)
	assert.Equal(t, sender, signer)

	// signing binds the body, not the signature
	assert.Equal(t, trx.SigningHash(), signed.SigningHash())
	assert.NotEqual(t, trx.Hash(), signed.Hash())

	// the original stays unsigned
	assert.Equal(t, []byte{}, trx.Signature())
}

func TestHashDeterminism(t *testing.T) {
	a, b := newTestTx(), newTestTx()
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.SigningHash(), b.SigningHash())

	c := new(Builder).
		ChainTag(0x5a).
		Sender(zephyr.MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed")).
		Recipient(zephyr.MustParseAddress("0xd3ae78222beadb038203be21ed5ce7c9b1bff602")).
		Amount(uint256.NewInt(31)).
		Nonce(0).
		Payload([]byte{0x01, 0x02}).
		Build()
	assert.NotEqual(t, a.Hash(), c.Hash())
}

func TestRLPRoundTrip(t *testing.T) {
	priv, _ := crypto.GenerateKey()

	trx := new(Builder).
		ChainTag(0x5a).
		Sender(zephyr.AddressFromPublicKey(&priv.PublicKey)).
		Recipient(zephyr.BytesToAddress([]byte("r"))).
		Amount(uint256.NewInt(1e9)).
		Nonce(42).
		Payload([]byte("payload")).
		Proof(&Proof{Hash: zephyr.Blake2b([]byte("proof")), Inputs: [][]byte{{1}, {2, 3}}}).
		Build()
	sig, _ := cry.Sign(trx.SigningHash(), priv)
	trx = trx.WithSignature(sig)

	data, err := rlp.EncodeToBytes(trx)
	assert.Nil(t, err)

	var decoded Transaction
	assert.Nil(t, rlp.DecodeBytes(data, &decoded))

	assert.Equal(t, trx.Hash(), decoded.Hash())
	assert.Equal(t, trx.SigningHash(), decoded.SigningHash())
	assert.Equal(t, trx.Amount(), decoded.Amount())
	assert.Equal(t, trx.Nonce(), decoded.Nonce())
	assert.Equal(t, trx.Proof().Hash, decoded.Proof().Hash)
	assert.Equal(t, trx.Proof().Inputs, decoded.Proof().Inputs)

	signer, err := decoded.Signer()
	assert.Nil(t, err)
	assert.Equal(t, zephyr.AddressFromPublicKey(&priv.PublicKey), signer)
}

func TestProofDigest(t *testing.T) {
	p := &Proof{Inputs: [][]byte{[]byte("in0"), []byte("in1")}}
	p.Hash = p.Digest()

	assert.Equal(t, p.Digest(), p.Hash)

	cpy := p.Copy()
	cpy.Inputs[0][0] = 'X'
	assert.NotEqual(t, cpy.Digest(), p.Digest())
	assert.Equal(t, p.Digest(), p.Hash, "copy mutation must not leak back")
}

func TestTransactionsRootHash(t *testing.T) {
	tx1 := newTestTx()
	tx2 := new(Builder).ChainTag(0x5a).Nonce(1).Build()

	txs := Transactions{tx1, tx2}
	root := txs.RootHash()
	assert.NotEqual(t, zephyr.Bytes32{}, root)
	assert.Equal(t, root, txs.Copy().RootHash())

	reordered := Transactions{tx2, tx1}
	assert.NotEqual(t, root, reordered.RootHash())

	assert.NotEqual(t, root, Transactions{tx1}.RootHash())
	assert.NotEqual(t, Transactions{}.RootHash(), root)
}
