// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package cry provides the recoverable signature scheme used to authenticate
// transactions, block headers and state snapshots. Signatures are 65 bytes,
// R || S || V, with V being the recovery id (0 or 1).
package cry

import (
	"crypto/ecdsa"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/zephyr"
)

// Sign signs the given 32-byte message hash, producing a recoverable signature.
func Sign(msgHash zephyr.Bytes32, priv *ecdsa.PrivateKey) ([]byte, error) {
	var key secp256k1.PrivateKey
	if overflow := key.Key.SetByteSlice(priv.D.Bytes()); overflow || key.Key.IsZero() {
		return nil, errors.New("invalid private key")
	}
	defer key.Zero()

	sig := decredecdsa.SignCompact(&key, msgHash.Bytes(), false) // ref uncompressed pubkey
	// move the recovery id to the end
	v := sig[0] - 27
	copy(sig, sig[1:])
	sig[64] = v
	return sig, nil
}

// RecoverPubkey recovers the public key that produced sig over msgHash.
func RecoverPubkey(msgHash zephyr.Bytes32, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != zephyr.SignatureLength {
		return nil, errors.Errorf("invalid signature length %d", len(sig))
	}
	if sig[64] >= 4 {
		return nil, errors.New("invalid signature recovery id")
	}

	// move the recovery id to the front
	compact := make([]byte, zephyr.SignatureLength)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig)

	pub, _, err := decredecdsa.RecoverCompact(compact, msgHash.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "recover pubkey")
	}
	return pub.ToECDSA(), nil
}

// Signer recovers the signing address from the signature over msgHash.
func Signer(msgHash zephyr.Bytes32, sig []byte) (zephyr.Address, error) {
	pub, err := RecoverPubkey(msgHash, sig)
	if err != nil {
		return zephyr.Address{}, err
	}
	return zephyr.AddressFromPublicKey(pub), nil
}

// Verify checks that sig over msgHash was produced by the owner of addr.
func Verify(msgHash zephyr.Bytes32, sig []byte, addr zephyr.Address) bool {
	signer, err := Signer(msgHash, sig)
	if err != nil {
		return false
	}
	return signer == addr
}
