// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/memaxo/zephyr/zephyr"
)

// DevAccount account for development.
type DevAccount struct {
	Address    zephyr.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for solo mode.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"284fadb7acc467fbc80a6c542c6661ba08fc82a871b4f5d43dcb62ecb6665781",
		"8fd1196ba868a337119ec29bca2f59080f5c397e5f1896740e37b31d22e86365",
		"6876e589b3d090c71ca08aaeaebb6f5559e809232cc236805915098ab8331252",
		"3ac6b7bdc784772fb5df5d73f50579b9624370a4f03c0c55864dc64fc9410db3",
		"effde44baf5cdab9f1cb62a76c8ab69408ae20ca1ac8f3b2802b3ba763b58e47",
		"030f20f2f7b3047ef8bedee69f7cdd90f611f92f403d11c7eec99b416d215068",
		"eb9bfeb42acbe5e850ec48825c3ea24da2bf14deb83ed04b0c98ef71099d156e",
		"b9c761a374240e64a7bc15218e581f109ef739aeb5c134d864cfb22a0176cf45",
		"32a8b63b2a0c0a2cea450ba22c8a7ffb60b15fd771ac04b8270c502c3ed38a96",
		"425f50cd2594683c6037cdf23d2d27f277a4b37e8674d530e8a5b754ee1830b5",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{zephyr.AddressFromPublicKey(&pk.PublicKey), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet create genesis for solo mode. Every dev account is funded and
// the first one is seeded as validator, so blocks produced with its key
// run the full staked path from the start.
func NewDevnet() *Genesis {
	launchTime := uint64(1735689600) // '2025-01-01T00:00:00Z'

	builder := new(Builder).
		Timestamp(launchTime)
	for _, a := range DevAccounts() {
		builder.Alloc(a.Address, uint256.NewInt(1_000_000_000_000))
	}
	builder.Validator(DevAccounts()[0].Address, uint256.NewInt(1_000_000))

	id, err := builder.ComputeID()
	if err != nil {
		panic(err)
	}
	return &Genesis{builder, id, "devnet"}
}
