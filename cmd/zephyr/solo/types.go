// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solo

import (
	"crypto/ecdsa"

	"github.com/memaxo/zephyr/zephyr"
)

// Master carries the proposer identity the node packs blocks with.
type Master struct {
	PrivateKey *ecdsa.PrivateKey
}

// Address derives the proposer address from the master key.
func (m *Master) Address() zephyr.Address {
	return zephyr.AddressFromPublicKey(&m.PrivateKey.PublicKey)
}
