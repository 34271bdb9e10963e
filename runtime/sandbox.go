// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/memaxo/zephyr/stackedmap"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Sandbox is a journaled overlay over a live state. Transactions applied
// to it observe each other's effects while the state underneath stays
// untouched, which makes it the dry run surface for block validation and
// proposal.
type Sandbox struct {
	sm *stackedmap.StackedMap[zephyr.Address, *state.Account]
}

// NewSandbox creates a sandbox sourcing missing accounts from l.
func NewSandbox(l Ledger) *Sandbox {
	return &Sandbox{
		sm: stackedmap.New(func(addr zephyr.Address) (*state.Account, bool, error) {
			acc, err := l.GetAccount(addr)
			if err != nil {
				return nil, false, err
			}
			if acc == nil {
				return nil, false, nil
			}
			return acc, true, nil
		}),
	}
}

// GetAccount returns a copy of the overlaid account, or nil if it exists
// neither in the overlay nor underneath.
func (sb *Sandbox) GetAccount(addr zephyr.Address) (*state.Account, error) {
	acc, found, err := sb.sm.Get(addr)
	if err != nil {
		return nil, err
	}
	if !found || acc == nil {
		return nil, nil
	}
	return acc.Copy(), nil
}

// UpdateAccounts writes the accounts into the overlay.
func (sb *Sandbox) UpdateAccounts(accs ...*state.Account) error {
	for _, acc := range accs {
		sb.sm.Put(acc.Address, acc)
	}
	return nil
}

// ApplyTransaction runs the full transaction checks and effects against
// the overlay.
func (sb *Sandbox) ApplyTransaction(trx *tx.Transaction) error {
	return applyTransaction(sb, trx)
}

// Checkpoint marks the current overlay depth.
func (sb *Sandbox) Checkpoint() int {
	return sb.sm.Push()
}

// RevertTo drops every overlay write made since the checkpoint.
func (sb *Sandbox) RevertTo(checkpoint int) {
	sb.sm.PopTo(checkpoint)
}
