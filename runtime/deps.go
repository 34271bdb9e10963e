package runtime

import (
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/zephyr"
)

// Ledger is the account access surface shared by the live state and the
// dry run sandbox. GetAccount returns nil for an absent account.
type Ledger interface {
	GetAccount(zephyr.Address) (*state.Account, error)
	UpdateAccounts(accs ...*state.Account) error
}

// State is the engine's view of the account store.
type State interface {
	Ledger
	StateRoot() zephyr.Bytes32
}

var _ State = (*state.State)(nil)
