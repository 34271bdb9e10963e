package runtime

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/block"
	"github.com/memaxo/zephyr/state"
	"github.com/memaxo/zephyr/tx"
	"github.com/memaxo/zephyr/zephyr"
)

// Runtime is the state transition engine. It applies and reverts
// transactions and whole blocks against the account state.
//
// The engine itself does no locking. Callers serialize commits, so a
// block's worth of application, root recomputation and persistence runs
// as one exclusive section.
type Runtime struct {
	state State
}

// New creates a Runtime over the given state.
func New(state State) *Runtime {
	return &Runtime{state: state}
}

func (rt *Runtime) State() State { return rt.state }

// Sandbox creates a dry run overlay over the engine's state.
func (rt *Runtime) Sandbox() *Sandbox {
	return NewSandbox(rt.state)
}

// ApplyTransaction debits the sender, credits the recipient and bumps the
// sender's nonce. Both accounts are persisted as one logical update.
func (rt *Runtime) ApplyTransaction(trx *tx.Transaction) error {
	return applyTransaction(rt.state, trx)
}

func applyTransaction(l Ledger, trx *tx.Transaction) error {
	sender, recipient := trx.Sender(), trx.Recipient()
	if sender == recipient {
		return errors.WithMessagef(ErrSameSenderRecipient, "tx %v", trx.Hash())
	}

	senderAcc, err := l.GetAccount(sender)
	if err != nil {
		return err
	}
	if senderAcc == nil {
		return errors.WithMessagef(ErrSenderNotFound, "tx %v: %v", trx.Hash(), sender)
	}
	recipientAcc, err := l.GetAccount(recipient)
	if err != nil {
		return err
	}
	if recipientAcc == nil {
		return errors.WithMessagef(ErrRecipientNotFound, "tx %v: %v", trx.Hash(), recipient)
	}

	amount := trx.Amount()
	if senderAcc.Balance.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientBalance, "tx %v: balance %v, amount %v", trx.Hash(), senderAcc.Balance, amount)
	}
	if trx.Nonce() != senderAcc.Nonce {
		return errors.WithMessagef(ErrInvalidTxNonce, "tx %v: want %d, have %d", trx.Hash(), senderAcc.Nonce, trx.Nonce())
	}

	senderAcc.Balance.Sub(senderAcc.Balance, amount)
	if _, overflow := recipientAcc.Balance.AddOverflow(recipientAcc.Balance, amount); overflow {
		return errors.WithMessagef(ErrBalanceOverflow, "tx %v: recipient %v", trx.Hash(), recipient)
	}
	senderAcc.Nonce++

	return l.UpdateAccounts(senderAcc, recipientAcc)
}

// RevertTransaction is the exact inverse of ApplyTransaction. It is only
// meant to undo a previously applied transaction and performs no validity
// checks beyond what the inverse arithmetic requires.
func (rt *Runtime) RevertTransaction(trx *tx.Transaction) error {
	sender, recipient := trx.Sender(), trx.Recipient()

	senderAcc, err := rt.state.GetAccount(sender)
	if err != nil {
		return err
	}
	if senderAcc == nil {
		return errors.WithMessagef(ErrSenderNotFound, "revert tx %v: %v", trx.Hash(), sender)
	}
	recipientAcc, err := rt.state.GetAccount(recipient)
	if err != nil {
		return err
	}
	if recipientAcc == nil {
		return errors.WithMessagef(ErrRecipientNotFound, "revert tx %v: %v", trx.Hash(), recipient)
	}

	amount := trx.Amount()
	if recipientAcc.Balance.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientBalance, "revert tx %v: recipient balance %v, amount %v", trx.Hash(), recipientAcc.Balance, amount)
	}
	if senderAcc.Nonce == 0 {
		return errors.WithMessagef(ErrNonceUnderflow, "revert tx %v: sender %v", trx.Hash(), sender)
	}

	recipientAcc.Balance.Sub(recipientAcc.Balance, amount)
	if _, overflow := senderAcc.Balance.AddOverflow(senderAcc.Balance, amount); overflow {
		return errors.WithMessagef(ErrBalanceOverflow, "revert tx %v: sender %v", trx.Hash(), sender)
	}
	senderAcc.Nonce--

	return rt.state.UpdateAccounts(senderAcc, recipientAcc)
}

// ApplyBlock applies every transaction of the block in order and checks
// the resulting state root against the root the block declares.
//
// On any failure the applied prefix is synchronously reverted, so callers
// never observe partially applied state.
func (rt *Runtime) ApplyBlock(b *block.Block) error {
	txs := b.Transactions()
	for i, trx := range txs {
		if err := rt.ApplyTransaction(trx); err != nil {
			if rerr := rt.revertTxs(txs[:i]); rerr != nil {
				return errors.WithMessagef(state.ErrInconsistent, "block #%d rollback: %v", b.Header().Height(), rerr)
			}
			return &StateUpdateError{TxHash: trx.Hash(), Err: err}
		}
	}

	if root := rt.state.StateRoot(); root != b.Header().StateRoot() {
		declared := b.Header().StateRoot()
		if rerr := rt.revertTxs(txs); rerr != nil {
			return errors.WithMessagef(state.ErrInconsistent, "block #%d rollback: %v", b.Header().Height(), rerr)
		}
		return errors.WithMessagef(ErrStateRootMismatch, "block #%d: declared %v, computed %v", b.Header().Height(), declared, root)
	}
	return nil
}

// RevertBlock reverts all of the block's transactions in reverse order,
// restoring the pre block state exactly.
func (rt *Runtime) RevertBlock(b *block.Block) error {
	return rt.revertTxs(b.Transactions())
}

func (rt *Runtime) revertTxs(txs tx.Transactions) error {
	for i := len(txs) - 1; i >= 0; i-- {
		if err := rt.RevertTransaction(txs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Transfer moves amount between two accounts as one balance conserving
// update. Nonces are untouched. The receiving account is created on
// first credit.
func (rt *Runtime) Transfer(from, to zephyr.Address, amount *uint256.Int) error {
	if from == to {
		return errors.WithMessagef(ErrSameSenderRecipient, "transfer from %v", from)
	}

	fromAcc, err := rt.state.GetAccount(from)
	if err != nil {
		return err
	}
	if fromAcc == nil {
		return errors.WithMessagef(ErrSenderNotFound, "transfer from %v", from)
	}
	if fromAcc.Balance.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientBalance, "transfer from %v: balance %v, amount %v", from, fromAcc.Balance, amount)
	}

	toAcc, err := rt.state.GetAccount(to)
	if err != nil {
		return err
	}
	if toAcc == nil {
		toAcc = state.NewAccount(to)
	}

	fromAcc.Balance.Sub(fromAcc.Balance, amount)
	if _, overflow := toAcc.Balance.AddOverflow(toAcc.Balance, amount); overflow {
		return errors.WithMessagef(ErrBalanceOverflow, "transfer to %v", to)
	}

	return rt.state.UpdateAccounts(fromAcc, toAcc)
}

// CreditBalance mints amount onto the account at addr, creating it on
// first credit. Reward distribution goes through here.
func (rt *Runtime) CreditBalance(addr zephyr.Address, amount *uint256.Int) error {
	acc, err := rt.state.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		acc = state.NewAccount(addr)
	}
	if _, overflow := acc.Balance.AddOverflow(acc.Balance, amount); overflow {
		return errors.WithMessagef(ErrBalanceOverflow, "credit %v", addr)
	}
	return rt.state.UpdateAccounts(acc)
}

// DebitBalance burns amount from the account at addr. It is the inverse
// of CreditBalance, used to unwind minted credits when a commit fails
// after distribution.
func (rt *Runtime) DebitBalance(addr zephyr.Address, amount *uint256.Int) error {
	acc, err := rt.state.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return errors.WithMessagef(ErrSenderNotFound, "debit %v", addr)
	}
	if acc.Balance.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientBalance, "debit %v: balance %v, amount %v", addr, acc.Balance, amount)
	}
	acc.Balance.Sub(acc.Balance, amount)
	return rt.state.UpdateAccounts(acc)
}
