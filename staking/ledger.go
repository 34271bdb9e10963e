// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking keeps the validator and delegation books. Stake moves
// are balance conserving transfers between an account and the staking
// pool address, executed through the state transition engine; nothing in
// this package increments a balance on its own.
package staking

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/runtime"
	"github.com/memaxo/zephyr/w8cache"
	"github.com/memaxo/zephyr/zephyr"
)

var logger = log.WithContext("pkg", "staking")

const (
	validatorBucket  kv.Bucket = "stk.v"
	delegationBucket kv.Bucket = "stk.d"
	cooldownBucket   kv.Bucket = "stk.c"
)

var (
	// ErrValidatorNotFound no validator registered at the address.
	ErrValidatorNotFound = errors.New("validator not found")
	// ErrDelegationNotFound the delegator has no delegation.
	ErrDelegationNotFound = errors.New("delegation not found")
	// ErrDelegatedElsewhere the delegator already backs another validator.
	ErrDelegatedElsewhere = errors.New("already delegating to another validator")
	// ErrBelowMinStake the initial stake is below the configured minimum.
	ErrBelowMinStake = errors.New("stake below minimum")
	// ErrInsufficientStake the staked amount is less than requested.
	ErrInsufficientStake = errors.New("insufficient staked amount")
	// ErrNoLeaders the leader group is empty.
	ErrNoLeaders = errors.New("no eligible validators")
)

// Engine is the slice of the state transition engine the ledger drives
// its balance moves through.
type Engine interface {
	Transfer(from, to zephyr.Address, amount *uint256.Int) error
	CreditBalance(addr zephyr.Address, amount *uint256.Int) error
}

var _ Engine = (*runtime.Runtime)(nil)

// Ledger is the kv persisted staking book: validators, delegations and
// the cooldown queue, plus the ranked leader group derived from them.
type Ledger struct {
	engine Engine
	vals   kv.Store
	dels   kv.Store
	cools  kv.Store

	lock        sync.RWMutex
	validators  map[zephyr.Address]*Validator
	delegations map[zephyr.Address]*Delegation
	ranked      *w8cache.W8Cache[zephyr.Address, *Validator]
}

// NewLedger opens the staking book over the given store, loading all
// persisted rows.
func NewLedger(store kv.Store, engine Engine) (*Ledger, error) {
	l := &Ledger{
		engine:      engine,
		vals:        validatorBucket.NewStore(store),
		dels:        delegationBucket.NewStore(store),
		cools:       cooldownBucket.NewStore(store),
		validators:  make(map[zephyr.Address]*Validator),
		delegations: make(map[zephyr.Address]*Delegation),
	}
	l.ranked = w8cache.New(zephyr.MaxValidatorSlots(), func(e *w8cache.Entry[zephyr.Address, *Validator]) {
		logger.Info("validator left the leader group", "addr", e.Key, "weight", e.Weight)
	})

	iter := l.vals.Iterate(kv.Range{})
	for iter.Next() {
		var v Validator
		if err := rlp.DecodeBytes(iter.Value(), &v); err != nil {
			iter.Release()
			return nil, errors.Wrap(err, "decode validator row")
		}
		l.validators[v.Address] = &v
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "load validators")
	}

	iter = l.dels.Iterate(kv.Range{})
	for iter.Next() {
		var d Delegation
		if err := rlp.DecodeBytes(iter.Value(), &d); err != nil {
			iter.Release()
			return nil, errors.Wrap(err, "decode delegation row")
		}
		l.delegations[d.Delegator] = &d
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "load delegations")
	}

	for _, v := range l.validators {
		l.reRank(v)
	}
	metricValidatorCount().Set(int64(len(l.validators)))
	return l, nil
}

// Stake locks amount of addr's balance into the pool, registering addr
// as a validator on first stake.
func (l *Ledger) Stake(addr zephyr.Address, amount *uint256.Int, height uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[addr]
	if v == nil && amount.LtUint64(zephyr.MinValidatorStake()) {
		return errors.WithMessagef(ErrBelowMinStake, "validator %v: min %d", addr, zephyr.MinValidatorStake())
	}

	current := new(uint256.Int)
	if v != nil {
		current.Set(v.Stake)
	}
	newStake, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return errors.WithMessagef(runtime.ErrBalanceOverflow, "stake %v", addr)
	}

	if err := l.engine.Transfer(addr, zephyr.StakingPoolAddress, amount); err != nil {
		return err
	}

	if v == nil {
		v = newValidator(addr, height)
		l.validators[addr] = v
		metricValidatorCount().Set(int64(len(l.validators)))
	}
	v.Stake = newStake
	if err := l.saveValidator(v); err != nil {
		return err
	}
	l.reRank(v)
	addStakedMetric(amount)
	return nil
}

// Unstake moves amount of the validator's stake into the cooldown queue.
// The amount stays in the pool until Withdraw releases it.
func (l *Ledger) Unstake(addr zephyr.Address, amount *uint256.Int, height uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[addr]
	if v == nil {
		return errors.WithMessagef(ErrValidatorNotFound, "unstake %v", addr)
	}
	if v.Stake.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientStake, "unstake %v: staked %v, requested %v", addr, v.Stake, amount)
	}

	v.Stake.Sub(v.Stake, amount)
	if err := l.saveValidator(v); err != nil {
		return err
	}
	if err := l.addCooldown(addr, amount, height+uint64(zephyr.CooldownPeriod())); err != nil {
		return err
	}
	l.reRank(v)
	return nil
}

// Delegate locks amount of the delegator's balance into the pool,
// assigning it to the validator's weight.
func (l *Ledger) Delegate(delegator, validator zephyr.Address, amount *uint256.Int, height uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[validator]
	if v == nil {
		return errors.WithMessagef(ErrValidatorNotFound, "delegate to %v", validator)
	}

	d := l.delegations[delegator]
	if d != nil && d.Validator != validator {
		return errors.WithMessagef(ErrDelegatedElsewhere, "delegator %v backs %v", delegator, d.Validator)
	}
	if d == nil && amount.LtUint64(zephyr.MinDelegationStake()) {
		return errors.WithMessagef(ErrBelowMinStake, "delegator %v: min %d", delegator, zephyr.MinDelegationStake())
	}

	current := new(uint256.Int)
	if d != nil {
		current.Set(d.Amount)
	}
	newAmount, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return errors.WithMessagef(runtime.ErrBalanceOverflow, "delegate %v", delegator)
	}

	if err := l.engine.Transfer(delegator, zephyr.StakingPoolAddress, amount); err != nil {
		return err
	}

	if d == nil {
		d = &Delegation{
			Delegator:   delegator,
			Validator:   validator,
			Amount:      new(uint256.Int),
			StartHeight: height,
		}
		l.delegations[delegator] = d
	}
	d.Amount = newAmount
	if err := l.saveDelegation(d); err != nil {
		return err
	}
	l.reRank(v)
	addStakedMetric(amount)
	return nil
}

// Undelegate moves amount of the delegation into the cooldown queue.
func (l *Ledger) Undelegate(delegator zephyr.Address, amount *uint256.Int, height uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	d := l.delegations[delegator]
	if d == nil {
		return errors.WithMessagef(ErrDelegationNotFound, "undelegate %v", delegator)
	}
	if d.Amount.Lt(amount) {
		return errors.WithMessagef(ErrInsufficientStake, "undelegate %v: delegated %v, requested %v", delegator, d.Amount, amount)
	}

	d.Amount.Sub(d.Amount, amount)
	if d.Amount.IsZero() {
		delete(l.delegations, delegator)
		if err := l.dels.Delete(d.Delegator[:]); err != nil {
			return errors.Wrap(err, "delete delegation row")
		}
	} else if err := l.saveDelegation(d); err != nil {
		return err
	}

	if err := l.addCooldown(delegator, amount, height+uint64(zephyr.CooldownPeriod())); err != nil {
		return err
	}
	if v := l.validators[d.Validator]; v != nil {
		l.reRank(v)
	}
	return nil
}

// Withdraw releases every cooldown entry of addr matured at the given
// height back to the account. It returns the amount released.
func (l *Ledger) Withdraw(addr zephyr.Address, height uint64) (*uint256.Int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	var (
		total = new(uint256.Int)
		keys  [][]byte
	)
	iter := l.cools.Iterate(kv.Range{
		Start: addr[:],
		Limit: cooldownKey(addr, height+1),
	})
	for iter.Next() {
		var amount uint256.Int
		if err := rlp.DecodeBytes(iter.Value(), &amount); err != nil {
			iter.Release()
			return nil, errors.Wrap(err, "decode cooldown row")
		}
		total.Add(total, &amount)
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "scan cooldown queue")
	}

	if total.IsZero() {
		return total, nil
	}
	if err := l.engine.Transfer(zephyr.StakingPoolAddress, addr, total); err != nil {
		return nil, err
	}
	for _, key := range keys {
		if err := l.cools.Delete(key); err != nil {
			return nil, errors.Wrap(err, "delete cooldown row")
		}
	}
	subStakedMetric(total)
	return total, nil
}

// PendingCooldown sums addr's not yet withdrawn cooldown entries,
// matured or not.
func (l *Ledger) PendingCooldown(addr zephyr.Address) (*uint256.Int, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	total := new(uint256.Int)
	iter := l.cools.Iterate(kv.Range{
		Start: addr[:],
		Limit: cooldownKey(addr, ^uint64(0)),
	})
	for iter.Next() {
		var amount uint256.Int
		if err := rlp.DecodeBytes(iter.Value(), &amount); err != nil {
			iter.Release()
			return nil, errors.Wrap(err, "decode cooldown row")
		}
		total.Add(total, &amount)
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "scan cooldown queue")
	}
	return total, nil
}

// GetValidator returns a copy of the validator at addr.
func (l *Ledger) GetValidator(addr zephyr.Address) (*Validator, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	v := l.validators[addr]
	if v == nil {
		return nil, false
	}
	return v.Copy(), true
}

// GetDelegation returns a copy of the delegator's delegation.
func (l *Ledger) GetDelegation(delegator zephyr.Address) (*Delegation, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	d := l.delegations[delegator]
	if d == nil {
		return nil, false
	}
	return d.Copy(), true
}

// TotalStake returns the validator's own stake plus all delegated stake.
func (l *Ledger) TotalStake(addr zephyr.Address) (*uint256.Int, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	v := l.validators[addr]
	if v == nil {
		return nil, errors.WithMessagef(ErrValidatorNotFound, "total stake %v", addr)
	}
	return l.totalStake(v), nil
}

// Leaders returns the ranked leader group, heaviest first.
func (l *Ledger) Leaders() []*Validator {
	l.lock.RLock()
	defer l.lock.RUnlock()

	entries := l.ranked.All()
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Weight != entries[j].Weight {
			return entries[i].Weight > entries[j].Weight
		}
		return entries[i].Key.String() < entries[j].Key.String()
	})

	leaders := make([]*Validator, 0, len(entries))
	for _, e := range entries {
		leaders = append(leaders, e.Value.Copy())
	}
	return leaders
}

// SetOnline flags the validator's liveness.
func (l *Ledger) SetOnline(addr zephyr.Address, online bool) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[addr]
	if v == nil {
		return errors.WithMessagef(ErrValidatorNotFound, "set online %v", addr)
	}
	if v.Online == online {
		return nil
	}
	v.Online = online
	return l.saveValidator(v)
}

// RecordProduced credits a produced block to the validator's performance
// average.
func (l *Ledger) RecordProduced(addr zephyr.Address) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[addr]
	if v == nil {
		return errors.WithMessagef(ErrValidatorNotFound, "record produced %v", addr)
	}
	v.recordProduced()
	if err := l.saveValidator(v); err != nil {
		return err
	}
	l.reRank(v)
	return nil
}

// RecordMissed debits a missed slot from the validator's performance
// average.
func (l *Ledger) RecordMissed(addr zephyr.Address) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	v := l.validators[addr]
	if v == nil {
		return errors.WithMessagef(ErrValidatorNotFound, "record missed %v", addr)
	}
	v.recordMissed()
	if err := l.saveValidator(v); err != nil {
		return err
	}
	l.reRank(v)
	return nil
}

func (l *Ledger) totalStake(v *Validator) *uint256.Int {
	total := new(uint256.Int).Set(v.Stake)
	for _, d := range l.delegations {
		if d.Validator == v.Address {
			total.Add(total, d.Amount)
		}
	}
	return total
}

func (l *Ledger) reRank(v *Validator) {
	l.ranked.Set(v.Address, v, v.rankWeight(l.totalStake(v)))
}

func (l *Ledger) saveValidator(v *Validator) error {
	row, err := rlp.EncodeToBytes(v)
	if err != nil {
		return errors.Wrap(err, "encode validator row")
	}
	if err := l.vals.Put(v.Address[:], row); err != nil {
		return errors.Wrap(err, "persist validator row")
	}
	return nil
}

func (l *Ledger) saveDelegation(d *Delegation) error {
	row, err := rlp.EncodeToBytes(d)
	if err != nil {
		return errors.Wrap(err, "encode delegation row")
	}
	if err := l.dels.Put(d.Delegator[:], row); err != nil {
		return errors.Wrap(err, "persist delegation row")
	}
	return nil
}

func (l *Ledger) addCooldown(owner zephyr.Address, amount *uint256.Int, mature uint64) error {
	key := cooldownKey(owner, mature)

	pending := new(uint256.Int).Set(amount)
	if row, err := l.cools.Get(key); err == nil {
		var existing uint256.Int
		if err := rlp.DecodeBytes(row, &existing); err != nil {
			return errors.Wrap(err, "decode cooldown row")
		}
		pending.Add(pending, &existing)
	} else if !l.cools.IsNotFound(err) {
		return errors.Wrap(err, "read cooldown row")
	}

	row, err := rlp.EncodeToBytes(pending)
	if err != nil {
		return errors.Wrap(err, "encode cooldown row")
	}
	if err := l.cools.Put(key, row); err != nil {
		return errors.Wrap(err, "persist cooldown row")
	}
	return nil
}

// cooldownKey is owner address followed by the big endian mature height,
// so a per owner scan yields entries in maturity order.
func cooldownKey(owner zephyr.Address, mature uint64) []byte {
	key := make([]byte, 0, len(owner)+8)
	key = append(key, owner[:]...)
	var be [8]byte
	binary.BigEndian.PutUint64(be[:], mature)
	return append(key, be[:]...)
}
