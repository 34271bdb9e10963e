// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the account based world state.
//
// Every mutation is write-through: the per-account row store, the caches
// and the account trie are updated together, so the state root always
// reflects the latest committed account set.
package state

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/memaxo/zephyr/cache"
	"github.com/memaxo/zephyr/kv"
	"github.com/memaxo/zephyr/log"
	"github.com/memaxo/zephyr/trie"
	"github.com/memaxo/zephyr/zephyr"
)

var logger = log.WithContext("pkg", "state")

const (
	accountBucket kv.Bucket = "st.acc"

	accountCacheSize = 2048
	rowCacheBytes    = 4 * 1024 * 1024
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// ErrInconsistent marks a divergence between the account rows and the
// account trie.
var ErrInconsistent = errors.New("inconsistent state")

// State is the cached, persistent account store committing to a trie root.
type State struct {
	store kv.Store
	trie  *trie.Trie

	lock  sync.RWMutex
	cache *cache.LRU
	rows  *rowCache
	group singleflight.Group
}

// New creates an empty state over the given store.
func New(store kv.Store) *State {
	c, _ := cache.NewLRU(accountCacheSize)
	return &State{
		store: accountBucket.NewStore(store),
		trie:  trie.New(),
		cache: c,
		rows:  newRowCache(rowCacheBytes),
	}
}

// GetAccount returns a copy of the account at addr, or nil if the account
// does not exist.
func (s *State) GetAccount(addr zephyr.Address) (*Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.getAccount(addr)
}

func (s *State) getAccount(addr zephyr.Address) (*Account, error) {
	if cached, ok := s.cache.Get(addr); ok {
		return cached.(*Account).Copy(), nil
	}

	v, err, _ := s.group.Do(string(addr[:]), func() (interface{}, error) {
		if row := s.rows.Get(addr[:]); row != nil {
			return decodeAccount(row)
		}
		row, err := s.store.Get(addr[:])
		if err != nil {
			if s.store.IsNotFound(err) {
				return (*Account)(nil), nil
			}
			return nil, &Error{err}
		}
		s.rows.Set(addr[:], row)
		return decodeAccount(row)
	})
	if err != nil {
		return nil, err
	}

	acc := v.(*Account)
	if acc == nil {
		return nil, nil
	}
	s.cache.Add(addr, acc)
	return acc.Copy(), nil
}

// SetAccount writes the account through to the row store, the caches and
// the trie.
func (s *State) SetAccount(acc *Account) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.put(acc); err != nil {
		return err
	}
	// eagerly re-cache digests, keeping later root reads write-free
	s.trie.Hash()
	return nil
}

// UpdateAccounts writes a group of accounts as one logical update. Readers
// never observe a subset of the group.
func (s *State) UpdateAccounts(accs ...*Account) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, acc := range accs {
		if err := s.put(acc); err != nil {
			return err
		}
	}
	s.trie.Hash()
	return nil
}

func (s *State) put(acc *Account) error {
	row, err := encodeAccount(acc)
	if err != nil {
		return errors.Wrap(err, "encode account")
	}
	if err := s.store.Put(acc.Address[:], row); err != nil {
		return &Error{err}
	}
	s.rows.Set(acc.Address[:], row)
	s.cache.Add(acc.Address, acc.Copy())
	s.trie.Insert(acc.Address[:], row)
	return nil
}

// RemoveAccount deletes the account from the row store, the caches and the
// trie. Removing an absent account is a no-op.
func (s *State) RemoveAccount(addr zephyr.Address) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.store.Delete(addr[:]); err != nil {
		return &Error{err}
	}
	s.rows.Del(addr[:])
	s.cache.Remove(addr)
	if err := s.trie.Remove(addr[:]); err != nil && err != trie.ErrNotFound {
		return err
	}
	s.trie.Hash()
	return nil
}

// StateRoot returns the canonical state fingerprint, the root hash of the
// account trie.
func (s *State) StateRoot() zephyr.Bytes32 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.trie.Hash()
}

// ProveAccount builds an inclusion proof for the account at addr against
// the current state root.
func (s *State) ProveAccount(addr zephyr.Address) ([][]byte, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.trie.Prove(addr[:])
}

// VerifyAccountProof checks an account against a known state root, without
// access to full state.
func VerifyAccountProof(root zephyr.Bytes32, acc *Account, proof [][]byte) bool {
	row, err := encodeAccount(acc)
	if err != nil {
		return false
	}
	return trie.VerifyProof(root, acc.Address[:], row, proof)
}

// Serialize flattens the account set into a blob, ordered by address.
func (s *State) Serialize() ([]byte, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var rows [][]byte
	s.trie.Walk(func(_, value []byte) bool {
		rows = append(rows, append([]byte(nil), value...))
		return true
	})
	return rlp.EncodeToBytes(rows)
}

// SerializeTrie flattens the account trie into a blob.
func (s *State) SerializeTrie() []byte {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.trie.Serialize()
}

// Restore rebuilds a state from the two snapshot blobs produced by
// Serialize and SerializeTrie, verifying they agree with each other.
// The row store is assumed to have been written through at the time the
// snapshot was taken.
func Restore(store kv.Store, accountsBlob, trieBlob []byte) (*State, error) {
	var rows [][]byte
	if err := rlp.DecodeBytes(accountsBlob, &rows); err != nil {
		return nil, errors.Wrap(err, "decode account snapshot")
	}
	tr, err := trie.Deserialize(trieBlob)
	if err != nil {
		return nil, errors.Wrap(err, "decode trie snapshot")
	}

	st := New(store)
	st.trie = tr

	count := 0
	tr.Walk(func(_, _ []byte) bool {
		count++
		return true
	})
	if count != len(rows) {
		return nil, errors.Wrapf(ErrInconsistent, "snapshot holds %d rows, trie %d", len(rows), count)
	}

	for _, row := range rows {
		acc, err := decodeAccount(row)
		if err != nil {
			return nil, errors.Wrap(err, "decode account snapshot")
		}
		stored, ok := tr.Get(acc.Address[:])
		if !ok || !bytes.Equal(stored, row) {
			return nil, errors.Wrapf(ErrInconsistent, "account %v diverges from trie", acc.Address)
		}
		st.cache.Add(acc.Address, acc)
	}
	tr.Hash()

	logger.Info("state restored", "accounts", len(rows), "root", st.trie.Hash().AbbrevString())
	return st, nil
}
