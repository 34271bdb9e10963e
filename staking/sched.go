// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"bytes"
	"encoding/binary"
	"math"
	"math/rand"
	"slices"

	"github.com/memaxo/zephyr/zephyr"
)

type schedEntry struct {
	address zephyr.Address
	weight  float64
	hash    zephyr.Bytes32
	online  bool
	score   float64
}

// Schedule returns the proposer sequence for the block at the given height,
// derived deterministically from the parent block hash. Every node with the
// same staking book computes the same sequence. The first entry is the
// scheduled proposer; later entries are fallbacks ranked by priority.
func (l *Ledger) Schedule(parentHash zephyr.Bytes32, height uint64) ([]zephyr.Address, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	var num [8]byte
	binary.BigEndian.PutUint64(num[:], height)

	// Shuffle the whole leader group with the seed, offline entries included,
	// so that every node draws the random sequence in the same order.
	shuffled := make([]schedEntry, 0, l.ranked.Count())
	for _, e := range l.ranked.All() {
		v := e.Value
		shuffled = append(shuffled, schedEntry{
			address: v.Address,
			weight:  e.Weight,
			online:  v.Online,
			hash:    zephyr.Blake2b(parentHash.Bytes(), num[:], v.Address.Bytes()),
		})
	}
	if len(shuffled) == 0 {
		return nil, ErrNoLeaders
	}
	slices.SortStableFunc(shuffled, func(a, b schedEntry) int {
		return bytes.Compare(a.hash.Bytes(), b.hash.Bytes())
	})

	hashedSeed := zephyr.Blake2b(parentHash.Bytes(), num[:])
	pseudoRND := rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(hashedSeed[:8]))))

	// Weighted sampling by the exponential distribution method: draw one
	// random number per shuffled entry from the shared source, then keep the
	// online entries scored by weight.
	sequence := make([]schedEntry, 0, len(shuffled))
	for _, entry := range shuffled {
		random := pseudoRND.Float64()
		if entry.online && entry.weight > 0 {
			entry.score = math.Pow(random, 1.0/entry.weight)
			sequence = append(sequence, entry)
		}
	}
	if len(sequence) == 0 {
		return nil, ErrNoLeaders
	}

	slices.SortStableFunc(sequence, func(a, b schedEntry) int {
		if a.score < b.score {
			return 1
		} else if a.score > b.score {
			return -1
		}
		return 0
	})

	addrs := make([]zephyr.Address, len(sequence))
	for i, entry := range sequence {
		addrs[i] = entry.address
	}
	return addrs, nil
}

// PickProposer returns the scheduled proposer for the block at the given
// height.
func (l *Ledger) PickProposer(parentHash zephyr.Bytes32, height uint64) (zephyr.Address, error) {
	sequence, err := l.Schedule(parentHash, height)
	if err != nil {
		return zephyr.Address{}, err
	}
	return sequence[0], nil
}

// IsScheduled reports whether the proposer appears anywhere in the sequence
// for the block at the given height, meaning it is entitled to propose once
// the leaders ahead of it have passed.
func (l *Ledger) IsScheduled(parentHash zephyr.Bytes32, height uint64, proposer zephyr.Address) (bool, error) {
	sequence, err := l.Schedule(parentHash, height)
	if err != nil {
		return false, err
	}
	for _, addr := range sequence {
		if addr == proposer {
			return true, nil
		}
	}
	return false, nil
}
