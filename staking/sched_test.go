// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memaxo/zephyr/zephyr"
)

func newSchedLedger(t *testing.T) *Ledger {
	l, _, _ := newTestLedger(t)
	require.NoError(t, l.Stake(val1, u(1000), 1))
	require.NoError(t, l.Stake(val2, u(3000), 1))
	require.NoError(t, l.Stake(val3, u(2000), 1))
	return l
}

func TestScheduleDeterministic(t *testing.T) {
	parent := zephyr.Blake2b([]byte("parent"))

	a := newSchedLedger(t)
	b := newSchedLedger(t)

	seqA, err := a.Schedule(parent, 5)
	require.NoError(t, err)
	seqB, err := b.Schedule(parent, 5)
	require.NoError(t, err)

	require.Len(t, seqA, 3)
	assert.Equal(t, seqA, seqB)
	assert.ElementsMatch(t, []zephyr.Address{val1, val2, val3}, seqA)

	// the same ledger answers the same question the same way
	again, err := a.Schedule(parent, 5)
	require.NoError(t, err)
	assert.Equal(t, seqA, again)
}

func TestScheduleVariesWithSeed(t *testing.T) {
	l := newSchedLedger(t)

	sequences := make(map[zephyr.Address]int)
	for height := uint64(1); height <= 100; height++ {
		seq, err := l.Schedule(zephyr.Blake2b([]byte("parent")), height)
		require.NoError(t, err)
		sequences[seq[0]]++
	}
	// over many heights every validator gets slots, the heaviest most often
	assert.Len(t, sequences, 3)
	assert.Greater(t, sequences[val2], sequences[val1])
}

func TestScheduleSkipsOffline(t *testing.T) {
	l := newSchedLedger(t)
	parent := zephyr.Blake2b([]byte("parent"))

	require.NoError(t, l.SetOnline(val2, false))
	seq, err := l.Schedule(parent, 5)
	require.NoError(t, err)
	assert.NotContains(t, seq, val2)
	assert.Len(t, seq, 2)

	require.NoError(t, l.SetOnline(val1, false))
	require.NoError(t, l.SetOnline(val3, false))
	_, err = l.Schedule(parent, 5)
	assert.ErrorIs(t, err, ErrNoLeaders)
}

func TestScheduleEmpty(t *testing.T) {
	l, _, _ := newTestLedger(t)
	_, err := l.Schedule(zephyr.Blake2b([]byte("parent")), 1)
	assert.ErrorIs(t, err, ErrNoLeaders)
}

func TestPickProposer(t *testing.T) {
	l := newSchedLedger(t)
	parent := zephyr.Blake2b([]byte("parent"))

	seq, err := l.Schedule(parent, 7)
	require.NoError(t, err)
	picked, err := l.PickProposer(parent, 7)
	require.NoError(t, err)
	assert.Equal(t, seq[0], picked)
}

func TestIsScheduled(t *testing.T) {
	l := newSchedLedger(t)
	parent := zephyr.Blake2b([]byte("parent"))

	for _, addr := range []zephyr.Address{val1, val2, val3} {
		ok, err := l.IsScheduled(parent, 3, addr)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.IsScheduled(parent, 3, del1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScheduleReflectsPerformance(t *testing.T) {
	parent := zephyr.Blake2b([]byte("parent"))

	// equal stakes, then tank one validator's performance
	l, _, _ := newTestLedger(t)
	require.NoError(t, l.Stake(val1, u(1000), 1))
	require.NoError(t, l.Stake(val2, u(1000), 1))
	for i := 0; i < 200; i++ {
		require.NoError(t, l.RecordMissed(val1))
	}

	wins := make(map[zephyr.Address]int)
	for height := uint64(1); height <= 100; height++ {
		picked, err := l.PickProposer(parent, height)
		require.NoError(t, err)
		wins[picked]++
	}
	assert.Greater(t, wins[val2], wins[val1])
}
