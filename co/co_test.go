// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignalBroadcast(t *testing.T) {
	var sig Signal

	var woken atomic.Int32
	var goes Goes
	for i := 0; i < 5; i++ {
		w := sig.NewWaiter()
		goes.Go(func() {
			<-w.C()
			woken.Add(1)
		})
	}

	sig.Broadcast()
	goes.Wait()
	assert.Equal(t, int32(5), woken.Load())
}

func TestSignalSignal(t *testing.T) {
	var sig Signal

	w := sig.NewWaiter()
	sig.Signal()

	select {
	case v := <-w.C():
		assert.True(t, v)
	case <-time.After(time.Second):
		t.Fatal("no signal received")
	}
}

func TestGoes(t *testing.T) {
	var g Goes
	var n atomic.Int32

	for i := 0; i < 10; i++ {
		g.Go(func() { n.Add(1) })
	}

	<-g.Done()
	assert.Equal(t, int32(10), n.Load())
}

func TestParallel(t *testing.T) {
	var n atomic.Int64

	Parallel(func(enqueue Enqueue) {
		for i := 0; i < 100; i++ {
			enqueue(func() { n.Add(1) })
		}
	})

	assert.Equal(t, int64(100), n.Load())
}
