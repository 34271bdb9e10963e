// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync"
)

// Waiter exposes the channel to receive on. A true value means a one-shot
// signal, false a broadcast.
type Waiter interface {
	C() <-chan bool
}

// Signal is a channel-backed rendezvous for goroutines announcing and
// awaiting an event. Unlike sync.Cond it can take part in select.
type Signal struct {
	mu sync.Mutex
	ch chan bool
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan bool, 1)
	}
}

// Signal wakes one waiting goroutine, if any. It never blocks.
func (s *Signal) Signal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.init()
	select {
	case s.ch <- true:
	default:
	}
}

// Broadcast wakes every waiting goroutine.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.init()
	close(s.ch)
	s.ch = make(chan bool, 1)
}

// NewWaiter returns a reusable Waiter bound to s. C may be called across
// loop iterations; a broadcast that happened since the previous call is
// still observed, not skipped.
func (s *Signal) NewWaiter() Waiter {
	s.mu.Lock()
	s.init()
	ref := s.ch
	s.mu.Unlock()

	return waiterFunc(func() <-chan bool {
		cur := ref

		s.mu.Lock()
		ref = s.ch
		s.mu.Unlock()

		return cur
	})
}

type waiterFunc func() <-chan bool

func (w waiterFunc) C() <-chan bool {
	return w()
}
