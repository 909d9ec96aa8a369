// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package co

import (
	"sync"
)

// Waiter provides a channel to wait on for an event announcement.
type Waiter interface {
	C() <-chan struct{}
}

// Signal is a rendezvous point for goroutines waiting for or announcing
// an event. Unlike sync.Cond it is channel based, so waits compose with
// select and context cancellation.
type Signal struct {
	l  sync.Mutex
	ch chan struct{}
}

func (s *Signal) init() {
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
}

// Broadcast wakes all goroutines waiting on s.
func (s *Signal) Broadcast() {
	s.l.Lock()
	defer s.l.Unlock()

	s.init()
	close(s.ch)
	s.ch = make(chan struct{})
}

// NewWaiter creates a Waiter for receiving broadcasts. Each call to C
// returns the channel of the current epoch; a receive on it completes
// when the next Broadcast happens.
func (s *Signal) NewWaiter() Waiter {
	return waiterFunc(func() <-chan struct{} {
		s.l.Lock()
		defer s.l.Unlock()
		s.init()
		return s.ch
	})
}

type waiterFunc func() <-chan struct{}

func (w waiterFunc) C() <-chan struct{} {
	return w()
}
