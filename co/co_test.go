// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/radicle-dev/radicle-registry/co"
)

func TestGoes(t *testing.T) {
	var g co.Goes
	var n int32
	for i := 0; i < 10; i++ {
		g.Go(func() { atomic.AddInt32(&n, 1) })
	}
	<-g.Done()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
}

func TestSignalBroadcast(t *testing.T) {
	var sig co.Signal

	var g co.Goes
	var woken int32
	for i := 0; i < 5; i++ {
		w := sig.NewWaiter()
		g.Go(func() {
			<-w.C()
			atomic.AddInt32(&woken, 1)
		})
	}

	// waiters registered before the broadcast all wake up
	time.Sleep(10 * time.Millisecond)
	sig.Broadcast()
	<-g.Done()
	assert.Equal(t, int32(5), atomic.LoadInt32(&woken))
}

func TestSignalWaiterSeesLaterEpochs(t *testing.T) {
	var sig co.Signal
	w := sig.NewWaiter()

	sig.Broadcast()
	select {
	case <-w.C():
	case <-time.After(time.Second):
		t.Fatal("waiter missed broadcast")
	}

	// the same waiter can wait for the next event
	done := make(chan struct{})
	go func() {
		<-w.C()
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)
	sig.Broadcast()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter missed second broadcast")
	}
}
