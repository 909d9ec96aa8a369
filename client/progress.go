// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package client

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/tx"
)

// Status is a station in a transaction's lifecycle.
type Status uint8

const (
	StatusConstructed Status = iota
	StatusSigned
	StatusSubmitted
	// StatusRejected means the transaction failed structural, signature,
	// fee or version checks. Terminal, reported synchronously, nothing
	// was charged.
	StatusRejected
	// StatusAccepted means the transaction was admitted but is not in a
	// block yet.
	StatusAccepted
	// StatusIncluded means the transaction appears in a block; the
	// dispatch result is attached to the event.
	StatusIncluded
	// StatusDropped means the transaction was accepted but will never be
	// included, e.g. its nonce was consumed by another transaction.
	StatusDropped
)

func (s Status) String() string {
	switch s {
	case StatusConstructed:
		return "constructed"
	case StatusSigned:
		return "signed"
	case StatusSubmitted:
		return "submitted"
	case StatusRejected:
		return "rejected"
	case StatusAccepted:
		return "accepted"
	case StatusIncluded:
		return "included"
	case StatusDropped:
		return "dropped"
	}
	return "unknown"
}

// ErrDropped reports a transaction that was accepted but never made it
// into a block. Resubmission is the usual remedy; contrast with an
// included-but-failed receipt, which needs fixed inputs instead.
var ErrDropped = errors.New("transaction dropped without inclusion")

// Event is one lifecycle transition.
type Event struct {
	Status Status
	// dispatch result, set when Status is StatusIncluded
	Receipt *tx.Receipt
	// set when Status is StatusRejected or StatusDropped
	Err error
}

// Progress tracks one submitted transaction through its lifecycle.
//
// Consumers either select on Events or block in Wait. Cancelling a wait
// stops the observer only; the ledger's handling of the transaction is
// unaffected.
type Progress struct {
	trx    *tx.Transaction
	ledger Ledger

	mu      sync.Mutex
	status  Status
	receipt *tx.Receipt
	err     error

	events chan Event
	done   chan struct{}
	stop   chan struct{}
}

func newProgress(trx *tx.Transaction, ledger Ledger) *Progress {
	p := &Progress{
		trx:    trx,
		ledger: ledger,
		status: StatusConstructed,
		// sized for the longest possible transition sequence
		events: make(chan Event, 8),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
	}
	if len(trx.Signature()) > 0 {
		p.advance(StatusSigned, nil, nil)
	}
	return p
}

// Transaction returns the tracked transaction.
func (p *Progress) Transaction() *tx.Transaction {
	return p.trx
}

// Status returns the current lifecycle station.
func (p *Progress) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Events returns the transition stream. The channel is closed after a
// terminal transition.
func (p *Progress) Events() <-chan Event {
	return p.events
}

// Wait blocks until the transaction reaches a terminal state and
// returns its receipt. It returns ErrDropped for a dropped transaction
// and ctx.Err when cancelled.
func (p *Progress) Wait(ctx context.Context) (*tx.Receipt, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.done:
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	return p.receipt, nil
}

// Stop ceases tracking without waiting for a terminal state.
func (p *Progress) Stop() {
	select {
	case <-p.stop:
	default:
		close(p.stop)
	}
}

func (p *Progress) advance(status Status, receipt *tx.Receipt, err error) {
	p.mu.Lock()
	p.status = status
	p.receipt = receipt
	p.err = err
	p.mu.Unlock()

	p.events <- Event{Status: status, Receipt: receipt, Err: err}
	if status == StatusRejected || status == StatusIncluded || status == StatusDropped {
		close(p.events)
		close(p.done)
	}
}

// track watches the chain until the transaction is included or its
// nonce is consumed by another transaction.
func (p *Progress) track() {
	go func() {
		txHash := p.trx.Hash()
		for {
			// arm the waiter before probing, otherwise a block landing
			// between probe and wait would be missed
			waiter := p.ledger.NewBlockWaiter()

			receipt, err := p.ledger.Receipt(txHash)
			if err == nil {
				p.advance(StatusIncluded, receipt, nil)
				return
			}
			if !p.ledger.IsNotFound(err) {
				p.advance(StatusDropped, nil, err)
				return
			}

			origin, err := p.trx.Origin()
			if err == nil {
				acc, err := p.ledger.Account(origin)
				if err == nil && acc.Nonce > p.trx.Nonce() {
					// the nonce moved on; probe once more in case our
					// own inclusion is what moved it
					if receipt, err := p.ledger.Receipt(txHash); err == nil {
						p.advance(StatusIncluded, receipt, nil)
						return
					}
					p.advance(StatusDropped, nil, ErrDropped)
					return
				}
			}

			select {
			case <-p.stop:
				return
			case <-waiter.C():
			}
		}
	}()
}
