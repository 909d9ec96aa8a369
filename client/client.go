// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package client builds, signs and submits registry transactions and
// tracks their progress towards inclusion.
package client

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/radicle-dev/radicle-registry/co"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
	"github.com/radicle-dev/radicle-registry/tx"
)

// Ledger is the backend a client talks to. The in-process emulator and
// a remote node both satisfy it.
type Ledger interface {
	// GenesisHash identifies the chain instance.
	GenesisHash() registry.Hash
	// SpecVersion returns the currently active runtime spec version.
	SpecVersion() (uint32, error)

	Account(id registry.AccountID) (*state.Account, error)
	User(id registry.ID) (*state.User, error)
	Org(id registry.ID) (*state.Org, error)
	Project(id registry.ProjectID) (*state.Project, error)
	Checkpoint(id registry.CheckpointID) (*state.Checkpoint, error)

	// Submit admits a signed transaction. A rejection surfaces as a
	// *runtime.RejectError; acceptance does not imply inclusion.
	Submit(ctx context.Context, trx *tx.Transaction) error
	// Receipt returns the dispatch receipt of an included transaction,
	// or a not-found error before inclusion.
	Receipt(txHash registry.Hash) (*tx.Receipt, error)
	// IsNotFound reports whether err means the queried object is absent.
	IsNotFound(err error) bool
	// NewBlockWaiter signals whenever a block is added.
	NewBlockWaiter() co.Waiter
}

// Client wraps a ledger backend with transaction assembly helpers.
type Client struct {
	ledger Ledger
}

// New creates a client over the given ledger.
func New(ledger Ledger) *Client {
	return &Client{ledger: ledger}
}

// Ledger returns the underlying backend.
func (c *Client) Ledger() Ledger {
	return c.ledger
}

// Assemble binds a message to the chain instance and the author's next
// nonce. The result still needs signing; nonce and genesis hash are
// fetched here once, so signing itself can happen offline.
func (c *Client) Assemble(author registry.AccountID, msg tx.Message, fee *big.Int) (*tx.Transaction, error) {
	specVersion, err := c.ledger.SpecVersion()
	if err != nil {
		return nil, err
	}
	acc, err := c.ledger.Account(author)
	if err != nil {
		return nil, err
	}
	return new(tx.Builder).
		Message(msg).
		Nonce(acc.Nonce).
		GenesisHash(c.ledger.GenesisHash()).
		SpecVersion(specVersion).
		Fee(fee).
		Build()
}

// Submit sends a signed transaction and returns a tracker for its
// remaining lifecycle. A synchronous rejection is returned as an error
// and leaves no tracker behind.
func (c *Client) Submit(ctx context.Context, trx *tx.Transaction) (*Progress, error) {
	p := newProgress(trx, c.ledger)
	p.advance(StatusSubmitted, nil, nil)

	if err := c.ledger.Submit(ctx, trx); err != nil {
		p.advance(StatusRejected, nil, err)
		return nil, err
	}
	p.advance(StatusAccepted, nil, nil)
	p.track()
	return p, nil
}

// SignAndSubmit assembles, signs and submits a message in one step.
func (c *Client) SignAndSubmit(ctx context.Context, key *ecdsa.PrivateKey, msg tx.Message, fee *big.Int) (*Progress, error) {
	author := registry.PublicKeyToAccountID(&key.PublicKey)
	trx, err := c.Assemble(author, msg, fee)
	if err != nil {
		return nil, err
	}
	trx, err = tx.Sign(trx, key)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, trx)
}
