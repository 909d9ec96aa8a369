// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package emulator runs the dispatcher and storage without networking
// or consensus. Each submitted transaction synchronously authors
// exactly one synthetic block, so tests advance state deterministically
// and never poll.
package emulator

import (
	"context"
	"sync"

	"github.com/inconshreveable/log15"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/chain"
	"github.com/radicle-dev/radicle-registry/co"
	"github.com/radicle-dev/radicle-registry/genesis"
	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/runtime"
	"github.com/radicle-dev/radicle-registry/state"
	"github.com/radicle-dev/radicle-registry/tx"
)

var log = log15.New("pkg", "emulator")

// Emulator is an in-process ledger. It satisfies client.Ledger.
type Emulator struct {
	store kv.Store
	chain *chain.Chain
	gen   *genesis.Genesis

	mu sync.Mutex
	// state over the committed store tip; replaced after every block
	st *state.State
	rt *runtime.Runtime

	blockAdded co.Signal
}

// New bootstraps an emulator over the given store. An empty store gets
// the genesis block written; a populated one is reopened and must carry
// the same genesis.
func New(store kv.Store, gen *genesis.Genesis) (*Emulator, error) {
	c, err := chain.New(store)
	if err != nil {
		return nil, err
	}
	if c.BestBlock() == nil {
		genesisBlock, err := gen.Build(store)
		if err != nil {
			return nil, err
		}
		if err := c.WriteGenesis(genesisBlock); err != nil {
			return nil, err
		}
		log.Info("wrote genesis block", "id", gen.ID())
	} else {
		gid, err := c.GenesisID()
		if err != nil {
			return nil, err
		}
		if gid != gen.ID() {
			return nil, chain.ErrGenesisMismatch
		}
	}

	e := &Emulator{store: store, chain: c, gen: gen}
	e.st = state.New(store)
	e.rt = runtime.New(e.st, gen.ID(), gen.Sudo())
	return e, nil
}

// Chain returns the underlying block history.
func (e *Emulator) Chain() *chain.Chain {
	return e.chain
}

// GenesisHash identifies the chain instance.
func (e *Emulator) GenesisHash() registry.Hash {
	return e.gen.ID()
}

// SpecVersion returns the active runtime spec version.
func (e *Emulator) SpecVersion() (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.SpecVersion()
}

// Account returns the account for the given id, zero-valued if unknown.
func (e *Emulator) Account(id registry.AccountID) (*state.Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.GetAccount(id)
}

// User returns the user claiming the given id, or nil.
func (e *Emulator) User(id registry.ID) (*state.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.GetUser(id)
}

// Org returns the org claiming the given id, or nil.
func (e *Emulator) Org(id registry.ID) (*state.Org, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.GetOrg(id)
}

// Project returns the project with the given id, or nil.
func (e *Emulator) Project(id registry.ProjectID) (*state.Project, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.GetProject(id)
}

// Checkpoint returns the checkpoint with the given id, or nil.
func (e *Emulator) Checkpoint(id registry.CheckpointID) (*state.Checkpoint, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.st.GetCheckpoint(id)
}

// Receipt returns the dispatch receipt of an included transaction.
func (e *Emulator) Receipt(txHash registry.Hash) (*tx.Receipt, error) {
	return e.chain.GetReceipt(txHash)
}

// IsNotFound reports whether err means the queried object is absent.
func (e *Emulator) IsNotFound(err error) bool {
	return e.chain.IsNotFound(err)
}

// NewBlockWaiter signals whenever a block is authored.
func (e *Emulator) NewBlockWaiter() co.Waiter {
	return e.blockAdded.NewWaiter()
}

// Submit executes the transaction and authors a block containing it.
//
// A rejection surfaces as a *runtime.RejectError and leaves no trace on
// chain. An included transaction, failed or not, gets its own block.
func (e *Emulator) Submit(_ context.Context, trx *tx.Transaction) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	receipt, err := e.rt.Execute(trx)
	if err != nil {
		if !runtime.IsRejected(err) {
			// the journal may hold partial writes after a store
			// failure; rebuild from the committed tip
			e.st = state.New(e.store)
			e.rt = runtime.New(e.st, e.gen.ID(), e.gen.Sudo())
		}
		log.Debug("transaction refused", "id", trx.Hash(), "err", err)
		return err
	}

	parent := e.chain.BestBlock().Header()
	stage, err := e.st.Stage(parent.StateRoot())
	if err != nil {
		return err
	}
	stateRoot, err := stage.Commit()
	if err != nil {
		return err
	}

	blk := new(block.Builder).
		ParentID(parent.ID()).
		Timestamp(parent.Timestamp() + registry.BlockInterval).
		StateRoot(stateRoot).
		ReceiptsRoot(tx.Receipts{receipt}.RootHash()).
		Transaction(trx).
		Build()

	if err := e.chain.AddBlock(blk, tx.Receipts{receipt}); err != nil {
		return err
	}

	// fresh state over the new tip; the old journal is spent
	e.st = state.New(e.store)
	e.rt = runtime.New(e.st, e.gen.ID(), e.gen.Sudo())

	log.Debug("authored block",
		"num", blk.Header().Number(),
		"id", blk.Header().ID(),
		"tx", trx.Hash(),
		"succeeded", receipt.Succeeded,
	)
	e.blockAdded.Broadcast()
	return nil
}
