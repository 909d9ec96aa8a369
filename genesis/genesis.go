// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package genesis bootstraps a chain instance: initial balances, the
// sudo account and the genesis block whose id names the chain.
package genesis

import (
	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/registry"
)

// Genesis describes a chain instance preset.
type Genesis struct {
	builder *Builder
	id      registry.Hash
	sudo    registry.AccountID
}

// New wraps a builder into a reusable preset. The genesis id is
// computed eagerly so it can name the chain before any store exists.
func New(builder *Builder, sudo registry.AccountID) (*Genesis, error) {
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder: builder, id: id, sudo: sudo}, nil
}

// Build materializes the initial state into the store and returns the
// genesis block.
func (g *Genesis) Build(store kv.Store) (*block.Block, error) {
	return g.builder.Build(store)
}

// ID returns the genesis block id. Transactions bind to a chain
// instance by carrying this hash.
func (g *Genesis) ID() registry.Hash {
	return g.id
}

// Sudo returns the account entitled to runtime updates.
func (g *Genesis) Sudo() registry.AccountID {
	return g.sudo
}
