// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/lvldb"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
)

// Builder helper to build the genesis block.
type Builder struct {
	timestamp uint64
	extraData [28]byte

	stateProcs []func(st *state.State) error
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process.
func (b *Builder) State(proc func(st *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// ExtraData set extra data, which will be put into the last 28 bytes of
// the genesis parent id. Distinct extra data yields a distinct chain
// instance even with identical initial state.
func (b *Builder) ExtraData(data [28]byte) *Builder {
	b.extraData = data
	return b
}

// ComputeID computes the genesis block id without touching any store.
func (b *Builder) ComputeID() (registry.Hash, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return registry.Hash{}, err
	}
	defer db.Close()
	blk, err := b.Build(db)
	if err != nil {
		return registry.Hash{}, err
	}
	return blk.Header().ID(), nil
}

// Build materializes the initial state into the given store and returns
// the genesis block.
func (b *Builder) Build(store kv.Store) (*block.Block, error) {
	st := state.New(store)

	for _, proc := range b.stateProcs {
		if err := proc(st); err != nil {
			return nil, errors.Wrap(err, "state process")
		}
	}

	stage, err := st.Stage(registry.Hash{})
	if err != nil {
		return nil, err
	}
	stateRoot, err := stage.Commit()
	if err != nil {
		return nil, errors.Wrap(err, "commit state")
	}

	parentID := registry.Hash{0xff, 0xff, 0xff, 0xff} // so, genesis number is 0
	copy(parentID[4:], b.extraData[:])

	return new(block.Builder).
		ParentID(parentID).
		Timestamp(b.timestamp).
		StateRoot(stateRoot).
		Build(), nil
}
