// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package state

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Account is the ledger-level account of a key pair: its token balance
// and its transaction counter.
//
// The nonce increases by exactly one per included transaction from the
// account, whether or not the message succeeded.
type Account struct {
	Balance *big.Int
	Nonce   uint32
}

// IsEmpty reports whether the account holds no funds and sent no txs.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && (a.Balance == nil || a.Balance.Sign() == 0)
}

// User links a claimed registry ID to the account that owns it.
type User struct {
	ID      registry.ID
	Account registry.AccountID
}

// Org is an organization entity. Its funds live in a dedicated account
// derived from the org's ID. Members are registered user IDs; the org
// cannot be unregistered while any remain.
type Org struct {
	ID      registry.ID
	Account registry.AccountID
	// the account that registered the org; it may operate the org
	// while the member set is still empty
	Creator registry.AccountID
	Members []registry.ID
}

// HasMember reports whether the given user ID is in the member set.
func (o *Org) HasMember(user registry.ID) bool {
	for _, m := range o.Members {
		if m == user {
			return true
		}
	}
	return false
}

// OrgAccountID derives the dedicated fund account of an org.
func OrgAccountID(id registry.ID) registry.AccountID {
	h := registry.Blake2b([]byte("radicle-registry:org:"), []byte(id.String()))
	return registry.BytesToAccountID(h.Bytes())
}

// Project is a software project registered under an org.
type Project struct {
	ID       registry.ProjectID
	Metadata registry.Bytes128
	// the latest checkpoint; moved by SetCheckpoint, always a
	// descendant of the project's initial checkpoint
	CurrentCheckpoint registry.CheckpointID
}

// Checkpoint is an immutable, content-addressed marker in a project's
// history. Parent links form an append-only singly-linked chain.
type Checkpoint struct {
	Hash   registry.Hash
	Parent *registry.CheckpointID `rlp:"nil"`
}

// ID derives the checkpoint's content address.
func (c *Checkpoint) ID() registry.CheckpointID {
	return registry.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, c)
	})
}

// IDStatus tracks the lifecycle of a claimed identifier.
//
// Values are stable storage constants and are never reused.
type IDStatus uint8

const (
	// IDUnclaimed is the implicit status of an ID never seen before.
	IDUnclaimed IDStatus = 0
	// IDClaimed marks an ID currently registered to a user or org.
	IDClaimed IDStatus = 1
	// IDRetired marks an ID whose entity was unregistered. Retired IDs
	// can never be claimed again.
	IDRetired IDStatus = 2
)
