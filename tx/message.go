// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// MessageKind discriminates the closed set of ledger messages on the wire.
//
// Kind values are stable protocol constants. A value, once assigned, is
// never reused, even if its message is deprecated and removed.
type MessageKind uint8

const (
	KindRegisterUser     MessageKind = 1
	KindUnregisterUser   MessageKind = 2
	KindRegisterOrg      MessageKind = 3
	KindUnregisterOrg    MessageKind = 4
	KindRegisterMember   MessageKind = 5
	KindRegisterProject  MessageKind = 6
	KindCreateCheckpoint MessageKind = 7
	KindSetCheckpoint    MessageKind = 8
	KindTransfer         MessageKind = 9
	KindTransferFromOrg  MessageKind = 10
	KindRuntimeUpdate    MessageKind = 11
)

// Message is a typed instruction describing a requested ledger state
// mutation. Messages carry only bounded or primitive fields so their
// canonical encoding, and thus their content address, is unambiguous.
type Message interface {
	Kind() MessageKind
}

// RegisterUser claims the given ID for the transaction author's account
// and creates a user entity.
type RegisterUser struct {
	ID registry.ID
}

// UnregisterUser retires the user's ID. Only the account that owns the
// user may submit it. A retired ID can never be claimed again.
type UnregisterUser struct {
	ID registry.ID
}

// RegisterOrg claims the given ID and creates an org with no members.
// The author's account is recorded as the org's creator.
type RegisterOrg struct {
	ID registry.ID
}

// UnregisterOrg removes an org and retires its ID. The org must have no
// members left.
type UnregisterOrg struct {
	ID registry.ID
}

// RegisterMember adds a registered user to an org's member set.
type RegisterMember struct {
	Org  registry.ID
	User registry.ID
}

// RegisterProject creates a project under an org. The checkpoint must
// already exist and becomes the project's immutable initial checkpoint.
type RegisterProject struct {
	Project    registry.ProjectID
	Checkpoint registry.CheckpointID
	Metadata   registry.Bytes128
}

// CreateCheckpoint appends a checkpoint to the global checkpoint set.
// The checkpoint's ID is derived from its content.
type CreateCheckpoint struct {
	ProjectHash registry.Hash
	Parent      *registry.CheckpointID `rlp:"nil"`
}

// SetCheckpoint moves a project's current checkpoint pointer. The new
// checkpoint must descend from the project's initial checkpoint.
type SetCheckpoint struct {
	Project    registry.ProjectID
	Checkpoint registry.CheckpointID
}

// Transfer moves funds from the author's account to the recipient.
type Transfer struct {
	Recipient registry.AccountID
	Amount    *big.Int
}

// TransferFromOrg moves funds from an org's account to the recipient.
// Only a member of the org may submit it.
type TransferFromOrg struct {
	Org       registry.ID
	Recipient registry.AccountID
	Amount    *big.Int
}

// RuntimeUpdate replaces the ledger's runtime code blob and bumps the
// active spec version. Restricted to the sudo account.
type RuntimeUpdate struct {
	Code []byte
}

func (RegisterUser) Kind() MessageKind     { return KindRegisterUser }
func (UnregisterUser) Kind() MessageKind   { return KindUnregisterUser }
func (RegisterOrg) Kind() MessageKind      { return KindRegisterOrg }
func (UnregisterOrg) Kind() MessageKind    { return KindUnregisterOrg }
func (RegisterMember) Kind() MessageKind   { return KindRegisterMember }
func (RegisterProject) Kind() MessageKind  { return KindRegisterProject }
func (CreateCheckpoint) Kind() MessageKind { return KindCreateCheckpoint }
func (SetCheckpoint) Kind() MessageKind    { return KindSetCheckpoint }
func (Transfer) Kind() MessageKind         { return KindTransfer }
func (TransferFromOrg) Kind() MessageKind  { return KindTransferFromOrg }
func (RuntimeUpdate) Kind() MessageKind    { return KindRuntimeUpdate }

// EncodeMessage encodes m into its canonical payload bytes.
func EncodeMessage(m Message) (MessageKind, []byte, error) {
	data, err := rlp.EncodeToBytes(m)
	if err != nil {
		return 0, nil, err
	}
	return m.Kind(), data, nil
}

// DecodeMessage decodes the payload bytes of the given kind.
// Bounded-field violations surface here, before the message can reach
// the dispatcher.
func DecodeMessage(kind MessageKind, data []byte) (Message, error) {
	var m Message
	switch kind {
	case KindRegisterUser:
		m = &RegisterUser{}
	case KindUnregisterUser:
		m = &UnregisterUser{}
	case KindRegisterOrg:
		m = &RegisterOrg{}
	case KindUnregisterOrg:
		m = &UnregisterOrg{}
	case KindRegisterMember:
		m = &RegisterMember{}
	case KindRegisterProject:
		m = &RegisterProject{}
	case KindCreateCheckpoint:
		m = &CreateCheckpoint{}
	case KindSetCheckpoint:
		m = &SetCheckpoint{}
	case KindTransfer:
		m = &Transfer{}
	case KindTransferFromOrg:
		m = &TransferFromOrg{}
	case KindRuntimeUpdate:
		m = &RuntimeUpdate{}
	default:
		return nil, fmt.Errorf("unknown message kind %d", kind)
	}
	if err := rlp.DecodeBytes(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
