// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Stored payloads are version-tagged variant sets. Entity schema changes
// that only add fields append a new variant; existing tags are never
// altered or removed after release. Changes to a collection's key type
// or shape instead get a whole new bucket (a bumped namespace suffix)
// plus a one-time migration.
//
// Reading an unrecognized tag is state corruption: fatal to the
// operation, never silently defaulted.

// payload is the envelope every bucket value is wrapped in.
type payload struct {
	Tag  uint8
	Data rlp.RawValue
}

// Variant tags, per namespace. Append-only.
const (
	accountV1Tag uint8 = 1

	userV1Tag uint8 = 1

	orgV1Tag uint8 = 1

	// projectV1 carried separate description/img-url fields; projectV2
	// replaced them with a single opaque metadata vector. V1 payloads
	// remain readable forever; new writes always use V2.
	projectV1Tag uint8 = 1
	projectV2Tag uint8 = 2

	checkpointV1Tag uint8 = 1

	idStatusV1Tag uint8 = 1
)

func encodePayload(tag uint8, v interface{}) ([]byte, error) {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&payload{Tag: tag, Data: data})
}

func decodePayload(raw []byte) (*payload, error) {
	var p payload
	if err := rlp.DecodeBytes(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

type accountV1 struct {
	Balance *big.Int
	Nonce   uint32
}

func encodeAccount(a *Account) ([]byte, error) {
	balance := a.Balance
	if balance == nil {
		balance = new(big.Int)
	}
	return encodePayload(accountV1Tag, &accountV1{Balance: balance, Nonce: a.Nonce})
}

func decodeAccount(raw []byte) (*Account, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	switch p.Tag {
	case accountV1Tag:
		var v accountV1
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		return &Account{Balance: v.Balance, Nonce: v.Nonce}, nil
	default:
		return nil, &registry.StateCorruptionError{Namespace: string(accountsBucket), Tag: p.Tag}
	}
}

type userV1 struct {
	ID      registry.ID
	Account registry.AccountID
}

func encodeUser(u *User) ([]byte, error) {
	return encodePayload(userV1Tag, &userV1{ID: u.ID, Account: u.Account})
}

func decodeUser(raw []byte) (*User, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	switch p.Tag {
	case userV1Tag:
		var v userV1
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		return &User{ID: v.ID, Account: v.Account}, nil
	default:
		return nil, &registry.StateCorruptionError{Namespace: string(usersBucket), Tag: p.Tag}
	}
}

type orgV1 struct {
	ID      registry.ID
	Account registry.AccountID
	Creator registry.AccountID
	Members []registry.ID
}

func encodeOrg(o *Org) ([]byte, error) {
	return encodePayload(orgV1Tag, &orgV1{
		ID:      o.ID,
		Account: o.Account,
		Creator: o.Creator,
		Members: o.Members,
	})
}

func decodeOrg(raw []byte) (*Org, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	switch p.Tag {
	case orgV1Tag:
		var v orgV1
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		return &Org{ID: v.ID, Account: v.Account, Creator: v.Creator, Members: v.Members}, nil
	default:
		return nil, &registry.StateCorruptionError{Namespace: string(orgsBucket), Tag: p.Tag}
	}
}

type projectV1 struct {
	ID                registry.ProjectID
	Description       string
	ImgURL            string
	CurrentCheckpoint registry.CheckpointID
}

type projectV2 struct {
	ID                registry.ProjectID
	Metadata          registry.Bytes128
	CurrentCheckpoint registry.CheckpointID
}

func encodeProject(p *Project) ([]byte, error) {
	return encodePayload(projectV2Tag, &projectV2{
		ID:                p.ID,
		Metadata:          p.Metadata,
		CurrentCheckpoint: p.CurrentCheckpoint,
	})
}

func decodeProject(raw []byte) (*Project, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	switch p.Tag {
	case projectV1Tag:
		var v projectV1
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		// legacy payloads fold the description into the metadata vector;
		// the V1 writer bounded it below 128 bytes
		metadata, err := registry.NewBytes128([]byte(v.Description))
		if err != nil {
			return nil, &registry.StateCorruptionError{Namespace: string(projectsBucket), Tag: p.Tag}
		}
		return &Project{ID: v.ID, Metadata: metadata, CurrentCheckpoint: v.CurrentCheckpoint}, nil
	case projectV2Tag:
		var v projectV2
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		return &Project{ID: v.ID, Metadata: v.Metadata, CurrentCheckpoint: v.CurrentCheckpoint}, nil
	default:
		return nil, &registry.StateCorruptionError{Namespace: string(projectsBucket), Tag: p.Tag}
	}
}

func encodeCheckpoint(c *Checkpoint) ([]byte, error) {
	return encodePayload(checkpointV1Tag, c)
}

func decodeCheckpoint(raw []byte) (*Checkpoint, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return nil, err
	}
	switch p.Tag {
	case checkpointV1Tag:
		var v Checkpoint
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, &registry.StateCorruptionError{Namespace: string(checkpointsBucket), Tag: p.Tag}
	}
}

type idStatusV1 struct {
	Status uint8
}

func encodeIDStatus(s IDStatus) ([]byte, error) {
	return encodePayload(idStatusV1Tag, &idStatusV1{Status: uint8(s)})
}

func decodeIDStatus(raw []byte) (IDStatus, error) {
	p, err := decodePayload(raw)
	if err != nil {
		return IDUnclaimed, err
	}
	switch p.Tag {
	case idStatusV1Tag:
		var v idStatusV1
		if err := rlp.DecodeBytes(p.Data, &v); err != nil {
			return IDUnclaimed, err
		}
		return IDStatus(v.Status), nil
	default:
		return IDUnclaimed, &registry.StateCorruptionError{Namespace: string(idsBucket), Tag: p.Tag}
	}
}

func encodeSpecVersion(version uint32) []byte {
	data, _ := rlp.EncodeToBytes(version)
	return data
}

func decodeSpecVersion(raw []byte) (uint32, error) {
	var v uint32
	if err := rlp.DecodeBytes(raw, &v); err != nil {
		return 0, err
	}
	return v, nil
}
