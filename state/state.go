// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package state

import (
	"fmt"
	"math/big"

	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/stackedmap"
)

// Bucket names, one per {EntityKind}{storageVersion}. A released name is
// never reused with a different key or payload shape; shape changes get
// a bumped version suffix and an explicit one-time migration, and old
// namespaces stay readable during rolling upgrades.
const (
	accountsBucket           = kv.Bucket("Accounts1")
	usersBucket              = kv.Bucket("Users1")
	orgsBucket               = kv.Bucket("Orgs1")
	projectsBucket           = kv.Bucket("Projects1")
	checkpointsBucket        = kv.Bucket("Checkpoints1")
	initialCheckpointsBucket = kv.Bucket("InitialCheckpoints1")
	idsBucket                = kv.Bucket("Ids1")
	metaBucket               = kv.Bucket("Meta1")
)

// Keys of the Meta1 namespace.
var (
	keySpecVersion = []byte("spec-version")
	keyRuntimeCode = []byte("runtime-code")
)

// State manages the ledger's world state.
//
// Reads go through a journaled overlay so that uncommitted writes are
// visible to later reads and can be reverted wholesale. Nothing touches
// the underlying store until Stage().Commit().
type State struct {
	store kv.Store
	sm    *stackedmap.StackedMap
}

// stackedmap key types
type (
	accountKey    registry.AccountID
	userKey       string
	orgKey        string
	projectKey    string
	checkpointKey registry.CheckpointID
	initialCPKey  string
	idKey         string
	metaKey       string
)

func projectKeyOf(id registry.ProjectID) projectKey {
	// ids cannot contain NUL, so the separator is unambiguous
	return projectKey(id.Org.String() + "\x00" + id.Name.String())
}

// New creates a state object upon the given store.
func New(store kv.Store) *State {
	st := &State{store: store}
	st.sm = stackedmap.New(func(key interface{}) (interface{}, bool, error) {
		return st.storeGetter(key)
	})
	// the base layer collects writes that survive reverts
	st.sm.Push()
	return st
}

// storeGetter implements stackedmap.MapGetter against the persisted buckets.
func (s *State) storeGetter(key interface{}) (interface{}, bool, error) {
	load := func(bucket kv.Bucket, k []byte) ([]byte, error) {
		raw, err := bucket.NewStore(s.store).Get(k)
		if err != nil {
			if s.store.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return raw, nil
	}

	switch k := key.(type) {
	case accountKey:
		raw, err := load(accountsBucket, registry.AccountID(k).Bytes())
		if err != nil || raw == nil {
			return (*Account)(nil), true, err
		}
		acc, err := decodeAccount(raw)
		return acc, true, err
	case userKey:
		raw, err := load(usersBucket, []byte(k))
		if err != nil || raw == nil {
			return (*User)(nil), true, err
		}
		u, err := decodeUser(raw)
		return u, true, err
	case orgKey:
		raw, err := load(orgsBucket, []byte(k))
		if err != nil || raw == nil {
			return (*Org)(nil), true, err
		}
		o, err := decodeOrg(raw)
		return o, true, err
	case projectKey:
		raw, err := load(projectsBucket, []byte(k))
		if err != nil || raw == nil {
			return (*Project)(nil), true, err
		}
		p, err := decodeProject(raw)
		return p, true, err
	case checkpointKey:
		raw, err := load(checkpointsBucket, registry.CheckpointID(k).Bytes())
		if err != nil || raw == nil {
			return (*Checkpoint)(nil), true, err
		}
		c, err := decodeCheckpoint(raw)
		return c, true, err
	case initialCPKey:
		raw, err := load(initialCheckpointsBucket, []byte(k))
		if err != nil || raw == nil {
			return (*registry.CheckpointID)(nil), true, err
		}
		var id registry.CheckpointID
		copy(id[:], raw)
		return &id, true, nil
	case idKey:
		raw, err := load(idsBucket, []byte(k))
		if err != nil || raw == nil {
			return IDUnclaimed, true, err
		}
		status, err := decodeIDStatus(raw)
		return status, true, err
	case metaKey:
		raw, err := load(metaBucket, []byte(k))
		if err != nil || raw == nil {
			return []byte(nil), true, err
		}
		return raw, true, nil
	}
	panic(fmt.Errorf("unexpected key type %T", key))
}

// GetAccount returns the account for the given id.
// Unknown accounts are zero-valued, not an error.
func (s *State) GetAccount(id registry.AccountID) (*Account, error) {
	v, _, err := s.sm.Get(accountKey(id))
	if err != nil {
		return nil, err
	}
	if acc := v.(*Account); acc != nil {
		return &Account{Balance: new(big.Int).Set(acc.Balance), Nonce: acc.Nonce}, nil
	}
	return &Account{Balance: new(big.Int)}, nil
}

// SetAccount stores the account for the given id.
func (s *State) SetAccount(id registry.AccountID, acc *Account) {
	cpy := *acc
	s.sm.Put(accountKey(id), &cpy)
}

// GetUser returns the user claiming the given id, or nil.
func (s *State) GetUser(id registry.ID) (*User, error) {
	v, _, err := s.sm.Get(userKey(id.String()))
	if err != nil {
		return nil, err
	}
	u := v.(*User)
	if u == nil {
		return nil, nil
	}
	cpy := *u
	return &cpy, nil
}

// SetUser stores a user entity.
func (s *State) SetUser(u *User) {
	cpy := *u
	s.sm.Put(userKey(u.ID.String()), &cpy)
}

// DeleteUser removes the user claiming the given id.
func (s *State) DeleteUser(id registry.ID) {
	s.sm.Put(userKey(id.String()), (*User)(nil))
}

// GetOrg returns the org claiming the given id, or nil.
func (s *State) GetOrg(id registry.ID) (*Org, error) {
	v, _, err := s.sm.Get(orgKey(id.String()))
	if err != nil {
		return nil, err
	}
	o := v.(*Org)
	if o == nil {
		return nil, nil
	}
	cpy := *o
	cpy.Members = append([]registry.ID(nil), o.Members...)
	return &cpy, nil
}

// SetOrg stores an org entity.
func (s *State) SetOrg(o *Org) {
	cpy := *o
	cpy.Members = append([]registry.ID(nil), o.Members...)
	s.sm.Put(orgKey(o.ID.String()), &cpy)
}

// DeleteOrg removes the org claiming the given id.
func (s *State) DeleteOrg(id registry.ID) {
	s.sm.Put(orgKey(id.String()), (*Org)(nil))
}

// GetProject returns the project with the given id, or nil.
func (s *State) GetProject(id registry.ProjectID) (*Project, error) {
	v, _, err := s.sm.Get(projectKeyOf(id))
	if err != nil {
		return nil, err
	}
	p := v.(*Project)
	if p == nil {
		return nil, nil
	}
	cpy := *p
	return &cpy, nil
}

// SetProject stores a project entity.
func (s *State) SetProject(p *Project) {
	cpy := *p
	s.sm.Put(projectKeyOf(p.ID), &cpy)
}

// GetCheckpoint returns the checkpoint with the given id, or nil.
func (s *State) GetCheckpoint(id registry.CheckpointID) (*Checkpoint, error) {
	v, _, err := s.sm.Get(checkpointKey(id))
	if err != nil {
		return nil, err
	}
	c := v.(*Checkpoint)
	if c == nil {
		return nil, nil
	}
	cpy := *c
	if c.Parent != nil {
		parent := *c.Parent
		cpy.Parent = &parent
	}
	return &cpy, nil
}

// AddCheckpoint stores a checkpoint under its content address and
// returns the id. Checkpoints are immutable; rewriting the same id
// stores an identical value.
func (s *State) AddCheckpoint(c *Checkpoint) registry.CheckpointID {
	cpy := *c
	if c.Parent != nil {
		parent := *c.Parent
		cpy.Parent = &parent
	}
	id := c.ID()
	s.sm.Put(checkpointKey(id), &cpy)
	return id
}

// GetInitialCheckpoint returns the checkpoint a project was registered
// with, or nil.
func (s *State) GetInitialCheckpoint(id registry.ProjectID) (*registry.CheckpointID, error) {
	v, _, err := s.sm.Get(initialCPKey(projectKeyOf(id)))
	if err != nil {
		return nil, err
	}
	cp := v.(*registry.CheckpointID)
	if cp == nil {
		return nil, nil
	}
	cpy := *cp
	return &cpy, nil
}

// SetInitialCheckpoint records a project's initial checkpoint.
func (s *State) SetInitialCheckpoint(id registry.ProjectID, cp registry.CheckpointID) {
	s.sm.Put(initialCPKey(projectKeyOf(id)), &cp)
}

// GetIDStatus returns the claim status of an identifier.
func (s *State) GetIDStatus(id registry.ID) (IDStatus, error) {
	v, _, err := s.sm.Get(idKey(id.String()))
	if err != nil {
		return IDUnclaimed, err
	}
	return v.(IDStatus), nil
}

// SetIDStatus records the claim status of an identifier.
func (s *State) SetIDStatus(id registry.ID, status IDStatus) {
	s.sm.Put(idKey(id.String()), status)
}

// SpecVersion returns the active runtime spec version.
func (s *State) SpecVersion() (uint32, error) {
	v, _, err := s.sm.Get(metaKey(keySpecVersion))
	if err != nil {
		return 0, err
	}
	raw := v.([]byte)
	if len(raw) == 0 {
		return registry.InitialSpecVersion, nil
	}
	return decodeSpecVersion(raw)
}

// SetSpecVersion sets the active runtime spec version.
func (s *State) SetSpecVersion(version uint32) {
	s.sm.Put(metaKey(keySpecVersion), encodeSpecVersion(version))
}

// RuntimeCode returns the stored runtime code blob, or nil.
func (s *State) RuntimeCode() ([]byte, error) {
	v, _, err := s.sm.Get(metaKey(keyRuntimeCode))
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// SetRuntimeCode stores the runtime code blob.
func (s *State) SetRuntimeCode(code []byte) {
	s.sm.Put(metaKey(keyRuntimeCode), append([]byte(nil), code...))
}

// NewCheckpoint pushes a save point onto the journal and returns its depth.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts all writes made after the given save point.
func (s *State) RevertTo(depth int) {
	s.sm.PopTo(depth)
}
