// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package state

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Stage collects all journaled changes, ready to compute the new state
// root and commit them to the underlying store in one batch.
type Stage struct {
	root  registry.Hash
	batch func() error
}

type stagedWrite struct {
	Bucket string
	Key    []byte
	Value  []byte
	Delete bool
}

// Stage builds a stage from all changes since the state was created.
//
// The state root chains the parent root with the canonical encoding of
// the surviving journal. Dispatch is strictly sequential, so the journal
// order, and with it the root, is identical on every replica.
func (s *State) Stage(parentRoot registry.Hash) (*Stage, error) {
	var (
		writes []stagedWrite
		err    error
	)

	s.sm.Journal(func(k, v interface{}) bool {
		var w stagedWrite
		switch key := k.(type) {
		case accountKey:
			w.Bucket, w.Key = string(accountsBucket), registry.AccountID(key).Bytes()
			if acc := v.(*Account); acc != nil {
				w.Value, err = encodeAccount(acc)
			} else {
				w.Delete = true
			}
		case userKey:
			w.Bucket, w.Key = string(usersBucket), []byte(key)
			if u := v.(*User); u != nil {
				w.Value, err = encodeUser(u)
			} else {
				w.Delete = true
			}
		case orgKey:
			w.Bucket, w.Key = string(orgsBucket), []byte(key)
			if o := v.(*Org); o != nil {
				w.Value, err = encodeOrg(o)
			} else {
				w.Delete = true
			}
		case projectKey:
			w.Bucket, w.Key = string(projectsBucket), []byte(key)
			if p := v.(*Project); p != nil {
				w.Value, err = encodeProject(p)
			} else {
				w.Delete = true
			}
		case checkpointKey:
			w.Bucket, w.Key = string(checkpointsBucket), registry.CheckpointID(key).Bytes()
			if c := v.(*Checkpoint); c != nil {
				w.Value, err = encodeCheckpoint(c)
			} else {
				w.Delete = true
			}
		case initialCPKey:
			w.Bucket, w.Key = string(initialCheckpointsBucket), []byte(key)
			if cp := v.(*registry.CheckpointID); cp != nil {
				w.Value = cp.Bytes()
			} else {
				w.Delete = true
			}
		case idKey:
			w.Bucket, w.Key = string(idsBucket), []byte(key)
			w.Value, err = encodeIDStatus(v.(IDStatus))
		case metaKey:
			w.Bucket, w.Key = string(metaBucket), []byte(key)
			w.Value = v.([]byte)
		}
		if err != nil {
			return false
		}
		writes = append(writes, w)
		return true
	})
	if err != nil {
		return nil, err
	}

	root := registry.Blake2bFn(func(w io.Writer) {
		w.Write(parentRoot.Bytes())
		rlp.Encode(w, writes)
	})

	store := s.store
	batch := func() error {
		b := store.NewBatch()
		for _, w := range writes {
			key := append([]byte(w.Bucket), w.Key...)
			if w.Delete {
				if err := b.Delete(key); err != nil {
					return err
				}
			} else {
				if err := b.Put(key, w.Value); err != nil {
					return err
				}
			}
		}
		return b.Write()
	}

	return &Stage{root: root, batch: batch}, nil
}

// Root returns the new state root the stage commits to.
func (st *Stage) Root() registry.Hash {
	return st.root
}

// Commit writes all staged changes to the store.
func (st *Stage) Commit() (registry.Hash, error) {
	if err := st.batch(); err != nil {
		return registry.Hash{}, err
	}
	return st.root, nil
}
