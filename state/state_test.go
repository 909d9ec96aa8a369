// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/lvldb"
	"github.com/radicle-dev/radicle-registry/registry"
)

func newTestState(t *testing.T) (*State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestAccountRoundTrip(t *testing.T) {
	st, _ := newTestState(t)

	id := registry.BytesToAccountID([]byte{1})
	acc, err := st.GetAccount(id)
	require.NoError(t, err)
	assert.True(t, acc.IsEmpty())

	st.SetAccount(id, &Account{Balance: big.NewInt(1000), Nonce: 3})
	acc, err = st.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000), acc.Balance)
	assert.Equal(t, uint32(3), acc.Nonce)
}

func TestEntityRoundTripThroughStore(t *testing.T) {
	st, db := newTestState(t)

	userID := registry.MustNewID("cloudhead")
	orgID := registry.MustNewID("monadic")
	author := registry.BytesToAccountID([]byte{7})

	st.SetUser(&User{ID: userID, Account: author})
	st.SetOrg(&Org{ID: orgID, Account: OrgAccountID(orgID), Creator: author, Members: []registry.ID{userID}})

	cp := &Checkpoint{Hash: registry.Blake2b([]byte("tree"))}
	cpID := st.AddCheckpoint(cp)

	pid := registry.ProjectID{Org: orgID, Name: registry.MustNewProjectName("radicle")}
	st.SetProject(&Project{ID: pid, Metadata: registry.MustNewBytes128([]byte("m")), CurrentCheckpoint: cpID})
	st.SetInitialCheckpoint(pid, cpID)
	st.SetIDStatus(userID, IDClaimed)

	stage, err := st.Stage(registry.Hash{})
	require.NoError(t, err)
	_, err = stage.Commit()
	require.NoError(t, err)

	// a fresh state over the same store reads identical values
	st2 := New(db)

	u, err := st2.GetUser(userID)
	require.NoError(t, err)
	assert.Equal(t, author, u.Account)

	o, err := st2.GetOrg(orgID)
	require.NoError(t, err)
	assert.Equal(t, []registry.ID{userID}, o.Members)
	assert.Equal(t, author, o.Creator)

	c, err := st2.GetCheckpoint(cpID)
	require.NoError(t, err)
	assert.Equal(t, cp.Hash, c.Hash)

	p, err := st2.GetProject(pid)
	require.NoError(t, err)
	assert.Equal(t, cpID, p.CurrentCheckpoint)
	assert.Equal(t, []byte("m"), p.Metadata.Bytes())

	initial, err := st2.GetInitialCheckpoint(pid)
	require.NoError(t, err)
	assert.Equal(t, cpID, *initial)

	status, err := st2.GetIDStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, IDClaimed, status)
}

func TestRevert(t *testing.T) {
	st, _ := newTestState(t)

	id := registry.BytesToAccountID([]byte{1})
	st.SetAccount(id, &Account{Balance: big.NewInt(100), Nonce: 1})

	cp := st.NewCheckpoint()
	st.SetAccount(id, &Account{Balance: big.NewInt(50), Nonce: 2})
	st.SetUser(&User{ID: registry.MustNewID("cloudhead"), Account: id})
	st.RevertTo(cp)

	acc, err := st.GetAccount(id)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(100), acc.Balance)

	u, err := st.GetUser(registry.MustNewID("cloudhead"))
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestDeleteEntity(t *testing.T) {
	st, db := newTestState(t)

	orgID := registry.MustNewID("monadic")
	st.SetOrg(&Org{ID: orgID, Account: OrgAccountID(orgID)})
	st.DeleteOrg(orgID)

	o, err := st.GetOrg(orgID)
	require.NoError(t, err)
	assert.Nil(t, o)

	stage, err := st.Stage(registry.Hash{})
	require.NoError(t, err)
	_, err = stage.Commit()
	require.NoError(t, err)

	has, err := db.Has(orgsBucket.ProtoKey([]byte("monadic")))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUnknownVariantTagIsCorruption(t *testing.T) {
	st, db := newTestState(t)

	// hand-write a payload with a tag from the future
	data, err := rlp.EncodeToBytes(&payload{Tag: 99, Data: []byte{0xc0}})
	require.NoError(t, err)
	require.NoError(t, kv.Bucket("Users1").NewStore(db).Put([]byte("cloudhead"), data))

	_, err = st.GetUser(registry.MustNewID("cloudhead"))
	assert.True(t, registry.IsStateCorruption(err), "got %v", err)
}

func TestLegacyProjectVariantStillDecodes(t *testing.T) {
	st, db := newTestState(t)

	pid := registry.ProjectID{
		Org:  registry.MustNewID("monadic"),
		Name: registry.MustNewProjectName("radicle"),
	}
	legacy := projectV1{
		ID:                pid,
		Description:       "peer-to-peer code collaboration",
		ImgURL:            "https://radicle.xyz/img.png",
		CurrentCheckpoint: registry.Blake2b([]byte("cp")),
	}
	raw, err := rlp.EncodeToBytes(&legacy)
	require.NoError(t, err)
	data, err := rlp.EncodeToBytes(&payload{Tag: projectV1Tag, Data: raw})
	require.NoError(t, err)

	key := []byte(string(projectKeyOf(pid)))
	require.NoError(t, kv.Bucket("Projects1").NewStore(db).Put(key, data))

	p, err := st.GetProject(pid)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, []byte("peer-to-peer code collaboration"), p.Metadata.Bytes())
	assert.Equal(t, legacy.CurrentCheckpoint, p.CurrentCheckpoint)
}

func TestStateRootDeterministic(t *testing.T) {
	build := func() registry.Hash {
		st, _ := newTestState(t)
		id := registry.BytesToAccountID([]byte{9})
		st.SetAccount(id, &Account{Balance: big.NewInt(42), Nonce: 1})
		st.SetIDStatus(registry.MustNewID("monadic"), IDClaimed)
		stage, err := st.Stage(registry.Hash{})
		require.NoError(t, err)
		return stage.Root()
	}
	assert.Equal(t, build(), build())
}

func TestSpecVersion(t *testing.T) {
	st, _ := newTestState(t)

	v, err := st.SpecVersion()
	require.NoError(t, err)
	assert.Equal(t, registry.InitialSpecVersion, v)

	st.SetSpecVersion(7)
	v, err = st.SpecVersion()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
}

func TestGettersReturnDetachedCopies(t *testing.T) {
	st, _ := newTestState(t)

	userID := registry.MustNewID("cloudhead")
	orgID := registry.MustNewID("monadic")
	author := registry.BytesToAccountID([]byte{9})

	st.SetUser(&User{ID: userID, Account: author})
	st.SetOrg(&Org{ID: orgID, Account: OrgAccountID(orgID), Creator: author, Members: []registry.ID{userID}})
	cpID := st.AddCheckpoint(&Checkpoint{Hash: registry.Blake2b([]byte("tree"))})
	childID := st.AddCheckpoint(&Checkpoint{Hash: registry.Blake2b([]byte("tree2")), Parent: &cpID})
	pid := registry.ProjectID{Org: orgID, Name: registry.MustNewProjectName("radicle")}
	st.SetProject(&Project{ID: pid, Metadata: registry.MustNewBytes128([]byte("m")), CurrentCheckpoint: cpID})
	st.SetInitialCheckpoint(pid, cpID)

	// mutations on returned values must never reach the journal
	user, err := st.GetUser(userID)
	require.NoError(t, err)
	user.Account = registry.AccountID{}

	org, err := st.GetOrg(orgID)
	require.NoError(t, err)
	org.Members[0] = registry.MustNewID("mallory")

	project, err := st.GetProject(pid)
	require.NoError(t, err)
	project.CurrentCheckpoint = registry.CheckpointID{}

	cp, err := st.GetCheckpoint(childID)
	require.NoError(t, err)
	*cp.Parent = registry.CheckpointID{}

	initial, err := st.GetInitialCheckpoint(pid)
	require.NoError(t, err)
	*initial = registry.CheckpointID{}

	user, err = st.GetUser(userID)
	require.NoError(t, err)
	assert.Equal(t, author, user.Account)

	org, err = st.GetOrg(orgID)
	require.NoError(t, err)
	assert.Equal(t, []registry.ID{userID}, org.Members)

	project, err = st.GetProject(pid)
	require.NoError(t, err)
	assert.Equal(t, cpID, project.CurrentCheckpoint)

	cp, err = st.GetCheckpoint(childID)
	require.NoError(t, err)
	assert.Equal(t, cpID, *cp.Parent)

	initial, err = st.GetInitialCheckpoint(pid)
	require.NoError(t, err)
	assert.Equal(t, cpID, *initial)
}
