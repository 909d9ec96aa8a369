// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package client_test

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radicle-dev/radicle-registry/client"
	"github.com/radicle-dev/radicle-registry/co"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
	"github.com/radicle-dev/radicle-registry/tx"
)

var errStubNotFound = errors.New("stub: not found")

// stubLedger scripts the backend so lifecycle transitions can be
// driven one block at a time.
type stubLedger struct {
	mu       sync.Mutex
	genesis  registry.Hash
	spec     uint32
	accounts map[registry.AccountID]*state.Account
	receipts map[registry.Hash]*tx.Receipt
	sig      co.Signal
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		genesis:  registry.Blake2b([]byte("stub chain")),
		spec:     registry.InitialSpecVersion,
		accounts: make(map[registry.AccountID]*state.Account),
		receipts: make(map[registry.Hash]*tx.Receipt),
	}
}

func (s *stubLedger) GenesisHash() registry.Hash    { return s.genesis }
func (s *stubLedger) SpecVersion() (uint32, error)  { return s.spec, nil }
func (s *stubLedger) IsNotFound(err error) bool     { return errors.Is(err, errStubNotFound) }
func (s *stubLedger) NewBlockWaiter() co.Waiter     { return s.sig.NewWaiter() }
func (s *stubLedger) User(registry.ID) (*state.User, error)             { return nil, nil }
func (s *stubLedger) Org(registry.ID) (*state.Org, error)               { return nil, nil }
func (s *stubLedger) Project(registry.ProjectID) (*state.Project, error) { return nil, nil }
func (s *stubLedger) Checkpoint(registry.CheckpointID) (*state.Checkpoint, error) {
	return nil, nil
}

func (s *stubLedger) Account(id registry.AccountID) (*state.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if acc, ok := s.accounts[id]; ok {
		cpy := *acc
		return &cpy, nil
	}
	return &state.Account{Balance: new(big.Int)}, nil
}

func (s *stubLedger) Submit(context.Context, *tx.Transaction) error {
	return nil
}

func (s *stubLedger) Receipt(txHash registry.Hash) (*tx.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.receipts[txHash]; ok {
		return r, nil
	}
	return nil, errStubNotFound
}

// newBlock scripts one block: receipts land, nonces move, waiters wake.
func (s *stubLedger) newBlock(mutate func()) {
	s.mu.Lock()
	mutate()
	s.mu.Unlock()
	s.sig.Broadcast()
}

func TestAssembleBindsChainAndNonce(t *testing.T) {
	s := newStubLedger()
	key, _ := crypto.GenerateKey()
	author := registry.PublicKeyToAccountID(&key.PublicKey)
	s.accounts[author] = &state.Account{Balance: big.NewInt(100), Nonce: 7}

	c := client.New(s)
	trx, err := c.Assemble(author, &tx.RegisterUser{ID: registry.MustNewID("alice")}, big.NewInt(2))
	require.NoError(t, err)

	assert.Equal(t, uint32(7), trx.Nonce())
	assert.Equal(t, s.genesis, trx.GenesisHash())
	assert.Equal(t, registry.InitialSpecVersion, trx.SpecVersion())

	// signing happens offline, after assembly
	signed, err := tx.Sign(trx, key)
	require.NoError(t, err)
	origin, err := signed.Origin()
	require.NoError(t, err)
	assert.Equal(t, author, origin)
}

func TestProgressIncluded(t *testing.T) {
	s := newStubLedger()
	key, _ := crypto.GenerateKey()
	c := client.New(s)

	progress, err := c.SignAndSubmit(context.Background(), key,
		&tx.RegisterUser{ID: registry.MustNewID("alice")}, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, client.StatusAccepted, progress.Status())

	want := &tx.Receipt{TxHash: progress.Transaction().Hash(), Succeeded: true}
	s.newBlock(func() {
		s.receipts[progress.Transaction().Hash()] = want
	})

	receipt, err := progress.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, receipt)
	assert.Equal(t, client.StatusIncluded, progress.Status())
}

func TestProgressDroppedWhenNonceConsumed(t *testing.T) {
	s := newStubLedger()
	key, _ := crypto.GenerateKey()
	author := registry.PublicKeyToAccountID(&key.PublicKey)
	c := client.New(s)

	progress, err := c.SignAndSubmit(context.Background(), key,
		&tx.RegisterUser{ID: registry.MustNewID("alice")}, big.NewInt(1))
	require.NoError(t, err)

	// another transaction of the author consumed nonce 0
	s.newBlock(func() {
		s.accounts[author] = &state.Account{Balance: big.NewInt(100), Nonce: 1}
	})

	_, err = progress.Wait(context.Background())
	assert.Equal(t, client.ErrDropped, errors.Cause(err))
	assert.Equal(t, client.StatusDropped, progress.Status())
}

func TestWaitCancellation(t *testing.T) {
	s := newStubLedger()
	key, _ := crypto.GenerateKey()
	c := client.New(s)

	progress, err := c.SignAndSubmit(context.Background(), key,
		&tx.RegisterUser{ID: registry.MustNewID("alice")}, big.NewInt(1))
	require.NoError(t, err)
	defer progress.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = progress.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)

	// cancelling the wait does not disturb tracking
	assert.Equal(t, client.StatusAccepted, progress.Status())
}
