// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/tx"
)

func newTestTx(t *testing.T) *tx.Transaction {
	trx, err := new(tx.Builder).
		Message(&tx.RegisterOrg{ID: registry.MustNewID("monadic")}).
		Nonce(7).
		GenesisHash(registry.Blake2b([]byte("genesis"))).
		SpecVersion(1).
		Fee(big.NewInt(10)).
		Build()
	require.NoError(t, err)
	return trx
}

func TestTxEncodeDecode(t *testing.T) {
	trx := newTestTx(t)

	data, err := trx.Encoded()
	require.NoError(t, err)

	decoded, err := tx.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, trx.Hash(), decoded.Hash())
	assert.Equal(t, trx.Nonce(), decoded.Nonce())
	assert.Equal(t, trx.GenesisHash(), decoded.GenesisHash())
	assert.Equal(t, trx.SpecVersion(), decoded.SpecVersion())
	assert.Equal(t, trx.Fee(), decoded.Fee())

	// re-encoding yields identical bytes
	data2, err := decoded.Encoded()
	require.NoError(t, err)
	assert.Equal(t, data, data2)
}

func TestTxSignAndOrigin(t *testing.T) {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)

	trx := tx.MustSign(newTestTx(t), pk)

	origin, err := trx.Origin()
	require.NoError(t, err)
	assert.Equal(t, registry.PublicKeyToAccountID(&pk.PublicKey), origin)

	// signature changes the tx hash but not the signing hash
	unsigned := newTestTx(t)
	assert.Equal(t, unsigned.SigningHash(), trx.SigningHash())
	assert.NotEqual(t, unsigned.Hash(), trx.Hash())
}

func TestTxOriginNoSignature(t *testing.T) {
	_, err := newTestTx(t).Origin()
	assert.Error(t, err)
}

func TestTxDistinctNonces(t *testing.T) {
	build := func(nonce uint32) *tx.Transaction {
		trx, err := new(tx.Builder).
			Message(&tx.RegisterUser{ID: registry.MustNewID("cloudhead")}).
			Nonce(nonce).
			GenesisHash(registry.Blake2b([]byte("genesis"))).
			SpecVersion(1).
			Fee(big.NewInt(1)).
			Build()
		require.NoError(t, err)
		return trx
	}
	assert.NotEqual(t, build(0).Hash(), build(1).Hash())
}

func TestTxMessageRoundTrip(t *testing.T) {
	parent := registry.Blake2b([]byte("parent"))
	messages := []tx.Message{
		&tx.RegisterUser{ID: registry.MustNewID("cloudhead")},
		&tx.UnregisterUser{ID: registry.MustNewID("cloudhead")},
		&tx.RegisterOrg{ID: registry.MustNewID("monadic")},
		&tx.UnregisterOrg{ID: registry.MustNewID("monadic")},
		&tx.RegisterMember{Org: registry.MustNewID("monadic"), User: registry.MustNewID("cloudhead")},
		&tx.RegisterProject{
			Project: registry.ProjectID{
				Org:  registry.MustNewID("monadic"),
				Name: registry.MustNewProjectName("radicle"),
			},
			Checkpoint: registry.Blake2b([]byte("cp")),
			Metadata:   registry.MustNewBytes128([]byte("meta")),
		},
		&tx.CreateCheckpoint{ProjectHash: registry.Blake2b([]byte("tree"))},
		&tx.CreateCheckpoint{ProjectHash: registry.Blake2b([]byte("tree")), Parent: &parent},
		&tx.SetCheckpoint{
			Project: registry.ProjectID{
				Org:  registry.MustNewID("monadic"),
				Name: registry.MustNewProjectName("radicle"),
			},
			Checkpoint: registry.Blake2b([]byte("cp2")),
		},
		&tx.Transfer{Recipient: registry.BytesToAccountID([]byte{1}), Amount: big.NewInt(100)},
		&tx.TransferFromOrg{
			Org:       registry.MustNewID("monadic"),
			Recipient: registry.BytesToAccountID([]byte{2}),
			Amount:    big.NewInt(50),
		},
		&tx.RuntimeUpdate{Code: []byte{0, 0x61, 0x73, 0x6d}},
	}

	for _, m := range messages {
		kind, data, err := tx.EncodeMessage(m)
		require.NoError(t, err)

		decoded, err := tx.DecodeMessage(kind, data)
		require.NoError(t, err, "kind %d", kind)
		assert.Equal(t, m, decoded, "kind %d", kind)
	}
}

func TestDecodeRejectsUnknownKind(t *testing.T) {
	data, _ := rlp.EncodeToBytes(&tx.RegisterUser{ID: registry.MustNewID("cloudhead")})
	_, err := tx.DecodeMessage(tx.MessageKind(200), data)
	assert.Error(t, err)
}
