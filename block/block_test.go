// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package block_test

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	gorlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/tx"
)

func TestBlock(t *testing.T) {
	key, _ := crypto.GenerateKey()
	genesis := registry.Blake2b([]byte("genesis"))

	trx := tx.MustSign(new(tx.Builder).
		Message(&tx.RegisterUser{ID: registry.MustNewID("alice")}).
		GenesisHash(genesis).
		SpecVersion(registry.InitialSpecVersion).
		Fee(big.NewInt(1)).
		MustBuild(), key)

	var parentID registry.Hash
	binary.BigEndian.PutUint32(parentID[:], 9)

	blk := new(block.Builder).
		ParentID(parentID).
		Timestamp(1587400200).
		StateRoot(registry.Blake2b([]byte("state"))).
		ReceiptsRoot(registry.Blake2b([]byte("receipts"))).
		Transaction(trx).
		Build()

	h := blk.Header()
	assert.Equal(t, uint32(10), h.Number())
	assert.Equal(t, parentID, h.ParentID())
	assert.Equal(t, tx.Transactions{trx}.RootHash(), h.TxsRoot())

	// the number is embedded in the id
	assert.Equal(t, uint32(10), block.Number(h.ID()))

	data, err := gorlp.EncodeToBytes(blk)
	require.NoError(t, err)

	var decoder block.Decoder
	require.NoError(t, gorlp.DecodeBytes(data, &decoder))
	decoded := decoder.Result
	assert.Equal(t, h.ID(), decoded.Header().ID())
	require.Len(t, decoded.Transactions(), 1)
	assert.Equal(t, trx.Hash(), decoded.Transactions()[0].Hash())
}

func TestHeaderEncoding(t *testing.T) {
	blk := new(block.Builder).
		Timestamp(42).
		Build()

	data, err := gorlp.EncodeToBytes(blk.Header())
	require.NoError(t, err)

	var decoded block.Header
	require.NoError(t, gorlp.DecodeBytes(data, &decoded))
	assert.Equal(t, blk.Header().ID(), decoded.ID())
	assert.Equal(t, uint64(42), decoded.Timestamp())
}
