// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package api_test

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radicle-dev/radicle-registry/api"
	"github.com/radicle-dev/radicle-registry/client"
	"github.com/radicle-dev/radicle-registry/emulator"
	"github.com/radicle-dev/radicle-registry/genesis"
	"github.com/radicle-dev/radicle-registry/lvldb"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/tx"
)

func startTestServer(t *testing.T) (*httptest.Server, *emulator.Emulator) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gen, err := genesis.NewDevnet()
	require.NoError(t, err)
	e, err := emulator.New(db, gen)
	require.NoError(t, err)

	ts := httptest.NewServer(api.New(e, e.Chain(), "*"))
	t.Cleanup(ts.Close)
	return ts, e
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestChainEndpoint(t *testing.T) {
	ts, e := startTestServer(t)

	body, status := httpGet(t, ts.URL+"/chain")
	require.Equal(t, http.StatusOK, status)

	var info struct {
		GenesisHash registry.Hash `json:"genesisHash"`
		SpecVersion uint32        `json:"specVersion"`
	}
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, e.GenesisHash(), info.GenesisHash)
	assert.Equal(t, registry.InitialSpecVersion, info.SpecVersion)
}

func TestSubmitAndReadBack(t *testing.T) {
	ts, e := startTestServer(t)
	alice := genesis.DevAccounts()[0]

	// register a user through the wire format
	c := client.New(e)
	trx, err := c.Assemble(alice.Address, &tx.RegisterUser{ID: registry.MustNewID("alice")}, big.NewInt(1))
	require.NoError(t, err)
	trx = tx.MustSign(trx, alice.PrivateKey)
	raw, err := trx.Encoded()
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]string{"raw": hexutil.Encode(raw)})
	res, err := http.Post(ts.URL+"/transactions", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var submitted struct {
		ID registry.Hash `json:"id"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&submitted))
	assert.Equal(t, trx.Hash(), submitted.ID)

	// receipt
	body, status := httpGet(t, ts.URL+"/transactions/"+trx.Hash().String()+"/receipt")
	require.Equal(t, http.StatusOK, status)
	var receipt struct {
		Succeeded bool `json:"succeeded"`
	}
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.True(t, receipt.Succeeded)

	// entity read
	body, status = httpGet(t, ts.URL+"/registry/users/alice")
	require.Equal(t, http.StatusOK, status)
	var user struct {
		ID      registry.ID        `json:"id"`
		Account registry.AccountID `json:"account"`
	}
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, alice.Address, user.Account)

	// block read by number and by "best"
	body, status = httpGet(t, ts.URL+"/blocks/1")
	require.Equal(t, http.StatusOK, status)
	var blk struct {
		Number       uint32          `json:"number"`
		Transactions []registry.Hash `json:"transactions"`
	}
	require.NoError(t, json.Unmarshal(body, &blk))
	assert.Equal(t, uint32(1), blk.Number)
	require.Len(t, blk.Transactions, 1)
	assert.Equal(t, trx.Hash(), blk.Transactions[0])

	_, status = httpGet(t, ts.URL+"/blocks/best")
	assert.Equal(t, http.StatusOK, status)
}

func TestRejectedSubmissionIsBadRequest(t *testing.T) {
	ts, e := startTestServer(t)
	alice := genesis.DevAccounts()[0]

	trx := tx.MustSign(new(tx.Builder).
		Message(&tx.RegisterUser{ID: registry.MustNewID("alice")}).
		Nonce(7). // gap
		GenesisHash(e.GenesisHash()).
		SpecVersion(registry.InitialSpecVersion).
		Fee(big.NewInt(1)).
		MustBuild(), alice.PrivateKey)
	raw, err := trx.Encoded()
	require.NoError(t, err)

	payload, _ := json.Marshal(map[string]string{"raw": hexutil.Encode(raw)})
	res, err := http.Post(ts.URL+"/transactions", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestNotFoundReads(t *testing.T) {
	ts, _ := startTestServer(t)

	_, status := httpGet(t, ts.URL+"/registry/users/nobody")
	assert.Equal(t, http.StatusNotFound, status)

	_, status = httpGet(t, ts.URL+"/registry/orgs/nobody")
	assert.Equal(t, http.StatusNotFound, status)

	_, status = httpGet(t, ts.URL+"/blocks/99")
	assert.Equal(t, http.StatusNotFound, status)

	// malformed id
	_, status = httpGet(t, ts.URL+"/registry/users/UPPER")
	assert.Equal(t, http.StatusBadRequest, status)
}
