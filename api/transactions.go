// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/api/utils"
	"github.com/radicle-dev/radicle-registry/chain"
	"github.com/radicle-dev/radicle-registry/client"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/runtime"
	"github.com/radicle-dev/radicle-registry/tx"
)

// Transactions exposes transaction submission and lookup.
type Transactions struct {
	ledger client.Ledger
	chain  *chain.Chain
}

// NewTransactions creates the transaction surface.
func NewTransactions(ledger client.Ledger, c *chain.Chain) *Transactions {
	return &Transactions{ledger: ledger, chain: c}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var rawTx RawTx
	if err := utils.ParseJSON(req.Body, &rawTx); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	data, err := hexutil.Decode(rawTx.Raw)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "raw"))
	}
	trx, err := tx.Decode(data)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "raw"))
	}
	if err := t.ledger.Submit(req.Context(), trx); err != nil {
		if runtime.IsRejected(err) {
			return utils.BadRequest(err)
		}
		return err
	}
	return utils.WriteJSON(w, utils.M{"id": trx.Hash()})
}

func (t *Transactions) handleGetTransaction(w http.ResponseWriter, req *http.Request) error {
	txHash, err := registry.ParseHash(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	trx, meta, err := t.chain.GetTransaction(txHash)
	if err != nil {
		if t.chain.IsNotFound(err) {
			return utils.NotFound(errors.New("transaction not found"))
		}
		return err
	}
	converted, err := convertTransaction(trx)
	if err != nil {
		return err
	}
	blk, err := t.chain.GetBlock(meta.BlockID)
	if err != nil {
		return err
	}
	converted.Block = BlockContext{
		ID:        blk.Header().ID(),
		Number:    blk.Header().Number(),
		Timestamp: blk.Header().Timestamp(),
	}
	return utils.WriteJSON(w, converted)
}

func (t *Transactions) handleGetReceipt(w http.ResponseWriter, req *http.Request) error {
	txHash, err := registry.ParseHash(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	receipt, err := t.ledger.Receipt(txHash)
	if err != nil {
		if t.ledger.IsNotFound(err) {
			return utils.NotFound(errors.New("receipt not found"))
		}
		return err
	}
	return utils.WriteJSON(w, convertReceipt(receipt))
}

// Mount mounts the transaction routes under the path prefix.
func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods("POST").HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
	sub.Path("/{id}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(t.handleGetTransaction))
	sub.Path("/{id}/receipt").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(t.handleGetReceipt))
}
