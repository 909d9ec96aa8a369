// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/api/utils"
	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/chain"
	"github.com/radicle-dev/radicle-registry/registry"
)

// Blocks exposes the block history.
type Blocks struct {
	chain *chain.Chain
}

// NewBlocks creates the block read surface.
func NewBlocks(c *chain.Chain) *Blocks {
	return &Blocks{chain: c}
}

// getBlock resolves a revision: "best", a block number, or a block id.
func (b *Blocks) getBlock(revision string) (*block.Block, error) {
	if revision == "best" {
		blk := b.chain.BestBlock()
		if blk == nil {
			return nil, errors.New("chain is empty")
		}
		return blk, nil
	}
	if num, err := strconv.ParseUint(revision, 10, 32); err == nil {
		return b.chain.GetBlockByNumber(uint32(num))
	}
	id, err := registry.ParseHash(revision)
	if err != nil {
		return nil, utils.BadRequest(errors.WithMessage(err, "revision"))
	}
	return b.chain.GetBlock(id)
}

func (b *Blocks) handleGetBlock(w http.ResponseWriter, req *http.Request) error {
	blk, err := b.getBlock(mux.Vars(req)["revision"])
	if err != nil {
		if b.chain.IsNotFound(err) {
			return utils.NotFound(errors.New("block not found"))
		}
		return err
	}
	return utils.WriteJSON(w, convertBlock(blk))
}

// Mount mounts the block routes under the path prefix.
func (b *Blocks) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{revision}").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(b.handleGetBlock))
}
