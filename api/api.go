// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package api exposes the registry over REST: entity reads, block
// history and raw transaction submission.
package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/radicle-dev/radicle-registry/api/utils"
	"github.com/radicle-dev/radicle-registry/chain"
	"github.com/radicle-dev/radicle-registry/client"
)

// New returns the api router.
func New(ledger client.Ledger, c *chain.Chain, allowedOrigins string) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(allowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/chain").Methods("GET").HandlerFunc(utils.WrapHandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) error {
			specVersion, err := ledger.SpecVersion()
			if err != nil {
				return err
			}
			best := c.BestBlock()
			return utils.WriteJSON(w, utils.M{
				"genesisHash": ledger.GenesisHash(),
				"specVersion": specVersion,
				"bestBlock":   convertBlock(best).BlockContext,
			})
		}))

	NewRegistry(ledger).Mount(router, "/registry")
	NewBlocks(c).Mount(router, "/blocks")
	NewTransactions(ledger, c).Mount(router, "/transactions")

	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(router).ServeHTTP
}
