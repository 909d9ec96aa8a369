// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Transactions is a slice of transactions.
type Transactions []*Transaction

// Copy makes a shallow copy of the slice.
func (ts Transactions) Copy() Transactions {
	return append(Transactions(nil), ts...)
}

// RootHash computes the commitment of the transaction list.
func (ts Transactions) RootHash() registry.Hash {
	return registry.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, ts)
	})
}
