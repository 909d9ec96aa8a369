// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Receipt represents the dispatch result of an included transaction.
//
// An included transaction always charged its fee and bumped the author's
// nonce; Succeeded tells whether the message itself applied.
type Receipt struct {
	TxHash registry.Hash
	Origin registry.AccountID
	// fee burned from the author, charged whether or not the message succeeded
	FeePaid   *big.Int
	Succeeded bool
	// dispatch error discriminant, zero when succeeded
	ErrCode   uint8
	ErrReason string
}

// DispatchError returns the typed failure, or nil if the message succeeded.
func (r *Receipt) DispatchError() *registry.DispatchError {
	if r.Succeeded {
		return nil
	}
	return &registry.DispatchError{
		Code:   registry.DispatchCode(r.ErrCode),
		Reason: r.ErrReason,
	}
}

// Receipts is a slice of receipts.
type Receipts []*Receipt

// RootHash computes the merkle-less commitment of the receipt list.
func (rs Receipts) RootHash() registry.Hash {
	return registry.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, rs)
	})
}
