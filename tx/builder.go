// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Builder to make it easy to build a transaction.
//
// Nonce and genesis hash can be fetched from the ledger once and cached;
// building and signing then need no network access.
type Builder struct {
	body body
	err  error
}

// Message sets the wrapped message.
func (b *Builder) Message(m Message) *Builder {
	kind, data, err := EncodeMessage(m)
	if err != nil {
		b.err = err
		return b
	}
	b.body.MsgKind = uint8(kind)
	b.body.MsgData = data
	return b
}

// Nonce sets the author's account nonce.
func (b *Builder) Nonce(nonce uint32) *Builder {
	b.body.Nonce = nonce
	return b
}

// GenesisHash binds the tx to the chain instance with the given genesis hash.
func (b *Builder) GenesisHash(hash registry.Hash) *Builder {
	b.body.GenesisHash = hash
	return b
}

// SpecVersion pins the tx to a runtime spec version.
func (b *Builder) SpecVersion(version uint32) *Builder {
	b.body.SpecVersion = version
	return b
}

// Fee sets the declared fee.
func (b *Builder) Fee(fee *big.Int) *Builder {
	b.body.Fee = new(big.Int).Set(fee)
	return b
}

// Build builds the tx object.
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	tx := Transaction{body: b.body}
	if tx.body.Fee == nil {
		tx.body.Fee = new(big.Int)
	}
	return &tx, nil
}

// MustBuild builds the tx object, panics on error.
func (b *Builder) MustBuild() *Transaction {
	tx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tx
}
