// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package tx

import (
	"io"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Transaction is an immutable, signed envelope around a message.
//
// Besides the message it binds the author's account nonce (replay
// protection and ordering), the chain's genesis hash (binds the
// transaction to one chain instance) and the spec version it was built
// against. The fee is declared by the author and must meet the protocol
// minimum.
type Transaction struct {
	body body

	cache struct {
		signingHash atomic.Value
		hash        atomic.Value
		origin      atomic.Value
	}
}

// body describes details of a tx.
type body struct {
	MsgKind     uint8
	MsgData     rlp.RawValue
	Nonce       uint32
	GenesisHash registry.Hash
	SpecVersion uint32
	Fee         *big.Int
	Signature   []byte
}

// Message decodes and returns the wrapped message.
func (t *Transaction) Message() (Message, error) {
	return DecodeMessage(MessageKind(t.body.MsgKind), t.body.MsgData)
}

// MessageKind returns the wire discriminant of the wrapped message.
func (t *Transaction) MessageKind() MessageKind {
	return MessageKind(t.body.MsgKind)
}

// Nonce returns the author's account nonce the tx was built with.
func (t *Transaction) Nonce() uint32 {
	return t.body.Nonce
}

// GenesisHash returns the genesis hash of the chain the tx is bound to.
func (t *Transaction) GenesisHash() registry.Hash {
	return t.body.GenesisHash
}

// SpecVersion returns the runtime spec version the tx was built against.
func (t *Transaction) SpecVersion() uint32 {
	return t.body.SpecVersion
}

// Fee returns the declared transaction fee.
func (t *Transaction) Fee() *big.Int {
	if t.body.Fee == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(t.body.Fee)
}

// Signature returns the signature.
func (t *Transaction) Signature() []byte {
	return append([]byte(nil), t.body.Signature...)
}

// Hash returns the hash of the tx, stable across equivalent re-encodings.
func (t *Transaction) Hash() registry.Hash {
	if cached := t.cache.hash.Load(); cached != nil {
		return cached.(registry.Hash)
	}
	h := registry.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, t)
	})
	t.cache.hash.Store(h)
	return h
}

// SigningHash returns the hash of the tx body excluding the signature.
// It is the canonical byte payload handed to the signing capability.
func (t *Transaction) SigningHash() registry.Hash {
	if cached := t.cache.signingHash.Load(); cached != nil {
		return cached.(registry.Hash)
	}
	h := registry.Blake2bFn(func(w io.Writer) {
		rlp.Encode(w, []interface{}{
			t.body.MsgKind,
			t.body.MsgData,
			t.body.Nonce,
			t.body.GenesisHash,
			t.body.SpecVersion,
			t.body.Fee,
		})
	})
	t.cache.signingHash.Store(h)
	return h
}

// Origin recovers and returns the author's account from the signature.
func (t *Transaction) Origin() (registry.AccountID, error) {
	if cached := t.cache.origin.Load(); cached != nil {
		return cached.(registry.AccountID), nil
	}
	if len(t.body.Signature) != 65 {
		return registry.AccountID{}, errors.New("invalid signature length")
	}
	signingHash := t.SigningHash()
	pub, err := crypto.SigToPub(signingHash.Bytes(), t.body.Signature)
	if err != nil {
		return registry.AccountID{}, err
	}
	origin := registry.PublicKeyToAccountID(pub)
	t.cache.origin.Store(origin)
	return origin, nil
}

// WithSignature creates a new tx with the signature set.
func (t *Transaction) WithSignature(sig []byte) *Transaction {
	newTx := Transaction{body: t.body}
	newTx.body.Signature = append([]byte(nil), sig...)
	return &newTx
}

// EncodeRLP implements rlp.Encoder.
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder.
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

// Encoded returns the canonical byte encoding submitted to the chain.
func (t *Transaction) Encoded() ([]byte, error) {
	return rlp.EncodeToBytes(t)
}

// Decode decodes a tx from its canonical byte encoding.
func Decode(data []byte) (*Transaction, error) {
	var t Transaction
	if err := rlp.DecodeBytes(data, &t); err != nil {
		return nil, errors.Wrap(err, "decode transaction")
	}
	// surface bounded-field violations right away
	if _, err := t.Message(); err != nil {
		return nil, errors.Wrap(err, "decode transaction message")
	}
	return &t, nil
}
