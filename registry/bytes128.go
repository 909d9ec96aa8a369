// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry

import (
	"encoding/hex"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// Bytes128MaxLength is the maximum length of a bounded byte vector.
const Bytes128MaxLength = 128

// Bytes128 is an opaque byte vector of at most 128 bytes. It carries all
// free-form entity data, e.g. project metadata, so that storage cost per
// entity stays capped.
type Bytes128 struct {
	value []byte
}

var (
	_ rlp.Encoder = Bytes128{}
	_ rlp.Decoder = (*Bytes128)(nil)
)

// NewBytes128 validates b's length and wraps it.
func NewBytes128(b []byte) (Bytes128, error) {
	if len(b) > Bytes128MaxLength {
		return Bytes128{}, &InordinateVectorError{MaxLength: Bytes128MaxLength}
	}
	return Bytes128{value: append([]byte(nil), b...)}, nil
}

// MustNewBytes128 wraps b, panics if b exceeds the bound.
func MustNewBytes128(b []byte) Bytes128 {
	v, err := NewBytes128(b)
	if err != nil {
		panic(err)
	}
	return v
}

// Bytes returns a copy of the wrapped bytes.
func (b Bytes128) Bytes() []byte {
	return append([]byte(nil), b.value...)
}

// Len returns the wrapped length.
func (b Bytes128) Len() int {
	return len(b.value)
}

// String implements stringer.
func (b Bytes128) String() string {
	return "0x" + hex.EncodeToString(b.value)
}

// EncodeRLP implements rlp.Encoder.
func (b Bytes128) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, b.value)
}

// DecodeRLP implements rlp.Decoder. The bound is enforced on decode as
// well, so inordinate vectors are rejected before reaching the ledger.
func (b *Bytes128) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	parsed, err := NewBytes128(raw)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
