// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package block

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/registry"
)

// Header contains all information about a block except its body.
// It's immutable.
type Header struct {
	body headerBody

	cache struct {
		id atomic.Value
	}
}

// headerBody body of header
type headerBody struct {
	ParentID  registry.Hash
	Timestamp uint64

	TxsRoot      registry.Hash
	StateRoot    registry.Hash
	ReceiptsRoot registry.Hash
}

// ParentID returns id of parent block.
func (h *Header) ParentID() registry.Hash {
	return h.body.ParentID
}

// Number returns sequential number of this block.
func (h *Header) Number() uint32 {
	// inferred from parent id
	return Number(h.body.ParentID) + 1
}

// Timestamp returns timestamp of this block.
func (h *Header) Timestamp() uint64 {
	return h.body.Timestamp
}

// TxsRoot returns the commitment of txs contained in this block.
func (h *Header) TxsRoot() registry.Hash {
	return h.body.TxsRoot
}

// StateRoot returns the state commitment just after this block being applied.
func (h *Header) StateRoot() registry.Hash {
	return h.body.StateRoot
}

// ReceiptsRoot returns the commitment of tx receipts.
func (h *Header) ReceiptsRoot() registry.Hash {
	return h.body.ReceiptsRoot
}

// ID computes id of block.
// The block ID is defined as: blockNumber + hash(header fields)[4:].
func (h *Header) ID() (id registry.Hash) {
	if cached := h.cache.id.Load(); cached != nil {
		return cached.(registry.Hash)
	}
	defer func() {
		// overwrite first 4 bytes of block hash to block number.
		binary.BigEndian.PutUint32(id[:], h.Number())
		h.cache.id.Store(id)
	}()

	hw := registry.NewBlake2b()
	rlp.Encode(hw, &h.body)
	hw.Sum(id[:0])
	return
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &h.body)
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var body headerBody
	if err := s.Decode(&body); err != nil {
		return err
	}
	*h = Header{body: body}
	return nil
}

func (h *Header) String() string {
	return fmt.Sprintf(`Header(%v):
	Number:		%v
	ParentID:	%v
	Timestamp:	%v
	TxsRoot:	%v
	StateRoot:	%v
	ReceiptsRoot:	%v`, h.ID(), h.Number(), h.body.ParentID, h.body.Timestamp,
		h.body.TxsRoot, h.body.StateRoot, h.body.ReceiptsRoot)
}

// Number extracts the block number out of a block id.
func Number(blockID registry.Hash) uint32 {
	// first 4 bytes are over written by block number (big endian).
	return binary.BigEndian.Uint32(blockID[:])
}
