// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package chain

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/tx"
)

// Bucket names are stable storage constants; a name, once released, is
// never reused for a collection with a different shape.
const (
	blockBucket       kv.Bucket = "Blocks1"
	blockNumberBucket kv.Bucket = "BlockNumbers1"
	txMetaBucket      kv.Bucket = "TxMeta1"
	receiptsBucket    kv.Bucket = "Receipts1"
	chainPropsBucket  kv.Bucket = "ChainProps1"
)

var bestBlockIDKey = []byte("best-block-id")

// TxMeta locates an included transaction within the chain.
type TxMeta struct {
	BlockID registry.Hash
	// position of the tx inside the block
	Index uint64
}

func saveRLP(w kv.Putter, key []byte, val interface{}) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return w.Put(key, data)
}

func loadRLP(r kv.Getter, key []byte, val interface{}) error {
	data, err := r.Get(key)
	if err != nil {
		return err
	}
	return rlp.DecodeBytes(data, val)
}

func numberKey(num uint32) []byte {
	var k [4]byte
	binary.BigEndian.PutUint32(k[:], num)
	return blockNumberBucket.ProtoKey(k[:])
}

func saveBlock(w kv.Putter, blk *block.Block) error {
	id := blk.Header().ID()
	if err := saveRLP(w, blockBucket.ProtoKey(id.Bytes()), blk); err != nil {
		return err
	}
	return w.Put(numberKey(blk.Header().Number()), id.Bytes())
}

func loadBlock(r kv.Getter, id registry.Hash) (*block.Block, error) {
	data, err := r.Get(blockBucket.ProtoKey(id.Bytes()))
	if err != nil {
		return nil, err
	}
	var decoder block.Decoder
	if err := rlp.DecodeBytes(data, &decoder); err != nil {
		return nil, err
	}
	return decoder.Result, nil
}

func loadBlockIDByNumber(r kv.Getter, num uint32) (registry.Hash, error) {
	data, err := r.Get(numberKey(num))
	if err != nil {
		return registry.Hash{}, err
	}
	return registry.BytesToHash(data), nil
}

func saveTxMetas(w kv.Putter, blk *block.Block) error {
	id := blk.Header().ID()
	for i, trx := range blk.Transactions() {
		meta := TxMeta{BlockID: id, Index: uint64(i)}
		if err := saveRLP(w, txMetaBucket.ProtoKey(trx.Hash().Bytes()), &meta); err != nil {
			return err
		}
	}
	return nil
}

func loadTxMeta(r kv.Getter, txHash registry.Hash) (*TxMeta, error) {
	var meta TxMeta
	if err := loadRLP(r, txMetaBucket.ProtoKey(txHash.Bytes()), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func saveReceipts(w kv.Putter, blockID registry.Hash, receipts tx.Receipts) error {
	return saveRLP(w, receiptsBucket.ProtoKey(blockID.Bytes()), receipts)
}

func loadReceipts(r kv.Getter, blockID registry.Hash) (tx.Receipts, error) {
	var receipts tx.Receipts
	if err := loadRLP(r, receiptsBucket.ProtoKey(blockID.Bytes()), &receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

func saveBestBlockID(w kv.Putter, id registry.Hash) error {
	return w.Put(chainPropsBucket.ProtoKey(bestBlockIDKey), id.Bytes())
}

func loadBestBlockID(r kv.Getter) (registry.Hash, error) {
	data, err := r.Get(chainPropsBucket.ProtoKey(bestBlockIDKey))
	if err != nil {
		return registry.Hash{}, err
	}
	return registry.BytesToHash(data), nil
}
