// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package chain persists the linear block history of the ledger.
//
// The registry runs with a single block authority, so there are no
// forks: every block extends the current best block and the best
// pointer only ever moves forward.
package chain

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/kv"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/tx"
)

const (
	blockCacheLimit    = 512
	receiptsCacheLimit = 512
)

var errNotFound = errors.New("not found")

// ErrGenesisMismatch reports a store that already carries a chain with
// a different genesis block.
var ErrGenesisMismatch = errors.New("genesis mismatch with existing chain")

// Chain is a persistent, thread-safe block chain.
type Chain struct {
	store     kv.Store
	bestBlock *block.Block
	cached    struct {
		blocks   *cache
		receipts *cache
	}
	rw sync.RWMutex
}

// New creates a chain over the given store. If the store already holds
// a chain, the best block is restored from it.
func New(store kv.Store) (*Chain, error) {
	c := &Chain{store: store}
	c.cached.blocks = newCache(blockCacheLimit)
	c.cached.receipts = newCache(receiptsCacheLimit)

	bestID, err := loadBestBlockID(store)
	if err != nil {
		if store.IsNotFound(err) {
			return c, nil
		}
		return nil, err
	}
	best, err := loadBlock(store, bestID)
	if err != nil {
		return nil, errors.Wrap(err, "restore best block")
	}
	c.bestBlock = best
	return c, nil
}

// WriteGenesis writes the genesis block into an empty chain. If a
// genesis block already exists it must match, or an error is returned.
func (c *Chain) WriteGenesis(genesis *block.Block) error {
	c.rw.Lock()
	defer c.rw.Unlock()

	existingID, err := loadBlockIDByNumber(c.store, 0)
	if err == nil {
		if existingID != genesis.Header().ID() {
			return ErrGenesisMismatch
		}
		return nil
	}
	if !c.store.IsNotFound(err) {
		return err
	}

	batch := c.store.NewBatch()
	if err := saveBlock(batch, genesis); err != nil {
		return err
	}
	if err := saveBestBlockID(batch, genesis.Header().ID()); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	c.bestBlock = genesis
	return nil
}

// AddBlock appends a block and its receipts to the chain. The block
// must extend the current best block.
func (c *Chain) AddBlock(blk *block.Block, receipts tx.Receipts) error {
	c.rw.Lock()
	defer c.rw.Unlock()

	if c.bestBlock == nil {
		return errors.New("no genesis block written yet")
	}
	if blk.Header().ParentID() != c.bestBlock.Header().ID() {
		return errors.New("block does not extend the best block")
	}

	batch := c.store.NewBatch()
	if err := saveBlock(batch, blk); err != nil {
		return err
	}
	if err := saveTxMetas(batch, blk); err != nil {
		return err
	}
	if err := saveReceipts(batch, blk.Header().ID(), receipts); err != nil {
		return err
	}
	if err := saveBestBlockID(batch, blk.Header().ID()); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}
	c.bestBlock = blk
	return nil
}

// BestBlock returns the newest block on the chain, or nil before the
// genesis block is written.
func (c *Chain) BestBlock() *block.Block {
	c.rw.RLock()
	defer c.rw.RUnlock()
	return c.bestBlock
}

// GenesisID returns the id of the genesis block.
func (c *Chain) GenesisID() (registry.Hash, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()
	return loadBlockIDByNumber(c.store, 0)
}

// GetBlock returns the block with the given id.
func (c *Chain) GetBlock(id registry.Hash) (*block.Block, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()
	return c.getBlock(id)
}

func (c *Chain) getBlock(id registry.Hash) (*block.Block, error) {
	blk, err := c.cached.blocks.GetOrLoad(id, func() (interface{}, error) {
		return loadBlock(c.store, id)
	})
	if err != nil {
		return nil, c.wrapNotFound(err)
	}
	return blk.(*block.Block), nil
}

// GetBlockByNumber returns the block with the given sequential number.
func (c *Chain) GetBlockByNumber(num uint32) (*block.Block, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()

	id, err := loadBlockIDByNumber(c.store, num)
	if err != nil {
		return nil, c.wrapNotFound(err)
	}
	return c.getBlock(id)
}

// GetTransaction returns an included transaction and its location.
func (c *Chain) GetTransaction(txHash registry.Hash) (*tx.Transaction, *TxMeta, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()

	meta, err := loadTxMeta(c.store, txHash)
	if err != nil {
		return nil, nil, c.wrapNotFound(err)
	}
	blk, err := c.getBlock(meta.BlockID)
	if err != nil {
		return nil, nil, err
	}
	txs := blk.Transactions()
	if meta.Index >= uint64(len(txs)) {
		return nil, nil, errors.Errorf("tx index %d out of range in block %v", meta.Index, meta.BlockID)
	}
	return txs[meta.Index], meta, nil
}

// GetReceipt returns the receipt of an included transaction.
func (c *Chain) GetReceipt(txHash registry.Hash) (*tx.Receipt, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()

	meta, err := loadTxMeta(c.store, txHash)
	if err != nil {
		return nil, c.wrapNotFound(err)
	}
	receipts, err := c.getReceipts(meta.BlockID)
	if err != nil {
		return nil, err
	}
	if meta.Index >= uint64(len(receipts)) {
		return nil, errors.Errorf("receipt index %d out of range in block %v", meta.Index, meta.BlockID)
	}
	return receipts[meta.Index], nil
}

// GetBlockReceipts returns all receipts of the given block.
func (c *Chain) GetBlockReceipts(blockID registry.Hash) (tx.Receipts, error) {
	c.rw.RLock()
	defer c.rw.RUnlock()
	return c.getReceipts(blockID)
}

func (c *Chain) getReceipts(blockID registry.Hash) (tx.Receipts, error) {
	receipts, err := c.cached.receipts.GetOrLoad(blockID, func() (interface{}, error) {
		return loadReceipts(c.store, blockID)
	})
	if err != nil {
		return nil, c.wrapNotFound(err)
	}
	return receipts.(tx.Receipts), nil
}

func (c *Chain) wrapNotFound(err error) error {
	if c.store.IsNotFound(err) {
		return errNotFound
	}
	return err
}

// IsNotFound reports whether err means the queried object is absent.
func (c *Chain) IsNotFound(err error) bool {
	return err == errNotFound || c.store.IsNotFound(err)
}
