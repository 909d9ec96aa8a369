// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package api

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/radicle-dev/radicle-registry/block"
	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
	"github.com/radicle-dev/radicle-registry/tx"
)

// Account account as JSON.
type Account struct {
	Balance *big.Int `json:"balance"`
	Nonce   uint32   `json:"nonce"`
}

func convertAccount(acc *state.Account) *Account {
	return &Account{Balance: acc.Balance, Nonce: acc.Nonce}
}

// User user entity as JSON.
type User struct {
	ID      registry.ID        `json:"id"`
	Account registry.AccountID `json:"account"`
}

func convertUser(u *state.User) *User {
	return &User{ID: u.ID, Account: u.Account}
}

// Org org entity as JSON.
type Org struct {
	ID      registry.ID        `json:"id"`
	Account registry.AccountID `json:"account"`
	Creator registry.AccountID `json:"creator"`
	Members []registry.ID      `json:"members"`
}

func convertOrg(o *state.Org) *Org {
	members := o.Members
	if members == nil {
		members = []registry.ID{}
	}
	return &Org{ID: o.ID, Account: o.Account, Creator: o.Creator, Members: members}
}

// Project project entity as JSON.
type Project struct {
	Org               registry.ID           `json:"org"`
	Name              registry.ProjectName  `json:"name"`
	Metadata          string                `json:"metadata"`
	CurrentCheckpoint registry.CheckpointID `json:"currentCheckpoint"`
}

func convertProject(p *state.Project) *Project {
	return &Project{
		Org:               p.ID.Org,
		Name:              p.ID.Name,
		Metadata:          p.Metadata.String(),
		CurrentCheckpoint: p.CurrentCheckpoint,
	}
}

// Checkpoint checkpoint as JSON.
type Checkpoint struct {
	ID          registry.CheckpointID  `json:"id"`
	ProjectHash registry.Hash          `json:"projectHash"`
	Parent      *registry.CheckpointID `json:"parent"`
}

func convertCheckpoint(c *state.Checkpoint) *Checkpoint {
	return &Checkpoint{ID: c.ID(), ProjectHash: c.Hash, Parent: c.Parent}
}

// BlockContext locates a block.
type BlockContext struct {
	ID        registry.Hash `json:"id"`
	Number    uint32        `json:"number"`
	Timestamp uint64        `json:"timestamp"`
}

// Block block as JSON.
type Block struct {
	BlockContext
	ParentID     registry.Hash   `json:"parentID"`
	StateRoot    registry.Hash   `json:"stateRoot"`
	TxsRoot      registry.Hash   `json:"txsRoot"`
	ReceiptsRoot registry.Hash   `json:"receiptsRoot"`
	Transactions []registry.Hash `json:"transactions"`
}

func convertBlock(blk *block.Block) *Block {
	h := blk.Header()
	txIDs := []registry.Hash{}
	for _, trx := range blk.Transactions() {
		txIDs = append(txIDs, trx.Hash())
	}
	return &Block{
		BlockContext: BlockContext{
			ID:        h.ID(),
			Number:    h.Number(),
			Timestamp: h.Timestamp(),
		},
		ParentID:     h.ParentID(),
		StateRoot:    h.StateRoot(),
		TxsRoot:      h.TxsRoot(),
		ReceiptsRoot: h.ReceiptsRoot(),
		Transactions: txIDs,
	}
}

// RawTx raw rlp-encoded transaction in hex.
type RawTx struct {
	Raw string `json:"raw"`
}

// Receipt dispatch receipt as JSON.
type Receipt struct {
	TxHash    registry.Hash      `json:"txHash"`
	Origin    registry.AccountID `json:"origin"`
	FeePaid   *big.Int           `json:"feePaid"`
	Succeeded bool               `json:"succeeded"`
	ErrCode   uint8              `json:"errCode,omitempty"`
	ErrReason string             `json:"errReason,omitempty"`
}

func convertReceipt(r *tx.Receipt) *Receipt {
	return &Receipt{
		TxHash:    r.TxHash,
		Origin:    r.Origin,
		FeePaid:   r.FeePaid,
		Succeeded: r.Succeeded,
		ErrCode:   r.ErrCode,
		ErrReason: r.ErrReason,
	}
}

// Transaction included transaction as JSON.
type Transaction struct {
	Hash        registry.Hash      `json:"hash"`
	Origin      registry.AccountID `json:"origin"`
	Nonce       uint32             `json:"nonce"`
	GenesisHash registry.Hash      `json:"genesisHash"`
	SpecVersion uint32             `json:"specVersion"`
	Fee         *big.Int           `json:"fee"`
	MessageKind uint8              `json:"messageKind"`
	Raw         string             `json:"raw"`
	Block       BlockContext       `json:"block"`
}

func convertTransaction(trx *tx.Transaction) (*Transaction, error) {
	origin, err := trx.Origin()
	if err != nil {
		return nil, err
	}
	msg, err := trx.Message()
	if err != nil {
		return nil, err
	}
	raw, err := trx.Encoded()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Hash:        trx.Hash(),
		Origin:      origin,
		Nonce:       trx.Nonce(),
		GenesisHash: trx.GenesisHash(),
		SpecVersion: trx.SpecVersion(),
		Fee:         trx.Fee(),
		MessageKind: uint8(msg.Kind()),
		Raw:         hexutil.Encode(raw),
	}, nil
}
