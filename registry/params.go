// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry

import "math/big"

// CheckpointID identifies a checkpoint by the blake2b digest of its content.
type CheckpointID = Hash

// Protocol constants.
const (
	// InitialSpecVersion is the spec version of a freshly bootstrapped chain.
	// It only ever moves forward, through accepted RuntimeUpdate messages.
	InitialSpecVersion uint32 = 1

	// BlockInterval is the nominal time between two consecutive blocks, in seconds.
	BlockInterval uint64 = 6
)

var (
	// MinimumFee is the least fee a transaction must declare to be admitted.
	// Transactions below it are rejected before dispatch, without charge.
	MinimumFee = big.NewInt(1)

	// MinimumTransferAmount is the least amount a transfer may move.
	MinimumTransferAmount = big.NewInt(1)
)
