// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
)

// DevAccount account for development.
type DevAccount struct {
	Address    registry.AccountID
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for solo mode.
//
// The keys are public knowledge; never fund them on a real network.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"46b26d1b2d521a6f9291350a31a5ab15ab0b049a8b01e94b1ba22d4674b0f0da",
		"3e8c9e1b6d5b0bd2a370bbcbdd5d8db4d0d0d7dde4e01235ccfda22a9eb1b0a3",
		"57a4f4a49a2d9b85f2b4fa9eef8e5b78e31dfbb45b1a95c1fde8300b1c0f4ff4",
		"2b6e66ca4dbbe3c17b3e931cb506619fc43bdc8f41bff3ba94faa294b297a9b2",
		"61e41c906316bfc15448e4c6fbcac8d313a4bd4b3277460d19bf92be1b78f653",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{registry.PublicKeyToAccountID(&pk.PublicKey), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevBalance is the initial balance of every dev account.
var DevBalance = big.NewInt(1_000_000_000)

// NewDevnet creates a genesis preset for solo mode. The first dev
// account doubles as sudo.
func NewDevnet() (*Genesis, error) {
	launchTime := uint64(1587943200) // 'Mon Apr 27 2020 00:00:00 GMT+0200 (CEST)'

	builder := new(Builder).
		Timestamp(launchTime).
		State(func(st *state.State) error {
			for _, acc := range DevAccounts() {
				st.SetAccount(acc.Address, &state.Account{
					Balance: new(big.Int).Set(DevBalance),
				})
			}
			return nil
		})

	return New(builder, DevAccounts()[0].Address)
}
