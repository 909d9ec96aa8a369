// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// AccountIDLength length of account id in bytes.
const AccountIDLength = 20

// AccountID identifies a ledger account. It is derived from the secp256k1
// public key whose signatures the account's transactions carry.
type AccountID [AccountIDLength]byte

var (
	_ json.Marshaler   = (*AccountID)(nil)
	_ json.Unmarshaler = (*AccountID)(nil)
)

// String implements the stringer interface.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Bytes returns byte slice form of account id.
func (a AccountID) Bytes() []byte {
	return a[:]
}

// IsZero returns if account id has all zero bytes.
func (a AccountID) IsZero() bool {
	return a == AccountID{}
}

// MarshalJSON implements json.Marshaler.
func (a *AccountID) MarshalJSON() ([]byte, error) {
	if a == nil {
		return json.Marshal(nil)
	}
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AccountID) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return err
	}
	parsed, err := ParseAccountID(hexStr)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAccountID converts a string presentation into AccountID type.
func ParseAccountID(s string) (AccountID, error) {
	if len(s) == AccountIDLength*2 {
	} else if len(s) == AccountIDLength*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return AccountID{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return AccountID{}, errors.New("invalid length")
	}

	var a AccountID
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return AccountID{}, err
	}
	return a, nil
}

// MustParseAccountID converts a string presentation into AccountID type, panics on error.
func MustParseAccountID(s string) AccountID {
	a, err := ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return a
}

// BytesToAccountID converts bytes slice into account id.
// If b is larger than account id length, b will be cropped (from the left).
// If b is smaller than account id length, b will be extended (from the left).
func BytesToAccountID(b []byte) (a AccountID) {
	if len(b) > AccountIDLength {
		b = b[len(b)-AccountIDLength:]
	}
	copy(a[AccountIDLength-len(b):], b)
	return
}

// PublicKeyToAccountID derives the account id from a secp256k1 public key.
func PublicKeyToAccountID(pub *ecdsa.PublicKey) AccountID {
	return AccountID(crypto.PubkeyToAddress(*pub))
}
