// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package runtime

import (
	"errors"
	"fmt"
)

// RejectCode discriminates pre-dispatch rejections. A rejected
// transaction is not included, not charged, and its author's nonce does
// not move.
//
// Codes are stable protocol constants; once assigned they are never
// reused, even for deprecated variants.
type RejectCode uint8

const (
	RejectSignatureInvalid    RejectCode = 1
	RejectGenesisMismatch     RejectCode = 2
	RejectSpecVersionMismatch RejectCode = 3
	RejectFeeTooLow           RejectCode = 4
	RejectNonceMismatch       RejectCode = 5
	RejectInsufficientFunds   RejectCode = 6
	RejectMalformedMessage    RejectCode = 7
)

// RejectError reports why a transaction was refused before dispatch.
type RejectError struct {
	Code   RejectCode
	Reason string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("transaction rejected: %s", e.Reason)
}

// IsRejected reports whether err is a pre-dispatch rejection.
func IsRejected(err error) bool {
	var re *RejectError
	return errors.As(err, &re)
}

// RejectedWith reports whether err is a rejection with the given code.
func RejectedWith(err error, code RejectCode) bool {
	var re *RejectError
	return errors.As(err, &re) && re.Code == code
}
