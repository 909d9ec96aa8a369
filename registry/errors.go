// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry

import (
	"errors"
	"fmt"
)

// DispatchCode discriminates dispatch-level failures in receipts.
//
// Codes are part of the protocol: once assigned they are never altered
// or reused, even after a variant is deprecated, so callers matching on
// them across ledger versions cannot misinterpret an old variant.
type DispatchCode uint8

const (
	// CodeAuthorizationFailed: the signing account is not authorized for
	// the requested action. Fee charged, nonce incremented.
	CodeAuthorizationFailed DispatchCode = 1

	// CodePreconditionFailed: a state-dependent precondition does not
	// hold. Fee charged, nonce incremented.
	CodePreconditionFailed DispatchCode = 2

	// CodeStateCorruption: stored state could not be interpreted.
	// Fatal to the operation; never silently defaulted.
	CodeStateCorruption DispatchCode = 3
)

// DispatchError is the typed business-logic failure attached to an
// included transaction's receipt.
type DispatchError struct {
	Code   DispatchCode
	Reason string
}

func (e *DispatchError) Error() string {
	switch e.Code {
	case CodeAuthorizationFailed:
		return fmt.Sprintf("authorization failed: %s", e.Reason)
	case CodePreconditionFailed:
		return fmt.Sprintf("precondition failed: %s", e.Reason)
	case CodeStateCorruption:
		return fmt.Sprintf("state corruption: %s", e.Reason)
	default:
		return fmt.Sprintf("dispatch error %d: %s", e.Code, e.Reason)
	}
}

// AuthorizationFailed creates a DispatchError with CodeAuthorizationFailed.
func AuthorizationFailed(reason string) *DispatchError {
	return &DispatchError{Code: CodeAuthorizationFailed, Reason: reason}
}

// PreconditionFailed creates a DispatchError with CodePreconditionFailed.
func PreconditionFailed(reason string) *DispatchError {
	return &DispatchError{Code: CodePreconditionFailed, Reason: reason}
}

// IsAuthorizationFailed reports whether err is a DispatchError with
// CodeAuthorizationFailed.
func IsAuthorizationFailed(err error) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Code == CodeAuthorizationFailed
}

// IsPreconditionFailed reports whether err is a DispatchError with
// CodePreconditionFailed.
func IsPreconditionFailed(err error) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Code == CodePreconditionFailed
}

// StateCorruptionError signals that a stored payload carried an
// unrecognized variant tag. It aborts the operation that hit it.
type StateCorruptionError struct {
	Namespace string
	Tag       uint8
}

func (e *StateCorruptionError) Error() string {
	return fmt.Sprintf("state corruption: unrecognized variant tag %d in %s", e.Tag, e.Namespace)
}

// IsStateCorruption reports whether err descends from a StateCorruptionError.
func IsStateCorruption(err error) bool {
	var sc *StateCorruptionError
	return errors.As(err, &sc)
}
