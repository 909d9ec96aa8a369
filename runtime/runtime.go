// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

// Package runtime implements the deterministic state transition function
// of the registry ledger.
//
// Transactions within a block apply strictly in submission order; there
// is no reordering or parallel application. This is what lets every
// replica converge on identical state.
package runtime

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/radicle-dev/radicle-registry/registry"
	"github.com/radicle-dev/radicle-registry/state"
	"github.com/radicle-dev/radicle-registry/tx"
)

// Runtime validates and applies transactions against a state.
type Runtime struct {
	state       *state.State
	genesisHash registry.Hash
	sudo        registry.AccountID
}

// New creates a runtime over the given state.
// genesisHash identifies the chain instance; sudo is the account allowed
// to submit RuntimeUpdate messages.
func New(st *state.State, genesisHash registry.Hash, sudo registry.AccountID) *Runtime {
	return &Runtime{state: st, genesisHash: genesisHash, sudo: sudo}
}

// State returns the runtime's backing state.
func (rt *Runtime) State() *state.State {
	return rt.state
}

// Validate runs all pre-dispatch checks without mutating state.
//
// A failing transaction is refused outright: no fee is charged and the
// author's nonce does not move. The checks are cheap and read-only, so
// pools may run them concurrently for many candidate transactions.
func (rt *Runtime) Validate(trx *tx.Transaction) (registry.AccountID, error) {
	origin, err := trx.Origin()
	if err != nil {
		return registry.AccountID{}, &RejectError{
			Code:   RejectSignatureInvalid,
			Reason: fmt.Sprintf("invalid signature: %s", err),
		}
	}

	if trx.GenesisHash() != rt.genesisHash {
		return registry.AccountID{}, &RejectError{
			Code:   RejectGenesisMismatch,
			Reason: "transaction is bound to a different chain instance",
		}
	}

	specVersion, err := rt.state.SpecVersion()
	if err != nil {
		return registry.AccountID{}, err
	}
	if trx.SpecVersion() != specVersion {
		return registry.AccountID{}, &RejectError{
			Code: RejectSpecVersionMismatch,
			Reason: fmt.Sprintf("transaction built for spec version %d, active is %d",
				trx.SpecVersion(), specVersion),
		}
	}

	if trx.Fee().Cmp(registry.MinimumFee) < 0 {
		return registry.AccountID{}, &RejectError{
			Code:   RejectFeeTooLow,
			Reason: fmt.Sprintf("fee below protocol minimum %s", registry.MinimumFee),
		}
	}

	if _, err := trx.Message(); err != nil {
		return registry.AccountID{}, &RejectError{
			Code:   RejectMalformedMessage,
			Reason: fmt.Sprintf("malformed message: %s", err),
		}
	}

	acc, err := rt.state.GetAccount(origin)
	if err != nil {
		return registry.AccountID{}, err
	}
	// sequential only: gap nonces are rejected, never queued
	if trx.Nonce() != acc.Nonce {
		return registry.AccountID{}, &RejectError{
			Code:   RejectNonceMismatch,
			Reason: fmt.Sprintf("nonce %d does not match account nonce %d", trx.Nonce(), acc.Nonce),
		}
	}
	if acc.Balance.Cmp(trx.Fee()) < 0 {
		return registry.AccountID{}, &RejectError{
			Code:   RejectInsufficientFunds,
			Reason: "balance cannot cover the transaction fee",
		}
	}

	return origin, nil
}

// Execute validates and applies a transaction, returning its receipt.
//
// Once past validation the fee is burned from the author and the nonce
// incremented no matter what; business-logic failure reverts everything
// else and lands in the receipt. A non-nil error means the transaction
// could not be included at all: either a RejectError, or a fatal state
// access failure such as corruption.
func (rt *Runtime) Execute(trx *tx.Transaction) (*tx.Receipt, error) {
	origin, err := rt.Validate(trx)
	if err != nil {
		return nil, err
	}

	msg, err := trx.Message()
	if err != nil {
		// unreachable after Validate, kept as a safety net
		return nil, err
	}
	fee := trx.Fee()

	// save point before any write, so a fatal failure leaves no trace
	preTx := rt.state.NewCheckpoint()

	// fees are consumed for spam resistance even when the message fails
	acc, err := rt.state.GetAccount(origin)
	if err != nil {
		rt.state.RevertTo(preTx)
		return nil, err
	}
	acc.Balance.Sub(acc.Balance, fee)
	acc.Nonce++
	rt.state.SetAccount(origin, acc)

	receipt := &tx.Receipt{
		TxHash:    trx.Hash(),
		Origin:    origin,
		FeePaid:   fee,
		Succeeded: true,
	}

	checkpoint := rt.state.NewCheckpoint()
	if err := rt.apply(origin, msg); err != nil {
		if de, ok := err.(*registry.DispatchError); ok {
			// business failure: keep fee and nonce, drop the rest
			rt.state.RevertTo(checkpoint)
			receipt.Succeeded = false
			receipt.ErrCode = uint8(de.Code)
			receipt.ErrReason = de.Reason
			return receipt, nil
		}
		// state corruption or store failure: fatal, no receipt, and
		// the fee debit must not survive into a later block
		rt.state.RevertTo(preTx)
		return nil, err
	}

	return receipt, nil
}

// apply runs the business logic of a single message. It returns a
// *registry.DispatchError for authorization/precondition failures and a
// bare error for fatal state access problems.
func (rt *Runtime) apply(origin registry.AccountID, msg tx.Message) error {
	switch m := msg.(type) {
	case *tx.RegisterUser:
		return rt.registerUser(origin, m)
	case *tx.UnregisterUser:
		return rt.unregisterUser(origin, m)
	case *tx.RegisterOrg:
		return rt.registerOrg(origin, m)
	case *tx.UnregisterOrg:
		return rt.unregisterOrg(origin, m)
	case *tx.RegisterMember:
		return rt.registerMember(origin, m)
	case *tx.RegisterProject:
		return rt.registerProject(origin, m)
	case *tx.CreateCheckpoint:
		return rt.createCheckpoint(origin, m)
	case *tx.SetCheckpoint:
		return rt.setCheckpoint(origin, m)
	case *tx.Transfer:
		return rt.transfer(origin, m)
	case *tx.TransferFromOrg:
		return rt.transferFromOrg(origin, m)
	case *tx.RuntimeUpdate:
		return rt.runtimeUpdate(origin, m)
	default:
		return registry.PreconditionFailed(fmt.Sprintf("unsupported message kind %d", msg.Kind()))
	}
}

func (rt *Runtime) claimID(id registry.ID) error {
	status, err := rt.state.GetIDStatus(id)
	if err != nil {
		return err
	}
	switch status {
	case state.IDUnclaimed:
		rt.state.SetIDStatus(id, state.IDClaimed)
		return nil
	case state.IDClaimed:
		return registry.PreconditionFailed(fmt.Sprintf("identifier %q already claimed", id))
	case state.IDRetired:
		return registry.PreconditionFailed(fmt.Sprintf("identifier %q was retired and cannot be reclaimed", id))
	default:
		return &registry.StateCorruptionError{Namespace: "Ids1", Tag: uint8(status)}
	}
}

func (rt *Runtime) registerUser(origin registry.AccountID, m *tx.RegisterUser) error {
	if err := rt.claimID(m.ID); err != nil {
		return err
	}
	rt.state.SetUser(&state.User{ID: m.ID, Account: origin})
	return nil
}

func (rt *Runtime) unregisterUser(origin registry.AccountID, m *tx.UnregisterUser) error {
	user, err := rt.state.GetUser(m.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return registry.PreconditionFailed(fmt.Sprintf("user %q not found", m.ID))
	}
	if user.Account != origin {
		return registry.AuthorizationFailed("sender does not own the user")
	}
	rt.state.DeleteUser(m.ID)
	rt.state.SetIDStatus(m.ID, state.IDRetired)
	return nil
}

func (rt *Runtime) registerOrg(origin registry.AccountID, m *tx.RegisterOrg) error {
	if err := rt.claimID(m.ID); err != nil {
		return err
	}
	rt.state.SetOrg(&state.Org{
		ID:      m.ID,
		Account: state.OrgAccountID(m.ID),
		Creator: origin,
	})
	return nil
}

func (rt *Runtime) unregisterOrg(origin registry.AccountID, m *tx.UnregisterOrg) error {
	org, err := rt.state.GetOrg(m.ID)
	if err != nil {
		return err
	}
	if org == nil {
		return registry.PreconditionFailed(fmt.Sprintf("org %q not found", m.ID))
	}
	authorized, err := rt.mayOperateOrg(origin, org)
	if err != nil {
		return err
	}
	if !authorized {
		return registry.AuthorizationFailed("sender may not operate the org")
	}
	if len(org.Members) > 0 {
		return registry.PreconditionFailed(fmt.Sprintf("org %q still has members", m.ID))
	}
	rt.state.DeleteOrg(m.ID)
	rt.state.SetIDStatus(m.ID, state.IDRetired)
	return nil
}

func (rt *Runtime) registerMember(origin registry.AccountID, m *tx.RegisterMember) error {
	org, err := rt.state.GetOrg(m.Org)
	if err != nil {
		return err
	}
	if org == nil {
		return registry.PreconditionFailed(fmt.Sprintf("org %q not found", m.Org))
	}
	authorized, err := rt.mayOperateOrg(origin, org)
	if err != nil {
		return err
	}
	if !authorized {
		return registry.AuthorizationFailed("sender may not operate the org")
	}
	user, err := rt.state.GetUser(m.User)
	if err != nil {
		return err
	}
	if user == nil {
		return registry.PreconditionFailed(fmt.Sprintf("user %q not found", m.User))
	}
	if org.HasMember(m.User) {
		return registry.PreconditionFailed(fmt.Sprintf("user %q is already a member", m.User))
	}
	org.Members = append(org.Members, m.User)
	rt.state.SetOrg(org)
	return nil
}

func (rt *Runtime) registerProject(origin registry.AccountID, m *tx.RegisterProject) error {
	org, err := rt.state.GetOrg(m.Project.Org)
	if err != nil {
		return err
	}
	if org == nil {
		return registry.PreconditionFailed(fmt.Sprintf("org %q not found", m.Project.Org))
	}
	authorized, err := rt.mayOperateOrg(origin, org)
	if err != nil {
		return err
	}
	if !authorized {
		return registry.AuthorizationFailed("sender may not operate the org")
	}
	existing, err := rt.state.GetProject(m.Project)
	if err != nil {
		return err
	}
	if existing != nil {
		return registry.PreconditionFailed(fmt.Sprintf("project %q already exists", m.Project))
	}
	cp, err := rt.state.GetCheckpoint(m.Checkpoint)
	if err != nil {
		return err
	}
	if cp == nil {
		return registry.PreconditionFailed("initial checkpoint does not exist")
	}
	rt.state.SetProject(&state.Project{
		ID:                m.Project,
		Metadata:          m.Metadata,
		CurrentCheckpoint: m.Checkpoint,
	})
	rt.state.SetInitialCheckpoint(m.Project, m.Checkpoint)
	return nil
}

func (rt *Runtime) createCheckpoint(_ registry.AccountID, m *tx.CreateCheckpoint) error {
	if m.Parent != nil {
		parent, err := rt.state.GetCheckpoint(*m.Parent)
		if err != nil {
			return err
		}
		if parent == nil {
			return registry.PreconditionFailed("parent checkpoint does not exist")
		}
	}
	rt.state.AddCheckpoint(&state.Checkpoint{Hash: m.ProjectHash, Parent: m.Parent})
	return nil
}

func (rt *Runtime) setCheckpoint(origin registry.AccountID, m *tx.SetCheckpoint) error {
	cp, err := rt.state.GetCheckpoint(m.Checkpoint)
	if err != nil {
		return err
	}
	if cp == nil {
		return registry.PreconditionFailed("checkpoint does not exist")
	}
	project, err := rt.state.GetProject(m.Project)
	if err != nil {
		return err
	}
	if project == nil {
		return registry.PreconditionFailed(fmt.Sprintf("project %q not found", m.Project))
	}
	org, err := rt.state.GetOrg(m.Project.Org)
	if err != nil {
		return err
	}
	if org == nil {
		return errors.Errorf("project %q references a missing org", m.Project)
	}
	authorized, err := rt.mayOperateOrg(origin, org)
	if err != nil {
		return err
	}
	if !authorized {
		return registry.AuthorizationFailed("sender may not operate the org")
	}
	initial, err := rt.state.GetInitialCheckpoint(m.Project)
	if err != nil {
		return err
	}
	if initial == nil {
		return errors.Errorf("project %q has no initial checkpoint recorded", m.Project)
	}
	descends, err := rt.descendsFrom(m.Checkpoint, *initial)
	if err != nil {
		return err
	}
	if !descends {
		return registry.PreconditionFailed("checkpoint does not descend from the project's initial checkpoint")
	}
	project.CurrentCheckpoint = m.Checkpoint
	rt.state.SetProject(project)
	return nil
}

func (rt *Runtime) transfer(origin registry.AccountID, m *tx.Transfer) error {
	if m.Amount == nil || m.Amount.Cmp(registry.MinimumTransferAmount) < 0 {
		return registry.PreconditionFailed("transfer amount below minimum")
	}
	return rt.moveBalance(origin, m.Recipient, m.Amount)
}

func (rt *Runtime) transferFromOrg(origin registry.AccountID, m *tx.TransferFromOrg) error {
	org, err := rt.state.GetOrg(m.Org)
	if err != nil {
		return err
	}
	if org == nil {
		return registry.PreconditionFailed(fmt.Sprintf("org %q not found", m.Org))
	}
	// unlike the other org operations, moving funds strictly requires
	// membership; the creator of a still-empty org does not qualify
	member, err := rt.isMemberAccount(origin, org)
	if err != nil {
		return err
	}
	if !member {
		return registry.AuthorizationFailed("sender is not a member of the org")
	}
	if m.Amount == nil || m.Amount.Cmp(registry.MinimumTransferAmount) < 0 {
		return registry.PreconditionFailed("transfer amount below minimum")
	}
	return rt.moveBalance(org.Account, m.Recipient, m.Amount)
}

func (rt *Runtime) runtimeUpdate(origin registry.AccountID, m *tx.RuntimeUpdate) error {
	if origin != rt.sudo {
		return registry.AuthorizationFailed("runtime updates require the sudo account")
	}
	if len(m.Code) == 0 {
		return registry.PreconditionFailed("empty runtime code")
	}
	specVersion, err := rt.state.SpecVersion()
	if err != nil {
		return err
	}
	rt.state.SetRuntimeCode(m.Code)
	rt.state.SetSpecVersion(specVersion + 1)
	return nil
}

func (rt *Runtime) moveBalance(from, to registry.AccountID, amount *big.Int) error {
	sender, err := rt.state.GetAccount(from)
	if err != nil {
		return err
	}
	if sender.Balance.Cmp(amount) < 0 {
		return registry.PreconditionFailed("insufficient balance")
	}
	// a self-transfer moves nothing; crediting a second copy of the
	// same account would create funds out of thin air
	if from == to {
		return nil
	}
	recipient, err := rt.state.GetAccount(to)
	if err != nil {
		return err
	}
	sender.Balance.Sub(sender.Balance, amount)
	recipient.Balance.Add(recipient.Balance, amount)
	rt.state.SetAccount(from, sender)
	rt.state.SetAccount(to, recipient)
	return nil
}

// isMemberAccount reports whether the account owns any user in the org's
// member set.
func (rt *Runtime) isMemberAccount(account registry.AccountID, org *state.Org) (bool, error) {
	for _, member := range org.Members {
		user, err := rt.state.GetUser(member)
		if err != nil {
			return false, err
		}
		if user == nil {
			return false, errors.Errorf("org %q lists unknown member %q", org.ID, member)
		}
		if user.Account == account {
			return true, nil
		}
	}
	return false, nil
}

// mayOperateOrg reports whether the account may operate the org: any
// member account qualifies, and the creator while the member set is
// still empty.
func (rt *Runtime) mayOperateOrg(account registry.AccountID, org *state.Org) (bool, error) {
	if len(org.Members) == 0 {
		return account == org.Creator, nil
	}
	return rt.isMemberAccount(account, org)
}

// descendsFrom walks parent links to decide whether cp descends from
// (or is) ancestor. Runtime grows linearly with the chain's length.
func (rt *Runtime) descendsFrom(cp, ancestor registry.CheckpointID) (bool, error) {
	if cp == ancestor {
		return true, nil
	}
	current := cp
	for {
		c, err := rt.state.GetCheckpoint(current)
		if err != nil {
			return false, err
		}
		if c == nil || c.Parent == nil {
			return false, nil
		}
		if *c.Parent == ancestor {
			return true, nil
		}
		current = *c.Parent
	}
}
