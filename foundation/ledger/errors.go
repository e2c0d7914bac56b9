package ledger

import (
	"errors"
	"fmt"
)

// Signer acquisition failures.
var (
	// ErrWalletUnavailable is returned when no wallet keystore exists for
	// the requested address.
	ErrWalletUnavailable = errors.New("wallet unavailable")

	// ErrUserRejected is returned when the wallet keystore refuses to
	// unlock, which is the server side equivalent of a declined prompt.
	ErrUserRejected = errors.New("wallet access rejected")
)

// QueryKind classifies why a ledger read failed.
type QueryKind int

// The set of query failure classifications.
const (
	KindUnreachable QueryKind = iota
	KindNotFound
)

// String implements the fmt.Stringer interface.
func (k QueryKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	default:
		return "unreachable"
	}
}

// QueryError represents a failed read against the ledger node. Kind
// distinguishes a record the contract reverted on from a node that could
// not be reached.
type QueryError struct {
	Op   string
	Kind QueryKind
	Err  error
}

// Error implements the error interface.
func (qe *QueryError) Error() string {
	return fmt.Sprintf("query %s: %s: %s", qe.Op, qe.Kind, qe.Err)
}

// Unwrap returns the underlying provider error.
func (qe *QueryError) Unwrap() error {
	return qe.Err
}

// RevertError represents a transaction the ledger rejected. Reason carries
// the decoded revert reason when the node supplied one.
type RevertError struct {
	Op     string
	Reason string
	Err    error
}

// Error implements the error interface.
func (re *RevertError) Error() string {
	if re.Reason != "" {
		return fmt.Sprintf("%s reverted: %s", re.Op, re.Reason)
	}
	return fmt.Sprintf("%s reverted: %s", re.Op, re.Err)
}

// Unwrap returns the underlying provider error.
func (re *RevertError) Unwrap() error {
	return re.Err
}

// PreconditionError represents a proposal state transition the contract
// rejected because it was attempted out of order.
type PreconditionError struct {
	Op     string
	Reason string
	Err    error
}

// Error implements the error interface.
func (pe *PreconditionError) Error() string {
	if pe.Reason != "" {
		return fmt.Sprintf("%s precondition violated: %s", pe.Op, pe.Reason)
	}
	return fmt.Sprintf("%s precondition violated: %s", pe.Op, pe.Err)
}

// Unwrap returns the underlying revert error.
func (pe *PreconditionError) Unwrap() error {
	return pe.Err
}

// ApprovalError represents a failure of the token approval step of a
// donation. The donation itself was never submitted.
type ApprovalError struct {
	Err error
}

// Error implements the error interface.
func (ae *ApprovalError) Error() string {
	return fmt.Sprintf("token approval failed: %s", ae.Err)
}

// Unwrap returns the underlying error.
func (ae *ApprovalError) Unwrap() error {
	return ae.Err
}

// DonationError represents a failure of the donation step after the token
// approval succeeded. The approval remains on the ledger and is reusable.
type DonationError struct {
	Err error
}

// Error implements the error interface.
func (de *DonationError) Error() string {
	return fmt.Sprintf("donation failed: %s", de.Err)
}

// Unwrap returns the underlying error.
func (de *DonationError) Unwrap() error {
	return de.Err
}
