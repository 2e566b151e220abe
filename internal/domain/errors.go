package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// Identity Errors
	// ===========================================

	// ErrDuplicateUsername indicates the username is already registered.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials indicates authentication failed.
	// It does not say whether the username or the credential was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNoSession indicates no user is logged in on this client.
	ErrNoSession = errors.New("no active session")

	// ErrAdminRequired indicates the caller is not the admin identity.
	ErrAdminRequired = errors.New("admin privileges required")

	// ===========================================
	// Input Errors
	// ===========================================

	// ErrInvalidInput indicates an empty required field or an invalid enum value.
	ErrInvalidInput = errors.New("invalid input")

	// ===========================================
	// Voting Errors
	// ===========================================

	// ErrVoteRejected is matched by every VoteRejectedError.
	ErrVoteRejected = errors.New("vote rejected")

	// ===========================================
	// Ledger Errors
	// ===========================================

	// ErrStaleWrite indicates another writer changed a bucket since it was read.
	ErrStaleWrite = errors.New("stale write: ledger changed concurrently")

	// ErrLedgerBusy indicates the ledger lock could not be acquired.
	ErrLedgerBusy = errors.New("ledger is busy")
)

// RejectReason explains why a vote was not recorded.
type RejectReason string

const (
	// RejectNoSuchUser means the voter id is not in the user set.
	RejectNoSuchUser RejectReason = "NoSuchUser"

	// RejectAlreadyVoted means the voter has already cast a vote.
	RejectAlreadyVoted RejectReason = "AlreadyVoted"

	// RejectNoSuchCandidate means the candidate id is not in the candidate set.
	RejectNoSuchCandidate RejectReason = "NoSuchCandidate"
)

// VoteRejectedError reports a cast vote that left the ledger untouched.
type VoteRejectedError struct {
	Reason RejectReason
}

// Error implements the error interface.
func (e *VoteRejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrVoteRejected.Error(), e.Reason)
}

// Is lets errors.Is match ErrVoteRejected.
func (e *VoteRejectedError) Is(target error) bool {
	return target == ErrVoteRejected
}

// NewVoteRejected creates a VoteRejectedError for the given reason.
func NewVoteRejected(reason RejectReason) *VoteRejectedError {
	return &VoteRejectedError{Reason: reason}
}

// RejectReasonOf extracts the reject reason from err, if any.
func RejectReasonOf(err error) (RejectReason, bool) {
	var rejected *VoteRejectedError
	if errors.As(err, &rejected) {
		return rejected.Reason, true
	}
	return "", false
}

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., a field or username).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}

// WrapError wraps an error with domain context if it's not already a DomainError.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	return &DomainError{
		Err:     err,
		Message: message,
	}
}
