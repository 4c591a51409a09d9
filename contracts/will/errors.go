package will

import (
	"fmt"

	"golang.org/x/xerrors"
)

// The failures of the will operations. Every error returned by the machine
// matches one of them with errors.Is, except the storage failures.
var (
	ErrAlreadyInitialized  = xerrors.New("already initialized")
	ErrNotInitialized      = xerrors.New("not initialized")
	ErrNotOwner            = xerrors.New("not the owner")
	ErrNotBeneficiary      = xerrors.New("not the beneficiary")
	ErrDeadlineNotReached  = xerrors.New("deadline not reached")
	ErrAuthorizationFailed = xerrors.New("authorization failed")
	ErrTransferFailed      = xerrors.New("transfer failed")
	ErrSameParties         = xerrors.New("owner and beneficiary are the same identity")
	ErrPeriodTooLarge      = xerrors.New("check-in period too large")
	ErrInvalidInstance     = xerrors.New("invalid instance name")
)

// causeError tags the failure of a collaborator with the error of the will
// while keeping the original failure reachable.
type causeError struct {
	kind  error
	cause error
}

func (e causeError) Error() string {
	return fmt.Sprintf("%v: %v", e.kind, e.cause)
}

func (e causeError) Is(target error) bool {
	return target == e.kind
}

func (e causeError) Unwrap() error {
	return e.cause
}
