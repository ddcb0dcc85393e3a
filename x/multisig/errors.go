package multisig

import (
	"github.com/covault/covault/errors"
)

// multisig reserves the error code range 1030-1039.
var (
	// ErrAlreadyApproved is returned when a signer approves the same
	// pending request a second time.
	ErrAlreadyApproved = errors.Register(1030, "already approved")

	// ErrThreshold is returned when a threshold value would violate the
	// contract invariants.
	ErrThreshold = errors.Register(1031, "invalid threshold")

	// ErrSignerSet is returned when a signer set mutation would violate
	// the contract invariants.
	ErrSignerSet = errors.Register(1032, "invalid signer set")
)
