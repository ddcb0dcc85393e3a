package multisig

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
)

const (
	// Lower bound on both the signer count and the threshold. A contract
	// must never be able to lock itself below a 2-of-2 configuration.
	minSigners   = 2
	minThreshold = 2

	// To avoid burning CPU on membership scans, this is the maximum
	// number of signers allowed on a single contract.
	maxSigners = 100
)

var _ orm.Model = (*Contract)(nil)

func (c *Contract) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	switch n := len(c.Signers); {
	case n < minSigners:
		return errors.Wrapf(errors.ErrModel, "at least %d signers required", minSigners)
	case n > maxSigners:
		return errors.Wrap(errors.ErrModel, "too many signers")
	}
	for i, s := range c.Signers {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "signer #%d", i)
		}
		for _, prev := range c.Signers[:i] {
			if s.Equals(prev) {
				return errors.Wrapf(errors.ErrDuplicate, "signer %s", s)
			}
		}
	}
	if err := validateThreshold(c.Threshold, len(c.Signers)); err != nil {
		return err
	}
	if err := c.Address.Validate(); err != nil {
		return errors.Wrap(err, "address")
	}
	return nil
}

// IsSigner returns true if the given address is a current signer of this
// contract.
func (c *Contract) IsSigner(a covault.Address) bool {
	for _, s := range c.Signers {
		if a.Equals(s) {
			return true
		}
	}
	return false
}

// AddSigner appends the given address to the signer set. It fails if the
// address already is a signer.
func (c *Contract) AddSigner(a covault.Address) error {
	if c.IsSigner(a) {
		return errors.Wrapf(ErrSignerSet, "%s is already a signer", a)
	}
	if len(c.Signers) >= maxSigners {
		return errors.Wrap(ErrSignerSet, "too many signers")
	}
	c.Signers = append(c.Signers, a)
	return nil
}

// RemoveSigner drops the given address from the signer set. The removed
// entry is replaced by the last one, so enumeration order is not preserved.
// It fails if the address is not a signer or if the removal would shrink
// the set below the minimum or below the current threshold.
func (c *Contract) RemoveSigner(a covault.Address) error {
	idx := -1
	for i, s := range c.Signers {
		if a.Equals(s) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return errors.Wrapf(ErrSignerSet, "%s is not a signer", a)
	}
	switch n := len(c.Signers) - 1; {
	case n < minSigners:
		return errors.Wrapf(ErrSignerSet, "cannot shrink below %d signers", minSigners)
	case n < int(c.Threshold):
		return errors.Wrap(ErrSignerSet, "cannot shrink below the threshold")
	}
	last := len(c.Signers) - 1
	c.Signers[idx] = c.Signers[last]
	c.Signers = c.Signers[:last]
	return nil
}

// UpdateThreshold sets a new threshold value. Unchanged and out of range
// values are rejected.
func (c *Contract) UpdateThreshold(threshold uint32) error {
	if threshold == c.Threshold {
		return errors.Wrap(ErrThreshold, "threshold unchanged")
	}
	if err := validateThreshold(threshold, len(c.Signers)); err != nil {
		return err
	}
	c.Threshold = threshold
	return nil
}

func validateThreshold(threshold uint32, signers int) error {
	if threshold < minThreshold {
		return errors.Wrapf(ErrThreshold, "threshold must be at least %d", minThreshold)
	}
	if int(threshold) > signers {
		return errors.Wrap(ErrThreshold, "threshold greater than the number of signers")
	}
	return nil
}

var _ orm.Model = (*PendingRequest)(nil)

func (r *PendingRequest) Validate() error {
	if err := r.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(r.ContractId) == 0 {
		return errors.Wrap(errors.ErrModel, "no contract ID")
	}
	if err := r.Proposer.Validate(); err != nil {
		return errors.Wrap(err, "proposer")
	}
	if len(r.Approvals) == 0 {
		return errors.Wrap(errors.ErrModel, "no approvals")
	}
	for i, a := range r.Approvals {
		if err := a.Validate(); err != nil {
			return errors.Wrapf(err, "approval #%d", i)
		}
	}
	var actions int
	if r.AddSigner != nil {
		actions++
	}
	if r.RemoveSigner != nil {
		actions++
	}
	if r.SetThreshold != nil {
		actions++
	}
	if r.Withdraw != nil {
		actions++
	}
	if actions != 1 {
		return errors.Wrapf(errors.ErrModel, "exactly one action required, got %d", actions)
	}
	return nil
}

// HasApproved returns true if the given address already approved this
// request. The proposer counts as an approver.
func (r *PendingRequest) HasApproved(a covault.Address) bool {
	for _, approved := range r.Approvals {
		if a.Equals(approved) {
			return true
		}
	}
	return false
}

// MultiSigCondition returns the condition of a contract with the given ID.
// Its address holds the contract funds.
func MultiSigCondition(id []byte) covault.Condition {
	return covault.NewCondition("multisig", "usage", id)
}

// NewContractBucket returns a bucket holding Contract instances, keyed by
// an 8-byte big-endian sequence ID.
func NewContractBucket() orm.ModelBucket {
	return orm.NewModelBucket("contracts", &Contract{})
}

// NewRequestBucket returns a bucket holding PendingRequest instances. IDs
// are allocated by the bucket sequence, starting at 1, and are never
// reused because requests are deleted, not overwritten.
func NewRequestBucket() orm.ModelBucket {
	return orm.NewModelBucket("requests", &PendingRequest{})
}
