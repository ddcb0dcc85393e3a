package multisig

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

var (
	_ covault.Msg = (*CreateContractMsg)(nil)
	_ covault.Msg = (*ProposeAddSignerMsg)(nil)
	_ covault.Msg = (*ProposeRemoveSignerMsg)(nil)
	_ covault.Msg = (*ProposeThresholdMsg)(nil)
	_ covault.Msg = (*ProposeWithdrawMsg)(nil)
	_ covault.Msg = (*ApproveMsg)(nil)
	_ covault.Msg = (*CancelMsg)(nil)
)

const (
	creationCost int64 = 300 // 3x more expensive than SendMsg
	proposalCost int64 = 150 // Half the creation cost
	approvalCost int64 = 100 // The final approval additionally pays for the execution.
)

// Path fulfills covault.Msg interface to allow routing.
func (CreateContractMsg) Path() string {
	return "multisig/create"
}

// Validate enforces signer and threshold boundaries.
func (m *CreateContractMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	switch n := len(m.Signers); {
	case n < minSigners:
		return errors.Wrapf(errors.ErrMsg, "at least %d signers required", minSigners)
	case n > maxSigners:
		return errors.Wrap(errors.ErrMsg, "too many signers")
	}
	for i, s := range m.Signers {
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "signer #%d", i)
		}
		for _, prev := range m.Signers[:i] {
			if s.Equals(prev) {
				return errors.Wrapf(errors.ErrDuplicate, "signer %s", s)
			}
		}
	}
	return validateThreshold(m.Threshold, len(m.Signers))
}

func (ProposeAddSignerMsg) Path() string {
	return "multisig/add_signer"
}

func (m *ProposeAddSignerMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.ContractId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no contract ID")
	}
	return errors.Wrap(m.Signer.Validate(), "signer")
}

func (ProposeRemoveSignerMsg) Path() string {
	return "multisig/remove_signer"
}

func (m *ProposeRemoveSignerMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.ContractId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no contract ID")
	}
	return errors.Wrap(m.Signer.Validate(), "signer")
}

func (ProposeThresholdMsg) Path() string {
	return "multisig/set_threshold"
}

func (m *ProposeThresholdMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.ContractId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no contract ID")
	}
	if m.Threshold < minThreshold {
		return errors.Wrapf(ErrThreshold, "threshold must be at least %d", minThreshold)
	}
	return nil
}

func (ProposeWithdrawMsg) Path() string {
	return "multisig/withdraw"
}

func (m *ProposeWithdrawMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.ContractId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no contract ID")
	}
	if err := m.Destination.Validate(); err != nil {
		return errors.Wrap(err, "destination")
	}
	if m.Amount == nil {
		return errors.Wrap(errors.ErrAmount, "no amount")
	}
	if err := m.Amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	if !m.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive withdrawal: %#v", m.Amount)
	}
	return nil
}

func (ApproveMsg) Path() string {
	return "multisig/approve"
}

func (m *ApproveMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.RequestId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no request ID")
	}
	return nil
}

func (CancelMsg) Path() string {
	return "multisig/cancel"
}

func (m *CancelMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.RequestId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no request ID")
	}
	return nil
}
