package vesting

import (
	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

var _ covault.Msg = (*SweepMsg)(nil)

const sweepCost int64 = 100

// Path fulfills covault.Msg interface to allow routing.
func (SweepMsg) Path() string {
	return "vesting/sweep"
}

func (m *SweepMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(m.ContractId) == 0 {
		return errors.Wrap(errors.ErrMsg, "no contract ID")
	}
	return nil
}
