package vesting

import (
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
)

var _ orm.Model = (*Schedule)(nil)

func (s *Schedule) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(s.ContractId) == 0 {
		return errors.Wrap(errors.ErrModel, "no contract ID")
	}
	if s.Start <= 0 {
		return errors.Wrap(errors.ErrModel, "invalid start time")
	}
	if s.LockYears < 1 {
		return errors.Wrap(errors.ErrModel, "at least one lock year required")
	}
	if len(s.Yearly) != int(s.LockYears) {
		return errors.Wrapf(errors.ErrModel, "want %d yearly entries, got %d", s.LockYears, len(s.Yearly))
	}
	if s.Remaining > s.LockYears {
		return errors.Wrap(errors.ErrModel, "more remaining entries than lock years")
	}
	for i, c := range s.Yearly {
		if c == nil {
			return errors.Wrapf(errors.ErrModel, "year #%d entry missing", i+1)
		}
		if err := c.Validate(); err != nil {
			return errors.Wrapf(err, "year #%d", i+1)
		}
	}
	if s.Withdrawable != nil {
		if err := s.Withdrawable.Validate(); err != nil {
			return errors.Wrap(err, "withdrawable")
		}
	}
	return nil
}

// WithdrawableCoins returns the released but unspent funds as a coin set.
func (s *Schedule) WithdrawableCoins() coin.Coins {
	if s.Withdrawable == nil || s.Withdrawable.IsZero() {
		return nil
	}
	return coin.Coins{s.Withdrawable}
}

// NewScheduleBucket returns a bucket holding Schedule instances, keyed by
// the ID of the contract they vest funds for.
func NewScheduleBucket() orm.ModelBucket {
	return orm.NewModelBucket("schedules", &Schedule{})
}
