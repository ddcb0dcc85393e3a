package vesting

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
	"github.com/covault/covault/x/cash"
	"github.com/covault/covault/x/multisig"
)

// ScheduleVault gates contract withdrawals by the release schedule. Only
// funds already swept into the withdrawable balance are cleared. Contracts
// without a schedule fall back to their full cash balance.
type ScheduleVault struct {
	schedules orm.ModelBucket
	fallback  multisig.CashVault
}

var _ multisig.Vault = ScheduleVault{}

func NewScheduleVault(control cash.Controller) ScheduleVault {
	return ScheduleVault{
		schedules: NewScheduleBucket(),
		fallback:  multisig.NewCashVault(control),
	}
}

func (v ScheduleVault) Withdrawable(db covault.ReadOnlyKVStore, contractID []byte, source covault.Address) (coin.Coins, error) {
	var s Schedule
	switch err := v.schedules.One(db, contractID, &s); {
	case err == nil:
		return s.WithdrawableCoins(), nil
	case errors.ErrNotFound.Is(err):
		return v.fallback.Withdrawable(db, contractID, source)
	default:
		return nil, errors.Wrap(err, "cannot load schedule")
	}
}

func (v ScheduleVault) Debit(db covault.KVStore, contractID []byte, amount coin.Coin) error {
	var s Schedule
	switch err := v.schedules.One(db, contractID, &s); {
	case err == nil:
		// proceed below
	case errors.ErrNotFound.Is(err):
		return v.fallback.Debit(db, contractID, amount)
	default:
		return errors.Wrap(err, "cannot load schedule")
	}

	if s.Withdrawable == nil || !s.Withdrawable.IsGTE(amount) {
		return errors.Wrapf(errors.ErrAmount, "withdrawable balance below %s", amount)
	}
	left, err := s.Withdrawable.Subtract(amount)
	if err != nil {
		return errors.Wrap(err, "debit")
	}
	s.Withdrawable = &left
	if _, err := v.schedules.Put(db, contractID, &s); err != nil {
		return errors.Wrap(err, "cannot store schedule")
	}
	return nil
}
