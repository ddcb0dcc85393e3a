package vesting

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ covault.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial release schedules from the genesis and
// save them to the database. Schedules can only be created here, there is
// no message to set one up later.
func (Initializer) FromGenesis(opts covault.Options, db covault.KVStore) error {
	var schedules []struct {
		ContractId   int64            `json:"contract_id"`
		Start        covault.UnixTime `json:"start"`
		LockYears    uint32           `json:"lock_years"`
		ReleaseCount uint32           `json:"release_count"`
		Total        coin.Coin        `json:"total"`
	}
	if err := opts.ReadOptions("vesting", &schedules); err != nil {
		return errors.Wrap(err, "cannot load genesis schedules")
	}

	bucket := NewScheduleBucket()
	for i, s := range schedules {
		if s.ReleaseCount != s.LockYears {
			return errors.Wrapf(errors.ErrInput, "schedule #%d: one release per lock year required", i)
		}
		if s.LockYears < 1 {
			return errors.Wrapf(errors.ErrInput, "schedule #%d: at least one lock year required", i)
		}
		yearly, rest, err := s.Total.Divide(int64(s.ReleaseCount))
		if err != nil {
			return errors.Wrapf(err, "schedule #%d", i)
		}
		if !rest.IsZero() {
			return errors.Wrapf(errors.ErrInput, "schedule #%d: total not divisible into %d releases", i, s.ReleaseCount)
		}

		schedule := Schedule{
			Metadata:     &covault.Metadata{Schema: 1},
			ContractId:   orm.EncodeSequence(s.ContractId),
			Start:        s.Start,
			LockYears:    s.LockYears,
			Remaining:    s.LockYears,
			Yearly:       make([]*coin.Coin, s.LockYears),
			Withdrawable: &coin.Coin{Ticker: s.Total.Ticker},
		}
		for y := range schedule.Yearly {
			schedule.Yearly[y] = yearly.Clone()
		}
		if _, err := bucket.Put(db, schedule.ContractId, &schedule); err != nil {
			return errors.Wrapf(err, "cannot save schedule #%d", i)
		}
	}
	return nil
}
