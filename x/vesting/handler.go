package vesting

import (
	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/orm"
	"github.com/covault/covault/x"
	"github.com/covault/covault/x/multisig"
	"github.com/tendermint/tendermint/libs/common"
)

// Years are counted in whole seconds, leap days are ignored. Moving a
// boundary by a day over a decade does not matter for a yearly release.
const secondsPerYear = 365 * 24 * 60 * 60

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r covault.Registry, auth x.Authenticator) {
	r.Handle(&SweepMsg{}, SweepHandler{
		auth:      auth,
		schedules: NewScheduleBucket(),
		contracts: multisig.NewContractBucket(),
	})
}

// RegisterQuery will register the schedule bucket.
func RegisterQuery(qr covault.QueryRouter) {
	NewScheduleBucket().Register("schedules", qr)
}

// SweepHandler releases all matured yearly entries of a schedule into its
// withdrawable balance. Sweeping catches up: a sweep after three missed
// year boundaries releases three entries at once.
type SweepHandler struct {
	auth      x.Authenticator
	schedules orm.ModelBucket
	contracts orm.ModelBucket
}

var _ covault.Handler = SweepHandler{}

func (h SweepHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &covault.CheckResult{GasAllocated: sweepCost}, nil
}

func (h SweepHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, schedule, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	now, err := covault.BlockTime(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "block time")
	}
	year := maturedYear(schedule, covault.AsUnixTime(now))
	if year == 0 {
		return nil, errors.Wrap(ErrNotMatured, "no matured release")
	}

	released, err := release(schedule, year)
	if err != nil {
		return nil, err
	}
	if _, err := h.schedules.Put(db, msg.ContractId, schedule); err != nil {
		return nil, errors.Wrap(err, "cannot store schedule")
	}
	return &covault.DeliverResult{
		Tags: []common.KVPair{
			{Key: []byte("multisig-id"), Value: msg.ContractId},
			{Key: []byte("released"), Value: []byte(released.String())},
			{Key: []byte("withdrawable"), Value: []byte(schedule.Withdrawable.String())},
		},
	}, nil
}

// maturedYear returns the highest schedule year with a pending release
// that now lies in the past, or zero if there is none. Years past the
// lock period never mature, their entries do not exist.
func maturedYear(s *Schedule, now covault.UnixTime) uint32 {
	elapsed := int64(now) - int64(s.Start)
	if elapsed <= 0 {
		return 0
	}
	year := elapsed / secondsPerYear
	if year < 1 || year > int64(s.LockYears) {
		return 0
	}
	if s.Yearly[year-1].IsZero() {
		return 0
	}
	return uint32(year)
}

// release moves every pending entry up to and including the given year
// into the withdrawable balance and zeroes the source entries.
func release(s *Schedule, year uint32) (coin.Coin, error) {
	var total coin.Coin
	for i := int(year) - 1; i >= 0; i-- {
		c := s.Yearly[i]
		if c.IsZero() {
			// Everything below was swept before.
			break
		}
		sum, err := total.Add(*c)
		if err != nil {
			return coin.Coin{}, errors.Wrapf(err, "year #%d", i+1)
		}
		total = sum
		s.Yearly[i] = &coin.Coin{Ticker: c.Ticker}
		s.Remaining--
	}
	if s.Withdrawable == nil {
		s.Withdrawable = &coin.Coin{Ticker: total.Ticker}
	}
	sum, err := s.Withdrawable.Add(total)
	if err != nil {
		return coin.Coin{}, errors.Wrap(err, "withdrawable")
	}
	s.Withdrawable = &sum
	return total, nil
}

func (h SweepHandler) validate(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*SweepMsg, *Schedule, error) {
	var msg SweepMsg
	if err := covault.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var schedule Schedule
	if err := h.schedules.One(db, msg.ContractId, &schedule); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load schedule")
	}
	var contract multisig.Contract
	if err := h.contracts.One(db, msg.ContractId, &contract); err != nil {
		return nil, nil, errors.Wrap(err, "cannot load contract")
	}
	var ok bool
	for _, s := range contract.Signers {
		if h.auth.HasAddress(ctx, s) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "not a contract signer")
	}
	return &msg, &schedule, nil
}
