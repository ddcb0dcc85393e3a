package vesting

import (
	"context"
	"testing"
	"time"

	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
	"github.com/covault/covault/x/multisig"
)

func TestSweep(t *testing.T) {
	aliceCond := covtest.NewCondition()
	bobCond := covtest.NewCondition()
	strangerCond := covtest.NewCondition()

	var start covault.UnixTime = 1000000
	contractID := covtest.SequenceID(1)

	cases := map[string]struct {
		conditions       []covault.Condition
		contractID       []byte
		now              covault.UnixTime
		wantErr          *errors.Error
		wantWithdrawable coin.Coin
		wantRemaining    uint32
	}{
		"before the first year boundary nothing is released": {
			conditions: []covault.Condition{aliceCond},
			contractID: contractID,
			now:        start.Add(100 * 24 * time.Hour),
			wantErr:    ErrNotMatured,
		},
		"first year releases a single slice": {
			conditions:       []covault.Condition{aliceCond},
			contractID:       contractID,
			now:              start.Add(secondsPerYear*time.Second + time.Hour),
			wantWithdrawable: coin.NewCoin(100, 0, "IOV"),
			wantRemaining:    9,
		},
		"a late sweep catches up on all missed years": {
			conditions:       []covault.Condition{bobCond},
			contractID:       contractID,
			now:              start.Add(3*secondsPerYear*time.Second + time.Hour),
			wantWithdrawable: coin.NewCoin(300, 0, "IOV"),
			wantRemaining:    7,
		},
		"past the lock period no release exists": {
			conditions: []covault.Condition{aliceCond},
			contractID: contractID,
			now:        start.Add(11 * secondsPerYear * time.Second),
			wantErr:    ErrNotMatured,
		},
		"only a contract signer can sweep": {
			conditions: []covault.Condition{strangerCond},
			contractID: contractID,
			now:        start.Add(2 * secondsPerYear * time.Second),
			wantErr:    errors.ErrUnauthorized,
		},
		"unknown schedule": {
			conditions: []covault.Condition{aliceCond},
			contractID: covtest.SequenceID(666),
			now:        start.Add(2 * secondsPerYear * time.Second),
			wantErr:    errors.ErrNotFound,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			setupContract(t, db, contractID, aliceCond.Address(), bobCond.Address())
			setupSchedule(t, db, contractID, start, 10, 100)

			auth := &covtest.Auth{Signers: tc.conditions}
			h := SweepHandler{
				auth:      auth,
				schedules: NewScheduleBucket(),
				contracts: multisig.NewContractBucket(),
			}
			ctx := covault.WithBlockTime(context.Background(), tc.now.Time())
			tx := &covtest.Tx{Msg: &SweepMsg{
				Metadata:   &covault.Metadata{Schema: 1},
				ContractId: tc.contractID,
			}}

			if _, err := h.Deliver(ctx, db, tx); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}

			var s Schedule
			if err := h.schedules.One(db, tc.contractID, &s); err != nil {
				t.Fatalf("cannot load schedule: %s", err)
			}
			if !s.Withdrawable.Equals(tc.wantWithdrawable) {
				t.Fatalf("want %s withdrawable, got %s", tc.wantWithdrawable, s.Withdrawable)
			}
			if s.Remaining != tc.wantRemaining {
				t.Fatalf("want %d remaining, got %d", tc.wantRemaining, s.Remaining)
			}
		})
	}
}

func TestSweepTwiceReleasesOnce(t *testing.T) {
	db := store.MemStore()
	cond := covtest.NewCondition()
	other := covtest.NewCondition()

	var start covault.UnixTime = 1000000
	contractID := covtest.SequenceID(1)
	setupContract(t, db, contractID, cond.Address(), other.Address())
	setupSchedule(t, db, contractID, start, 10, 100)

	h := SweepHandler{
		auth:      &covtest.Auth{Signer: cond},
		schedules: NewScheduleBucket(),
		contracts: multisig.NewContractBucket(),
	}
	ctx := covault.WithBlockTime(context.Background(), start.Add(secondsPerYear*time.Second+time.Hour).Time())
	tx := &covtest.Tx{Msg: &SweepMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: contractID,
	}}

	if _, err := h.Deliver(ctx, db, tx); err != nil {
		t.Fatalf("first sweep failed: %+v", err)
	}
	if _, err := h.Deliver(ctx, db, tx); !ErrNotMatured.Is(err) {
		t.Fatalf("second sweep must not release again, got %+v", err)
	}

	var s Schedule
	if err := h.schedules.One(db, contractID, &s); err != nil {
		t.Fatalf("cannot load schedule: %s", err)
	}
	if want := coin.NewCoin(100, 0, "IOV"); !s.Withdrawable.Equals(want) {
		t.Fatalf("want %s withdrawable, got %s", want, s.Withdrawable)
	}
}

func TestSweepAfterCatchUpContinues(t *testing.T) {
	db := store.MemStore()
	cond := covtest.NewCondition()
	other := covtest.NewCondition()

	var start covault.UnixTime = 1000000
	contractID := covtest.SequenceID(1)
	setupContract(t, db, contractID, cond.Address(), other.Address())
	setupSchedule(t, db, contractID, start, 10, 100)

	h := SweepHandler{
		auth:      &covtest.Auth{Signer: cond},
		schedules: NewScheduleBucket(),
		contracts: multisig.NewContractBucket(),
	}
	tx := &covtest.Tx{Msg: &SweepMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: contractID,
	}}

	ctx := covault.WithBlockTime(context.Background(), start.Add(3*secondsPerYear*time.Second+time.Hour).Time())
	if _, err := h.Deliver(ctx, db, tx); err != nil {
		t.Fatalf("catch up sweep failed: %+v", err)
	}
	ctx = covault.WithBlockTime(context.Background(), start.Add(5*secondsPerYear*time.Second+time.Hour).Time())
	if _, err := h.Deliver(ctx, db, tx); err != nil {
		t.Fatalf("follow up sweep failed: %+v", err)
	}

	var s Schedule
	if err := h.schedules.One(db, contractID, &s); err != nil {
		t.Fatalf("cannot load schedule: %s", err)
	}
	if want := coin.NewCoin(500, 0, "IOV"); !s.Withdrawable.Equals(want) {
		t.Fatalf("want %s withdrawable, got %s", want, s.Withdrawable)
	}
	if s.Remaining != 5 {
		t.Fatalf("want 5 remaining, got %d", s.Remaining)
	}
}

// setupContract stores a 2-of-2 contract under the given ID.
func setupContract(t testing.TB, db covault.KVStore, contractID []byte, signers ...covault.Address) {
	t.Helper()
	contract := multisig.Contract{
		Metadata:  &covault.Metadata{Schema: 1},
		Signers:   signers,
		Threshold: 2,
		Address:   multisig.MultiSigCondition(contractID).Address(),
	}
	if _, err := multisig.NewContractBucket().Put(db, contractID, &contract); err != nil {
		t.Fatalf("cannot store contract: %s", err)
	}
}

// setupSchedule stores a fresh schedule releasing perYear IOV every year.
func setupSchedule(t testing.TB, db covault.KVStore, contractID []byte, start covault.UnixTime, years uint32, perYear int64) {
	t.Helper()
	yearly := make([]*coin.Coin, years)
	for i := range yearly {
		yearly[i] = coin.NewCoinp(perYear, 0, "IOV")
	}
	s := Schedule{
		Metadata:     &covault.Metadata{Schema: 1},
		ContractId:   contractID,
		Start:        start,
		LockYears:    years,
		Remaining:    years,
		Yearly:       yearly,
		Withdrawable: &coin.Coin{Ticker: "IOV"},
	}
	if _, err := NewScheduleBucket().Put(db, contractID, &s); err != nil {
		t.Fatalf("cannot store schedule: %s", err)
	}
}
