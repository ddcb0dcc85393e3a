package vesting

import (
	"testing"

	"github.com/covault/covault/coin"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
	"github.com/covault/covault/x/cash"
)

func TestScheduleVaultWithdrawable(t *testing.T) {
	db := store.MemStore()
	control := cash.NewController(cash.NewBucket())
	vault := NewScheduleVault(control)

	contractID := covtest.SequenceID(1)
	source := covtest.RandomAddr(t)

	// Without a schedule the full cash balance is cleared.
	if err := control.IssueCoins(db, source, coin.NewCoin(500, 0, "IOV")); err != nil {
		t.Fatalf("cannot fund account: %s", err)
	}
	got, err := vault.Withdrawable(db, contractID, source)
	if err != nil {
		t.Fatalf("withdrawable: %+v", err)
	}
	if !got.Contains(coin.NewCoin(500, 0, "IOV")) {
		t.Fatalf("want the full balance cleared, got %s", got)
	}

	// With a schedule only the released part is cleared, regardless of
	// the cash balance.
	setupSchedule(t, db, contractID, 1000000, 10, 100)
	got, err = vault.Withdrawable(db, contractID, source)
	if err != nil {
		t.Fatalf("withdrawable: %+v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want nothing cleared before a sweep, got %s", got)
	}
}

func TestScheduleVaultDebit(t *testing.T) {
	db := store.MemStore()
	control := cash.NewController(cash.NewBucket())
	vault := NewScheduleVault(control)

	contractID := covtest.SequenceID(1)
	setupSchedule(t, db, contractID, 1000000, 10, 100)

	schedules := NewScheduleBucket()
	var s Schedule
	if err := schedules.One(db, contractID, &s); err != nil {
		t.Fatalf("cannot load schedule: %s", err)
	}
	s.Withdrawable = coin.NewCoinp(300, 0, "IOV")
	if _, err := schedules.Put(db, contractID, &s); err != nil {
		t.Fatalf("cannot store schedule: %s", err)
	}

	if err := vault.Debit(db, contractID, coin.NewCoin(1000, 0, "IOV")); !errors.ErrAmount.Is(err) {
		t.Fatalf("want amount error for overdraw, got %+v", err)
	}
	if err := vault.Debit(db, contractID, coin.NewCoin(200, 0, "IOV")); err != nil {
		t.Fatalf("debit: %+v", err)
	}

	if err := schedules.One(db, contractID, &s); err != nil {
		t.Fatalf("cannot load schedule: %s", err)
	}
	if want := coin.NewCoin(100, 0, "IOV"); !s.Withdrawable.Equals(want) {
		t.Fatalf("want %s left, got %s", want, s.Withdrawable)
	}

	// Draining the withdrawable balance entirely is allowed.
	if err := vault.Debit(db, contractID, coin.NewCoin(100, 0, "IOV")); err != nil {
		t.Fatalf("debit: %+v", err)
	}
	if err := schedules.One(db, contractID, &s); err != nil {
		t.Fatalf("cannot load schedule: %s", err)
	}
	if !s.Withdrawable.IsZero() {
		t.Fatalf("want an empty balance, got %s", s.Withdrawable)
	}
}
