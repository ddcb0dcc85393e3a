package app_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/covault/covault"
	"github.com/covault/covault/app"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
	"github.com/covault/covault/x/cash"
	"github.com/covault/covault/x/multisig"
	"github.com/covault/covault/x/utils"
	"github.com/covault/covault/x/vesting"
)

// TestFullStack drives a vested withdrawal through the complete decorator
// and router stack, bootstrapped from a genesis document.
func TestFullStack(t *testing.T) {
	db := store.MemStore()

	alice := covtest.NewCondition()
	bob := covtest.NewCondition()
	carol := covtest.NewCondition()

	// The first contract created gets ID 1, its address holds the funds.
	contractAddr := multisig.MultiSigCondition(covtest.SequenceID(1)).Address()
	var start covault.UnixTime = 1000000

	genesis := fmt.Sprintf(`{
		"multisig": [
			{"name": "treasury", "signers": [%q, %q, %q], "threshold": 2}
		],
		"cash": [
			{"address": %q, "coins": [{"whole": 1000, "ticker": "IOV"}]}
		],
		"vesting": [
			{"contract_id": 1, "start": %d, "lock_years": 10, "release_count": 10,
			 "total": {"whole": 1000, "ticker": "IOV"}}
		]
	}`, alice.Address(), bob.Address(), carol.Address(), contractAddr, start)

	var opts covault.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot parse genesis: %s", err)
	}
	for _, ini := range []covault.Initializer{
		multisig.Initializer{},
		cash.Initializer{},
		vesting.Initializer{},
	} {
		if err := ini.FromGenesis(opts, db); err != nil {
			t.Fatalf("cannot initialize: %+v", err)
		}
	}

	auth := &covtest.CtxAuth{Key: "auth"}
	control := cash.NewController(cash.NewBucket())
	vault := vesting.NewScheduleVault(control)

	rt := app.NewRouter()
	cash.RegisterRoutes(rt, auth, control)
	multisig.RegisterRoutes(rt, auth, control, vault)
	vesting.RegisterRoutes(rt, auth)

	stack := app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewSavepoint().OnDeliver(),
		utils.NewActionTagger(),
	).WithHandler(rt)

	asSigner := func(cond covault.Condition, blockTime covault.UnixTime) covault.Context {
		ctx := covault.WithBlockTime(context.Background(), blockTime.Time())
		return auth.SetConditions(ctx, cond)
	}

	// Nothing is withdrawable before a sweep. The proposal must fail and,
	// thanks to the savepoint, leave no request behind.
	destination := covtest.RandomAddr(t)
	_, err := stack.Deliver(asSigner(alice, start), db, &covtest.Tx{Msg: &multisig.ProposeWithdrawMsg{
		Metadata:    &covault.Metadata{Schema: 1},
		ContractId:  covtest.SequenceID(1),
		Destination: destination,
		Amount:      coin.NewCoinp(100, 0, "IOV"),
	}})
	if !errors.ErrAmount.Is(err) {
		t.Fatalf("want amount error before any sweep, got %+v", err)
	}

	// Three years in, a single sweep releases three slices.
	sweepTime := start.Add(3*365*24*time.Hour + time.Hour)
	res, err := stack.Deliver(asSigner(bob, sweepTime), db, &covtest.Tx{Msg: &vesting.SweepMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: covtest.SequenceID(1),
	}})
	if err != nil {
		t.Fatalf("sweep failed: %+v", err)
	}
	var sawAction bool
	for _, tag := range res.Tags {
		if string(tag.Key) == utils.ActionKey && string(tag.Value) == "vesting/sweep" {
			sawAction = true
		}
	}
	if !sawAction {
		t.Fatal("action tag missing")
	}

	// Withdraw the released funds with two of three signatures.
	res, err = stack.Deliver(asSigner(alice, sweepTime), db, &covtest.Tx{Msg: &multisig.ProposeWithdrawMsg{
		Metadata:    &covault.Metadata{Schema: 1},
		ContractId:  covtest.SequenceID(1),
		Destination: destination,
		Amount:      coin.NewCoinp(300, 0, "IOV"),
	}})
	if err != nil {
		t.Fatalf("cannot propose withdrawal: %+v", err)
	}
	requestID := res.Data

	if _, err := stack.Deliver(asSigner(carol, sweepTime), db, &covtest.Tx{Msg: &multisig.ApproveMsg{
		Metadata:  &covault.Metadata{Schema: 1},
		RequestId: requestID,
	}}); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}

	balance, err := control.Balance(db, destination)
	if err != nil {
		t.Fatalf("cannot check balance: %s", err)
	}
	if !balance.Contains(coin.NewCoin(300, 0, "IOV")) {
		t.Fatalf("destination not funded: %s", balance)
	}

	// The resolved request is gone for good.
	if _, err := stack.Deliver(asSigner(bob, sweepTime), db, &covtest.Tx{Msg: &multisig.ApproveMsg{
		Metadata:  &covault.Metadata{Schema: 1},
		RequestId: requestID,
	}}); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found, got %+v", err)
	}
}
