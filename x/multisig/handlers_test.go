package multisig

import (
	"context"
	"testing"

	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
	"github.com/covault/covault/x/cash"
)

// fixture wires a contract with three signers and a funded account into a
// fresh in-memory store.
type fixture struct {
	db         covault.CacheableKVStore
	control    cash.Controller
	alice      covault.Condition
	bob        covault.Condition
	carol      covault.Condition
	contractID []byte
	contract   *Contract
}

func newFixture(t testing.TB, threshold uint32) *fixture {
	t.Helper()

	f := &fixture{
		db:      store.MemStore(),
		control: cash.NewController(cash.NewBucket()),
		alice:   covtest.NewCondition(),
		bob:     covtest.NewCondition(),
		carol:   covtest.NewCondition(),
	}

	h := CreateContractHandler{
		auth:   &covtest.Auth{Signer: f.alice},
		bucket: NewContractBucket(),
	}
	res, err := h.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &CreateContractMsg{
		Metadata:  &covault.Metadata{Schema: 1},
		Name:      "board",
		Signers:   []covault.Address{f.alice.Address(), f.bob.Address(), f.carol.Address()},
		Threshold: threshold,
	}})
	if err != nil {
		t.Fatalf("cannot create contract: %+v", err)
	}
	f.contractID = res.Data

	contracts := NewContractBucket()
	var contract Contract
	if err := contracts.One(f.db, f.contractID, &contract); err != nil {
		t.Fatalf("cannot load contract: %s", err)
	}
	f.contract = &contract

	if err := f.control.IssueCoins(f.db, contract.Address, coin.NewCoin(1000, 0, "IOV")); err != nil {
		t.Fatalf("cannot fund contract: %s", err)
	}
	return f
}

// propose submits a withdrawal proposal signed by the given condition and
// returns the request ID.
func (f *fixture) proposeWithdraw(t testing.TB, proposer covault.Condition, destination covault.Address, amount coin.Coin) []byte {
	t.Helper()
	h := WithdrawHandler{
		proposalHandler: proposalHandler{
			auth:      &covtest.Auth{Signer: proposer},
			contracts: NewContractBucket(),
			requests:  NewRequestBucket(),
		},
		vault: NewCashVault(f.control),
	}
	res, err := h.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeWithdrawMsg{
		Metadata:    &covault.Metadata{Schema: 1},
		ContractId:  f.contractID,
		Destination: destination,
		Amount:      &amount,
	}})
	if err != nil {
		t.Fatalf("cannot propose withdrawal: %+v", err)
	}
	return res.Data
}

func (f *fixture) approve(approver covault.Condition, requestID []byte) error {
	h := ApproveHandler{
		auth:      &covtest.Auth{Signer: approver},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
		control:   f.control,
		vault:     NewCashVault(f.control),
	}
	_, err := h.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ApproveMsg{
		Metadata:  &covault.Metadata{Schema: 1},
		RequestId: requestID,
	}})
	return err
}

func TestWithdrawalLifecycle(t *testing.T) {
	f := newFixture(t, 2)
	destination := covtest.RandomAddr(t)

	reqID := f.proposeWithdraw(t, f.alice, destination, coin.NewCoin(400, 0, "IOV"))

	// The proposer counts as the first approver, a 2-of-3 contract needs
	// one more approval.
	requests := NewRequestBucket()
	var req PendingRequest
	if err := requests.One(f.db, reqID, &req); err != nil {
		t.Fatalf("cannot load request: %s", err)
	}
	if req.RemainingApprovals != 1 {
		t.Fatalf("want 1 remaining approval, got %d", req.RemainingApprovals)
	}

	// The second approval resolves the request and moves the funds.
	if err := f.approve(f.bob, reqID); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	balance, err := f.control.Balance(f.db, destination)
	if err != nil {
		t.Fatalf("cannot check balance: %s", err)
	}
	if !balance.Contains(coin.NewCoin(400, 0, "IOV")) {
		t.Fatalf("destination not funded: %s", balance)
	}

	// The request is gone, a late approval must fail.
	if err := f.approve(f.carol, reqID); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found for a resolved request, got %+v", err)
	}
}

func TestApproveTwice(t *testing.T) {
	f := newFixture(t, 3)
	reqID := f.proposeWithdraw(t, f.alice, covtest.RandomAddr(t), coin.NewCoin(100, 0, "IOV"))

	// The proposal already counts as the proposer's approval.
	if err := f.approve(f.alice, reqID); !ErrAlreadyApproved.Is(err) {
		t.Fatalf("want already approved, got %+v", err)
	}
	if err := f.approve(f.bob, reqID); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	if err := f.approve(f.bob, reqID); !ErrAlreadyApproved.Is(err) {
		t.Fatalf("want already approved, got %+v", err)
	}
}

func TestApproveByOutsider(t *testing.T) {
	f := newFixture(t, 2)
	reqID := f.proposeWithdraw(t, f.alice, covtest.RandomAddr(t), coin.NewCoin(100, 0, "IOV"))

	if err := f.approve(covtest.NewCondition(), reqID); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
}

func TestRemainingApprovalsAreSnapshotted(t *testing.T) {
	f := newFixture(t, 3)
	destination := covtest.RandomAddr(t)

	// A 3-of-3 withdrawal needs two more approvals after the proposal.
	withdrawID := f.proposeWithdraw(t, f.alice, destination, coin.NewCoin(100, 0, "IOV"))

	// Lower the threshold to 2 while the withdrawal is pending.
	th := ThresholdHandler{proposalHandler: proposalHandler{
		auth:      &covtest.Auth{Signer: f.alice},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
	}}
	res, err := th.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeThresholdMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Threshold:  2,
	}})
	if err != nil {
		t.Fatalf("cannot propose threshold change: %+v", err)
	}
	if err := f.approve(f.bob, res.Data); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	if err := f.approve(f.carol, res.Data); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	var contract Contract
	if err := NewContractBucket().One(f.db, f.contractID, &contract); err != nil {
		t.Fatalf("cannot load contract: %s", err)
	}
	if contract.Threshold != 2 {
		t.Fatalf("threshold change not applied, got %d", contract.Threshold)
	}

	// The pending withdrawal keeps the approval count captured at its
	// proposal. Bob's approval alone must not resolve it.
	if err := f.approve(f.bob, withdrawID); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	if _, err := f.control.Balance(f.db, destination); !errors.ErrNotFound.Is(err) {
		t.Fatalf("withdrawal resolved too early: %+v", err)
	}
	if err := f.approve(f.carol, withdrawID); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	balance, err := f.control.Balance(f.db, destination)
	if err != nil {
		t.Fatalf("cannot check balance: %s", err)
	}
	if !balance.Contains(coin.NewCoin(100, 0, "IOV")) {
		t.Fatalf("destination not funded: %s", balance)
	}
}

func TestCancelRequest(t *testing.T) {
	f := newFixture(t, 3)
	reqID := f.proposeWithdraw(t, f.alice, covtest.RandomAddr(t), coin.NewCoin(100, 0, "IOV"))

	cancel := func(who covault.Condition) error {
		h := CancelHandler{
			auth:      &covtest.Auth{Signer: who},
			contracts: NewContractBucket(),
			requests:  NewRequestBucket(),
		}
		_, err := h.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &CancelMsg{
			Metadata:  &covault.Metadata{Schema: 1},
			RequestId: reqID,
		}})
		return err
	}

	// Bob is a signer but did not approve, he cannot cancel.
	if err := cancel(f.bob); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
	// The proposer is an approver and can cancel alone.
	if err := cancel(f.alice); err != nil {
		t.Fatalf("cancel failed: %+v", err)
	}
	if err := f.approve(f.bob, reqID); !errors.ErrNotFound.Is(err) {
		t.Fatalf("want not found for a cancelled request, got %+v", err)
	}

	// The ID of the dropped request is never reused.
	nextID := f.proposeWithdraw(t, f.alice, covtest.RandomAddr(t), coin.NewCoin(50, 0, "IOV"))
	if string(nextID) == string(reqID) {
		t.Fatalf("request ID %x reused", nextID)
	}
}

func TestProposalFailsFast(t *testing.T) {
	f := newFixture(t, 2)

	// Adding an existing signer is rejected at proposal time.
	add := AddSignerHandler{proposalHandler: proposalHandler{
		auth:      &covtest.Auth{Signer: f.alice},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
	}}
	_, err := add.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeAddSignerMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Signer:     f.bob.Address(),
	}})
	if !ErrSignerSet.Is(err) {
		t.Fatalf("want signer set error, got %+v", err)
	}

	// A withdrawal above the balance is rejected at proposal time.
	wh := WithdrawHandler{
		proposalHandler: proposalHandler{
			auth:      &covtest.Auth{Signer: f.alice},
			contracts: NewContractBucket(),
			requests:  NewRequestBucket(),
		},
		vault: NewCashVault(f.control),
	}
	_, err = wh.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeWithdrawMsg{
		Metadata:    &covault.Metadata{Schema: 1},
		ContractId:  f.contractID,
		Destination: covtest.RandomAddr(t),
		Amount:      coin.NewCoinp(5000, 0, "IOV"),
	}})
	if !errors.ErrAmount.Is(err) {
		t.Fatalf("want amount error, got %+v", err)
	}

	// Only current signers can propose.
	_, err = add.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeAddSignerMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Signer:     covtest.RandomAddr(t),
	}})
	if err != nil {
		t.Fatalf("alice is a signer: %+v", err)
	}
	outsider := AddSignerHandler{proposalHandler: proposalHandler{
		auth:      &covtest.Auth{Signer: covtest.NewCondition()},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
	}}
	_, err = outsider.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeAddSignerMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Signer:     covtest.RandomAddr(t),
	}})
	if !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
}

func TestSignerChangeRequests(t *testing.T) {
	f := newFixture(t, 2)
	dave := covtest.RandomAddr(t)

	// Extend the signer set to four.
	add := AddSignerHandler{proposalHandler: proposalHandler{
		auth:      &covtest.Auth{Signer: f.alice},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
	}}
	res, err := add.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeAddSignerMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Signer:     dave,
	}})
	if err != nil {
		t.Fatalf("cannot propose: %+v", err)
	}
	if err := f.approve(f.bob, res.Data); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}

	var contract Contract
	if err := NewContractBucket().One(f.db, f.contractID, &contract); err != nil {
		t.Fatalf("cannot load contract: %s", err)
	}
	if !contract.IsSigner(dave) {
		t.Fatal("dave not added")
	}

	// Shrink back to three.
	rm := RemoveSignerHandler{proposalHandler: proposalHandler{
		auth:      &covtest.Auth{Signer: f.carol},
		contracts: NewContractBucket(),
		requests:  NewRequestBucket(),
	}}
	res, err = rm.Deliver(context.Background(), f.db, &covtest.Tx{Msg: &ProposeRemoveSignerMsg{
		Metadata:   &covault.Metadata{Schema: 1},
		ContractId: f.contractID,
		Signer:     dave,
	}})
	if err != nil {
		t.Fatalf("cannot propose: %+v", err)
	}
	if err := f.approve(f.bob, res.Data); err != nil {
		t.Fatalf("approval failed: %+v", err)
	}
	if err := NewContractBucket().One(f.db, f.contractID, &contract); err != nil {
		t.Fatalf("cannot load contract: %s", err)
	}
	if contract.IsSigner(dave) {
		t.Fatal("dave not removed")
	}
}
