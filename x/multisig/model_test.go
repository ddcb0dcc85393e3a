package multisig

import (
	"testing"

	"github.com/covault/covault"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
)

func TestContractValidate(t *testing.T) {
	addrs := make([]covault.Address, 4)
	for i := range addrs {
		addrs[i] = covtest.NewCondition().Address()
	}

	cases := map[string]struct {
		contract Contract
		wantErr  *errors.Error
	}{
		"valid 2-of-3": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   addrs[:3],
				Threshold: 2,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
		},
		"missing metadata": {
			contract: Contract{
				Signers:   addrs[:3],
				Threshold: 2,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
			wantErr: errors.ErrMetadata,
		},
		"a single signer is not enough": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   addrs[:1],
				Threshold: 2,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
			wantErr: errors.ErrModel,
		},
		"duplicated signer": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   []covault.Address{addrs[0], addrs[1], addrs[0]},
				Threshold: 2,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
			wantErr: errors.ErrDuplicate,
		},
		"threshold below the minimum": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   addrs[:3],
				Threshold: 1,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
			wantErr: ErrThreshold,
		},
		"threshold above the signer count": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   addrs[:3],
				Threshold: 4,
				Address:   MultiSigCondition(covtest.SequenceID(1)).Address(),
			},
			wantErr: ErrThreshold,
		},
		"missing address": {
			contract: Contract{
				Metadata:  &covault.Metadata{Schema: 1},
				Signers:   addrs[:3],
				Threshold: 2,
			},
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.contract.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestContractRemoveSigner(t *testing.T) {
	addrs := make([]covault.Address, 4)
	for i := range addrs {
		addrs[i] = covtest.NewCondition().Address()
	}

	cases := map[string]struct {
		signers   []covault.Address
		threshold uint32
		remove    covault.Address
		wantErr   *errors.Error
	}{
		"remove from 3 signers": {
			signers:   addrs[:3],
			threshold: 2,
			remove:    addrs[1],
		},
		"not a signer": {
			signers:   addrs[:3],
			threshold: 2,
			remove:    addrs[3],
			wantErr:   ErrSignerSet,
		},
		"cannot shrink below two signers": {
			signers:   addrs[:2],
			threshold: 2,
			remove:    addrs[0],
			wantErr:   ErrSignerSet,
		},
		"cannot shrink below the threshold": {
			signers:   addrs[:3],
			threshold: 3,
			remove:    addrs[0],
			wantErr:   ErrSignerSet,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			c := Contract{
				Signers:   append([]covault.Address{}, tc.signers...),
				Threshold: tc.threshold,
			}
			if err := c.RemoveSigner(tc.remove); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if len(c.Signers) != len(tc.signers)-1 {
				t.Fatalf("want %d signers left, got %d", len(tc.signers)-1, len(c.Signers))
			}
			if c.IsSigner(tc.remove) {
				t.Fatal("removed address still is a signer")
			}
		})
	}
}

func TestContractUpdateThreshold(t *testing.T) {
	addrs := make([]covault.Address, 3)
	for i := range addrs {
		addrs[i] = covtest.NewCondition().Address()
	}
	cases := map[string]struct {
		threshold uint32
		wantErr   *errors.Error
	}{
		"raise to the signer count":   {threshold: 3},
		"unchanged value is rejected": {threshold: 2, wantErr: ErrThreshold},
		"below the minimum":           {threshold: 1, wantErr: ErrThreshold},
		"above the signer count":      {threshold: 4, wantErr: ErrThreshold},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			c := Contract{Signers: addrs, Threshold: 2}
			if err := c.UpdateThreshold(tc.threshold); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}

func TestPendingRequestActionCount(t *testing.T) {
	proposer := covtest.NewCondition().Address()

	base := PendingRequest{
		Metadata:           &covault.Metadata{Schema: 1},
		ContractId:         covtest.SequenceID(1),
		Proposer:           proposer,
		RemainingApprovals: 1,
		Approvals:          []covault.Address{proposer},
	}

	// No action set.
	if err := base.Validate(); !errors.ErrModel.Is(err) {
		t.Fatalf("want model error, got %+v", err)
	}

	one := base
	one.AddSigner = &AddSignerAction{Signer: covtest.NewCondition().Address()}
	if err := one.Validate(); err != nil {
		t.Fatalf("single action must be valid, got %+v", err)
	}

	two := one
	two.SetThreshold = &SetThresholdAction{OldThreshold: 2, NewThreshold: 3}
	if err := two.Validate(); !errors.ErrModel.Is(err) {
		t.Fatalf("want model error for two actions, got %+v", err)
	}
}
