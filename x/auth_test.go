package x

import (
	"context"
	"testing"

	"github.com/covault/covault"
	"github.com/covault/covault/covtest"
)

func TestAuthHelpers(t *testing.T) {
	a := covtest.NewCondition()
	b := covtest.NewCondition()
	c := covtest.NewCondition()

	ctx := context.Background()

	cases := map[string]struct {
		auth      Authenticator
		mainThere covault.Condition
		all       []covault.Address
		wantAll   bool
	}{
		"no signers": {
			auth:    &covtest.Auth{},
			all:     []covault.Address{a.Address()},
			wantAll: false,
		},
		"single signer": {
			auth:      &covtest.Auth{Signer: a},
			mainThere: a,
			all:       []covault.Address{a.Address()},
			wantAll:   true,
		},
		"missing one signer": {
			auth:      &covtest.Auth{Signers: []covault.Condition{a, b}},
			mainThere: a,
			all:       []covault.Address{a.Address(), c.Address()},
			wantAll:   false,
		},
		"multiple signers": {
			auth:      &covtest.Auth{Signers: []covault.Condition{a, b, c}},
			mainThere: a,
			all:       []covault.Address{c.Address(), b.Address()},
			wantAll:   true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			main := MainSigner(ctx, tc.auth)
			if tc.mainThere == nil {
				if main != nil {
					t.Errorf("want no main signer, got %s", main)
				}
			} else if !main.Equals(tc.mainThere) {
				t.Errorf("unexpected main signer: %s", main)
			}

			if got := HasAllAddresses(ctx, tc.auth, tc.all); got != tc.wantAll {
				t.Errorf("HasAllAddresses: want %v, got %v", tc.wantAll, got)
			}
		})
	}
}

func TestHasNAddresses(t *testing.T) {
	a := covtest.NewCondition()
	b := covtest.NewCondition()
	c := covtest.NewCondition()

	ctx := context.Background()
	auth := &covtest.Auth{Signers: []covault.Condition{a, b}}
	required := []covault.Address{a.Address(), b.Address(), c.Address()}

	if !HasNAddresses(ctx, auth, required, 0) {
		t.Error("zero required must always pass")
	}
	if !HasNAddresses(ctx, auth, required, 2) {
		t.Error("two signatures are present")
	}
	if HasNAddresses(ctx, auth, required, 3) {
		t.Error("only two signatures are present")
	}
}

func TestChainAuth(t *testing.T) {
	a := covtest.NewCondition()
	b := covtest.NewCondition()

	ctx := context.Background()
	auth := ChainAuth(
		&covtest.Auth{Signer: a},
		&covtest.Auth{Signer: b},
	)

	if got := len(auth.GetConditions(ctx)); got != 2 {
		t.Fatalf("want 2 conditions, got %d", got)
	}
	if !auth.HasAddress(ctx, b.Address()) {
		t.Error("second authenticator must be consulted")
	}
}
