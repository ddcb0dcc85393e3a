package coin

import "testing"

func TestCombineCoins(t *testing.T) {
	cs, err := CombineCoins(
		NewCoin(7, 0, "IOV"),
		NewCoin(1, 0, "CASH"),
		NewCoin(3, 0, "IOV"),
	)
	if err != nil {
		t.Fatalf("cannot combine: %+v", err)
	}
	if cs.Count() != 2 {
		t.Fatalf("want 2 currencies, got %d", cs.Count())
	}
	if !cs.AmountOf("IOV").Equals(NewCoin(10, 0, "IOV")) {
		t.Fatalf("unexpected IOV amount: %q", cs.AmountOf("IOV"))
	}
	// sorted alphabetically
	if cs[0].Ticker != "CASH" || cs[1].Ticker != "IOV" {
		t.Fatalf("coins are not sorted: %v", cs)
	}
}

func TestCoinsAddRemovesZero(t *testing.T) {
	cs, err := CombineCoins(NewCoin(5, 0, "IOV"))
	if err != nil {
		t.Fatalf("cannot combine: %+v", err)
	}
	cs, err = cs.Subtract(NewCoin(5, 0, "IOV"))
	if err != nil {
		t.Fatalf("cannot subtract: %+v", err)
	}
	if !cs.IsEmpty() {
		t.Fatalf("zero value coin must be dropped: %v", cs)
	}
}

func TestCoinsContains(t *testing.T) {
	cs, err := CombineCoins(NewCoin(5, 0, "IOV"))
	if err != nil {
		t.Fatalf("cannot combine: %+v", err)
	}

	if !cs.Contains(NewCoin(5, 0, "IOV")) {
		t.Error("must contain the full amount")
	}
	if !cs.Contains(NewCoin(3, 0, "IOV")) {
		t.Error("must contain a partial amount")
	}
	if cs.Contains(NewCoin(6, 0, "IOV")) {
		t.Error("must not contain more than stored")
	}
	if cs.Contains(NewCoin(1, 0, "CASH")) {
		t.Error("must not contain another currency")
	}
}

func TestCoinsValidate(t *testing.T) {
	unsorted := Coins{NewCoinp(1, 0, "IOV"), NewCoinp(1, 0, "CASH")}
	if err := unsorted.Validate(); err == nil {
		t.Error("unsorted collection must not validate")
	}

	withZero := Coins{NewCoinp(0, 0, "IOV")}
	if err := withZero.Validate(); err == nil {
		t.Error("zero coin must not validate")
	}

	ok := Coins{NewCoinp(1, 0, "CASH"), NewCoinp(1, 0, "IOV")}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid collection rejected: %+v", err)
	}
}
