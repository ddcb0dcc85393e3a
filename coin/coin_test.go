package coin

import (
	"testing"

	"github.com/covault/covault/errors"
)

func TestValidCoin(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		wantErr *errors.Error
	}{
		"valid coin": {
			coin: NewCoin(42, 0, "IOV"),
		},
		"valid negative coin": {
			coin: NewCoin(-5, -123456789, "CASH"),
		},
		"invalid ticker": {
			coin:    NewCoin(1, 0, "io"),
			wantErr: errors.ErrCurrency,
		},
		"whole out of range": {
			coin:    NewCoin(MaxInt+1, 0, "IOV"),
			wantErr: errors.ErrOverflow,
		},
		"fractional out of range": {
			coin:    NewCoin(0, FracUnit, "IOV"),
			wantErr: errors.ErrOverflow,
		},
		"mismatched sign": {
			coin:    NewCoin(5, -5, "IOV"),
			wantErr: errors.ErrState,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.coin.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
			} else if !tc.wantErr.Is(err) {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestAddCoin(t *testing.T) {
	base := NewCoin(17, 2345566, "ABC")
	cases := map[string]struct {
		a, b    Coin
		want    Coin
		wantErr *errors.Error
	}{
		"plain addition": {
			a:    base,
			b:    base,
			want: NewCoin(34, 4691132, "ABC"),
		},
		"wrong currency": {
			a:       base,
			b:       NewCoin(1, 0, "NOT"),
			wantErr: errors.ErrCurrency,
		},
		"negative fraction normalizes": {
			a:    NewCoin(3, 0, "ABC"),
			b:    NewCoin(0, -2, "ABC"),
			want: NewCoin(2, FracUnit-2, "ABC"),
		},
		"zero coin with no ticker is neutral": {
			a:    Coin{},
			b:    base,
			want: base,
		},
		"overflow": {
			a:       NewCoin(MaxInt, 0, "ABC"),
			b:       NewCoin(1, 0, "ABC"),
			wantErr: errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.a.Add(tc.b)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if !tc.want.Equals(got) {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCoinDivide(t *testing.T) {
	cases := map[string]struct {
		total    Coin
		pieces   int64
		wantOne  Coin
		wantRest Coin
		wantErr  *errors.Error
	}{
		"divide without rest": {
			total:   NewCoin(1000, 0, "IOV"),
			pieces:  10,
			wantOne: NewCoin(100, 0, "IOV"),
		},
		"divide with fractional result": {
			total:    NewCoin(4, 0, "EUR"),
			pieces:   3,
			wantOne:  NewCoin(1, 333333333, "EUR"),
			wantRest: NewCoin(0, 1, "EUR"),
		},
		"divide fractional": {
			total:   NewCoin(0, 100, "IOV"),
			pieces:  2,
			wantOne: NewCoin(0, 50, "IOV"),
		},
		"zero pieces": {
			total:   NewCoin(10, 0, "IOV"),
			pieces:  0,
			wantErr: errors.ErrInput,
		},
		"negative pieces": {
			total:   NewCoin(10, 0, "IOV"),
			pieces:  -2,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			one, rest, err := tc.total.Divide(tc.pieces)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if !one.Equals(tc.wantOne) {
				t.Errorf("unexpected piece: %q", one)
			}
			if !rest.Equals(tc.wantRest) {
				t.Errorf("unexpected rest: %q", rest)
			}
		})
	}
}

func TestCoinMultiply(t *testing.T) {
	cases := map[string]struct {
		coin    Coin
		times   int64
		want    Coin
		wantErr *errors.Error
	}{
		"multiply whole": {
			coin:  NewCoin(100, 0, "IOV"),
			times: 3,
			want:  NewCoin(300, 0, "IOV"),
		},
		"multiply by zero": {
			coin:  NewCoin(100, 5, "IOV"),
			times: 0,
			want:  NewCoin(0, 0, "IOV"),
		},
		"overflow": {
			coin:    NewCoin(MaxInt, 0, "IOV"),
			times:   MaxInt,
			wantErr: errors.ErrOverflow,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := tc.coin.Multiply(tc.times)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if !got.Equals(tc.want) {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCompareCoins(t *testing.T) {
	a := NewCoin(1, 0, "IOV")
	b := NewCoin(1, 1, "IOV")

	if a.Compare(b) != -1 {
		t.Error("a must be smaller than b")
	}
	if b.Compare(a) != 1 {
		t.Error("b must be larger than a")
	}
	if a.Compare(a) != 0 {
		t.Error("a must be equal to itself")
	}
	if !b.IsGTE(a) || a.IsGTE(b) {
		t.Error("IsGTE order broken")
	}
}

func TestParseHumanFormat(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Coin
		wantErr bool
	}{
		"whole only": {
			raw:  "1 IOV",
			want: NewCoin(1, 0, "IOV"),
		},
		"with fractional": {
			raw:  "3.4 IOV",
			want: NewCoin(3, 400000000, "IOV"),
		},
		"negative": {
			raw:  "-2.5 CASH",
			want: NewCoin(-2, -500000000, "CASH"),
		},
		"missing ticker": {
			raw:     "3.4",
			wantErr: true,
		},
		"garbage": {
			raw:     "not a coin",
			wantErr: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := ParseHumanFormat(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
			if !got.Equals(tc.want) {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCoinJSONRoundTrip(t *testing.T) {
	var c Coin
	if err := c.UnmarshalJSON([]byte(`"7.5 IOV"`)); err != nil {
		t.Fatalf("cannot unmarshal: %+v", err)
	}
	if !c.Equals(NewCoin(7, 500000000, "IOV")) {
		t.Fatalf("unexpected coin: %q", c)
	}

	if err := c.UnmarshalJSON([]byte(`{"whole": 2, "fractional": 3, "ticker": "ABC"}`)); err != nil {
		t.Fatalf("cannot unmarshal: %+v", err)
	}
	if !c.Equals(NewCoin(2, 3, "ABC")) {
		t.Fatalf("unexpected coin: %q", c)
	}
}
