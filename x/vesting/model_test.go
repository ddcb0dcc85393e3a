package vesting

import (
	"testing"

	"github.com/covault/covault"
	"github.com/covault/covault/coin"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
)

func TestScheduleValidate(t *testing.T) {
	valid := func() Schedule {
		return Schedule{
			Metadata:   &covault.Metadata{Schema: 1},
			ContractId: covtest.SequenceID(1),
			Start:      1000000,
			LockYears:  3,
			Remaining:  3,
			Yearly: []*coin.Coin{
				coin.NewCoinp(100, 0, "IOV"),
				coin.NewCoinp(100, 0, "IOV"),
				coin.NewCoinp(100, 0, "IOV"),
			},
			Withdrawable: &coin.Coin{Ticker: "IOV"},
		}
	}

	cases := map[string]struct {
		mutate  func(*Schedule)
		wantErr *errors.Error
	}{
		"valid":            {mutate: func(*Schedule) {}},
		"missing metadata": {mutate: func(s *Schedule) { s.Metadata = nil }, wantErr: errors.ErrMetadata},
		"no contract ID":   {mutate: func(s *Schedule) { s.ContractId = nil }, wantErr: errors.ErrModel},
		"no start time":    {mutate: func(s *Schedule) { s.Start = 0 }, wantErr: errors.ErrModel},
		"no lock years":    {mutate: func(s *Schedule) { s.LockYears = 0 }, wantErr: errors.ErrModel},
		"short year table": {mutate: func(s *Schedule) { s.Yearly = s.Yearly[:2] }, wantErr: errors.ErrModel},
		"nil year entry":   {mutate: func(s *Schedule) { s.Yearly[1] = nil }, wantErr: errors.ErrModel},
		"remaining above the year count": {
			mutate:  func(s *Schedule) { s.Remaining = 4 },
			wantErr: errors.ErrModel,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			s := valid()
			tc.mutate(&s)
			if err := s.Validate(); !tc.wantErr.Is(err) {
				t.Fatalf("want %q, got %+v", tc.wantErr, err)
			}
		})
	}
}
