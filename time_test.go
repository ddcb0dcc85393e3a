package covault

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestUnixTimeUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		json    string
		wantErr bool
		want    UnixTime
	}{
		"a number":         {json: `1234567`, want: 1234567},
		"zero":             {json: `0`, want: 0},
		"a negative value": {json: `-1`, wantErr: true},
		"a string time":    {json: `"2019-04-01T10:00:00Z"`, want: 1554112800},
		"garbage":          {json: `"not a time"`, wantErr: true},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got UnixTime
			err := json.Unmarshal([]byte(tc.json), &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("want an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("cannot unmarshal: %s", err)
			}
			if got != tc.want {
				t.Fatalf("want %d, got %d", tc.want, got)
			}
		})
	}
}

func TestUnixTimeAdd(t *testing.T) {
	var now UnixTime = 1000
	if got := now.Add(5 * time.Minute); got != 1300 {
		t.Fatalf("want 1300, got %d", got)
	}
	// Sub-second values are truncated.
	if got := now.Add(1600 * time.Millisecond); got != 1001 {
		t.Fatalf("want 1001, got %d", got)
	}
	if got := now.Add(-2 * time.Second); got != 998 {
		t.Fatalf("want 998, got %d", got)
	}
}

func TestIsExpired(t *testing.T) {
	now := AsUnixTime(time.Now())
	ctx := WithBlockTime(context.Background(), now.Time())

	if !IsExpired(ctx, now.Add(-time.Minute)) {
		t.Fatal("the past must be expired")
	}
	if !IsExpired(ctx, now) {
		t.Fatal("expiration is inclusive")
	}
	if IsExpired(ctx, now.Add(time.Minute)) {
		t.Fatal("the future must not be expired")
	}
}
