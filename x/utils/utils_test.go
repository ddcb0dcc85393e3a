package utils

import (
	"context"
	"testing"

	"github.com/covault/covault"
	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
)

// writeHandler writes the key, value pair and returns the declared error
type writeHandler struct {
	key   []byte
	value []byte
	err   error
}

var _ covault.Handler = writeHandler{}

func (h writeHandler) Check(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	if err := store.Set(h.key, h.value); err != nil {
		return nil, err
	}
	return &covault.CheckResult{}, h.err
}

func (h writeHandler) Deliver(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	if err := store.Set(h.key, h.value); err != nil {
		return nil, err
	}
	return &covault.DeliverResult{}, h.err
}

// panicHandler always panics
type panicHandler struct{}

var _ covault.Handler = panicHandler{}

func (p panicHandler) Check(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	panic("check panic")
}

func (p panicHandler) Deliver(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	panic("deliver panic")
}

func TestSavepointRollsBackOnError(t *testing.T) {
	cases := map[string]struct {
		save      Savepoint
		handler   covault.Handler
		deliver   bool
		wantWrite bool
	}{
		"deliver rolled back on error": {
			save:      NewSavepoint().OnDeliver(),
			handler:   writeHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrHuman},
			deliver:   true,
			wantWrite: false,
		},
		"deliver committed on success": {
			save:      NewSavepoint().OnDeliver(),
			handler:   writeHandler{key: []byte("k"), value: []byte("v")},
			deliver:   true,
			wantWrite: true,
		},
		"check rolled back on error": {
			save:      NewSavepoint().OnCheck(),
			handler:   writeHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrHuman},
			deliver:   false,
			wantWrite: false,
		},
		"inactive savepoint writes through even on error": {
			save:      NewSavepoint().OnCheck(),
			handler:   writeHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrHuman},
			deliver:   true,
			wantWrite: true,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/write"}}

			var err error
			if tc.deliver {
				_, err = tc.save.Deliver(context.Background(), db, tx, tc.handler)
			} else {
				_, err = tc.save.Check(context.Background(), db, tx, tc.handler)
			}
			_ = err

			has, herr := db.Has([]byte("k"))
			if herr != nil {
				t.Fatalf("cannot check key: %+v", herr)
			}
			if has != tc.wantWrite {
				t.Fatalf("want write=%v, got %v", tc.wantWrite, has)
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/panic"}}
	rec := NewRecovery()

	if _, err := rec.Check(context.Background(), db, tx, panicHandler{}); !errors.ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
	if _, err := rec.Deliver(context.Background(), db, tx, panicHandler{}); !errors.ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
}

func TestActionTagger(t *testing.T) {
	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/mark"}}

	h := &covtest.Handler{}
	res, err := NewActionTagger().Deliver(context.Background(), db, tx, h)
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if len(res.Tags) != 1 {
		t.Fatalf("want 1 tag, got %d", len(res.Tags))
	}
	if string(res.Tags[0].Key) != ActionKey || string(res.Tags[0].Value) != "test/mark" {
		t.Fatalf("unexpected tag: %s=%s", res.Tags[0].Key, res.Tags[0].Value)
	}
}

func TestLoggingPassesResultThrough(t *testing.T) {
	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/log"}}

	h := &covtest.Handler{CheckErr: errors.ErrNotFound}
	if _, err := NewLogging().Check(context.Background(), db, tx, h); !errors.ErrNotFound.Is(err) {
		t.Fatalf("logging must not swallow errors: %+v", err)
	}

	ok := &covtest.Handler{}
	if _, err := NewLogging().Deliver(context.Background(), db, tx, ok); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
}
