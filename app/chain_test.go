package app

import (
	"context"
	"testing"

	"github.com/covault/covault/covtest"
	"github.com/covault/covault/errors"
	"github.com/covault/covault/store"
)

func TestChainDecorators(t *testing.T) {
	d1 := &covtest.Decorator{}
	d2 := &covtest.Decorator{}
	h := &covtest.Handler{}

	stack := ChainDecorators(d1, nil, d2).WithHandler(h)

	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/chain"}}

	if _, err := stack.Check(context.Background(), db, tx); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if _, err := stack.Deliver(context.Background(), db, tx); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	for i, d := range []*covtest.Decorator{d1, d2} {
		if got := d.CallCount(); got != 2 {
			t.Errorf("decorator %d: want 2 calls, got %d", i, got)
		}
	}
	if got := h.CallCount(); got != 2 {
		t.Errorf("handler: want 2 calls, got %d", got)
	}
}

func TestChainAbortsOnError(t *testing.T) {
	d1 := &covtest.Decorator{}
	d2 := &covtest.Decorator{
		CheckErr:   errors.ErrUnauthorized,
		DeliverErr: errors.ErrUnauthorized,
	}
	h := &covtest.Handler{}

	stack := ChainDecorators(d1, d2).WithHandler(h)

	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/chain"}}

	if _, err := stack.Check(context.Background(), db, tx); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}
	if _, err := stack.Deliver(context.Background(), db, tx); !errors.ErrUnauthorized.Is(err) {
		t.Fatalf("want unauthorized, got %+v", err)
	}

	if got := h.CallCount(); got != 0 {
		t.Errorf("handler must not be reached, got %d calls", got)
	}
}

func TestChainCanBeExtended(t *testing.T) {
	d1 := &covtest.Decorator{}
	d2 := &covtest.Decorator{}
	h := &covtest.Handler{}

	stack := ChainDecorators(d1).Chain(d2).WithHandler(h)

	db := store.MemStore()
	tx := &covtest.Tx{Msg: &covtest.Msg{RoutePath: "test/chain"}}

	if _, err := stack.Check(context.Background(), db, tx); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if d1.CheckCallCount() != 1 || d2.CheckCallCount() != 1 {
		t.Error("all decorators in the chain must be called")
	}
}
