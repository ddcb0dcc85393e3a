package covtest

import "github.com/covault/covault"

// Handler implements a mock of the covault.Handler interface. It counts
// calls and returns declared results.
type Handler struct {
	checkCall   int
	CheckResult covault.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult covault.DeliverResult
	DeliverErr    error
}

var _ covault.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	h.checkCall++
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	h.deliverCall++
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}

// Decorator is a mock implementation of the covault.Decorator interface.
//
// Set CheckErr or DeliverErr to force error response for corresponding
// method. If error attributes are not set then wrapped handler method is
// called and its result returned.
// Each method call is counted. Regardless of the method call result the
// counter is incremented.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by the Check method before calling
	// the wrapped handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ covault.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx, next covault.Checker) (*covault.CheckResult, error) {
	d.checkCall++

	if d.CheckErr != nil {
		return nil, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx, next covault.Deliverer) (*covault.DeliverResult, error) {
	d.deliverCall++

	if d.DeliverErr != nil {
		return nil, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}

// Decorate wraps a handler with a single decorator, returning the combination
// as a new handler.
func Decorate(h covault.Handler, d covault.Decorator) covault.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn covault.Handler
	dc covault.Decorator
}

var _ covault.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx covault.Context, db covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
