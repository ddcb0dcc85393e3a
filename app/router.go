package app

import (
	"fmt"
	"regexp"

	"github.com/covault/covault"
	"github.com/covault/covault/errors"
)

// Router allows us to register many handlers with different paths and then
// direct each message to the registered handler.
type Router struct {
	handlers map[string]covault.Handler
}

var _ covault.Registry = (*Router)(nil)
var _ covault.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]covault.Handler),
	}
}

var isPath = regexp.MustCompile(`^[a-z0-9_/]+$`).MatchString

// Handle adds a new handler to be called for any message of the same type as
// the given one. Handle panics when a handler for given message type is
// already registered to avoid configuration mistakes.
func (r *Router) Handle(m covault.Msg, h covault.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path %q", path))
	}
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("handler for %q is already registered", path))
	}
	r.handlers[path] = h
}

// handler returns the handler registered for processing of given message.
// This method always returns a non-nil handler. A handler that processing
// always fails is returned when no other was registered for given message.
func (r *Router) handler(m covault.Msg) covault.Handler {
	path := m.Path()
	if h, ok := r.handlers[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches the message to the registered handler, implements Handler
func (r *Router) Check(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Check(ctx, store, tx)
}

// Deliver dispatches the message to the registered handler, implements Handler
func (r *Router) Deliver(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	return r.handler(msg).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound, mentioning the missing path.
type notFoundHandler string

var _ covault.Handler = notFoundHandler("")

func (path notFoundHandler) Check(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(ctx covault.Context, store covault.KVStore, tx covault.Tx) (*covault.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
