package covault

import (
	"github.com/covault/covault/errors"
)

// Model groups a key-value pair as returned by queries.
type Model struct {
	Key   []byte
	Value []byte
}

// Pair constructs a model from a key-value pair.
func Pair(key, value []byte) Model {
	return Model{
		Key:   key,
		Value: value,
	}
}

const (
	// KeyQueryMod means to query for exact match (key).
	KeyQueryMod = ""
	// PrefixQueryMod means to query for anything with this prefix.
	PrefixQueryMod = "prefix"
)

// QueryHandler is anything that can process read-only requests against
// the state.
type QueryHandler interface {
	Query(db ReadOnlyKVStore, mod string, data []byte) ([]Model, error)
}

// QueryRouter allows us to register many query handlers to different
// paths and resolve them.
type QueryRouter struct {
	routes map[string]QueryHandler
}

// NewQueryRouter initializes a QueryRouter with no routes.
func NewQueryRouter() QueryRouter {
	return QueryRouter{
		routes: make(map[string]QueryHandler, 10),
	}
}

// RegisterAll registers a number of QueryRegisters at once.
func (r QueryRouter) RegisterAll(qr ...QueryRegister) {
	for _, q := range qr {
		q(r)
	}
}

// QueryRegister is a function to register many query handlers with one
// call.
type QueryRegister func(QueryRouter)

// Register adds a new handler for this path. Panics on duplicate.
func (r QueryRouter) Register(path string, h QueryHandler) {
	if _, ok := r.routes[path]; ok {
		panic(errors.Wrapf(errors.ErrDuplicate, "re-registering route: %s", path))
	}
	r.routes[path] = h
}

// Handler returns the registered Handler for this path, or nil if none.
func (r QueryRouter) Handler(path string) QueryHandler {
	return r.routes[path]
}
