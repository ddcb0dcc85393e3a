package covault

import (
	"context"
	"time"

	"github.com/covault/covault/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Context is just the standard library context, named so that every
// extension imports the same vocabulary. Extensions may enrich it with
// their own keys.
//
// There should exist two functions for every value of type T that we
// want to support in Context:
//
//   WithXYZ(Context, T) Context
//   GetXYZ(Context) (val T, ok bool)
type Context = context.Context

type contextKey int

const (
	contextKeyHeight contextKey = iota
	contextKeyChainID
	contextKeyBlockTime
	contextKeyLogger
)

// DefaultLogger is used for all contexts that have not set anything
// themselves.
var DefaultLogger = log.NewNopLogger()

// WithHeight sets the block height for the Context. Panics if height
// was already set to prevent lower-level modules from overwriting it.
func WithHeight(ctx Context, height int64) Context {
	if _, ok := GetHeight(ctx); ok {
		panic("block height already set")
	}
	return context.WithValue(ctx, contextKeyHeight, height)
}

// GetHeight returns the current block height and whether it was set.
func GetHeight(ctx Context) (int64, bool) {
	val, ok := ctx.Value(contextKeyHeight).(int64)
	return val, ok
}

// WithChainID sets the chain id for the Context.
func WithChainID(ctx Context, chainID string) Context {
	if ctx.Value(contextKeyChainID) != nil {
		panic("chain id already set")
	}
	return context.WithValue(ctx, contextKeyChainID, chainID)
}

// GetChainID returns the current chain id, or an empty string if unset.
func GetChainID(ctx Context) string {
	val, _ := ctx.Value(contextKeyChainID).(string)
	return val
}

// WithBlockTime sets the block time for the Context. The block time is
// the authoritative "now" of every operation and is assumed monotonic
// non-decreasing across blocks.
func WithBlockTime(ctx Context, t time.Time) Context {
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns the block time as declared in this context.
func BlockTime(ctx Context) (time.Time, error) {
	val, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return time.Time{}, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	if val.IsZero() {
		return val, errors.Wrap(errors.ErrHuman, "zero block time in the context")
	}
	return val, nil
}

// IsExpired returns true if given time is in the past as compared to
// the "now" as declared for the context. Expiration is inclusive,
// meaning that if current time is equal to the expiration time then
// this function returns true.
//
// This function panics if the block time is not provided in the
// context. This must never happen. The panic is here to prevent a buggy
// code from silently building corrupt state.
func IsExpired(ctx Context, t UnixTime) bool {
	now, err := BlockTime(ctx)
	if err != nil {
		panic(err)
	}
	return t <= AsUnixTime(now)
}

// WithLogger sets the logger for the Context.
func WithLogger(ctx Context, logger log.Logger) Context {
	// Logger is the only item that can be overridden, as a request
	// flows through the decorator stack gathering log context.
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// GetLogger returns the logger stored in the Context, or the
// DefaultLogger.
func GetLogger(ctx Context) log.Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return logger
	}
	return DefaultLogger
}
