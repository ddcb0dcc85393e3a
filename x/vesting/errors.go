package vesting

import "github.com/covault/covault/errors"

var (
	// ErrNotMatured is returned when a sweep is attempted before any
	// unreleased year boundary has been crossed.
	ErrNotMatured = errors.Register(1040, "schedule not matured")
)
