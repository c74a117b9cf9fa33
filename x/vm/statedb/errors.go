package statedb

import "errors"

// ErrForkBackendFailure wraps any I/O failure surfaced by a ForkBackend on
// cache miss. Per §4.6, this is a consensus-critical condition: the host
// adapter treats it as fatal rather than silently falling back to a default
// value.
var ErrForkBackendFailure = errors.New("statedb: fork backend read failed")

// ErrOutOfOrderScope is returned when Restore or Commit is passed a Snapshot
// other than the most recently issued one still open, violating the LIFO
// scope discipline required by §4.5.
var ErrOutOfOrderScope = errors.New("statedb: snapshot is not the most recently issued open snapshot")

// ErrNegativeRefund is returned by SubRefund when the requested amount
// exceeds the current refund counter.
var ErrNegativeRefund = errors.New("statedb: refund counter cannot go negative")
