package election

import "errors"

// ErrConfigInvalid is returned by New when the supplied Configuration is
// inconsistent (size/endpoints mismatch, bad timing bounds, out-of-range
// id). Configuration errors are not recoverable at runtime: the caller must
// refuse to start.
var ErrConfigInvalid = errors.New("election: invalid configuration")

// ErrPersistFailed names a durable write of (term, votedFor) that could not
// be completed. The reference Agents in agent/ do not return it; they return
// their storage errors directly.
var ErrPersistFailed = errors.New("election: persist(term, votedFor) failed")
