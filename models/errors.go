package models

import "errors"

// Generation error taxonomy. Configuration errors are fatal before any node
// is created; generation errors are recovered locally (bounded retry, then
// the branch is ended) so a single bad draw never aborts a whole run.
var (
	// ErrDateOrder means a child was drafted with a date at or before its
	// parent. The logical clock only moves forward, so this is an
	// internal bug and fatal to the run.
	ErrDateOrder = errors.New("child date does not advance past parent date")

	// ErrDuplicateID means a freshly drawn message-id collided with the
	// run registry. Recovered by drawing a new id, bounded retries.
	ErrDuplicateID = errors.New("duplicate message-id")

	// ErrInvalidWeights means the configured action weights are not all
	// positive. Fatal at configuration time.
	ErrInvalidWeights = errors.New("action weights must all be positive")

	// ErrRecipientPoolExhausted means no roster member outside the
	// current thread is left to forward to. The branch ends instead.
	ErrRecipientPoolExhausted = errors.New("no recipients outside thread")

	// ErrContentProvider wraps content provider failures. Non fatal, the
	// engine falls back to templated text.
	ErrContentProvider = errors.New("content provider failed")

	// ErrBudgetExceeded is a termination signal, not a failure.
	ErrBudgetExceeded = errors.New("node budget exhausted")
)
