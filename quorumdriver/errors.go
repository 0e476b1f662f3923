package quorumdriver

import (
	"errors"
	"fmt"

	"github.com/quorumlab/stakequorum"
)

// ErrInvalidTransaction is returned when a submitted transaction is nil or
// has no digest.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Errors returned by the map/reduce primitive when it stops without a
// success outcome. They carry no state; QuorumMapReduce returns the
// accumulated state alongside them.
var (
	// ErrReduceTimeout: the per-iteration timeout elapsed.
	ErrReduceTimeout = errors.New("timed out waiting for authority responses")
	// ErrReduceAborted: the reducer returned a Failed outcome.
	ErrReduceAborted = errors.New("reducer aborted the round")
	// ErrReduceExhausted: every authority responded without the reducer
	// reaching a success or failure outcome.
	ErrReduceExhausted = errors.New("authority set exhausted without quorum")
)

// ConflictError is reported by an authority that has locked one or more of
// the transaction's objects for a different transaction. It is an expected
// response, not a transport failure.
type ConflictError struct {
	// Digest of the transaction holding the locks.
	Digest stakequorum.Digest
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("objects locked by conflicting transaction %s", e.Digest)
}

// QuorumNotReachedError is returned when a submission round ended without
// accumulating quorum stake. It carries the sub-quorum state so the caller
// can decide whether to retry.
type QuorumNotReachedError struct {
	// TimedOut is true when the round timed out with authorities still
	// pending, false when every authority responded or the reducer gave up.
	TimedOut bool
	// VotedStake is the stake that voted for the transaction.
	VotedStake stakequorum.Stake
	// RequiredStake is the committee's quorum threshold.
	RequiredStake stakequorum.Stake
	// Errs combines the per-authority errors collected during the round.
	Errs error
}

func (e *QuorumNotReachedError) Error() string {
	verb := "rejected"
	if e.TimedOut {
		verb = "timed out"
	}
	return fmt.Sprintf("quorum not reached (%s): %d of %d required stake voted: %v",
		verb, e.VotedStake, e.RequiredStake, e.Errs)
}

func (e *QuorumNotReachedError) Unwrap() error { return e.Errs }

// ConflictRetriesExhaustedError is returned when the driver kept being
// redirected to conflicting transactions until its retry budget ran out.
type ConflictRetriesExhaustedError struct {
	// Digest of the last conflicting transaction reported.
	Digest stakequorum.Digest
	// Attempts is the number of submission attempts made.
	Attempts int
}

func (e *ConflictRetriesExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts; last conflicting transaction: %s", e.Attempts, e.Digest)
}
