package quorumdriver

import (
	"context"
	"time"

	wr "github.com/mroth/weightedrand"

	"github.com/quorumlab/stakequorum"
)

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeContinueWithTimeout
	outcomeFailed
	outcomeSuccess
)

// Outcome is the reducer's verdict after folding in one authority
// response. Construct outcomes with Continue, ContinueWithTimeout, Failed,
// or Success.
type Outcome[S, R any] struct {
	kind    outcomeKind
	state   S
	result  R
	timeout time.Duration
}

// Continue keeps waiting for more responses.
func Continue[S, R any](state S) Outcome[S, R] {
	return Outcome[S, R]{kind: outcomeContinue, state: state}
}

// ContinueWithTimeout keeps waiting, but with an adjusted per-iteration
// timeout, letting the protocol shorten or lengthen its patience as
// evidence accumulates.
func ContinueWithTimeout[S, R any](state S, timeout time.Duration) Outcome[S, R] {
	return Outcome[S, R]{kind: outcomeContinueWithTimeout, state: state, timeout: timeout}
}

// Failed aborts the round with a definitive, non-retryable failure.
func Failed[S, R any](state S) Outcome[S, R] {
	return Outcome[S, R]{kind: outcomeFailed, state: state}
}

// Success ends the round immediately with a result, without waiting for
// stragglers.
func Success[S, R any](result R) Outcome[S, R] {
	return Outcome[S, R]{kind: outcomeSuccess, result: result}
}

// Reducer folds authority responses into accumulated state.
//
// Reduce is called once per response with the responding authority, its
// stake, and the response value or error. Implementations must be
// commutative with respect to response arrival order: no ordering is
// guaranteed, or assumed, between authorities.
type Reducer[V, S, R any] interface {
	Reduce(state S, authority stakequorum.ID, stake stakequorum.Stake, value V, err error) Outcome[S, R]
}

type response[V any] struct {
	authority stakequorum.ID
	value     V
	err       error
}

// QuorumMapReduce dispatches mapFn concurrently to every committee member
// and folds the responses into state with the reducer as they arrive, in
// stake-weighted random order of dispatch.
//
// Each iteration waits at most timeout for the next response; the reducer
// may adjust the timeout with ContinueWithTimeout. A Success outcome
// returns the result immediately. Otherwise the accumulated state is
// returned together with ErrReduceAborted (the reducer gave up),
// ErrReduceTimeout (the timeout elapsed), ErrReduceExhausted (all
// authorities responded without a verdict), or the context error.
//
// An elapsed timeout stops the wait but does not cancel requests already
// in flight; they complete in the background against the caller's context.
func QuorumMapReduce[C, V, S, R any](
	ctx context.Context,
	committee *stakequorum.Committee,
	clients map[stakequorum.ID]C,
	initial S,
	mapFn func(ctx context.Context, id stakequorum.ID, client C) (V, error),
	reducer Reducer[V, S, R],
	timeout time.Duration,
) (result R, state S, err error) {
	state = initial

	order := stakeWeightedOrder(committee)
	// The channel is buffered for the full committee so that stragglers
	// finishing after we return never block.
	responses := make(chan response[V], len(order))
	for _, id := range order {
		go func(id stakequorum.ID, client C) {
			value, err := mapFn(ctx, id, client)
			responses <- response[V]{authority: id, value: value, err: err}
		}(id, clients[id])
	}

	current := timeout
	timer := time.NewTimer(current)
	defer timer.Stop()

	for pending := len(order); pending > 0; pending-- {
		select {
		case r := <-responses:
			outcome := reducer.Reduce(state, r.authority, committee.Stake(r.authority), r.value, r.err)
			switch outcome.kind {
			case outcomeSuccess:
				return outcome.result, state, nil
			case outcomeFailed:
				return result, outcome.state, ErrReduceAborted
			case outcomeContinueWithTimeout:
				state = outcome.state
				current = outcome.timeout
			case outcomeContinue:
				state = outcome.state
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(current)
		case <-timer.C:
			return result, state, ErrReduceTimeout
		case <-ctx.Done():
			return result, state, ctx.Err()
		}
	}
	return result, state, ErrReduceExhausted
}

// stakeWeightedOrder returns the committee members in a random order
// biased by stake, so that dispatch does not favor low authority IDs.
func stakeWeightedOrder(committee *stakequorum.Committee) []stakequorum.ID {
	remaining := make([]wr.Choice, 0, committee.Size())
	for _, id := range committee.Authorities() {
		remaining = append(remaining, wr.Choice{Item: id, Weight: uint(committee.Stake(id))})
	}
	order := make([]stakequorum.ID, 0, len(remaining))
	for len(remaining) > 1 {
		chooser, err := wr.NewChooser(remaining...)
		if err != nil {
			// Weights overflow only with absurd stake totals; fall back to
			// the committee's ID order for whatever remains.
			for _, c := range remaining {
				order = append(order, c.Item.(stakequorum.ID))
			}
			return order
		}
		picked := chooser.Pick().(stakequorum.ID)
		order = append(order, picked)
		for i, c := range remaining {
			if c.Item.(stakequorum.ID) == picked {
				remaining[i] = remaining[len(remaining)-1]
				remaining = remaining[:len(remaining)-1]
				break
			}
		}
	}
	return append(order, remaining[0].Item.(stakequorum.ID))
}
