// Package aggregator provides a generic, stake-weighted tally of
// per-authority status values.
package aggregator

import (
	"sync"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/logging"
)

// StatusAggregator tallies at most one status value per authority, together
// with the cumulative stake of the authorities that have reported one.
//
// Because each authority contributes stake at most once, Byzantine
// authorities cannot inflate the tally by resubmitting; a repeated insert
// replaces the stored status ("latest observation wins") without counting
// the stake again.
//
// An aggregator is scoped to a single round or query and must be rebuilt
// when the committee changes at an epoch boundary.
type StatusAggregator[T any] struct {
	committee *stakequorum.Committee
	logger    logging.Logger

	mut      sync.Mutex
	statuses []T
	present  []bool
	votes    stakequorum.Stake
}

// New returns an empty aggregator for the given committee.
func New[T any](committee *stakequorum.Committee, logger logging.Logger) *StatusAggregator[T] {
	return &StatusAggregator[T]{
		committee: committee,
		logger:    logger,
		statuses:  make([]T, committee.Size()),
		present:   make([]bool, committee.Size()),
	}
}

// Insert records a status for the given authority. It returns true if this
// is the authority's first status, meaning its stake was newly added to the
// tally. Later inserts for the same authority overwrite the stored status
// without double-counting stake, and return false.
//
// An authority outside the committee is an upstream bug: callers must never
// be able to present one. The insert is ignored and false is returned.
func (a *StatusAggregator[T]) Insert(id stakequorum.ID, status T) bool {
	i, ok := a.committee.AuthorityIndex(id)
	if !ok {
		a.logger.DPanicf("insert from %s, which is not in the epoch %d committee", id, a.committee.Epoch())
		return false
	}
	a.mut.Lock()
	defer a.mut.Unlock()
	first := !a.present[i]
	if first {
		a.present[i] = true
		a.votes += a.committee.StakeAt(i)
	}
	a.statuses[i] = status
	return first
}

// TotalVotes returns the combined stake of all authorities that have
// reported a status.
func (a *StatusAggregator[T]) TotalVotes() stakequorum.Stake {
	a.mut.Lock()
	defer a.mut.Unlock()
	return a.votes
}

// Statuses returns a snapshot of the recorded statuses by authority.
func (a *StatusAggregator[T]) Statuses() map[stakequorum.ID]T {
	a.mut.Lock()
	defer a.mut.Unlock()
	statuses := make(map[stakequorum.ID]T, len(a.statuses))
	for i, ok := range a.present {
		if ok {
			statuses[a.committee.AuthorityAt(i)] = a.statuses[i]
		}
	}
	return statuses
}

// ReachedValidityThreshold reports whether the tallied stake guarantees the
// participation of at least one honest authority.
func (a *StatusAggregator[T]) ReachedValidityThreshold() bool {
	return a.TotalVotes() >= a.committee.ValidityThreshold()
}

// ReachedQuorumThreshold reports whether the tallied stake forms a quorum.
func (a *StatusAggregator[T]) ReachedQuorumThreshold() bool {
	return a.TotalVotes() >= a.committee.QuorumThreshold()
}
