// Package votemonitor tracks commit votes embedded in blocks and computes
// the highest commit index supported by a stake quorum.
package votemonitor

import (
	"sort"
	"sync"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/logging"
)

// Block is the slice of a consensus block that the monitor consumes:
// its author and the commit votes it carries.
type Block struct {
	Author      stakequorum.ID
	CommitVotes []stakequorum.CommitIndex
}

// CommitVoteMonitor records, per authority, the highest commit index that
// authority has ever voted for, and derives the highest index backed by a
// stake quorum.
//
// A vote for commit index S implicitly vouches for every index up to S,
// since the commit log is a prefix-monotonic sequence. The quorum commit
// index is therefore the largest S such that the combined stake of
// authorities whose highest vote is at least S reaches the quorum
// threshold.
type CommitVoteMonitor struct {
	committee *stakequorum.Committee
	logger    logging.Logger

	mut     sync.Mutex
	highest []stakequorum.CommitIndex
}

// New returns a monitor with no recorded votes. Every authority starts at
// the genesis index, which is always safely below any real commit.
func New(committee *stakequorum.Committee, logger logging.Logger) *CommitVoteMonitor {
	return &CommitVoteMonitor{
		committee: committee,
		logger:    logger,
		highest:   make([]stakequorum.CommitIndex, committee.Size()),
	}
}

// ObserveBlock records the commit votes carried by a block. Per-authority
// watermarks only ever move forward: a vote below an authority's recorded
// highest index is ignored. Safe to call concurrently from multiple
// block-processing paths.
func (m *CommitVoteMonitor) ObserveBlock(block *Block) {
	i, ok := m.committee.AuthorityIndex(block.Author)
	if !ok {
		m.logger.DPanicf("block authored by %s, which is not in the epoch %d committee", block.Author, m.committee.Epoch())
		return
	}
	m.mut.Lock()
	defer m.mut.Unlock()
	for _, vote := range block.CommitVotes {
		if vote > m.highest[i] {
			m.highest[i] = vote
		}
	}
}

// HighestVote returns the highest commit index the given authority has
// voted for, or the genesis index if it has not voted.
func (m *CommitVoteMonitor) HighestVote(id stakequorum.ID) stakequorum.CommitIndex {
	i, ok := m.committee.AuthorityIndex(id)
	if !ok {
		return stakequorum.GenesisCommitIndex
	}
	m.mut.Lock()
	defer m.mut.Unlock()
	return m.highest[i]
}

// QuorumCommitIndex returns the highest commit index supported by a stake
// quorum, or the genesis index if no quorum exists yet. It never fails:
// authorities without observed votes simply count as voting for genesis.
func (m *CommitVoteMonitor) QuorumCommitIndex() stakequorum.CommitIndex {
	type vote struct {
		index stakequorum.CommitIndex
		stake stakequorum.Stake
	}
	votes := make([]vote, m.committee.Size())
	m.mut.Lock()
	for i, index := range m.highest {
		votes[i] = vote{index: index, stake: m.committee.StakeAt(i)}
	}
	m.mut.Unlock()

	// Ties in index are broken by stake so the scan is deterministic;
	// any order among equal indexes yields the same cumulative stake.
	sort.Slice(votes, func(i, j int) bool {
		if votes[i].index != votes[j].index {
			return votes[i].index > votes[j].index
		}
		return votes[i].stake > votes[j].stake
	})

	var accumulated stakequorum.Stake
	for _, v := range votes {
		accumulated += v.stake
		if accumulated >= m.committee.QuorumThreshold() {
			return v.index
		}
	}
	return stakequorum.GenesisCommitIndex
}
