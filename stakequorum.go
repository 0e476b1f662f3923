// Package stakequorum implements the stake-weighted quorum certification
// core of a Byzantine fault-tolerant validator network.
//
// A fact is only considered true once it has been attested by committee
// members whose combined stake passes a quorum threshold. The root package
// defines the committee model and the stake-threshold arithmetic; the
// aggregator, votemonitor, and quorumdriver packages build the protocol
// components on top of it.
package stakequorum

import (
	"encoding/base64"
	"fmt"
)

// ID uniquely identifies a committee member (authority).
// IDs are totally ordered and stable for the lifetime of an epoch.
type ID uint32

// Stake is the voting weight assigned to an authority.
type Stake uint64

// Epoch identifies one committee configuration.
// A new epoch invalidates all aggregators built on the old committee.
type Epoch uint64

// CommitIndex is the sequence number of a finalized commit in a node's
// local log. GenesisCommitIndex is the empty log.
type CommitIndex uint64

// GenesisCommitIndex is the commit index of the empty log.
const GenesisCommitIndex CommitIndex = 0

// Digest is a 32-byte content digest of a transaction.
type Digest [32]byte

func (d Digest) String() string {
	return base64.StdEncoding.EncodeToString(d[:])
}

// Zero reports whether the digest is the zero value.
func (d Digest) Zero() bool {
	return d == Digest{}
}

func (i ID) String() string {
	return fmt.Sprintf("authority %d", uint32(i))
}
