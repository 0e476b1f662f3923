// Package testutil provides helper methods that are useful for implementing tests.
package testutil

import (
	"crypto/sha256"
	"io"
	"testing"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/logging"
)

// NewCommittee returns a committee for epoch 1 with the given stakes,
// assigning authority IDs 1..n in order.
func NewCommittee(t *testing.T, stakes ...stakequorum.Stake) *stakequorum.Committee {
	t.Helper()
	m := make(map[stakequorum.ID]stakequorum.Stake, len(stakes))
	for i, stake := range stakes {
		m[stakequorum.ID(i+1)] = stake
	}
	committee, err := stakequorum.NewCommittee(1, m)
	if err != nil {
		t.Fatalf("failed to create committee: %v", err)
	}
	return committee
}

// EqualStakeCommittee returns a committee of n authorities with one unit of
// stake each.
func EqualStakeCommittee(t *testing.T, n int) *stakequorum.Committee {
	t.Helper()
	stakes := make([]stakequorum.Stake, n)
	for i := range stakes {
		stakes[i] = 1
	}
	return NewCommittee(t, stakes...)
}

// TestLogger returns a logger that discards all output.
func TestLogger(t *testing.T) logging.Logger {
	t.Helper()
	return logging.NewWithDest(io.Discard, t.Name())
}

// DigestOf returns a deterministic digest derived from s.
func DigestOf(s string) stakequorum.Digest {
	return sha256.Sum256([]byte(s))
}
