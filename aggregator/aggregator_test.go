package aggregator_test

import (
	"testing"

	"github.com/quorumlab/stakequorum/aggregator"
	"github.com/quorumlab/stakequorum/internal/testutil"
)

func TestInsertCountsStakeOnce(t *testing.T) {
	committee := testutil.EqualStakeCommittee(t, 4)
	agg := aggregator.New[string](committee, testutil.TestLogger(t))

	if !agg.Insert(1, "a") {
		t.Error("first insert should report newly contributed stake")
	}
	if agg.TotalVotes() != 1 {
		t.Errorf("TotalVotes() = %d; want 1", agg.TotalVotes())
	}
	for i := 0; i < 3; i++ {
		if agg.Insert(1, "b") {
			t.Error("repeated insert should not report newly contributed stake")
		}
	}
	if agg.TotalVotes() != 1 {
		t.Errorf("TotalVotes() = %d after repeated inserts; want 1", agg.TotalVotes())
	}
	if got := agg.Statuses()[1]; got != "b" {
		t.Errorf("status for authority 1 = %q; want the latest insert %q", got, "b")
	}
}

func TestThresholds(t *testing.T) {
	// 4 equal-stake authorities: validity at 2, quorum at 3.
	committee := testutil.EqualStakeCommittee(t, 4)
	agg := aggregator.New[int](committee, testutil.TestLogger(t))

	agg.Insert(1, 0)
	if agg.ReachedValidityThreshold() || agg.ReachedQuorumThreshold() {
		t.Error("one authority should reach neither threshold")
	}
	agg.Insert(1, 0)
	if agg.ReachedValidityThreshold() {
		t.Error("a repeated insert must not advance the thresholds")
	}
	agg.Insert(2, 0)
	if !agg.ReachedValidityThreshold() {
		t.Error("two authorities should reach the validity threshold")
	}
	if agg.ReachedQuorumThreshold() {
		t.Error("two authorities should not reach the quorum threshold")
	}
	agg.Insert(3, 0)
	if !agg.ReachedValidityThreshold() || !agg.ReachedQuorumThreshold() {
		t.Error("three authorities should reach both thresholds")
	}
}

// Thresholds never regress as more distinct authorities insert.
func TestThresholdMonotonicity(t *testing.T) {
	committee := testutil.NewCommittee(t, 5, 1, 3, 2, 4)
	agg := aggregator.New[struct{}](committee, testutil.TestLogger(t))

	validity, quorum := false, false
	for _, id := range committee.Authorities() {
		agg.Insert(id, struct{}{})
		if validity && !agg.ReachedValidityThreshold() {
			t.Fatal("validity threshold regressed")
		}
		if quorum && !agg.ReachedQuorumThreshold() {
			t.Fatal("quorum threshold regressed")
		}
		validity = agg.ReachedValidityThreshold()
		quorum = agg.ReachedQuorumThreshold()
	}
	if !validity || !quorum {
		t.Error("the full committee should reach both thresholds")
	}
}

func TestInsertUnknownAuthority(t *testing.T) {
	committee := testutil.EqualStakeCommittee(t, 4)
	agg := aggregator.New[string](committee, testutil.TestLogger(t))

	if agg.Insert(42, "x") {
		t.Error("insert from an unknown authority should be rejected")
	}
	if agg.TotalVotes() != 0 {
		t.Errorf("TotalVotes() = %d after rejected insert; want 0", agg.TotalVotes())
	}
	if len(agg.Statuses()) != 0 {
		t.Error("rejected insert must not be recorded")
	}
}

func TestWeightTracker(t *testing.T) {
	fired := 0
	tracker := aggregator.NewWeightTracker(3, func() { fired++ })

	if tracker.Track(2) || tracker.Done() {
		t.Error("tracker fired below the threshold")
	}
	if !tracker.Track(3) {
		t.Error("tracker should fire when the threshold is first reached")
	}
	if tracker.Track(4) {
		t.Error("tracker should fire only once")
	}
	if fired != 1 {
		t.Errorf("callback ran %d times; want 1", fired)
	}
	if !tracker.Done() {
		t.Error("tracker should report done after firing")
	}
}
