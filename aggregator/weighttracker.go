package aggregator

import (
	"go.uber.org/atomic"

	"github.com/quorumlab/stakequorum"
)

// WeightTracker fires a callback exactly once, the first time the tracked
// stake reaches a required threshold. It is safe for concurrent use.
type WeightTracker struct {
	required stakequorum.Stake
	done     atomic.Bool
	onReach  func()
}

// NewWeightTracker returns a tracker that calls onReach the first time
// Track is given a weight of at least required.
func NewWeightTracker(required stakequorum.Stake, onReach func()) *WeightTracker {
	return &WeightTracker{required: required, onReach: onReach}
}

// Track reports the current accumulated weight. It returns true only for
// the call that first crosses the threshold; that call also runs the
// callback.
func (t *WeightTracker) Track(weight stakequorum.Stake) bool {
	if weight < t.required {
		return false
	}
	if t.done.CompareAndSwap(false, true) {
		if t.onReach != nil {
			t.onReach()
		}
		return true
	}
	return false
}

// Done reports whether the threshold has been reached.
func (t *WeightTracker) Done() bool {
	return t.done.Load()
}
