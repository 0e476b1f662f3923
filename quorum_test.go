package stakequorum

import (
	"fmt"
	"testing"
)

func TestQuorumThreshold(t *testing.T) {
	tests := []struct {
		total Stake
		want  Stake
	}{
		{total: 1, want: 1},
		{total: 2, want: 2},
		{total: 3, want: 3},
		{total: 4, want: 3}, // f=1 with equal unit stakes
		{total: 5, want: 4},
		{total: 6, want: 5},
		{total: 7, want: 5}, // f=2
		{total: 8, want: 6},
		{total: 9, want: 7},
		{total: 10, want: 7}, // f=3
		{total: 100, want: 67},
		{total: 1000, want: 667},
		{total: 3333, want: 2223},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("total=%d", tt.total), func(t *testing.T) {
			if got := QuorumThreshold(tt.total); got != tt.want {
				t.Errorf("QuorumThreshold(%d) = %d; want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestValidityThreshold(t *testing.T) {
	tests := []struct {
		total Stake
		want  Stake
	}{
		{total: 1, want: 1},
		{total: 2, want: 1},
		{total: 3, want: 2},
		{total: 4, want: 2}, // f=1 with equal unit stakes
		{total: 5, want: 2},
		{total: 6, want: 3},
		{total: 7, want: 3}, // f=2
		{total: 10, want: 4},
		{total: 100, want: 34},
		{total: 1000, want: 334},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("total=%d", tt.total), func(t *testing.T) {
			if got := ValidityThreshold(tt.total); got != tt.want {
				t.Errorf("ValidityThreshold(%d) = %d; want %d", tt.total, got, tt.want)
			}
		})
	}
}

// No two disjoint stake sets can both pass the quorum threshold: any two
// quorums overlap in more than a third of the total stake.
func TestQuorumThresholdsOverlap(t *testing.T) {
	for total := Stake(1); total <= 100; total++ {
		if 2*QuorumThreshold(total) <= total+ValidityThreshold(total)-1 {
			t.Errorf("total=%d: two quorums of %d could intersect in less than validity stake %d",
				total, QuorumThreshold(total), ValidityThreshold(total))
		}
	}
}
