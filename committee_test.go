package stakequorum

import (
	"testing"
)

func TestNewCommittee(t *testing.T) {
	committee, err := NewCommittee(2, map[ID]Stake{4: 10, 2: 20, 9: 30})
	if err != nil {
		t.Fatalf("NewCommittee failed: %v", err)
	}
	if committee.Epoch() != 2 {
		t.Errorf("Epoch() = %d; want 2", committee.Epoch())
	}
	if committee.Size() != 3 {
		t.Errorf("Size() = %d; want 3", committee.Size())
	}
	if committee.TotalStake() != 60 {
		t.Errorf("TotalStake() = %d; want 60", committee.TotalStake())
	}
	if committee.QuorumThreshold() != QuorumThreshold(60) {
		t.Errorf("QuorumThreshold() = %d; want %d", committee.QuorumThreshold(), QuorumThreshold(60))
	}
	if committee.ValidityThreshold() != ValidityThreshold(60) {
		t.Errorf("ValidityThreshold() = %d; want %d", committee.ValidityThreshold(), ValidityThreshold(60))
	}
}

func TestCommitteeOrdering(t *testing.T) {
	committee, err := NewCommittee(1, map[ID]Stake{7: 1, 1: 2, 5: 3})
	if err != nil {
		t.Fatalf("NewCommittee failed: %v", err)
	}
	want := []ID{1, 5, 7}
	got := committee.Authorities()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Authorities() = %v; want %v", got, want)
		}
	}
	for i, id := range want {
		index, ok := committee.AuthorityIndex(id)
		if !ok || index != i {
			t.Errorf("AuthorityIndex(%d) = %d, %v; want %d, true", id, index, ok, i)
		}
		if committee.AuthorityAt(i) != id {
			t.Errorf("AuthorityAt(%d) = %d; want %d", i, committee.AuthorityAt(i), id)
		}
	}
}

func TestCommitteeUnknownAuthority(t *testing.T) {
	committee, err := NewCommittee(1, map[ID]Stake{1: 1, 2: 1})
	if err != nil {
		t.Fatalf("NewCommittee failed: %v", err)
	}
	if stake := committee.Stake(99); stake != 0 {
		t.Errorf("Stake(99) = %d; want 0", stake)
	}
	if _, ok := committee.AuthorityIndex(99); ok {
		t.Error("AuthorityIndex(99) reported membership for a non-member")
	}
}

func TestCommitteeRejectsInvalidInput(t *testing.T) {
	if _, err := NewCommittee(1, nil); err == nil {
		t.Error("expected an error for an empty committee")
	}
	if _, err := NewCommittee(1, map[ID]Stake{1: 1, 2: 0}); err == nil {
		t.Error("expected an error for an authority with zero stake")
	}
}
