package stakequorum

import (
	"fmt"
	"sort"
)

// Committee is the immutable set of authorities and their stakes for one
// epoch. It is created at epoch start and shared read-only with every
// component built on top of it; at an epoch change it is discarded and all
// dependent aggregators must be reconstructed.
//
// Authorities are assigned dense indexes in ascending ID order, so that
// per-authority state can live in fixed-size slices instead of maps.
type Committee struct {
	epoch    Epoch
	ids      []ID
	stakes   []Stake
	indexes  map[ID]int
	total    Stake
	quorum   Stake
	validity Stake
}

// NewCommittee returns a committee for the given epoch and stake
// distribution. Every authority must have nonzero stake.
func NewCommittee(epoch Epoch, stakes map[ID]Stake) (*Committee, error) {
	if len(stakes) == 0 {
		return nil, fmt.Errorf("empty committee for epoch %d", epoch)
	}
	c := &Committee{
		epoch:   epoch,
		ids:     make([]ID, 0, len(stakes)),
		stakes:  make([]Stake, 0, len(stakes)),
		indexes: make(map[ID]int, len(stakes)),
	}
	for id := range stakes {
		c.ids = append(c.ids, id)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	for i, id := range c.ids {
		stake := stakes[id]
		if stake == 0 {
			return nil, fmt.Errorf("%s has zero stake", id)
		}
		c.stakes = append(c.stakes, stake)
		c.indexes[id] = i
		c.total += stake
	}
	c.quorum = QuorumThreshold(c.total)
	c.validity = ValidityThreshold(c.total)
	return c, nil
}

// Epoch returns the epoch this committee was created for.
func (c *Committee) Epoch() Epoch { return c.epoch }

// Size returns the number of authorities in the committee.
func (c *Committee) Size() int { return len(c.ids) }

// TotalStake returns the combined stake of all authorities.
func (c *Committee) TotalStake() Stake { return c.total }

// QuorumThreshold returns the minimum stake required for a quorum.
func (c *Committee) QuorumThreshold() Stake { return c.quorum }

// ValidityThreshold returns the minimum stake that guarantees at least one
// honest authority's participation.
func (c *Committee) ValidityThreshold() Stake { return c.validity }

// Stake returns the stake of the given authority, or 0 if the authority is
// not a committee member.
func (c *Committee) Stake(id ID) Stake {
	if i, ok := c.indexes[id]; ok {
		return c.stakes[i]
	}
	return 0
}

// AuthorityIndex returns the dense index assigned to the given authority.
// The second return value is false if the authority is not a member.
func (c *Committee) AuthorityIndex(id ID) (int, bool) {
	i, ok := c.indexes[id]
	return i, ok
}

// AuthorityAt returns the authority with the given dense index.
func (c *Committee) AuthorityAt(i int) ID { return c.ids[i] }

// StakeAt returns the stake of the authority with the given dense index.
func (c *Committee) StakeAt(i int) Stake { return c.stakes[i] }

// Authorities returns the committee members in ascending ID order.
func (c *Committee) Authorities() []ID {
	ids := make([]ID, len(c.ids))
	copy(ids, c.ids)
	return ids
}
