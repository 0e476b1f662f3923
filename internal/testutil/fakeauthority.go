package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/quorumdriver"
)

// FakeAuthority is an in-process AuthorityClient with scriptable behavior.
// The zero behavior is to vote for any submitted transaction.
type FakeAuthority struct {
	id stakequorum.ID

	mut       sync.Mutex
	delay     time.Duration
	submitErr error
	lockedBy  stakequorum.Digest
	known     map[stakequorum.Digest]*quorumdriver.Transaction
	submitted int
}

// NewFakeAuthority returns a fake authority that accepts everything.
func NewFakeAuthority(id stakequorum.ID) *FakeAuthority {
	return &FakeAuthority{
		id:    id,
		known: make(map[stakequorum.Digest]*quorumdriver.Transaction),
	}
}

// ID returns the authority's identity.
func (a *FakeAuthority) ID() stakequorum.ID { return a.id }

// Delay makes every request take at least d.
func (a *FakeAuthority) Delay(d time.Duration) {
	a.mut.Lock()
	defer a.mut.Unlock()
	a.delay = d
}

// FailWith makes SubmitTransaction return err.
func (a *FakeAuthority) FailWith(err error) {
	a.mut.Lock()
	defer a.mut.Unlock()
	a.submitErr = err
}

// LockFor makes the authority report tx as the holder of its object locks:
// any other transaction is answered with a ConflictError, while tx itself
// is voted for and becomes fetchable.
func (a *FakeAuthority) LockFor(tx *quorumdriver.Transaction) {
	a.mut.Lock()
	defer a.mut.Unlock()
	a.lockedBy = tx.Digest
	a.known[tx.Digest] = tx
}

// Unlock releases the authority's object locks.
func (a *FakeAuthority) Unlock() {
	a.mut.Lock()
	defer a.mut.Unlock()
	a.lockedBy = stakequorum.Digest{}
}

// Learn makes tx fetchable from this authority.
func (a *FakeAuthority) Learn(tx *quorumdriver.Transaction) {
	a.mut.Lock()
	defer a.mut.Unlock()
	a.known[tx.Digest] = tx
}

// Submissions returns how many SubmitTransaction calls the authority has
// handled.
func (a *FakeAuthority) Submissions() int {
	a.mut.Lock()
	defer a.mut.Unlock()
	return a.submitted
}

// SubmitTransaction implements quorumdriver.AuthorityClient.
func (a *FakeAuthority) SubmitTransaction(ctx context.Context, tx *quorumdriver.Transaction) (*quorumdriver.Vote, error) {
	a.mut.Lock()
	delay := a.delay
	submitErr := a.submitErr
	lockedBy := a.lockedBy
	a.submitted++
	a.mut.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if submitErr != nil {
		return nil, submitErr
	}
	if !lockedBy.Zero() && lockedBy != tx.Digest {
		return nil, &quorumdriver.ConflictError{Digest: lockedBy}
	}
	return &quorumdriver.Vote{
		Authority: a.id,
		Digest:    tx.Digest,
		Signature: []byte(fmt.Sprintf("sig(%d,%s)", a.id, tx.Digest)),
	}, nil
}

// FetchTransaction implements quorumdriver.AuthorityClient.
func (a *FakeAuthority) FetchTransaction(_ context.Context, digest stakequorum.Digest) (*quorumdriver.Transaction, error) {
	a.mut.Lock()
	defer a.mut.Unlock()
	if tx, ok := a.known[digest]; ok {
		return tx, nil
	}
	return nil, fmt.Errorf("unknown transaction %s", digest)
}

// Clients builds the client map the driver expects from a set of fakes.
func Clients(fakes ...*FakeAuthority) map[stakequorum.ID]quorumdriver.AuthorityClient {
	clients := make(map[stakequorum.ID]quorumdriver.AuthorityClient, len(fakes))
	for _, f := range fakes {
		clients[f.id] = f
	}
	return clients
}
