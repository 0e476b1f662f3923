package quorumdriver

import (
	"context"

	"github.com/quorumlab/stakequorum"
)

// AuthorityClient is the network handle to a single committee member.
// Implementations are provided by the transport layer; all methods must be
// safe for concurrent use and honor context cancellation.
type AuthorityClient interface {
	// SubmitTransaction asks the authority to vote on a transaction.
	// A *ConflictError return means the authority has already locked the
	// transaction's objects for a different transaction.
	SubmitTransaction(ctx context.Context, tx *Transaction) (*Vote, error)

	// FetchTransaction retrieves a transaction by digest, used to retry a
	// conflicting transaction reported by this authority.
	FetchTransaction(ctx context.Context, digest stakequorum.Digest) (*Transaction, error)
}
