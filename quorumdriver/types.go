package quorumdriver

import (
	"sort"

	"github.com/quorumlab/stakequorum"
)

// Transaction is an attestable request submitted to the committee.
// The payload is opaque to the driver; only the digest is inspected.
type Transaction struct {
	Digest  stakequorum.Digest
	Payload []byte
}

// Vote is one authority's signed acceptance of a transaction.
type Vote struct {
	Authority stakequorum.ID
	Digest    stakequorum.Digest
	Signature []byte
}

// Certificate is a transaction outcome backed by votes whose combined
// stake reaches the quorum threshold. It is immutable once produced.
type Certificate struct {
	Epoch       stakequorum.Epoch
	Transaction *Transaction
	Votes       []Vote
	Stake       stakequorum.Stake
}

func newCertificate(committee *stakequorum.Committee, tx *Transaction, votes map[stakequorum.ID]Vote, stake stakequorum.Stake) *Certificate {
	cert := &Certificate{
		Epoch:       committee.Epoch(),
		Transaction: tx,
		Votes:       make([]Vote, 0, len(votes)),
		Stake:       stake,
	}
	for _, v := range votes {
		cert.Votes = append(cert.Votes, v)
	}
	sort.Slice(cert.Votes, func(i, j int) bool { return cert.Votes[i].Authority < cert.Votes[j].Authority })
	return cert
}
