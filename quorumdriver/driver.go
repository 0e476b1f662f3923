// Package quorumdriver drives transactions to a quorum-certified outcome
// against a fixed committee of authorities.
//
// The driver submits a transaction concurrently to every committee member,
// aggregates the stake-weighted responses, and returns either a
// Certificate or a typed error. When a validity-threshold share of the
// committee reports that the transaction conflicts with a previously
// locked one, the driver fetches the conflicting transaction and retries
// with it instead, helping the network converge on the transaction that
// already has the most support.
package quorumdriver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/aggregator"
	"github.com/quorumlab/stakequorum/logging"
)

const (
	defaultRequestTimeout     = 30 * time.Second
	defaultStragglerTimeout   = 2 * time.Second
	defaultMaxConflictRetries = 3
	defaultCertCacheSize      = 128
)

// Driver submits transactions to the committee and aggregates the
// responses into quorum certificates. It is safe for concurrent use.
type Driver struct {
	committee *stakequorum.Committee
	clients   map[stakequorum.ID]AuthorityClient
	logger    logging.Logger
	metrics   Metrics
	limiter   *rate.Limiter

	requestTimeout     time.Duration
	stragglerTimeout   time.Duration
	maxConflictRetries int

	// recently produced certificates by digest, consulted before a
	// conflict retry so an already-finalized transaction is not
	// resubmitted.
	certs    *lru.Cache
	inflight *atomic.Int64
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the driver's logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithMetrics sets the driver's metrics sink.
func WithMetrics(m Metrics) Option {
	return func(d *Driver) { d.metrics = m }
}

// WithRequestTimeout sets the per-iteration timeout of a submission round.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.requestTimeout = timeout }
}

// WithStragglerTimeout sets the reduced timeout applied once the voted
// stake passes the validity threshold.
func WithStragglerTimeout(timeout time.Duration) Option {
	return func(d *Driver) { d.stragglerTimeout = timeout }
}

// WithMaxConflictRetries bounds how many times the driver will chase
// conflicting transactions before giving up.
func WithMaxConflictRetries(n int) Option {
	return func(d *Driver) { d.maxConflictRetries = n }
}

// WithSubmitLimiter rate-limits submission attempts, including conflict
// retries. The default limiter is unlimited.
func WithSubmitLimiter(l *rate.Limiter) Option {
	return func(d *Driver) { d.limiter = l }
}

// New returns a driver for the given committee. The clients map must
// contain a client for every committee member.
func New(committee *stakequorum.Committee, clients map[stakequorum.ID]AuthorityClient, opts ...Option) (*Driver, error) {
	for _, id := range committee.Authorities() {
		if _, ok := clients[id]; !ok {
			return nil, fmt.Errorf("no client for %s", id)
		}
	}
	certs, err := lru.New(defaultCertCacheSize)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		committee:          committee,
		clients:            clients,
		logger:             logging.New("quorumdriver"),
		metrics:            NopMetrics{},
		limiter:            rate.NewLimiter(rate.Inf, 0),
		requestTimeout:     defaultRequestTimeout,
		stragglerTimeout:   defaultStragglerTimeout,
		maxConflictRetries: defaultMaxConflictRetries,
		certs:              certs,
		inflight:           atomic.NewInt64(0),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// SubmitTransaction drives tx to a certified outcome. It returns a
// Certificate backed by quorum stake, or one of the typed errors:
// ErrInvalidTransaction, *QuorumNotReachedError, or
// *ConflictRetriesExhaustedError. When the driver is redirected to a
// conflicting transaction, the returned certificate certifies that
// transaction rather than tx.
func (d *Driver) SubmitTransaction(ctx context.Context, tx *Transaction) (*Certificate, error) {
	if tx == nil || tx.Digest.Zero() {
		d.metrics.RequestFailed("invalid")
		return nil, ErrInvalidTransaction
	}
	d.metrics.RequestReceived()
	d.metrics.RequestInflight(1)
	d.inflight.Inc()
	defer func() {
		d.inflight.Dec()
		d.metrics.RequestInflight(-1)
	}()

	start := time.Now()
	current := tx
	for attempt := 0; ; attempt++ {
		if err := d.limiter.Wait(ctx); err != nil {
			d.metrics.RequestFailed("canceled")
			return nil, err
		}

		d.logger.Debugf("submitting %s to %d authorities (attempt %d)", current.Digest, d.committee.Size(), attempt+1)
		cert, state, err := d.submitOnce(ctx, current)
		if err == nil {
			d.certs.Add(cert.Transaction.Digest, cert)
			if attempt > 0 {
				d.metrics.ConflictRetrySucceeded()
			}
			d.metrics.CertificateProduced(time.Since(start))
			d.logger.Debugf("certified %s with %d stake", cert.Transaction.Digest, cert.Stake)
			return cert, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			d.metrics.RequestFailed("canceled")
			return nil, err
		}

		conflict, ok := state.dominantConflict(d.committee.ValidityThreshold())
		if !ok {
			return nil, d.roundFailure(state, err)
		}
		d.logger.Debugf("conflict detected on %s: transaction %s holds the locks", current.Digest, conflict)
		if attempt == d.maxConflictRetries {
			d.metrics.RequestFailed("conflict")
			return nil, &ConflictRetriesExhaustedError{Digest: conflict, Attempts: attempt + 1}
		}
		d.metrics.ConflictRetry()
		if cached, found := d.certs.Get(conflict); found {
			d.metrics.ConflictRetryAlreadyFinalized()
			d.logger.Debugf("conflicting transaction %s was already certified", conflict)
			return cached.(*Certificate), nil
		}
		fetched, ferr := d.fetchConflicting(ctx, conflict, state)
		if ferr != nil {
			d.metrics.RequestFailed("conflict")
			return nil, fmt.Errorf("fetching conflicting transaction %s: %w", conflict, ferr)
		}
		current = fetched
	}
}

// roundFailure converts a failed round into the caller-facing error.
func (d *Driver) roundFailure(state *submitState, err error) error {
	timedOut := errors.Is(err, ErrReduceTimeout)
	if timedOut {
		d.metrics.RequestFailed("timeout")
	} else {
		d.metrics.RequestFailed("rejected")
	}
	return &QuorumNotReachedError{
		TimedOut:      timedOut,
		VotedStake:    state.votes.TotalVotes(),
		RequiredStake: d.committee.QuorumThreshold(),
		Errs:          multierr.Combine(state.errs...),
	}
}

func (d *Driver) submitOnce(ctx context.Context, tx *Transaction) (*Certificate, *submitState, error) {
	reducer := &submitReducer{driver: d, tx: tx}
	return QuorumMapReduce(
		ctx,
		d.committee,
		d.clients,
		newSubmitState(d.committee, d.logger),
		func(ctx context.Context, id stakequorum.ID, client AuthorityClient) (*Vote, error) {
			return client.SubmitTransaction(ctx, tx)
		},
		reducer,
		d.requestTimeout,
	)
}

// fetchConflicting retrieves the conflicting transaction from the
// authorities that reported it, richest first.
func (d *Driver) fetchConflicting(ctx context.Context, digest stakequorum.Digest, state *submitState) (*Transaction, error) {
	reporters := state.reportersOf(digest)
	var errs error
	for _, id := range reporters {
		tx, err := d.clients[id].FetchTransaction(ctx, digest)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if tx == nil || tx.Digest != digest {
			errs = multierr.Append(errs, fmt.Errorf("%s returned the wrong transaction", id))
			continue
		}
		return tx, nil
	}
	return nil, errs
}

// Inflight returns the number of submissions currently in the driver.
func (d *Driver) Inflight() int64 {
	return d.inflight.Load()
}

// submitState accumulates one submission round: the votes collected so
// far, the per-authority conflict reports, and transient errors.
type submitState struct {
	committee *stakequorum.Committee
	votes     *aggregator.StatusAggregator[Vote]
	conflicts *aggregator.StatusAggregator[stakequorum.Digest]
	// stake behind each reported conflicting digest; counted once per
	// authority via the conflicts aggregator.
	conflictStake map[stakequorum.Digest]stakequorum.Stake
	responded     stakequorum.Stake
	errs          []error
}

func newSubmitState(committee *stakequorum.Committee, logger logging.Logger) *submitState {
	return &submitState{
		committee:     committee,
		votes:         aggregator.New[Vote](committee, logger),
		conflicts:     aggregator.New[stakequorum.Digest](committee, logger),
		conflictStake: make(map[stakequorum.Digest]stakequorum.Stake),
	}
}

// dominantConflict returns the conflicting digest with the most stake
// behind it, if that stake passes the given threshold. Passing the
// validity threshold guarantees at least one honest authority reported it.
// Stake ties break toward the smallest digest so the choice does not
// depend on map iteration order.
func (s *submitState) dominantConflict(threshold stakequorum.Stake) (stakequorum.Digest, bool) {
	var (
		best      stakequorum.Digest
		bestStake stakequorum.Stake
	)
	for digest, stake := range s.conflictStake {
		switch {
		case stake > bestStake:
			best, bestStake = digest, stake
		case stake == bestStake && bytes.Compare(digest[:], best[:]) < 0:
			best = digest
		}
	}
	return best, bestStake >= threshold
}

// reportersOf returns the authorities that reported the given conflicting
// digest, in descending stake order.
func (s *submitState) reportersOf(digest stakequorum.Digest) []stakequorum.ID {
	var reporters []stakequorum.ID
	for id, reported := range s.conflicts.Statuses() {
		if reported == digest {
			reporters = append(reporters, id)
		}
	}
	sortByStake(s.committee, reporters)
	return reporters
}

// submitReducer folds authority votes into submitState. Reduce is
// commutative in arrival order: every branch depends only on cumulative
// stake, never on which authority answered first.
type submitReducer struct {
	driver *Driver
	tx     *Transaction
}

func (r *submitReducer) Reduce(state *submitState, id stakequorum.ID, stake stakequorum.Stake, vote *Vote, err error) Outcome[*submitState, *Certificate] {
	d := r.driver
	state.responded += stake

	var conflict *ConflictError
	switch {
	case err == nil:
		if vote == nil || vote.Authority != id || vote.Digest != r.tx.Digest {
			state.errs = append(state.errs, fmt.Errorf("%s returned a malformed vote", id))
			break
		}
		state.votes.Insert(id, *vote)
		if state.votes.ReachedQuorumThreshold() {
			cert := newCertificate(d.committee, r.tx, state.votes.Statuses(), state.votes.TotalVotes())
			return Success[*submitState, *Certificate](cert)
		}
		if state.votes.ReachedValidityThreshold() {
			// Honest stake is on board; stop waiting long for stragglers.
			return ContinueWithTimeout[*submitState, *Certificate](state, d.stragglerTimeout)
		}
	case errors.As(err, &conflict):
		if state.conflicts.Insert(id, conflict.Digest) {
			state.conflictStake[conflict.Digest] += stake
		}
		state.errs = append(state.errs, fmt.Errorf("%s: %w", id, err))
	default:
		state.errs = append(state.errs, fmt.Errorf("%s: %w", id, err))
	}

	// Abort early once the stake still unheard from cannot close the gap.
	remaining := d.committee.TotalStake() - state.responded
	if state.votes.TotalVotes()+remaining < d.committee.QuorumThreshold() {
		return Failed[*submitState, *Certificate](state)
	}
	return Continue[*submitState, *Certificate](state)
}

func sortByStake(committee *stakequorum.Committee, ids []stakequorum.ID) {
	sort.Slice(ids, func(i, j int) bool {
		si, sj := committee.Stake(ids[i]), committee.Stake(ids[j])
		if si != sj {
			return si > sj
		}
		return ids[i] < ids[j]
	})
}
