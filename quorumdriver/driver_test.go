package quorumdriver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/internal/mocks"
	"github.com/quorumlab/stakequorum/internal/testutil"
	"github.com/quorumlab/stakequorum/quorumdriver"
)

func newTransaction(name string) *quorumdriver.Transaction {
	return &quorumdriver.Transaction{
		Digest:  testutil.DigestOf(name),
		Payload: []byte(name),
	}
}

func fourFakes(t *testing.T) (*stakequorum.Committee, []*testutil.FakeAuthority) {
	t.Helper()
	committee := testutil.EqualStakeCommittee(t, 4)
	fakes := make([]*testutil.FakeAuthority, 0, 4)
	for _, id := range committee.Authorities() {
		fakes = append(fakes, testutil.NewFakeAuthority(id))
	}
	return committee, fakes
}

func TestSubmitTransactionCertified(t *testing.T) {
	committee, fakes := fourFakes(t)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	tx := newTransaction("tx")
	cert, err := driver.SubmitTransaction(context.Background(), tx)
	require.NoError(t, err)
	require.Equal(t, tx.Digest, cert.Transaction.Digest)
	require.Equal(t, committee.Epoch(), cert.Epoch)
	require.GreaterOrEqual(t, cert.Stake, committee.QuorumThreshold())
	require.Len(t, cert.Votes, 3, "success should return as soon as quorum stake has voted")
	for _, vote := range cert.Votes {
		require.Equal(t, tx.Digest, vote.Digest)
	}
}

func TestSubmitTransactionInvalid(t *testing.T) {
	committee, fakes := fourFakes(t)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	_, err = driver.SubmitTransaction(context.Background(), nil)
	require.ErrorIs(t, err, quorumdriver.ErrInvalidTransaction)

	_, err = driver.SubmitTransaction(context.Background(), &quorumdriver.Transaction{})
	require.ErrorIs(t, err, quorumdriver.ErrInvalidTransaction)
}

func TestSubmitTransactionRejected(t *testing.T) {
	committee, fakes := fourFakes(t)
	fakes[2].FailWith(errors.New("internal error"))
	fakes[3].FailWith(errors.New("internal error"))
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	_, err = driver.SubmitTransaction(context.Background(), newTransaction("tx"))
	var quorumErr *quorumdriver.QuorumNotReachedError
	require.ErrorAs(t, err, &quorumErr)
	require.False(t, quorumErr.TimedOut)
	require.LessOrEqual(t, quorumErr.VotedStake, stakequorum.Stake(2))
	require.Equal(t, committee.QuorumThreshold(), quorumErr.RequiredStake)
	require.ErrorContains(t, quorumErr, "internal error")
}

func TestSubmitTransactionTimeout(t *testing.T) {
	committee, fakes := fourFakes(t)
	fakes[2].Delay(time.Minute)
	fakes[3].Delay(time.Minute)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)),
		quorumdriver.WithRequestTimeout(100*time.Millisecond),
		quorumdriver.WithStragglerTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = driver.SubmitTransaction(context.Background(), newTransaction("tx"))
	var quorumErr *quorumdriver.QuorumNotReachedError
	require.ErrorAs(t, err, &quorumErr)
	require.True(t, quorumErr.TimedOut)
	require.Equal(t, stakequorum.Stake(2), quorumErr.VotedStake)
}

func TestSubmitTransactionConflictRetry(t *testing.T) {
	committee, fakes := fourFakes(t)
	locked := newTransaction("locked")
	// Three authorities already locked the objects for another transaction.
	fakes[1].LockFor(locked)
	fakes[2].LockFor(locked)
	fakes[3].LockFor(locked)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	cert, err := driver.SubmitTransaction(context.Background(), newTransaction("tx"))
	require.NoError(t, err)
	require.Equal(t, locked.Digest, cert.Transaction.Digest,
		"the driver should converge on the transaction holding the locks")
	require.GreaterOrEqual(t, cert.Stake, committee.QuorumThreshold())
}

func TestSubmitTransactionConflictRetriesExhausted(t *testing.T) {
	committee, fakes := fourFakes(t)
	phantom := newTransaction("phantom")
	// Three authorities report a conflict no matter what is submitted.
	for _, f := range fakes[1:] {
		f.FailWith(&quorumdriver.ConflictError{Digest: phantom.Digest})
		f.Learn(phantom)
	}
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)),
		quorumdriver.WithMaxConflictRetries(1))
	require.NoError(t, err)

	_, err = driver.SubmitTransaction(context.Background(), newTransaction("tx"))
	var exhausted *quorumdriver.ConflictRetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Equal(t, phantom.Digest, exhausted.Digest)
	require.Equal(t, 2, exhausted.Attempts)
}

func TestSubmitTransactionConflictAlreadyFinalized(t *testing.T) {
	committee, fakes := fourFakes(t)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	locked := newTransaction("locked")
	first, err := driver.SubmitTransaction(context.Background(), locked)
	require.NoError(t, err)

	for _, f := range fakes {
		f.LockFor(locked)
	}
	submissionsBefore := fakes[0].Submissions()

	cert, err := driver.SubmitTransaction(context.Background(), newTransaction("other"))
	require.NoError(t, err)
	require.Equal(t, first, cert, "an already-certified conflict should be served from the cache")
	require.Equal(t, submissionsBefore+1, fakes[0].Submissions(),
		"the cached conflicting transaction must not be resubmitted")
}

func TestSubmitTransactionConflictFetchFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	committee := testutil.EqualStakeCommittee(t, 4)
	tx := newTransaction("tx")
	conflict := testutil.DigestOf("conflict")

	clients := make(map[stakequorum.ID]quorumdriver.AuthorityClient, 4)
	for _, id := range committee.Authorities() {
		client := mocks.NewMockAuthorityClient(ctrl)
		if id == 1 {
			client.EXPECT().
				SubmitTransaction(gomock.Any(), gomock.Any()).
				AnyTimes().
				Return(&quorumdriver.Vote{Authority: id, Digest: tx.Digest}, nil)
		} else {
			client.EXPECT().
				SubmitTransaction(gomock.Any(), gomock.Any()).
				AnyTimes().
				Return(nil, &quorumdriver.ConflictError{Digest: conflict})
			client.EXPECT().
				FetchTransaction(gomock.Any(), conflict).
				AnyTimes().
				Return(nil, errors.New("not found"))
		}
		clients[id] = client
	}

	driver, err := quorumdriver.New(committee, clients,
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	_, err = driver.SubmitTransaction(context.Background(), tx)
	require.ErrorContains(t, err, "fetching conflicting transaction")
}

func TestSubmitTransactionContextCanceled(t *testing.T) {
	committee, fakes := fourFakes(t)
	for _, f := range fakes {
		f.Delay(time.Minute)
	}
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = driver.SubmitTransaction(ctx, newTransaction("tx"))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmitTransactionRateLimited(t *testing.T) {
	committee, fakes := fourFakes(t)
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)),
		quorumdriver.WithSubmitLimiter(rate.NewLimiter(rate.Every(200*time.Millisecond), 1)))
	require.NoError(t, err)

	start := time.Now()
	_, err = driver.SubmitTransaction(context.Background(), newTransaction("tx1"))
	require.NoError(t, err)
	_, err = driver.SubmitTransaction(context.Background(), newTransaction("tx2"))
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond,
		"the limiter should delay the second submission")
}

func TestInflightTracksActiveSubmissions(t *testing.T) {
	committee, fakes := fourFakes(t)
	for _, f := range fakes {
		f.Delay(100 * time.Millisecond)
	}
	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	require.Zero(t, driver.Inflight())

	var submitErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, submitErr = driver.SubmitTransaction(context.Background(), newTransaction("tx"))
	}()
	require.Eventually(t, func() bool { return driver.Inflight() == 1 },
		time.Second, time.Millisecond)
	<-done
	require.NoError(t, submitErr)
	require.Zero(t, driver.Inflight())
}

func TestNewRequiresAllClients(t *testing.T) {
	committee, fakes := fourFakes(t)
	_, err := quorumdriver.New(committee, testutil.Clients(fakes[:3]...))
	require.Error(t, err)
}
