package cli

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quorumlab/stakequorum"
	"github.com/quorumlab/stakequorum/aggregator"
	"github.com/quorumlab/stakequorum/internal/testutil"
	"github.com/quorumlab/stakequorum/logging"
	"github.com/quorumlab/stakequorum/metrics"
	"github.com/quorumlab/stakequorum/quorumdriver"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the quorum driver against in-process authorities.",
	Long: `Simulate builds a committee of in-process authorities with configurable
failure, conflict, and latency behavior, submits a batch of transactions
through the quorum driver, and reports the outcome of each submission.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulation()
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().Int("authorities", 4, "number of equal-stake authorities (ignored with --stake-file)")
	simulateCmd.Flags().String("stake-file", "", "YAML file describing the committee")
	simulateCmd.Flags().Int("transactions", 100, "number of transactions to submit")
	simulateCmd.Flags().Float64("failure-rate", 0.1, "fraction of authorities that fail every request")
	simulateCmd.Flags().Float64("conflict-rate", 0.1, "fraction of transactions contended by a conflicting transaction")
	simulateCmd.Flags().Duration("max-latency", 50*time.Millisecond, "maximum per-authority artificial latency")
	simulateCmd.Flags().Duration("timeout", 5*time.Second, "per-round request timeout")
	simulateCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address while simulating")
	cobra.CheckErr(viper.BindPFlags(simulateCmd.Flags()))
}

func runSimulation() error {
	logger := logging.New("simulate")

	committee, err := buildCommittee()
	if err != nil {
		return err
	}
	logger.Infof("committee of %d authorities, total stake %d, quorum %d",
		committee.Size(), committee.TotalStake(), committee.QuorumThreshold())

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	fakes := make([]*testutil.FakeAuthority, 0, committee.Size())
	failing := int(viper.GetFloat64("failure-rate") * float64(committee.Size()))
	for i, id := range committee.Authorities() {
		fake := testutil.NewFakeAuthority(id)
		if maxLatency := viper.GetDuration("max-latency"); maxLatency > 0 {
			fake.Delay(time.Duration(rng.Int63n(int64(maxLatency))))
		}
		if i < failing {
			fake.FailWith(errors.New("authority is down"))
		}
		fakes = append(fakes, fake)
	}

	registry := prometheus.NewRegistry()
	driverMetrics := metrics.NewDriverCollector(registry)
	if addr := viper.GetString("metrics-addr"); addr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			logger.Infof("serving metrics on %s", addr)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Errorf("metrics server: %v", err)
			}
		}()
	}

	driver, err := quorumdriver.New(committee, testutil.Clients(fakes...),
		quorumdriver.WithLogger(logging.New("quorumdriver")),
		quorumdriver.WithMetrics(driverMetrics),
		quorumdriver.WithRequestTimeout(viper.GetDuration("timeout")))
	if err != nil {
		return err
	}

	var certified, conflicted, failed int
	total := viper.GetInt("transactions")
	halfway := stakequorum.Stake(total) * committee.QuorumThreshold() / 2
	progress := aggregator.NewWeightTracker(halfway, func() {
		logger.Infof("certified stake passed %d, half the batch's quorum target", halfway)
	})
	var certifiedStake stakequorum.Stake
	start := time.Now()
	for i := 0; i < total; i++ {
		tx := &quorumdriver.Transaction{
			Digest:  sha256.Sum256([]byte(fmt.Sprintf("simulated transaction %d", i))),
			Payload: []byte(fmt.Sprintf("payload %d", i)),
		}
		if rng.Float64() < viper.GetFloat64("conflict-rate") {
			locked := &quorumdriver.Transaction{
				Digest:  sha256.Sum256([]byte(fmt.Sprintf("conflicting transaction %d", i))),
				Payload: []byte(fmt.Sprintf("conflicting payload %d", i)),
			}
			for _, fake := range fakes {
				fake.LockFor(locked)
			}
			conflicted++
		}
		cert, err := driver.SubmitTransaction(context.Background(), tx)
		switch {
		case err != nil:
			logger.Debugf("transaction %d failed: %v", i, err)
			failed++
		default:
			logger.Debugf("transaction %d certified as %s with stake %d", i, cert.Transaction.Digest, cert.Stake)
			certified++
			certifiedStake += cert.Stake
			progress.Track(certifiedStake)
		}
		for _, fake := range fakes {
			fake.Unlock()
		}
	}

	logger.Infof("submitted %d transactions in %v: %d certified (%d contended), %d failed",
		total, time.Since(start).Round(time.Millisecond), certified, conflicted, failed)
	return nil
}

func buildCommittee() (*stakequorum.Committee, error) {
	if path := viper.GetString("stake-file"); path != "" {
		return readCommittee(path)
	}
	stakes := make(map[stakequorum.ID]stakequorum.Stake)
	for i := 1; i <= viper.GetInt("authorities"); i++ {
		stakes[stakequorum.ID(i)] = 1
	}
	return stakequorum.NewCommittee(1, stakes)
}
