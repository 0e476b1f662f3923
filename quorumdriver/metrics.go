package quorumdriver

import "time"

// Metrics receives observability events from the driver. Implementations
// must be safe for concurrent use. Metrics are side effects only; they are
// not part of the correctness contract.
type Metrics interface {
	// RequestReceived counts a call to SubmitTransaction.
	RequestReceived()
	// RequestInflight reports submissions entering (+1) and leaving (-1)
	// the driver.
	RequestInflight(delta int)
	// CertificateProduced counts a successful submission and its total
	// duration, including any conflict retries.
	CertificateProduced(took time.Duration)
	// RequestFailed counts a failed submission by failure kind
	// ("invalid", "timeout", "rejected", "conflict", or "canceled").
	RequestFailed(reason string)
	// ConflictRetry counts an attempt to retry a conflicting transaction.
	ConflictRetry()
	// ConflictRetrySucceeded counts a conflict retry that produced a
	// certificate.
	ConflictRetrySucceeded()
	// ConflictRetryAlreadyFinalized counts a conflict retry whose target
	// had already been certified.
	ConflictRetryAlreadyFinalized()
}

// NopMetrics discards all events.
type NopMetrics struct{}

var _ Metrics = NopMetrics{}

func (NopMetrics) RequestReceived() {}
func (NopMetrics) RequestInflight(int) {}
func (NopMetrics) CertificateProduced(time.Duration) {}
func (NopMetrics) RequestFailed(string) {}
func (NopMetrics) ConflictRetry() {}
func (NopMetrics) ConflictRetrySucceeded() {}
func (NopMetrics) ConflictRetryAlreadyFinalized() {}
