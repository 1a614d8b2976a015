package types

import (
	"net/netip"
	"time"
)

// Candidate is a single probe target produced by the generator. Identity is
// the address: after deduplication no two candidates of a run share one.
type Candidate struct {
	Addr netip.Addr
	// Range is the input range the address came from, verbatim.
	Range string
	// Index is the candidate's position in generation order; it is the
	// final tie-breaker wherever deterministic ordering is required.
	Index int
}

// LatencyRecord aggregates the probe attempts of one candidate. It is
// written by exactly one prober worker and is immutable once the worker
// hands it off.
type LatencyRecord struct {
	Candidate

	// Sent counts attempts actually made; under cancellation it can be
	// lower than the configured ping count. Received counts successes.
	Sent     int
	Received int

	// RTT statistics over successful attempts only. Zero values carry no
	// meaning when Received is zero; use HasLatency.
	MinRTT  time.Duration
	AvgRTT  time.Duration
	EWMARTT time.Duration

	// Colo is the datacenter code reported by the edge in HTTP probe
	// mode, empty otherwise.
	Colo string
}

// LossRate is failures over attempts, in [0,1]. A record with no attempts
// reports total loss.
func (r LatencyRecord) LossRate() float64 {
	if r.Sent == 0 {
		return 1
	}
	return float64(r.Sent-r.Received) / float64(r.Sent)
}

// HasLatency reports whether the RTT fields hold measured values.
func (r LatencyRecord) HasLatency() bool {
	return r.Received > 0
}

// TransferStatus is the terminal state of one throughput measurement.
type TransferStatus int

const (
	// StatusCompleted means the measurement stands: the transfer ended at
	// the byte cap, at a body end, or after the trust minimums were met.
	StatusCompleted TransferStatus = iota
	// StatusTimedOut means the per-candidate deadline expired before the
	// trust minimums were met; the partial measurement is kept.
	StatusTimedOut
	// StatusConnectionFailed means no payload byte was ever received.
	StatusConnectionFailed
)

func (s TransferStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTimedOut:
		return "timed-out"
	case StatusConnectionFailed:
		return "connection-failed"
	default:
		return "unknown"
	}
}

// ThroughputRecord is the outcome of one candidate's download measurement.
type ThroughputRecord struct {
	Addr    netip.Addr
	Bytes   int64
	Elapsed time.Duration
	Status  TransferStatus
}

// BytesPerSecond is the sustained transfer rate of the measurement, zero
// for failed or empty measurements.
func (r ThroughputRecord) BytesPerSecond() float64 {
	if r.Elapsed <= 0 || r.Bytes <= 0 {
		return 0
	}
	return float64(r.Bytes) / r.Elapsed.Seconds()
}

// RankedEntry joins a candidate's latency and throughput measurements with
// its final position. Entries are produced single-threaded by the
// aggregator and exposed read-only to reporting.
type RankedEntry struct {
	LatencyRecord

	// Throughput is nil for candidates whose download test never ran,
	// which happens when the run is interrupted or the download stage
	// is skipped.
	Throughput *ThroughputRecord

	// Rank is the 1-based position in the final ordering.
	Rank int
}

// Speed returns the entry's throughput in bytes per second, zero when
// untested.
func (e RankedEntry) Speed() float64 {
	if e.Throughput == nil {
		return 0
	}
	return e.Throughput.BytesPerSecond()
}
