// Package progress publishes pipeline progress as monotonic counters.
// Workers increment them with atomic adds; display code polls Snapshot and
// never gets write access to pipeline state.
package progress

import "sync/atomic"

// Tracker counts queued and finished work per stage. The zero value is
// ready to use. A nil Tracker is valid and discards all updates, so stages
// can treat it as optional.
type Tracker struct {
	probeQueued int64
	probeDone   int64
	probeAlive  int64

	downloadQueued int64
	downloadDone   int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	ProbeQueued int64
	ProbeDone   int64
	// ProbeAlive counts probed candidates with at least one successful
	// attempt.
	ProbeAlive int64

	DownloadQueued int64
	DownloadDone   int64
}

// MarkProbeQueued records n candidates submitted to the latency prober.
func (t *Tracker) MarkProbeQueued(n int) {
	if t == nil {
		return
	}
	atomic.AddInt64(&t.probeQueued, int64(n))
}

// MarkProbeDone records one finished probe sequence.
func (t *Tracker) MarkProbeDone(alive bool) {
	if t == nil {
		return
	}
	atomic.AddInt64(&t.probeDone, 1)
	if alive {
		atomic.AddInt64(&t.probeAlive, 1)
	}
}

// MarkDownloadQueued records n candidates submitted to the throughput
// tester.
func (t *Tracker) MarkDownloadQueued(n int) {
	if t == nil {
		return
	}
	atomic.AddInt64(&t.downloadQueued, int64(n))
}

// MarkDownloadDone records one finished throughput measurement.
func (t *Tracker) MarkDownloadDone() {
	if t == nil {
		return
	}
	atomic.AddInt64(&t.downloadDone, 1)
}

// Snapshot returns the current counter values. Safe to call concurrently
// with updates.
func (t *Tracker) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	return Snapshot{
		ProbeQueued:    atomic.LoadInt64(&t.probeQueued),
		ProbeDone:      atomic.LoadInt64(&t.probeDone),
		ProbeAlive:     atomic.LoadInt64(&t.probeAlive),
		DownloadQueued: atomic.LoadInt64(&t.downloadQueued),
		DownloadDone:   atomic.LoadInt64(&t.downloadDone),
	}
}
