package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/GuangYu-yu/edgerank/pkg/progress"
	"github.com/GuangYu-yu/edgerank/pkg/types"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
)

const downloadChunkSize = 32 * 1024

// Tester measures download throughput for shortlisted candidates with
// bounded concurrency.
type Tester struct {
	cfg     types.Config
	tracker *progress.Tracker
	url     string

	// measure runs the full transfer for a single candidate.
	measure func(ctx context.Context, addr netip.Addr) types.ThroughputRecord
}

// NewTester builds a Tester for the configured measurement endpoint.
func NewTester(cfg types.Config, tracker *progress.Tracker) *Tester {
	t := &Tester{cfg: cfg, tracker: tracker, url: cfg.DownloadURL()}
	t.measure = t.download
	return t
}

// Run measures all shortlisted candidates and returns their throughput
// records in shortlist order. Cancelling the context stops scheduling and
// returns what was measured; running transfers finish as timed out or
// completed depending on how far they got.
func (t *Tester) Run(ctx context.Context, shortlist []types.LatencyRecord) ([]types.ThroughputRecord, error) {
	results := mapsutil.NewSyncLockMap[netip.Addr, types.ThroughputRecord]()

	awg, err := syncutil.New(syncutil.WithSize(t.cfg.DownloadConcurrency))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	t.tracker.MarkDownloadQueued(len(shortlist))
	for _, record := range shortlist {
		select {
		case <-ctx.Done():
			goto done
		default:
		}

		awg.Add()
		go func(addr netip.Addr) {
			defer awg.Done()

			result := t.measure(ctx, addr)
			t.tracker.MarkDownloadDone()
			_ = results.Set(addr, result)
		}(record.Addr)
	}

done:
	awg.Wait()

	records := make([]types.ThroughputRecord, 0, len(shortlist))
	for _, record := range shortlist {
		if result, ok := results.Get(record.Addr); ok {
			records = append(records, result)
		}
	}
	return records, nil
}

// download runs the transfer for one candidate. The clock starts when the
// first response arrives, so connection setup does not dilute throughput.
func (t *Tester) download(ctx context.Context, addr netip.Addr) types.ThroughputRecord {
	record := types.ThroughputRecord{Addr: addr, Status: types.StatusConnectionFailed}

	dctx, cancel := context.WithTimeout(ctx, t.cfg.DownloadTimeout)
	defer cancel()

	client := t.newClient(addr)
	defer client.CloseIdleConnections()

	body, err := t.request(dctx, client)
	if err != nil {
		return record
	}

	buf := make([]byte, downloadChunkSize)
	start := time.Now()
	timedOut := false

loop:
	for {
		n, readErr := body.Read(buf)
		record.Bytes += int64(n)
		record.Elapsed = time.Since(start)

		switch {
		case record.Bytes >= t.cfg.MaxDownloadBytes:
			break loop
		case readErr == nil:
			continue
		case dctx.Err() != nil:
			timedOut = true
			break loop
		case !errors.Is(readErr, io.EOF):
			break loop
		case t.trusted(record):
			break loop
		}

		// body ended before the measurement is trustworthy: fetch again
		// over the same connection and keep accumulating
		_ = body.Close()
		body, err = t.request(dctx, client)
		if err != nil {
			if dctx.Err() != nil {
				timedOut = true
			}
			body = nil
			break
		}
	}
	if body != nil {
		_ = body.Close()
	}

	switch {
	case t.trusted(record) || record.Bytes >= t.cfg.MaxDownloadBytes:
		record.Status = types.StatusCompleted
	case timedOut:
		record.Status = types.StatusTimedOut
	default:
		record.Status = types.StatusCompleted
	}
	return record
}

// trusted reports whether the accumulated measurement meets both minimums.
func (t *Tester) trusted(record types.ThroughputRecord) bool {
	return record.Bytes >= t.cfg.MinTrustedBytes && record.Elapsed >= t.cfg.MinTrustedDuration
}
