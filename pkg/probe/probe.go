package probe

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/GuangYu-yu/edgerank/pkg/progress"
	"github.com/GuangYu-yu/edgerank/pkg/types"
	mapsutil "github.com/projectdiscovery/utils/maps"
	syncutil "github.com/projectdiscovery/utils/sync"
)

// Pinger runs latency probes against candidates with bounded concurrency.
type Pinger struct {
	cfg     types.Config
	tracker *progress.Tracker

	// probeOne runs the full attempt sequence for a single candidate.
	probeOne func(ctx context.Context, c types.Candidate) types.LatencyRecord
}

// NewPinger builds a Pinger in TCP or HTTP mode depending on the config.
func NewPinger(cfg types.Config, tracker *progress.Tracker) *Pinger {
	p := &Pinger{cfg: cfg, tracker: tracker}
	if cfg.HTTPing {
		p.probeOne = newHTTPProber(cfg).probeOne
	} else {
		p.probeOne = newTCPProber(cfg).probeOne
	}
	return p
}

// Run probes all candidates and returns their latency records in candidate
// order. Cancelling the context stops scheduling and returns the records
// measured so far; candidates that never got an attempt out are omitted.
func (p *Pinger) Run(ctx context.Context, candidates []types.Candidate) ([]types.LatencyRecord, error) {
	results := mapsutil.NewSyncLockMap[netip.Addr, types.LatencyRecord]()

	awg, err := syncutil.New(syncutil.WithSize(p.cfg.PingConcurrency))
	if err != nil {
		return nil, fmt.Errorf("failed to create adaptive waitgroup: %w", err)
	}

	p.tracker.MarkProbeQueued(len(candidates))
	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			goto done
		default:
		}

		awg.Add()
		go func(c types.Candidate) {
			defer awg.Done()

			record := p.probeOne(ctx, c)
			p.tracker.MarkProbeDone(record.Received > 0)
			if record.Sent == 0 {
				return
			}
			_ = results.Set(c.Addr, record)
		}(candidate)
	}

done:
	awg.Wait()

	records := make([]types.LatencyRecord, 0, len(candidates))
	for _, c := range candidates {
		if record, ok := results.Get(c.Addr); ok {
			records = append(records, record)
		}
	}
	return records, nil
}
