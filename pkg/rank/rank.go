// Package rank filters probe results into the download shortlist and merges
// throughput measurements into the final ranking.
package rank

import (
	"sort"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// Shortlist selects the candidates worth download-testing: records over the
// loss ceiling, without any successful attempt, or over the latency ceiling
// drop out; survivors sort by smoothed latency with loss rate breaking ties
// and earlier candidates winning deeper ones. At most ShortlistSize records
// remain. An empty shortlist is a valid outcome.
func Shortlist(cfg types.Config, records []types.LatencyRecord) []types.LatencyRecord {
	eligible := make([]types.LatencyRecord, 0, len(records))
	for _, record := range records {
		if record.LossRate() > cfg.MaxLossRate {
			continue
		}
		if !record.HasLatency() {
			continue
		}
		if record.EWMARTT > cfg.MaxLatency {
			continue
		}
		eligible = append(eligible, record)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].EWMARTT != eligible[j].EWMARTT {
			return eligible[i].EWMARTT < eligible[j].EWMARTT
		}
		return eligible[i].LossRate() < eligible[j].LossRate()
	})

	if cfg.ShortlistSize > 0 && len(eligible) > cfg.ShortlistSize {
		eligible = eligible[:cfg.ShortlistSize]
	}
	return eligible
}
