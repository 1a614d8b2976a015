package rank

import (
	"net/netip"
	"sort"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// Merge joins throughput measurements back onto the shortlist and assigns
// 1-based ranks. Fastest measured download comes first; equal speeds order
// by smoothed latency, then by shortlist position. Candidates that moved no
// bytes, failed connections included, trail the field in the same latency
// order.
func Merge(shortlist []types.LatencyRecord, throughput []types.ThroughputRecord) []types.RankedEntry {
	byAddr := make(map[netip.Addr]*types.ThroughputRecord, len(throughput))
	for i := range throughput {
		byAddr[throughput[i].Addr] = &throughput[i]
	}

	entries := make([]types.RankedEntry, 0, len(shortlist))
	for _, record := range shortlist {
		entry := types.RankedEntry{LatencyRecord: record}
		if tr, ok := byAddr[record.Addr]; ok {
			entry.Throughput = tr
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := entries[i].Speed(), entries[j].Speed()
		if si != sj {
			return si > sj
		}
		return entries[i].EWMARTT < entries[j].EWMARTT
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
