package probe

import (
	"time"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// rttStats folds round-trip samples into constant-size state: running
// minimum, sum for the mean, and an exponentially weighted moving average.
// The first sample seeds the average, later samples blend in with weight
// alpha.
type rttStats struct {
	alpha float64
	count int
	min   time.Duration
	sum   time.Duration
	ewma  float64
}

func newRTTStats(alpha float64) *rttStats {
	return &rttStats{alpha: alpha}
}

func (s *rttStats) observe(rtt time.Duration) {
	if s.count == 0 || rtt < s.min {
		s.min = rtt
	}
	s.sum += rtt
	if s.count == 0 {
		s.ewma = float64(rtt)
	} else {
		s.ewma = s.alpha*float64(rtt) + (1-s.alpha)*s.ewma
	}
	s.count++
}

// fill writes the folded statistics into the record. Records with zero
// successes keep their zero latency fields.
func (s *rttStats) fill(record *types.LatencyRecord) {
	if s.count == 0 {
		return
	}
	record.MinRTT = s.min
	record.AvgRTT = s.sum / time.Duration(s.count)
	record.EWMARTT = time.Duration(s.ewma)
}
