package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

// tcpProber measures latency as the wall-clock time of a TCP connect to the
// target port.
type tcpProber struct {
	cfg    types.Config
	dialer *net.Dialer
}

func newTCPProber(cfg types.Config) *tcpProber {
	return &tcpProber{
		cfg:    cfg,
		dialer: &net.Dialer{Timeout: cfg.PingTimeout},
	}
}

func (t *tcpProber) probeOne(ctx context.Context, c types.Candidate) types.LatencyRecord {
	record := types.LatencyRecord{Candidate: c}
	stats := newRTTStats(t.cfg.SmoothingFactor)
	target := net.JoinHostPort(c.Addr.String(), strconv.Itoa(t.cfg.TargetPort))

	for i := 0; i < t.cfg.PingCount; i++ {
		if ctx.Err() != nil {
			break
		}
		record.Sent++

		start := time.Now()
		conn, err := t.dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			continue
		}
		rtt := time.Since(start)
		_ = conn.Close()

		record.Received++
		stats.observe(rtt)
	}

	stats.fill(&record)
	return record
}
