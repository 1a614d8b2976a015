package types

import (
	"net/netip"
	"testing"
	"time"
)

func TestLatencyRecordLossRate(t *testing.T) {
	tests := []struct {
		name     string
		sent     int
		received int
		want     float64
	}{
		{name: "no attempts", sent: 0, received: 0, want: 1},
		{name: "all received", sent: 4, received: 4, want: 0},
		{name: "all lost", sent: 4, received: 0, want: 1},
		{name: "half lost", sent: 4, received: 2, want: 0.5},
		{name: "partial sequence", sent: 3, received: 1, want: 2.0 / 3.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := LatencyRecord{Sent: tt.sent, Received: tt.received}
			got := r.LossRate()
			if got != tt.want {
				t.Errorf("LossRate() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("LossRate() = %v outside [0,1]", got)
			}
			if r.HasLatency() != (tt.received > 0) {
				t.Errorf("HasLatency() = %v with %d successes", r.HasLatency(), tt.received)
			}
		})
	}
}

func TestThroughputRecordBytesPerSecond(t *testing.T) {
	addr := netip.MustParseAddr("198.51.100.1")

	tests := []struct {
		name string
		rec  ThroughputRecord
		want float64
	}{
		{
			name: "one megabyte per second",
			rec:  ThroughputRecord{Addr: addr, Bytes: 1 << 20, Elapsed: time.Second, Status: StatusCompleted},
			want: 1 << 20,
		},
		{
			name: "failed measurement",
			rec:  ThroughputRecord{Addr: addr, Status: StatusConnectionFailed},
			want: 0,
		},
		{
			name: "zero elapsed",
			rec:  ThroughputRecord{Addr: addr, Bytes: 100},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.BytesPerSecond()
			if got != tt.want {
				t.Errorf("BytesPerSecond() = %v, want %v", got, tt.want)
			}
			if got < 0 {
				t.Errorf("BytesPerSecond() = %v, want non-negative", got)
			}
			if got > 0 && tt.rec.Status == StatusConnectionFailed {
				t.Error("positive throughput on a connection-failed record")
			}
		})
	}
}

func TestTransferStatusString(t *testing.T) {
	tests := []struct {
		status TransferStatus
		want   string
	}{
		{StatusCompleted, "completed"},
		{StatusTimedOut, "timed-out"},
		{StatusConnectionFailed, "connection-failed"},
		{TransferStatus(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("TransferStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}
