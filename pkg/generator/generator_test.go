package generator

import (
	"net/netip"
	"strings"
	"testing"

	"github.com/GuangYu-yu/edgerank/pkg/types"
)

func TestGenerateEnumeratesSmallRanges(t *testing.T) {
	cfg := types.DefaultConfig()
	candidates, err := Generate(cfg, []string{"198.51.100.0/30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"198.51.100.0", "198.51.100.1", "198.51.100.2", "198.51.100.3"}
	if len(candidates) != len(want) {
		t.Fatalf("got %d candidates, want %d", len(candidates), len(want))
	}
	for i, c := range candidates {
		if c.Addr.String() != want[i] {
			t.Errorf("candidate %d: got %s, want %s", i, c.Addr, want[i])
		}
		if c.Index != i {
			t.Errorf("candidate %d: got index %d", i, c.Index)
		}
		if c.Range != "198.51.100.0/30" {
			t.Errorf("candidate %d: got range %q", i, c.Range)
		}
	}
}

func TestGenerateSamplesLargeRanges(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.EnumerationCeiling = 16
	cfg.SampleCap = 8

	prefix := netip.MustParsePrefix("10.0.0.0/24")
	candidates, err := Generate(cfg, []string{prefix.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != cfg.SampleCap {
		t.Fatalf("got %d candidates, want %d", len(candidates), cfg.SampleCap)
	}
	seen := make(map[netip.Addr]struct{})
	for i, c := range candidates {
		if !prefix.Contains(c.Addr) {
			t.Errorf("candidate %s outside %s", c.Addr, prefix)
		}
		if _, ok := seen[c.Addr]; ok {
			t.Errorf("candidate %s sampled twice", c.Addr)
		}
		seen[c.Addr] = struct{}{}
		if i > 0 && !candidates[i-1].Addr.Less(c.Addr) {
			t.Errorf("candidates not ascending at %d: %s then %s", i, candidates[i-1].Addr, c.Addr)
		}
	}
}

func TestGenerateSampleSeedReproducible(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.EnumerationCeiling = 16
	cfg.SampleCap = 32
	seed := int64(42)
	cfg.SampleSeed = &seed

	first, err := Generate(cfg, []string{"172.16.0.0/16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Generate(cfg, []string{"172.16.0.0/16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("sample sizes differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Addr != second[i].Addr {
			t.Fatalf("candidate %d differs: %s vs %s", i, first[i].Addr, second[i].Addr)
		}
	}
}

func TestGenerateDeduplicatesAcrossRanges(t *testing.T) {
	cfg := types.DefaultConfig()
	candidates, err := Generate(cfg, []string{"203.0.113.0/31", "203.0.113.0/30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("got %d candidates, want 4", len(candidates))
	}
	// the first range claims the overlapping addresses
	if candidates[0].Range != "203.0.113.0/31" {
		t.Errorf("got range %q for %s, want first occurrence kept", candidates[0].Range, candidates[0].Addr)
	}
	if candidates[2].Range != "203.0.113.0/30" {
		t.Errorf("got range %q for %s", candidates[2].Range, candidates[2].Addr)
	}
}

func TestGenerateMappedAddressesCollapse(t *testing.T) {
	cfg := types.DefaultConfig()
	candidates, err := Generate(cfg, []string{"203.0.113.5", "::ffff:203.0.113.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if got := candidates[0].Addr.String(); got != "203.0.113.5" {
		t.Errorf("got %s, want unmapped IPv4", got)
	}
}

func TestGenerateSingleAddresses(t *testing.T) {
	cfg := types.DefaultConfig()
	candidates, err := Generate(cfg, []string{"198.51.100.7", "2606:4700::1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if !candidates[1].Addr.Is6() {
		t.Errorf("got %s, want IPv6 candidate", candidates[1].Addr)
	}
}

func TestGenerateErrors(t *testing.T) {
	cfg := types.DefaultConfig()
	tests := []struct {
		name    string
		ranges  []string
		wantErr string
	}{
		{
			name:    "no ranges",
			ranges:  nil,
			wantErr: "no address ranges",
		},
		{
			name:    "empty range",
			ranges:  []string{"  "},
			wantErr: "empty address range",
		},
		{
			name:    "invalid address",
			ranges:  []string{"not-an-ip"},
			wantErr: "invalid address",
		},
		{
			name:    "invalid prefix length",
			ranges:  []string{"10.0.0.0/33"},
			wantErr: "invalid CIDR",
		},
		{
			name:    "bad range after good one",
			ranges:  []string{"198.51.100.0/30", "10.0.0.0/oops"},
			wantErr: "invalid CIDR",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(cfg, tt.ranges)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got error %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
