package generator

import (
	"fmt"
	"math/rand"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/GuangYu-yu/edgerank/pkg/types"
	"github.com/projectdiscovery/mapcidr"
)

// Generate expands the given ranges into the candidate list the pipeline
// probes, in input order with ascending addresses inside each range.
// Duplicate addresses across ranges keep the first occurrence.
func Generate(cfg types.Config, ranges []string) ([]types.Candidate, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("no address ranges provided")
	}

	rng := newSampler(cfg.SampleSeed)

	var candidates []types.Candidate
	seen := make(map[netip.Addr]struct{})
	for _, r := range ranges {
		addrs, err := expandRange(cfg, rng, r)
		if err != nil {
			return nil, err
		}
		for _, addr := range addrs {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			candidates = append(candidates, types.Candidate{
				Addr:  addr,
				Range: r,
				Index: len(candidates),
			})
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates generated from %d range(s)", len(ranges))
	}
	return candidates, nil
}

func newSampler(seed *int64) *rand.Rand {
	if seed != nil {
		return rand.New(rand.NewSource(*seed))
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// expandRange turns a single address or CIDR block into ascending addresses,
// enumerating small blocks and sampling large ones.
func expandRange(cfg types.Config, rng *rand.Rand, r string) ([]netip.Addr, error) {
	r = strings.TrimSpace(r)
	if r == "" {
		return nil, fmt.Errorf("empty address range")
	}

	if !strings.Contains(r, "/") {
		addr, err := netip.ParseAddr(r)
		if err != nil {
			return nil, fmt.Errorf("invalid address %q: %w", r, err)
		}
		return []netip.Addr{addr.Unmap()}, nil
	}

	prefix, err := netip.ParsePrefix(r)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR %q: %w", r, err)
	}

	// A block the sample cap covers entirely is enumerated outright.
	if spanWithin(prefix, cfg.EnumerationCeiling) || spanWithin(prefix, cfg.SampleCap) {
		return enumerate(prefix.Masked().String())
	}
	return sample(rng, prefix, cfg.SampleCap)
}

// spanWithin reports whether the prefix covers at most limit addresses.
func spanWithin(prefix netip.Prefix, limit int) bool {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits >= 63 {
		return false
	}
	return uint64(1)<<hostBits <= uint64(limit)
}

func enumerate(cidr string) ([]netip.Addr, error) {
	ips, err := mapcidr.IPAddresses(cidr)
	if err != nil {
		return nil, fmt.Errorf("cannot expand CIDR %q: %w", cidr, err)
	}
	addrs := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		addr, err := netip.ParseAddr(ip)
		if err != nil {
			continue
		}
		addrs = append(addrs, addr.Unmap())
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs, nil
}
