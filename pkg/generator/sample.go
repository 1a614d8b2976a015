package generator

import (
	"fmt"
	"math/big"
	"math/rand"
	"net"
	"net/netip"
	"sort"

	"github.com/projectdiscovery/mapcidr"
)

// sample picks up to limit distinct addresses from a block too large to
// enumerate. Offsets into the block are drawn without replacement and the
// resulting addresses are sorted ascending.
func sample(rng *rand.Rand, prefix netip.Prefix, limit int) ([]netip.Addr, error) {
	base := prefix.Masked().Addr()
	baseInt, bits, err := mapcidr.IPToInteger(net.IP(base.AsSlice()))
	if err != nil {
		return nil, fmt.Errorf("cannot sample CIDR %q: %w", prefix, err)
	}

	hostBits := base.BitLen() - prefix.Bits()
	span := new(big.Int).Lsh(big.NewInt(1), uint(hostBits))

	picked := make(map[string]struct{}, limit)
	addrs := make([]netip.Addr, 0, limit)
	offset := new(big.Int)
	// The block is strictly larger than limit here, so the draw terminates
	// quickly; the attempt bound only guards pathological collision streaks.
	for attempts := 0; len(addrs) < limit && attempts < limit*64; attempts++ {
		offset.Rand(rng, span)
		key := offset.String()
		if _, ok := picked[key]; ok {
			continue
		}
		picked[key] = struct{}{}

		ip := mapcidr.IntegerToIP(new(big.Int).Add(baseInt, offset), bits)
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		addrs = append(addrs, addr.Unmap())
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })
	return addrs, nil
}
