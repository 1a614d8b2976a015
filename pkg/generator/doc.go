// Package generator expands address ranges into the deduplicated candidate
// sequence the measurement pipeline works on.
//
// Inputs are single addresses or CIDR blocks, IPv4 and IPv6 mixed freely.
// Ranges covering at most the configured enumeration ceiling are expanded
// exhaustively in ascending address order; larger ranges are sampled without
// replacement up to the per-range sample cap, and the sample is sorted
// ascending so the output stays order-stable. Supplying a sample seed makes
// the sampled subset reproducible across runs.
//
// Overlapping inputs are allowed: duplicate addresses keep their first
// occurrence only, so candidate identity is the address. Network and
// broadcast addresses are not excluded; on shared-anycast CDN ranges they
// answer like any other front-end.
//
// The generator performs no network activity. Errors are limited to
// unparsable range strings and an empty overall result.
package generator
