// Package probe measures per-candidate connection latency against the
// configured edge endpoint.
//
// A Pinger fans candidates out over a bounded worker pool; one worker owns a
// candidate's complete attempt sequence, so attempts against the same address
// never overlap. Two probe modes exist:
//
//   - TCP mode dials the target port and takes the wall-clock connect time as
//     the round-trip sample, closing the connection immediately.
//   - HTTP mode sends HEAD requests through a per-candidate client whose
//     transport dials the candidate address while the request URL, Host
//     header and SNI stay on the configured hostname. An initial request
//     validates the response status and the serving data center before any
//     timed attempts run.
//
// Samples fold into constant-size statistics as they arrive: minimum, mean
// and an exponentially weighted moving average seeded by the first success.
// Candidates with zero successes keep a full-loss record so downstream
// filtering can account for them. Cancelling the context stops new attempts;
// partially probed candidates still report whatever they measured.
package probe
