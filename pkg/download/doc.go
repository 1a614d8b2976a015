// Package download measures sustained transfer throughput for shortlisted
// candidates.
//
// A Tester fans the shortlist out over a bounded worker pool, typically a
// small one since parallel transfers share the same access link. Each
// worker builds an HTTP client whose transport dials its
// candidate's address while the request URL, Host header and SNI stay on the
// configured hostname, fetches the measurement path, and accumulates bytes
// over a chunked read loop.
//
// A transfer ends at the byte cap, the per-candidate deadline, or the end of
// the response body. A body that ends before the measurement is trustworthy
// (minimum duration and minimum bytes both met) is fetched again over the
// same connection and accumulation continues. Terminal statuses:
//
//   - completed: the measurement stands, whether the cap, a trusted body
//     end, or the deadline after the minimums ended it
//   - timed-out: the deadline cut the transfer before the minimums were met;
//     the partial measurement is kept
//   - connection-failed: the first request never yielded a usable response;
//     the candidate contributes zero throughput
//
// One candidate failing never affects the rest of the batch.
package download
