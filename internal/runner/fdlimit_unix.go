//go:build !windows
// +build !windows

package runner

import "golang.org/x/sys/unix"

// raiseFdLimit lifts the soft RLIMIT_NOFILE to the hard limit so wide
// probe pools do not run out of descriptors. Returns the resulting
// soft limit.
func raiseFdLimit() (uint64, error) {
	var limit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
		return 0, err
	}
	if limit.Cur < limit.Max {
		limit.Cur = limit.Max
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &limit); err != nil {
			return 0, err
		}
	}
	return uint64(limit.Cur), nil
}
