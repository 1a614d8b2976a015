//go:build windows
// +build windows

package runner

// raiseFdLimit is a no-op, socket handles are not rlimited on windows.
func raiseFdLimit() (uint64, error) {
	return 0, nil
}
