//go:build unix
// +build unix

package lock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func flockTry(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// pidAlive probes a PID with the null signal. EPERM still means the process
// exists, we just may not signal it.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
