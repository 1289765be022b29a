//go:build unix

package runner

import "syscall"

// detachAttr puts the child in its own session so it survives the parent
// and never shares its controlling terminal.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
