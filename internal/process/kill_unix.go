//go:build !windows

// Package process terminates browser process trees left behind by a backend.
package process

import "syscall"

// KillTree sends SIGKILL to the process group led by pid. Chrome spawns
// renderer and GPU helpers in its group, so killing only pid leaks them.
// Non-positive pids are ignored.
func KillTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
