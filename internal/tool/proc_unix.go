//go:build !windows

package tool

import (
	"os/exec"
	"syscall"
)

// processTree is the child and everything it spawns, tracked as a process group.
type processTree struct {
	cmd *exec.Cmd
}

func newProcessTree(cmd *exec.Cmd) *processTree {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return &processTree{cmd: cmd}
}

// attach runs after Start. The group already exists on Unix.
func (p *processTree) attach() error { return nil }

// kill kills the child and everything it spawned.
func (p *processTree) kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-p.cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return p.cmd.Process.Kill()
	}
	return nil
}

func (p *processTree) release() {}
