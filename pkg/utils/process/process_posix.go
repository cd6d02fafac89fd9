//go:build !windows

package process

import (
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

func newProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
}

// terminateGroup sends SIGTERM to the group led by p so that shell commands do
// not leave their children behind.
func terminateGroup(p *os.Process) error {
	pgid, err := unix.Getpgid(p.Pid)
	if err != nil {
		return err
	}
	if pgid != p.Pid {
		return p.Signal(unix.SIGTERM)
	}
	return unix.Kill(-pgid, unix.SIGTERM)
}
