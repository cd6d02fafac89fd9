//go:build windows

package process

import (
	"os"
	"os/exec"
)

func newProcessGroup(*exec.Cmd) {
}

func terminateGroup(p *os.Process) error {
	return p.Kill()
}
