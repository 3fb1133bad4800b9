//go:build windows

package daemon

import (
	"os"
	"os/exec"
)

func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

func detach(cmd *exec.Cmd) {}
