//go:build !windows

package daemon

import (
	"errors"
	"os/exec"
	"syscall"
)

// processAlive kill(pid, 0)：EPERM 说明进程存在但属于其他用户
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

// detach 使子进程脱离当前终端会话
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
