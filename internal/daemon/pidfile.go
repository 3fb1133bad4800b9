package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 守护进程状态错误 ──
var (
	ErrAlreadyRunning = apperr.New(apperr.KindAlreadyRunning, "daemon is already running")
	ErrNotRunning     = apperr.New(apperr.KindNotRunning, "daemon is not running")
)

// PIDFile 单实例锁：文件内容为持有者进程号
type PIDFile struct {
	Path string
}

// NewPIDFile 创建 PIDFile
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Acquire 写入当前进程号。持有者仍存活时返回 ErrAlreadyRunning；
// 进程已不存在（或内容无法解析）的旧文件直接替换。
func (p *PIDFile) Acquire() error {
	if pid, alive := p.Alive(); alive {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindIO, "pidfile.remove", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindIO, "pidfile.mkdir", err)
	}

	// O_EXCL：两个进程同时清理旧文件时只有一个能写入
	f, err := os.OpenFile(p.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyRunning
		}
		return apperr.Wrap(apperr.KindIO, "pidfile.create", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		return apperr.Wrap(apperr.KindIO, "pidfile.write", err)
	}
	return nil
}

// Release 删除 PID 文件；只删除属于当前进程的文件
func (p *PIDFile) Release() error {
	pid, err := p.Read()
	if err != nil || pid != os.Getpid() {
		return err
	}
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return apperr.Wrap(apperr.KindIO, "pidfile.release", err)
	}
	return nil
}

// Read 读取进程号；文件不存在时返回 0
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, apperr.Wrap(apperr.KindIO, "pidfile.read", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, apperr.Newf(apperr.KindValidation, "pid file %s is corrupt", p.Path)
	}
	return pid, nil
}

// Alive 返回文件中的进程号及该进程是否存活
func (p *PIDFile) Alive() (int, bool) {
	pid, err := p.Read()
	if err != nil || pid == 0 {
		return 0, false
	}
	return pid, processAlive(pid)
}
