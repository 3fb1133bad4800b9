package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"text/template"
	"time"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/config"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 服务管理业务错误 ──
var ErrUnsupportedPlatform = apperr.New(apperr.KindUnsupportedPlatform, "background service is only supported on linux (systemd) and macOS (launchd)")

const (
	systemdUnitName = "mms.service"
	launchdLabel    = "com.mms.daemon"
)

var systemdUnit = template.Must(template.New("systemd").Parse(`[Unit]
Description=mms active course daemon
After=default.target

[Service]
Type=simple
ExecStart={{.Executable}}{{if .ConfigPath}} --config {{.ConfigPath}}{{end}} service run
Restart=on-failure
RestartSec=10

[Install]
WantedBy=default.target
`))

var launchdPlist = template.Must(template.New("launchd").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.Executable}}</string>
{{- if .ConfigPath}}
		<string>--config</string>
		<string>{{.ConfigPath}}</string>
{{- end}}
		<string>service</string>
		<string>run</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<dict>
		<key>SuccessfulExit</key>
		<false/>
	</dict>
	<key>StandardOutPath</key>
	<string>{{.LogFile}}</string>
	<key>StandardErrorPath</key>
	<string>{{.LogFile}}</string>
</dict>
</plist>
`))

type unitData struct {
	Label      string
	Executable string
	ConfigPath string
	LogFile    string
}

// ServiceStatus 后台进程状态
type ServiceStatus struct {
	Running   bool
	PID       int
	Installed bool
	UnitPath  string
	LogFile   string
}

// Service 安装、启动、停止后台进程
type Service struct {
	cfg        *config.Config
	pid        *PIDFile
	executable string
	goos       string
	homeDir    string
	logger     *zap.Logger
}

// NewService 创建 Service；executable 为空时取当前可执行文件
func NewService(cfg *config.Config, executable string, logger *zap.Logger) (*Service, error) {
	if executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindIO, "service.executable", err)
		}
		executable = exe
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindIO, "service.home", err)
	}
	return &Service{
		cfg:        cfg,
		pid:        NewPIDFile(cfg.Daemon.PIDFile),
		executable: executable,
		goos:       runtime.GOOS,
		homeDir:    home,
		logger:     logger,
	}, nil
}

// UnitPath systemd 用户单元或 launchd agent 文件路径
func (s *Service) UnitPath() (string, error) {
	switch s.goos {
	case "linux":
		return filepath.Join(s.homeDir, ".config", "systemd", "user", systemdUnitName), nil
	case "darwin":
		return filepath.Join(s.homeDir, "Library", "LaunchAgents", launchdLabel+".plist"), nil
	}
	return "", ErrUnsupportedPlatform
}

// ────────────────────── Install ──────────────────────

// Install 写入单元文件，返回其路径；已存在时覆盖
func (s *Service) Install() (string, error) {
	path, err := s.UnitPath()
	if err != nil {
		return "", err
	}
	tmpl := systemdUnit
	if s.goos == "darwin" {
		tmpl = launchdPlist
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, unitData{
		Label:      launchdLabel,
		Executable: s.executable,
		ConfigPath: s.cfg.Path,
		LogFile:    s.cfg.Daemon.LogFile,
	}); err != nil {
		return "", apperr.Wrap(apperr.KindIO, "service.render", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindIO, "service.install", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", apperr.Wrap(apperr.KindIO, "service.install", err)
	}
	s.logger.Info("service unit installed", zap.String("path", path))
	return path, nil
}

// ────────────────────── Uninstall ──────────────────────

// Uninstall 删除单元文件；文件不存在时不报错
func (s *Service) Uninstall() (string, error) {
	path, err := s.UnitPath()
	if err != nil {
		return "", err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", apperr.Wrap(apperr.KindIO, "service.uninstall", err)
	}
	return path, nil
}

// ────────────────────── Start ──────────────────────

// Start 以脱离终端的子进程运行 `mms service run`，返回子进程号
func (s *Service) Start() (int, error) {
	if pid, alive := s.pid.Alive(); alive {
		return pid, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	if err := os.MkdirAll(filepath.Dir(s.cfg.Daemon.LogFile), 0o755); err != nil {
		return 0, apperr.Wrap(apperr.KindIO, "service.start", err)
	}
	logFile, err := os.OpenFile(s.cfg.Daemon.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindIO, "service.start", err)
	}
	defer logFile.Close()

	args := []string{"service", "run"}
	if s.cfg.Path != "" {
		args = append([]string{"--config", s.cfg.Path}, args...)
	}
	cmd := exec.Command(s.executable, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, apperr.Wrap(apperr.KindIO, "service.start", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		s.logger.Warn("release child process failed", zap.Error(err))
	}
	return pid, nil
}

// ────────────────────── Stop ──────────────────────

// Stop 向后台进程发送 SIGTERM，并等待其删除 PID 文件（最多 timeout）
func (s *Service) Stop(timeout time.Duration) (int, error) {
	pid, alive := s.pid.Alive()
	if !alive {
		return 0, ErrNotRunning
	}
	if err := terminate(pid); err != nil {
		return pid, apperr.Wrap(apperr.KindIO, "service.stop", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, alive := s.pid.Alive(); !alive {
			return pid, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return pid, apperr.Newf(apperr.KindIO, "daemon (pid %d) did not exit within %s", pid, timeout)
}

// ────────────────────── Status ──────────────────────

func (s *Service) Status() *ServiceStatus {
	st := &ServiceStatus{LogFile: s.cfg.Daemon.LogFile}
	st.PID, st.Running = s.pid.Alive()
	if path, err := s.UnitPath(); err == nil {
		st.UnitPath = path
		if _, err := os.Stat(path); err == nil {
			st.Installed = true
		}
	}
	return st
}
