package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/config"
	"github.com/leonfuss/mms-sub000/internal/daemon"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
	applogger "github.com/leonfuss/mms-sub000/pkg/logger"
)

const stopTimeout = 10 * time.Second

func newServiceCommand() *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Control the background daemon that follows your schedule",
	}

	serviceCmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install a systemd user unit (Linux) or launchd agent (macOS)",
			Args:  exactArgs(0),
			RunE:  withService(runServiceInstall),
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the installed unit",
			Args:  exactArgs(0),
			RunE:  withService(runServiceUninstall),
		},
		&cobra.Command{
			Use:   "start",
			Short: "Start the daemon in the background",
			Args:  exactArgs(0),
			RunE:  withService(runServiceStart),
		},
		&cobra.Command{
			Use:   "stop",
			Short: "Stop the running daemon",
			Args:  exactArgs(0),
			RunE:  withService(runServiceStop),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether the daemon is running",
			Args:  exactArgs(0),
			RunE:  withService(runServiceStatus),
		},
		&cobra.Command{
			Use:    "run",
			Short:  "Run the daemon in the foreground",
			Args:   exactArgs(0),
			Hidden: true,
			RunE:   runServiceRun,
		},
	)
	return serviceCmd
}

// withService 服务管理命令不需要打开数据库
func withService(fn func(cmd *cobra.Command, svc *daemon.Service) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := applogger.NewLogger(&cfg.Log)
		if err != nil {
			return apperr.Wrap(apperr.KindConfigParse, "logger", err)
		}
		defer logger.Sync()

		svc, err := daemon.NewService(cfg, "", logger)
		if err != nil {
			return err
		}
		return fn(cmd, svc)
	}
}

func runServiceInstall(cmd *cobra.Command, svc *daemon.Service) error {
	path, err := svc.Install()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	success(out, "Installed %s", path)
	switch runtime.GOOS {
	case "linux":
		fmt.Fprintln(out, faint("Enable it with: systemctl --user daemon-reload && systemctl --user enable --now mms.service"))
	case "darwin":
		fmt.Fprintln(out, faint("Load it with: launchctl load "+path))
	}
	return nil
}

func runServiceUninstall(cmd *cobra.Command, svc *daemon.Service) error {
	path, err := svc.Uninstall()
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Removed %s", path)
	return nil
}

func runServiceStart(cmd *cobra.Command, svc *daemon.Service) error {
	pid, err := svc.Start()
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Daemon started (pid %d)", pid)
	return nil
}

func runServiceStop(cmd *cobra.Command, svc *daemon.Service) error {
	pid, err := svc.Stop(stopTimeout)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Daemon stopped (pid %d)", pid)
	return nil
}

func runServiceStatus(cmd *cobra.Command, svc *daemon.Service) error {
	st := svc.Status()
	out := cmd.OutOrStdout()
	if st.Running {
		success(out, "Daemon is running (pid %d)", st.PID)
	} else {
		warn(out, "Daemon is not running")
	}
	if st.Installed {
		fmt.Fprintf(out, "Installed: %s\n", st.UnitPath)
	}
	fmt.Fprintf(out, "Log file: %s\n", orDash(st.LogFile))
	return nil
}

// runServiceRun 前台运行；日志写入 daemon.log_file
func runServiceRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := applogger.NewFileLogger(&cfg.Log, cfg.Daemon.LogFile)
	if err != nil {
		return apperr.Wrap(apperr.KindConfigParse, "logger", err)
	}
	defer logger.Sync()

	return runDaemon(cmd.Context(), cfg, logger)
}

func runDaemon(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	d := daemon.New(cfg, daemon.OpenDatabase(&cfg.Database, logger), logger)
	if err := d.Run(ctx); err != nil {
		logger.Error("daemon exited", zap.Error(err))
		return err
	}
	return nil
}
