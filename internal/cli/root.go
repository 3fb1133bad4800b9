// Package cli mms 命令行入口：cobra 命令树，每个命令打开配置与数据库后调用 service 层。
package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/config"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/service"
	"github.com/leonfuss/mms-sub000/pkg/database"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
	applogger "github.com/leonfuss/mms-sub000/pkg/logger"
)

// NewRootCommand 构建完整命令树
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mms",
		Short:         "Manage semesters, courses, schedules and grades of your studies",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: <user config dir>/mms/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.Wrap(apperr.KindValidation, "flags", err)
	})

	rootCmd.AddCommand(
		newConfigCommand(),
		newSemesterCommand(),
		newCourseCommand(),
		newScheduleCommand(),
		newHolidayCommand(),
		newDegreeCommand(),
		newTodayCommand(),
		newStatusCommand(),
		newSyncCommand(),
		newServiceCommand(),
		newStatsCommand(),
	)
	return rootCmd
}

// Execute 运行命令并返回进程退出码
func Execute(version string) int {
	rootCmd := NewRootCommand(version)
	if err := rootCmd.Execute(); err != nil {
		failure(rootCmd.ErrOrStderr(), "%v", err)
		return apperr.ExitCode(err)
	}
	return 0
}

// ── 运行环境 ──

// app 单次命令执行所需的依赖
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *gorm.DB
	repo   *repository.Repository
	svc    *service.Service
}

// loadConfig 加载配置；必填项缺失且在终端中运行时进入交互式补全并写回
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if cfg == nil || apperr.KindOf(err) != apperr.KindMissingConfigField {
		return nil, err
	}

	p := newPrompter(cmd)
	if !p.interactive {
		return nil, err
	}
	warn(cmd.ErrOrStderr(), "%v", err)
	if err := runSetup(p, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Save(cfg.Path); err != nil {
		return nil, err
	}
	success(cmd.ErrOrStderr(), "Config written to %s", cfg.Path)
	return cfg, cfg.Validate()
}

func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfigParse, "logger", err)
	}
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Sync()
		return nil, apperr.Wrap(apperr.KindStorage, "database.open", err)
	}
	repo := repository.NewRepository(db)

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		repo:   repo,
		svc:    service.NewService(cfg, repo, logger),
	}, nil
}

func (a *app) Close() {
	if err := database.Close(a.db); err != nil {
		a.logger.Warn("关闭数据库失败", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// withApp 为 RunE 打开依赖并在返回后关闭
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}

// ── 参数辅助 ──

// exactArgs 同 cobra.ExactArgs，错误归类为校验错误
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return apperr.Wrap(apperr.KindValidation, cmd.Name(), err)
		}
		return nil
	}
}

func rangeArgs(min, max int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(min, max)(cmd, args); err != nil {
			return apperr.Wrap(apperr.KindValidation, cmd.Name(), err)
		}
		return nil
	}
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation(what, fmt.Sprintf("%q is not a valid id", s))
	}
	return id, nil
}

// optionalString 仅当 flag 被显式设置时返回其值
func optionalString(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func optionalInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func optionalBool(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func optionalFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func optionalID(cmd *cobra.Command, name string) *int64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt64(name)
	return &v
}

func stdinIsTerminal() bool {
	return isTerminal(os.Stdin)
}
