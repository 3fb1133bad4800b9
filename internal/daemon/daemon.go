// Package daemon 后台进程：按固定间隔判定当前课程，并维护数据库中的当前指针与两个符号链接。
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/config"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/resolver"
	"github.com/leonfuss/mms-sub000/internal/service"
	"github.com/leonfuss/mms-sub000/internal/symlink"
	"github.com/leonfuss/mms-sub000/internal/workspace"
	"github.com/leonfuss/mms-sub000/pkg/database"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// errorQuietPeriod 同一错误在该时间内只记录一次 error 级日志
const errorQuietPeriod = 15 * time.Minute

// RepoOpener 为一次 tick 打开数据库，返回的 close 由调用方负责
type RepoOpener func(ctx context.Context) (repo *repository.Repository, closeFn func(), err error)

// OpenDatabase 每次调用都打开新的数据库连接
func OpenDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) RepoOpener {
	return func(ctx context.Context) (*repository.Repository, func(), error) {
		db, err := database.NewDB(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRepository(db), func() { database.Close(db) }, nil
	}
}

// Transition 一次 tick 对当前课程做出的改变
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionStarted  Transition = "started"  // 无 → 课程
	TransitionSwitched Transition = "switched" // 课程 a → 课程 b
	TransitionStopped  Transition = "stopped"  // 课程 → 无
	TransitionSemester Transition = "semester" // 仅当前学期变化
)

// TickResult 一次 tick 的结果
type TickResult struct {
	ID         string
	Decision   resolver.Decision
	Transition Transition
	From       *model.Course
	To         *model.Course
	Repaired   bool // 指针未变，但链接被修复
}

// Daemon 当前课程守护进程
type Daemon struct {
	interval time.Duration
	openRepo RepoOpener
	paths    workspace.Paths
	links    *symlink.Manager
	pid      *PIDFile
	logger   *zap.Logger

	errs     *cache.Cache
	stopping atomic.Bool
	now      func() time.Time
}

// New 创建 Daemon
func New(cfg *config.Config, openRepo RepoOpener, logger *zap.Logger) *Daemon {
	return &Daemon{
		interval: cfg.Daemon.CheckInterval,
		openRepo: openRepo,
		paths:    workspace.NewPaths(cfg.Workspace.BasePath),
		links:    symlink.NewManager(cfg.SymlinkDir(), cfg.Workspace.CurrentSemesterLink, cfg.Workspace.CurrentCourseLink),
		pid:      NewPIDFile(cfg.Daemon.PIDFile),
		logger:   logger,
		errs:     cache.New(errorQuietPeriod, 2*errorQuietPeriod),
		now:      time.Now,
	}
}

// ═══════════════════════════════════════════════════════════
// Run 前台运行直到收到 SIGINT/SIGTERM 或 ctx 结束。
//
// 启动时获取 PID 文件，随即执行一次 tick，此后每 interval 执行一次；
// 上一次 tick 未结束时跳过本次。收到信号后置位停止标志，等待进行中的
// tick 完成，删除 PID 文件并返回 nil。
// ═══════════════════════════════════════════════════════════
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.pid.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := d.pid.Release(); err != nil {
			d.logger.Warn("failed to remove pid file", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{d.logger.Sugar()})))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", d.interval), func() { d.runTick(ctx) }); err != nil {
		return apperr.Wrap(apperr.KindConfigParse, "daemon.schedule", err)
	}

	d.logger.Info("daemon started",
		zap.Int("pid", os.Getpid()),
		zap.Duration("interval", d.interval),
	)
	d.runTick(ctx)
	c.Start()

	select {
	case sig := <-sigCh:
		d.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		d.logger.Info("context cancelled, shutting down")
	}
	d.stopping.Store(true)

	// 等待进行中的 tick 结束
	<-c.Stop().Done()
	d.logger.Info("daemon stopped")
	return nil
}

// runTick 执行 tick 并吞掉错误；停止标志置位后不再开始新的 tick
func (d *Daemon) runTick(ctx context.Context) {
	if d.stopping.Load() {
		return
	}
	res, err := d.Tick(ctx)
	if err != nil {
		d.reportError(res, err)
	}
}

func (d *Daemon) reportError(res *TickResult, err error) {
	fields := []zap.Field{zap.Error(err)}
	if res != nil {
		fields = append(fields, zap.String("tick_id", res.ID))
	}
	key := err.Error()
	if _, seen := d.errs.Get(key); seen {
		d.logger.Debug("tick failed (repeated)", fields...)
		return
	}
	d.errs.Set(key, struct{}{}, cache.DefaultExpiration)
	d.logger.Error("tick failed", fields...)
}

// ═══════════════════════════════════════════════════════════
// Tick 执行一次判定：打开数据库 → 判定当前课程 → 与指针比较。
// 课程变化时先写数据库再更新链接；未变化时按指针校正链接。
// ═══════════════════════════════════════════════════════════
func (d *Daemon) Tick(ctx context.Context) (*TickResult, error) {
	res := &TickResult{ID: uuid.NewString(), Transition: TransitionNone}
	logger := d.logger.With(zap.String("tick_id", res.ID))

	repo, closeFn, err := d.openRepo(ctx)
	if err != nil {
		return res, apperr.Wrap(apperr.KindStorage, "daemon.open", err)
	}
	defer closeFn()

	now := d.now()
	snap, err := resolver.LoadSnapshot(ctx, repo, dates.DateOf(now))
	if err != nil {
		return res, apperr.Wrap(apperr.KindStorage, "daemon.snapshot", err)
	}
	res.Decision = resolver.Decide(snap, now)

	pointers := service.NewPointerService(repo, d.paths, d.links, logger)
	state, err := pointers.Get(ctx)
	if err != nil {
		return res, err
	}
	res.From = state.Course

	from := state.CourseID()
	var to *int64
	if res.Decision.Active() {
		id := res.Decision.CourseID
		to = &id
		res.To, _ = snap.Course(id)
	}

	switch {
	case !model.SameCourse(from, to):
		res.Transition = classify(from, to)
		_, err := pointers.Activate(ctx, to, res.Decision.ScheduleID)
		// 数据库已写入即视为发生了切换；链接失败由下一次 tick 修复
		if err == nil || apperr.KindOf(err) == apperr.KindIO {
			d.logTransition(logger, res, from)
		}
		return res, err
	case to == nil && !sameSemester(state, snap):
		res.Transition = TransitionSemester
		if _, err := pointers.Activate(ctx, nil, nil); err != nil {
			return res, err
		}
		logger.Info("Current semester changed", zap.String("semester", semesterCode(snap.Semester)))
		return res, nil
	}

	res.Repaired, err = pointers.Repair(ctx)
	return res, err
}

func (d *Daemon) logTransition(logger *zap.Logger, res *TickResult, from *int64) {
	switch res.Transition {
	case TransitionStarted:
		logger.Info("Course started: " + courseName(res.To, res.Decision.CourseID))
	case TransitionSwitched:
		logger.Info(fmt.Sprintf("Switched: %s → %s", courseName(res.From, *from), courseName(res.To, res.Decision.CourseID)))
	case TransitionStopped:
		logger.Info(fmt.Sprintf("No active course (was: %s)", courseName(res.From, *from)))
	}
}

func classify(from, to *int64) Transition {
	switch {
	case from == nil && to != nil:
		return TransitionStarted
	case from != nil && to == nil:
		return TransitionStopped
	case from != nil && to != nil && *from != *to:
		return TransitionSwitched
	}
	return TransitionNone
}

func sameSemester(state *service.PointerState, snap *resolver.Snapshot) bool {
	var current *int64
	if snap.Semester != nil {
		current = &snap.Semester.ID
	}
	var pointed *int64
	if state.Pointer != nil {
		pointed = state.Pointer.SemesterID
	}
	return model.SameCourse(pointed, current)
}

func courseName(c *model.Course, id int64) string {
	if c == nil {
		return fmt.Sprintf("#%d", id)
	}
	return c.Name
}

func semesterCode(s *model.Semester) string {
	if s == nil {
		return "-"
	}
	return s.Code()
}

// cronLogger 将 cron 内部日志接到 zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
