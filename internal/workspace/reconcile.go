package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
)

// SemesterKey 由目录名解析出的学期标识
type SemesterKey struct {
	Type   model.SemesterType
	Number int
}

// Code 学期短码
func (k SemesterKey) Code() string { return model.SemesterCode(k.Type, k.Number) }

// DiskEntry 磁盘上存在、数据库中没有的目录
type DiskEntry struct {
	Name   string
	Path   string
	Parsed *SemesterKey // 目录名无法解析为学期短码时为 nil
}

// Status 学期级三路对比结果，三个集合互不相交
type Status struct {
	Synced   []model.Semester
	DBOnly   []model.Semester
	DiskOnly []DiskEntry
}

// CourseStatus 某学期下课程级的三路对比结果
type CourseStatus struct {
	Synced   []model.Course
	DBOnly   []model.Course
	DiskOnly []DiskEntry
}

// SyncActionKind 同步动作类型
type SyncActionKind string

const (
	ActionCreateFolder    SyncActionKind = "create folder"
	ActionWriteDescriptor SyncActionKind = "write descriptor"
)

// SyncAction 单个同步动作；Err 非空表示执行失败
type SyncAction struct {
	Kind SyncActionKind
	Path string
	Err  error
}

func (a SyncAction) String() string {
	return fmt.Sprintf("%s %s", a.Kind, a.Path)
}

// SyncReport 同步结果；单项失败不回滚其他已完成的动作
type SyncReport struct {
	DryRun  bool
	Actions []SyncAction
}

// NothingToDo 没有需要执行的动作
func (r *SyncReport) NothingToDo() bool { return len(r.Actions) == 0 }

// Failed 执行失败的动作
func (r *SyncReport) Failed() []SyncAction {
	var out []SyncAction
	for _, a := range r.Actions {
		if a.Err != nil {
			out = append(out, a)
		}
	}
	return out
}

// Reconciler 检测并修复数据库与工作区目录之间的不一致
type Reconciler struct {
	paths     Paths
	semesters repository.SemesterRepository
	courses   repository.CourseRepository
	logger    *zap.Logger
}

// NewReconciler 创建 Reconciler
func NewReconciler(paths Paths, semesters repository.SemesterRepository, courses repository.CourseRepository, logger *zap.Logger) *Reconciler {
	return &Reconciler{paths: paths, semesters: semesters, courses: courses, logger: logger}
}

// CheckStatus 对比数据库中的学期与 base 下的目录
func (r *Reconciler) CheckStatus(ctx context.Context) (*Status, error) {
	semesters, err := r.semesters.List(ctx)
	if err != nil {
		r.logger.Error("查询学期列表失败", zap.Error(err))
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	dirs, err := listDirs(r.paths.Base)
	if err != nil {
		return nil, fmt.Errorf("read workspace %s: %w", r.paths.Base, err)
	}

	status := &Status{}
	known := make(map[string]bool, len(semesters))
	for _, s := range semesters {
		code := s.Code()
		known[code] = true
		if dirs[code] {
			status.Synced = append(status.Synced, s)
		} else {
			status.DBOnly = append(status.DBOnly, s)
		}
	}
	for name := range dirs {
		if known[name] {
			continue
		}
		entry := DiskEntry{Name: name, Path: r.paths.SemesterDir(name)}
		if t, n, ok := ParseSemesterCode(name); ok {
			entry.Parsed = &SemesterKey{Type: t, Number: n}
		}
		status.DiskOnly = append(status.DiskOnly, entry)
	}
	sort.Slice(status.DiskOnly, func(i, j int) bool { return status.DiskOnly[i].Name < status.DiskOnly[j].Name })
	return status, nil
}

// CheckCourses 对比某学期的课程与学期目录下的子目录
func (r *Reconciler) CheckCourses(ctx context.Context, semester *model.Semester) (*CourseStatus, error) {
	courses, err := r.courses.ListBySemester(ctx, semester.ID)
	if err != nil {
		r.logger.Error("查询课程列表失败", zap.Int64("semester_id", semester.ID), zap.Error(err))
		return nil, fmt.Errorf("list courses: %w", err)
	}
	semDir := r.paths.SemesterDirOf(semester)
	dirs, err := listDirs(semDir)
	if err != nil {
		return nil, fmt.Errorf("read semester directory %s: %w", semDir, err)
	}

	status := &CourseStatus{}
	known := make(map[string]bool, len(courses))
	for _, c := range courses {
		known[c.ShortName] = true
		if c.OwnsDirectory() {
			if dirs[c.ShortName] {
				status.Synced = append(status.Synced, c)
			} else {
				status.DBOnly = append(status.DBOnly, c)
			}
			continue
		}
		// 外部课程：检查其原始路径
		if isDir(*c.OriginalPath) {
			status.Synced = append(status.Synced, c)
		} else {
			status.DBOnly = append(status.DBOnly, c)
		}
	}
	for name := range dirs {
		if !known[name] {
			status.DiskOnly = append(status.DiskOnly, DiskEntry{Name: name, Path: r.paths.CourseDir(semester.Code(), name)})
		}
	}
	sort.Slice(status.DiskOnly, func(i, j int) bool { return status.DiskOnly[i].Name < status.DiskOnly[j].Name })
	return status, nil
}

// SyncToFilesystem 为仅存在于数据库的学期创建目录，并补齐缺失的课程目录与描述文件。
// dryRun 时只报告动作。再次执行时没有任何动作。
func (r *Reconciler) SyncToFilesystem(ctx context.Context, dryRun bool) (*SyncReport, error) {
	status, err := r.CheckStatus(ctx)
	if err != nil {
		return nil, err
	}
	report := &SyncReport{DryRun: dryRun}

	semesters := append(append([]model.Semester{}, status.DBOnly...), status.Synced...)
	sort.Slice(semesters, func(i, j int) bool { return semesters[i].Code() < semesters[j].Code() })

	for i := range semesters {
		s := &semesters[i]
		dir := r.paths.SemesterDirOf(s)
		if !isDir(dir) {
			report.add(r.perform(ActionCreateFolder, dir, dryRun, func() error {
				return os.MkdirAll(dir, 0o755)
			}))
		}
		if !HasDescriptor(dir, SemesterDescriptorName) {
			report.add(r.perform(ActionWriteDescriptor, filepath.Join(dir, SemesterDescriptorName), dryRun, func() error {
				_, err := WriteSemesterDescriptor(dir, s)
				return err
			}))
		}

		courses, err := r.courses.ListBySemester(ctx, s.ID)
		if err != nil {
			r.logger.Error("查询课程列表失败", zap.Int64("semester_id", s.ID), zap.Error(err))
			return report, fmt.Errorf("list courses of %s: %w", s.Code(), err)
		}
		for j := range courses {
			c := &courses[j]
			if !c.OwnsDirectory() {
				continue
			}
			cdir := r.paths.CourseDir(s.Code(), c.ShortName)
			if !isDir(cdir) {
				report.add(r.perform(ActionCreateFolder, cdir, dryRun, func() error {
					return os.MkdirAll(cdir, 0o755)
				}))
			}
			if !HasDescriptor(cdir, CourseDescriptorName) {
				report.add(r.perform(ActionWriteDescriptor, filepath.Join(cdir, CourseDescriptorName), dryRun, func() error {
					_, err := WriteCourseDescriptor(cdir, c)
					return err
				}))
			}
		}
	}
	return report, nil
}

func (r *Reconciler) perform(kind SyncActionKind, path string, dryRun bool, fn func() error) SyncAction {
	a := SyncAction{Kind: kind, Path: path}
	if dryRun {
		return a
	}
	if err := fn(); err != nil {
		r.logger.Warn("同步动作失败", zap.String("action", string(kind)), zap.String("path", path), zap.Error(err))
		a.Err = err
	}
	return a
}

func (r *SyncReport) add(a SyncAction) {
	r.Actions = append(r.Actions, a)
}

// listDirs 列出 dir 下的非隐藏子目录（符号链接不计）；dir 不存在时返回空集合
func listDirs(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	out := make(map[string]bool, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out[e.Name()] = true
	}
	return out, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
