package service

import (
	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/config"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/symlink"
	"github.com/leonfuss/mms-sub000/internal/workspace"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Semester SemesterService
	Course   CourseService
	Degree   DegreeService
	Grade    GradeService
	Schedule ScheduleService
	Holiday  HolidayService
	Stats    StatsService
	Export   ExportService
	Pointer  PointerService

	// 磁盘 ↔ 数据库对账
	Workspace *workspace.Reconciler
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	paths := workspace.NewPaths(cfg.Workspace.BasePath)
	links := symlink.NewManager(cfg.SymlinkDir(), cfg.Workspace.CurrentSemesterLink, cfg.Workspace.CurrentCourseLink)
	pointer := NewPointerService(repo, paths, links, logger)

	return &Service{
		Semester:  NewSemesterService(repo, paths, logger),
		Course:    NewCourseService(repo, paths, pointer, logger),
		Degree:    NewDegreeService(repo, logger),
		Grade:     NewGradeService(repo, logger),
		Schedule:  NewScheduleService(repo, logger),
		Holiday:   NewHolidayService(repo, logger),
		Stats:     NewStatsService(repo, logger),
		Export:    NewExportService(repo, logger),
		Pointer:   pointer,
		Workspace: workspace.NewReconciler(paths, repo.Semester, repo.Course, logger),
	}
}
