package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

// StatsService GPA 与学习进度统计
//
// GPA 口径：每门课取最近一次最终成绩，只统计已通过且可换算为德式成绩的（Pass/Fail 不计），
// 按 ECTS 加权。默认排除只映射到 counts_towards_gpa = false 模块的课程；
// includeNonGPA 为 true 时不做此排除。未映射到任何学位的课程计入总 GPA 与学期 GPA。
type StatsService interface {
	OverallGPA(ctx context.Context, includeNonGPA bool) (*dto.GPAResult, error)
	SemesterGPA(ctx context.Context, code string, includeNonGPA bool) (*dto.GPAResult, error)
	DegreeGPA(ctx context.Context, degreeID int64, includeNonGPA bool) (*dto.GPAResult, error)
	AreaGPA(ctx context.Context, areaID int64, includeNonGPA bool) (*dto.GPAResult, error)
	Summary(ctx context.Context) (*dto.StatsSummary, error)
}

type statsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(repo *repository.Repository, logger *zap.Logger) StatsService {
	return &statsService{repo: repo, logger: logger}
}

// gpaEntry 参与 GPA 计算的一门课
type gpaEntry struct {
	german float64
	ects   float64
}

// ────────────────────── OverallGPA ──────────────────────

func (s *statsService) OverallGPA(ctx context.Context, includeNonGPA bool) (*dto.GPAResult, error) {
	latest, err := s.latestFinal(ctx)
	if err != nil {
		return nil, err
	}
	excluded, err := s.nonGPACourses(ctx, includeNonGPA)
	if err != nil {
		return nil, err
	}

	var entries []gpaEntry
	for _, g := range latest {
		if excluded[g.CourseID] {
			continue
		}
		if e, ok := entryOf(g, nil); ok {
			entries = append(entries, e)
		}
	}
	return result("overall", entries), nil
}

// ────────────────────── SemesterGPA ──────────────────────

func (s *statsService) SemesterGPA(ctx context.Context, code string, includeNonGPA bool) (*dto.GPAResult, error) {
	semester, err := getSemester(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	latest, err := s.latestFinal(ctx)
	if err != nil {
		return nil, err
	}
	excluded, err := s.nonGPACourses(ctx, includeNonGPA)
	if err != nil {
		return nil, err
	}
	return semesterResult(semester, latest, excluded), nil
}

// ────────────────────── DegreeGPA ──────────────────────

// DegreeGPA 只统计映射到该学位的课程；ECTS 优先取映射上的 ects_override
func (s *statsService) DegreeGPA(ctx context.Context, degreeID int64, includeNonGPA bool) (*dto.GPAResult, error) {
	mappings, err := s.degreeMappings(ctx, degreeID)
	if err != nil {
		return nil, err
	}
	latest, err := s.latestFinal(ctx)
	if err != nil {
		return nil, err
	}

	var entries []gpaEntry
	for _, m := range mappings {
		if !includeNonGPA && m.Area != nil && !m.Area.CountsTowardsGPA {
			continue
		}
		g, ok := latest[m.CourseID]
		if !ok {
			continue
		}
		if e, ok := entryOf(g, m.ECTSOverride); ok {
			entries = append(entries, e)
		}
	}
	return result(fmt.Sprintf("degree:%d", degreeID), entries), nil
}

// ────────────────────── AreaGPA ──────────────────────

func (s *statsService) AreaGPA(ctx context.Context, areaID int64, includeNonGPA bool) (*dto.GPAResult, error) {
	area, err := s.repo.Degree.GetArea(ctx, areaID)
	if err != nil {
		return nil, notFoundOr(err, ErrAreaNotFound, idKey(areaID), "stats.area")
	}
	scope := fmt.Sprintf("area:%d", areaID)
	if !area.CountsTowardsGPA && !includeNonGPA {
		return result(scope, nil), nil
	}

	mappings, err := s.degreeMappings(ctx, area.DegreeID)
	if err != nil {
		return nil, err
	}
	latest, err := s.latestFinal(ctx)
	if err != nil {
		return nil, err
	}

	var entries []gpaEntry
	for _, m := range mappings {
		if m.AreaID != areaID {
			continue
		}
		g, ok := latest[m.CourseID]
		if !ok {
			continue
		}
		if e, ok := entryOf(g, m.ECTSOverride); ok {
			entries = append(entries, e)
		}
	}
	return result(scope, entries), nil
}

// ────────────────────── Summary ──────────────────────

func (s *statsService) Summary(ctx context.Context) (*dto.StatsSummary, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		return nil, storageErr("stats.semesters", err)
	}
	latest, err := s.latestFinal(ctx)
	if err != nil {
		return nil, err
	}
	excluded, err := s.nonGPACourses(ctx, false)
	if err != nil {
		return nil, err
	}
	overall, err := s.OverallGPA(ctx, false)
	if err != nil {
		return nil, err
	}

	summary := &dto.StatsSummary{Overall: *overall}
	for i := range semesters {
		sem := &semesters[i]
		courses, err := s.repo.Course.ListBySemester(ctx, sem.ID)
		if err != nil {
			return nil, storageErr("stats.courses", err)
		}

		row := dto.SemesterSummary{Code: sem.Code()}
		for _, c := range courses {
			if c.IsDropped {
				continue
			}
			row.Courses++
			row.ECTS += c.ECTS

			g, ok := latest[c.ID]
			switch {
			case !ok:
				summary.Ungraded++
			case g.Passed:
				summary.Passed++
				row.EarnedECTS += c.ECTS
			default:
				summary.Failed++
			}
		}
		if gpa := semesterResult(sem, latest, excluded); gpa.HasData {
			row.GPA = gpa
		}
		summary.EarnedECTS += row.EarnedECTS
		summary.Semesters = append(summary.Semesters, row)
	}
	return summary, nil
}

// ── 辅助函数 ──

// latestFinal 每门课最近一次最终成绩（recorded_at 最新，其次 id 最大）
func (s *statsService) latestFinal(ctx context.Context) (map[int64]model.Grade, error) {
	grades, err := s.repo.Grade.ListFinal(ctx)
	if err != nil {
		s.logger.Error("查询最终成绩失败", zap.Error(err))
		return nil, storageErr("stats.grades", err)
	}
	latest := make(map[int64]model.Grade, len(grades))
	for _, g := range grades {
		prev, ok := latest[g.CourseID]
		if !ok || g.RecordedAt.After(prev.RecordedAt) ||
			(g.RecordedAt.Equal(prev.RecordedAt) && g.ID > prev.ID) {
			latest[g.CourseID] = g
		}
	}
	return latest, nil
}

// nonGPACourses 只映射到不计 GPA 模块的课程；includeNonGPA 时为空
func (s *statsService) nonGPACourses(ctx context.Context, includeNonGPA bool) (map[int64]bool, error) {
	excluded := make(map[int64]bool)
	if includeNonGPA {
		return excluded, nil
	}
	degrees, err := s.repo.Degree.List(ctx)
	if err != nil {
		return nil, storageErr("stats.degrees", err)
	}

	counts := make(map[int64]bool)
	for _, d := range degrees {
		mappings, err := s.repo.Degree.ListMappings(ctx, d.ID)
		if err != nil {
			return nil, storageErr("stats.mappings", err)
		}
		for _, m := range mappings {
			if m.Area == nil || m.Area.CountsTowardsGPA {
				counts[m.CourseID] = true
			} else if !counts[m.CourseID] {
				excluded[m.CourseID] = true
			}
		}
	}
	for id := range counts {
		delete(excluded, id)
	}
	return excluded, nil
}

func (s *statsService) degreeMappings(ctx context.Context, degreeID int64) ([]model.CourseDegreeMapping, error) {
	if _, err := s.repo.Degree.GetByID(ctx, degreeID); err != nil {
		return nil, notFoundOr(err, ErrDegreeNotFound, idKey(degreeID), "stats.degree")
	}
	mappings, err := s.repo.Degree.ListMappings(ctx, degreeID)
	if err != nil {
		return nil, storageErr("stats.mappings", err)
	}
	return mappings, nil
}

func semesterResult(sem *model.Semester, latest map[int64]model.Grade, excluded map[int64]bool) *dto.GPAResult {
	var entries []gpaEntry
	for _, g := range latest {
		if g.Course == nil || g.Course.SemesterID != sem.ID || excluded[g.CourseID] {
			continue
		}
		if e, ok := entryOf(g, nil); ok {
			entries = append(entries, e)
		}
	}
	return result("semester:"+sem.Code(), entries)
}

// entryOf 通过且可换算为德式的成绩才参与 GPA
func entryOf(g model.Grade, ectsOverride *int) (gpaEntry, bool) {
	if !g.Passed || g.Course == nil {
		return gpaEntry{}, false
	}
	german, ok := g.German()
	if !ok {
		return gpaEntry{}, false
	}
	ects := g.Course.ECTS
	if ectsOverride != nil {
		ects = *ectsOverride
	}
	return gpaEntry{german: german, ects: float64(ects)}, true
}

func result(scope string, entries []gpaEntry) *dto.GPAResult {
	items := make([]grading.Weighted, 0, len(entries))
	for _, e := range entries {
		items = append(items, grading.Weighted{Grade: e.german, ECTS: e.ects})
	}
	gpa, total, ok := grading.GPA(items)
	return &dto.GPAResult{
		Scope:   scope,
		GPA:     round2(gpa),
		ECTS:    total,
		Courses: len(entries),
		HasData: ok,
	}
}
