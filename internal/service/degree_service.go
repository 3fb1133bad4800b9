package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 学位模块业务错误 ──

var (
	ErrDegreeNotFound  = apperr.New(apperr.KindNotFound, "degree not found")
	ErrDegreeDateRange = apperr.New(apperr.KindDateRange, "degree start date must be before its expected end date")
	ErrDegreeECTS      = apperr.New(apperr.KindValidation, "total ECTS is out of range for the degree type")
	ErrAreaNotFound    = apperr.New(apperr.KindNotFound, "degree area not found")
	ErrAreaNotInDegree = apperr.New(apperr.KindValidation, "degree area does not belong to the degree")
	ErrAreaExists      = apperr.New(apperr.KindValidation, "degree area already exists")
	ErrMappingNotFound = apperr.New(apperr.KindNotFound, "course is not mapped to the degree")
)

// DegreeService 学位业务接口
type DegreeService interface {
	Create(ctx context.Context, req *dto.CreateDegreeRequest) (*model.Degree, error)
	List(ctx context.Context) ([]model.Degree, error)
	Get(ctx context.Context, id int64) (*model.Degree, error)
	Delete(ctx context.Context, id int64) error
	AddArea(ctx context.Context, degreeID int64, req *dto.CreateAreaRequest) (*model.DegreeArea, error)
	MapCourse(ctx context.Context, req *dto.MapCourseRequest) (*model.CourseDegreeMapping, error)
	UnmapCourse(ctx context.Context, courseID, degreeID int64) error
	Mappings(ctx context.Context, degreeID int64) ([]model.CourseDegreeMapping, error)
	Progress(ctx context.Context, degreeID int64) (*dto.DegreeProgressResponse, error)
	// Unmapped 尚未映射到任何学位的课程
	Unmapped(ctx context.Context) ([]model.Course, error)
}

type degreeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDegreeService 创建 DegreeService 实例
func NewDegreeService(repo *repository.Repository, logger *zap.Logger) DegreeService {
	return &degreeService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *degreeService) Create(ctx context.Context, req *dto.CreateDegreeRequest) (*model.Degree, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	degreeType, err := model.ParseDegreeType(req.Type)
	if err != nil {
		return nil, apperr.Validation("type", err.Error())
	}
	if lo, hi := degreeType.ECTSBounds(); req.TotalECTSRequired < lo || req.TotalECTSRequired > hi {
		return nil, fmt.Errorf("%w: %s requires between %d and %d ECTS, got %d",
			ErrDegreeECTS, degreeType, lo, hi, req.TotalECTSRequired)
	}

	start, err := dates.ParseGerman(req.StartDate)
	if err != nil {
		return nil, apperr.Validation("start_date", err.Error())
	}
	end, err := dates.ParseGerman(req.ExpectedEndDate)
	if err != nil {
		return nil, apperr.Validation("expected_end_date", err.Error())
	}
	if !start.Before(end) {
		return nil, ErrDegreeDateRange
	}

	degree := &model.Degree{
		Type:              degreeType,
		Name:              req.Name,
		University:        req.University,
		TotalECTSRequired: req.TotalECTSRequired,
		StartDate:         start,
		ExpectedEndDate:   end,
		IsActive:          true,
	}
	for i, a := range req.Areas {
		order := a.DisplayOrder
		if order == 0 {
			order = i + 1
		}
		degree.Areas = append(degree.Areas, model.DegreeArea{
			CategoryName:     a.CategoryName,
			RequiredECTS:     a.RequiredECTS,
			CountsTowardsGPA: a.CountsTowardsGPA,
			DisplayOrder:     order,
		})
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Degree.Create(ctx, degree); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrAreaExists
			}
			return storageErr("degree.create", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("创建学位失败", zap.String("name", req.Name), zap.Error(err))
		return nil, err
	}
	return degree, nil
}

// ────────────────────── List / Get ──────────────────────

func (s *degreeService) List(ctx context.Context) ([]model.Degree, error) {
	degrees, err := s.repo.Degree.List(ctx)
	if err != nil {
		s.logger.Error("列出学位失败", zap.Error(err))
		return nil, storageErr("degree.list", err)
	}
	return degrees, nil
}

func (s *degreeService) Get(ctx context.Context, id int64) (*model.Degree, error) {
	degree, err := s.repo.Degree.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrDegreeNotFound, idKey(id), "degree.get")
	}
	return degree, nil
}

// ────────────────────── Delete ──────────────────────

func (s *degreeService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Degree.Delete(ctx, id); err != nil {
		s.logger.Error("删除学位失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("degree.delete", err)
	}
	return nil
}

// ────────────────────── AddArea ──────────────────────

func (s *degreeService) AddArea(ctx context.Context, degreeID int64, req *dto.CreateAreaRequest) (*model.DegreeArea, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	degree, err := s.Get(ctx, degreeID)
	if err != nil {
		return nil, err
	}

	area := &model.DegreeArea{
		DegreeID:         degree.ID,
		CategoryName:     req.CategoryName,
		RequiredECTS:     req.RequiredECTS,
		CountsTowardsGPA: req.CountsTowardsGPA,
		DisplayOrder:     req.DisplayOrder,
	}
	if area.DisplayOrder == 0 {
		area.DisplayOrder = len(degree.Areas) + 1
	}
	if err := s.repo.Degree.CreateArea(ctx, area); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrAreaExists
		}
		s.logger.Error("新增学位模块失败", zap.Int64("degree_id", degreeID), zap.Error(err))
		return nil, storageErr("degree.add_area", err)
	}
	return area, nil
}

// ────────────────────── MapCourse ──────────────────────

// MapCourse 课程在一个学位中只属于一个模块，重复映射时覆盖
func (s *degreeService) MapCourse(ctx context.Context, req *dto.MapCourseRequest) (*model.CourseDegreeMapping, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, req.DegreeID); err != nil {
		return nil, err
	}
	area, err := s.repo.Degree.GetArea(ctx, req.AreaID)
	if err != nil {
		return nil, notFoundOr(err, ErrAreaNotFound, idKey(req.AreaID), "degree.area")
	}
	if area.DegreeID != req.DegreeID {
		return nil, ErrAreaNotInDegree
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}

	mapping := &model.CourseDegreeMapping{
		CourseID:     course.ID,
		DegreeID:     req.DegreeID,
		AreaID:       area.ID,
		ECTSOverride: req.ECTSOverride,
	}
	if err := s.repo.Degree.Map(ctx, mapping); err != nil {
		s.logger.Error("映射课程失败",
			zap.Int64("course_id", course.ID),
			zap.Int64("area_id", area.ID),
			zap.Error(err),
		)
		return nil, storageErr("degree.map", err)
	}
	mapping.Course = course
	mapping.Area = area
	return mapping, nil
}

// ────────────────────── UnmapCourse ──────────────────────

func (s *degreeService) UnmapCourse(ctx context.Context, courseID, degreeID int64) error {
	if err := s.repo.Degree.Unmap(ctx, courseID, degreeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMappingNotFound
		}
		s.logger.Error("取消映射失败", zap.Int64("course_id", courseID), zap.Error(err))
		return storageErr("degree.unmap", err)
	}
	return nil
}

// ────────────────────── Mappings ──────────────────────

func (s *degreeService) Mappings(ctx context.Context, degreeID int64) ([]model.CourseDegreeMapping, error) {
	if _, err := s.Get(ctx, degreeID); err != nil {
		return nil, err
	}
	mappings, err := s.repo.Degree.ListMappings(ctx, degreeID)
	if err != nil {
		return nil, storageErr("degree.mappings", err)
	}
	return mappings, nil
}

// ────────────────────── Progress ──────────────────────

func (s *degreeService) Progress(ctx context.Context, degreeID int64) (*dto.DegreeProgressResponse, error) {
	degree, err := s.Get(ctx, degreeID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.Degree.Progress(ctx, degreeID)
	if err != nil {
		s.logger.Error("查询学位进度失败", zap.Int64("degree_id", degreeID), zap.Error(err))
		return nil, storageErr("degree.progress", err)
	}

	resp := &dto.DegreeProgressResponse{
		Degree:       *degree,
		Areas:        rows,
		RequiredECTS: degree.TotalECTSRequired,
	}
	for _, r := range rows {
		resp.EarnedECTS += r.EarnedECTS
	}
	return resp, nil
}

// ────────────────────── Unmapped ──────────────────────

func (s *degreeService) Unmapped(ctx context.Context) ([]model.Course, error) {
	courses, err := s.repo.Course.ListUnmapped(ctx)
	if err != nil {
		s.logger.Error("查询未映射课程失败", zap.Error(err))
		return nil, storageErr("degree.unmapped", err)
	}
	return courses, nil
}
