package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

// ── 成绩模块业务错误 ──

var (
	ErrGradeNotFound = apperr.New(apperr.KindNotFound, "grade not found")
)

// GradeService 成绩业务接口
type GradeService interface {
	// Record 记录成绩；给出组成部分时按加权平均计算，再换算到目标体系
	Record(ctx context.Context, req *dto.RecordGradeRequest) (*model.Grade, error)
	Get(ctx context.Context, id int64) (*model.Grade, error)
	List(ctx context.Context, courseID int64) ([]model.Grade, error)
	Delete(ctx context.Context, id int64) error
}

type gradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, logger: logger}
}

// ────────────────────── Record ──────────────────────

func (s *gradeService) Record(ctx context.Context, req *dto.RecordGradeRequest) (*model.Grade, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	scheme, err := grading.ParseScheme(req.Scheme)
	if err != nil {
		return nil, apperr.Validation("scheme", err.Error())
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}

	grade := &model.Grade{
		CourseID:      course.ID,
		GradingScheme: scheme,
		IsFinal:       req.IsFinal,
		AttemptNumber: req.AttemptNumber,
		RecordedAt:    time.Now().UTC(),
	}

	// 1. 成绩数值：组成部分优先
	if len(req.Components) > 0 {
		comps := make([]grading.Component, 0, len(req.Components))
		for _, c := range req.Components {
			gc := model.GradeComponent{
				ComponentName: c.Name,
				Weight:        c.Weight,
				PointsEarned:  c.PointsEarned,
				PointsTotal:   c.PointsTotal,
				Grade:         c.Grade,
				IsBonus:       c.IsBonus,
				BonusPoints:   c.BonusPoints,
			}
			grade.Components = append(grade.Components, gc)
			comps = append(comps, gc.ToGrading())
		}
		pct, err := grading.WeightedMean(comps)
		if err != nil {
			return nil, apperr.Validation("components", err.Error())
		}
		value, err := grading.FromPercentage(pct, scheme)
		if err != nil {
			return nil, apperr.Validation("scheme", err.Error())
		}
		grade.Grade = round2(value)
	} else {
		if req.Grade == nil {
			return nil, apperr.Validation("grade", "grade or components required")
		}
		grade.Grade = *req.Grade
	}
	if err := grading.Validate(grade.Grade, scheme); err != nil {
		return nil, apperr.Validation("grade", err.Error())
	}

	// 2. 原始成绩（转学分等场景）
	if req.OriginalGrade != nil {
		origScheme, err := grading.ParseScheme(req.OriginalScheme)
		if err != nil {
			return nil, apperr.Validation("original_scheme", err.Error())
		}
		if err := grading.Validate(*req.OriginalGrade, origScheme); err != nil {
			return nil, apperr.Validation("original_grade", err.Error())
		}
		grade.OriginalGrade = req.OriginalGrade
		grade.OriginalScheme = &origScheme
	}

	if grade.ExamDate, err = parseOptionalDate("exam_date", req.ExamDate); err != nil {
		return nil, err
	}

	// 3. passed 只由 (grade, scheme) 决定
	grade.Passed = grading.Passed(grade.Grade, scheme)

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if grade.AttemptNumber == 0 {
			existing, err := tx.Grade.ListByCourse(ctx, course.ID)
			if err != nil {
				return storageErr("grade.list", err)
			}
			grade.AttemptNumber = len(existing) + 1
		}
		if err := tx.Grade.Create(ctx, grade); err != nil {
			return storageErr("grade.create", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("记录成绩失败", zap.Int64("course_id", course.ID), zap.Error(err))
		return nil, err
	}

	grade.Course = course
	return grade, nil
}

// ────────────────────── Get ──────────────────────

func (s *gradeService) Get(ctx context.Context, id int64) (*model.Grade, error) {
	grade, err := s.repo.Grade.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrGradeNotFound, idKey(id), "grade.get")
	}
	return grade, nil
}

// ────────────────────── List ──────────────────────

func (s *gradeService) List(ctx context.Context, courseID int64) ([]model.Grade, error) {
	if _, err := getCourse(ctx, s.repo, courseID); err != nil {
		return nil, err
	}
	grades, err := s.repo.Grade.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("列出成绩失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, storageErr("grade.list", err)
	}
	return grades, nil
}

// ────────────────────── Delete ──────────────────────

func (s *gradeService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Grade.Delete(ctx, id); err != nil {
		s.logger.Error("删除成绩失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("grade.delete", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
