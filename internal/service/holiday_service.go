package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 假期模块业务错误 ──

var (
	ErrHolidayNotFound  = apperr.New(apperr.KindNotFound, "holiday not found")
	ErrHolidayDateRange = apperr.New(apperr.KindDateRange, "holiday end date must not be before its start date")
)

// HolidayService 假期业务接口；假期默认对所有课程生效，例外按课程登记
type HolidayService interface {
	Add(ctx context.Context, req *dto.AddHolidayRequest) (*model.Holiday, error)
	List(ctx context.Context) ([]model.Holiday, error)
	Delete(ctx context.Context, id int64) error
	AddException(ctx context.Context, holidayID, courseID int64) error
	RemoveException(ctx context.Context, holidayID, courseID int64) error
}

type holidayService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHolidayService 创建 HolidayService 实例
func NewHolidayService(repo *repository.Repository, logger *zap.Logger) HolidayService {
	return &holidayService{repo: repo, logger: logger}
}

// ────────────────────── Add ──────────────────────

func (s *holidayService) Add(ctx context.Context, req *dto.AddHolidayRequest) (*model.Holiday, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	start, err := dates.Parse(req.StartDate)
	if err != nil {
		return nil, apperr.Validation("start_date", err.Error())
	}
	end, err := dates.Parse(req.EndDate)
	if err != nil {
		return nil, apperr.Validation("end_date", err.Error())
	}
	if end.Before(start) {
		return nil, ErrHolidayDateRange
	}

	holiday := &model.Holiday{Name: req.Name, StartDate: start, EndDate: end}
	if err := s.repo.Holiday.Create(ctx, holiday); err != nil {
		s.logger.Error("新增假期失败", zap.String("name", req.Name), zap.Error(err))
		return nil, storageErr("holiday.create", err)
	}
	return holiday, nil
}

// ────────────────────── List ──────────────────────

func (s *holidayService) List(ctx context.Context) ([]model.Holiday, error) {
	holidays, err := s.repo.Holiday.List(ctx)
	if err != nil {
		s.logger.Error("列出假期失败", zap.Error(err))
		return nil, storageErr("holiday.list", err)
	}
	return holidays, nil
}

// ────────────────────── Delete ──────────────────────

func (s *holidayService) Delete(ctx context.Context, id int64) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Holiday.Delete(ctx, id); err != nil {
		s.logger.Error("删除假期失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("holiday.delete", err)
	}
	return nil
}

// ────────────────────── Exceptions ──────────────────────

// AddException 该课程不受假期影响；重复添加无副作用
func (s *holidayService) AddException(ctx context.Context, holidayID, courseID int64) error {
	if err := s.exists(ctx, holidayID); err != nil {
		return err
	}
	if _, err := getCourse(ctx, s.repo, courseID); err != nil {
		return err
	}
	if err := s.repo.Holiday.AddException(ctx, holidayID, courseID); err != nil {
		s.logger.Error("新增假期例外失败", zap.Int64("holiday_id", holidayID), zap.Int64("course_id", courseID), zap.Error(err))
		return storageErr("holiday.add_exception", err)
	}
	return nil
}

func (s *holidayService) RemoveException(ctx context.Context, holidayID, courseID int64) error {
	if err := s.exists(ctx, holidayID); err != nil {
		return err
	}
	if err := s.repo.Holiday.RemoveException(ctx, holidayID, courseID); err != nil {
		s.logger.Error("删除假期例外失败", zap.Int64("holiday_id", holidayID), zap.Int64("course_id", courseID), zap.Error(err))
		return storageErr("holiday.remove_exception", err)
	}
	return nil
}

func (s *holidayService) exists(ctx context.Context, id int64) error {
	if _, err := s.repo.Holiday.GetByID(ctx, id); err != nil {
		return notFoundOr(err, ErrHolidayNotFound, idKey(id), "holiday.get")
	}
	return nil
}
