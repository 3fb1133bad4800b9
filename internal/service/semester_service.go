package service

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/workspace"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 学期模块业务错误 ──

var (
	ErrSemesterNotFound    = apperr.New(apperr.KindNotFound, "semester not found")
	ErrSemesterExists      = apperr.New(apperr.KindValidation, "semester already exists")
	ErrNoCurrentSemester   = apperr.New(apperr.KindNotFound, "no current semester (run `mms semester set-current <code>`)")
	ErrInvalidSemesterCode = apperr.New(apperr.KindValidation, "invalid semester code (expected e.g. b3 or m1)")
	ErrSemesterDateRange   = apperr.New(apperr.KindDateRange, "semester end date must not be before its start date")
)

// SemesterService 学期业务接口
type SemesterService interface {
	Create(ctx context.Context, req *dto.CreateSemesterRequest) (*model.Semester, error)
	List(ctx context.Context) ([]model.Semester, error)
	Get(ctx context.Context, code string) (*model.Semester, error)
	Current(ctx context.Context) (*model.Semester, error)
	SetCurrent(ctx context.Context, code string) (*model.Semester, error)
	Update(ctx context.Context, code string, req *dto.UpdateSemesterRequest) (*model.Semester, error)
	Archive(ctx context.Context, code string, archived bool) (*model.Semester, error)
	Delete(ctx context.Context, code string, removeDir bool) error
}

type semesterService struct {
	repo   *repository.Repository
	paths  workspace.Paths
	logger *zap.Logger
}

// NewSemesterService 创建 SemesterService 实例
func NewSemesterService(repo *repository.Repository, paths workspace.Paths, logger *zap.Logger) SemesterService {
	return &semesterService{repo: repo, paths: paths, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *semesterService) Create(ctx context.Context, req *dto.CreateSemesterRequest) (*model.Semester, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	semType, err := model.ParseSemesterType(req.Type)
	if err != nil {
		return nil, apperr.Validation("type", err.Error())
	}

	semester := &model.Semester{
		Type:            semType,
		Number:          req.Number,
		University:      req.University,
		DefaultLocation: req.DefaultLocation,
	}
	if semester.StartDate, err = parseOptionalDate("start_date", req.StartDate); err != nil {
		return nil, err
	}
	if semester.EndDate, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		return nil, err
	}
	dir := s.paths.SemesterDirOf(semester)
	semester.DirectoryPath = dir

	// 目录中已有描述文件（如从别处拷贝的工作区）时，补全请求中未给出的字段
	s.importDescriptor(dir, semester)

	if err := checkSemesterDates(semester); err != nil {
		return nil, err
	}

	var previous *model.Semester
	guard := &dirGuard{}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if req.SetCurrent {
			prev, err := currentOrNil(ctx, tx)
			if err != nil {
				return err
			}
			previous = prev
			if err := tx.Semester.ClearCurrent(ctx); err != nil {
				return storageErr("semester.clear_current", err)
			}
			semester.IsCurrent = true
		}
		if err := tx.Semester.Create(ctx, semester); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrSemesterExists
			}
			return storageErr("semester.create", err)
		}
		if err := guard.mkdir(dir); err != nil {
			return ioErr("semester.mkdir", err)
		}
		if _, err := workspace.WriteSemesterDescriptor(dir, semester); err != nil {
			return ioErr("semester.descriptor", err)
		}
		return nil
	})
	if err != nil {
		guard.rollback()
		if !errors.Is(err, ErrSemesterExists) {
			s.logger.Error("创建学期失败", zap.String("code", semester.Code()), zap.Error(err))
		}
		return nil, err
	}

	if previous != nil {
		previous.IsCurrent = false
		s.refreshDescriptor(previous)
	}
	s.logger.Info("创建学期", zap.String("code", semester.Code()), zap.String("dir", dir))
	return semester, nil
}

// ────────────────────── List ──────────────────────

func (s *semesterService) List(ctx context.Context) ([]model.Semester, error) {
	semesters, err := s.repo.Semester.List(ctx)
	if err != nil {
		s.logger.Error("列出学期失败", zap.Error(err))
		return nil, storageErr("semester.list", err)
	}
	return semesters, nil
}

// ────────────────────── Get ──────────────────────

func (s *semesterService) Get(ctx context.Context, code string) (*model.Semester, error) {
	return getSemester(ctx, s.repo, code)
}

// ────────────────────── Current ──────────────────────

func (s *semesterService) Current(ctx context.Context) (*model.Semester, error) {
	semester, err := s.repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentSemester
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, storageErr("semester.current", err)
	}
	return semester, nil
}

// ────────────────────── SetCurrent ──────────────────────

// SetCurrent 同一事务内清除旧的当前学期并设置新的，保证至多一个当前学期
func (s *semesterService) SetCurrent(ctx context.Context, code string) (*model.Semester, error) {
	semester, err := getSemester(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if semester.IsCurrent {
		return semester, nil
	}

	var previous *model.Semester
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		prev, err := currentOrNil(ctx, tx)
		if err != nil {
			return err
		}
		previous = prev
		if err := tx.Semester.ClearCurrent(ctx); err != nil {
			return storageErr("semester.clear_current", err)
		}
		semester.IsCurrent = true
		if err := tx.Semester.Update(ctx, semester); err != nil {
			return storageErr("semester.set_current", err)
		}
		return nil
	})
	if err != nil {
		semester.IsCurrent = false
		s.logger.Error("设置当前学期失败", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	if previous != nil {
		previous.IsCurrent = false
		s.refreshDescriptor(previous)
	}
	s.refreshDescriptor(semester)
	return semester, nil
}

// ────────────────────── Update ──────────────────────

func (s *semesterService) Update(ctx context.Context, code string, req *dto.UpdateSemesterRequest) (*model.Semester, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	semester, err := getSemester(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		if semester.StartDate, err = parseOptionalDate("start_date", *req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if semester.EndDate, err = parseOptionalDate("end_date", *req.EndDate); err != nil {
			return nil, err
		}
	}
	if req.University != nil {
		semester.University = *req.University
	}
	if req.DefaultLocation != nil {
		semester.DefaultLocation = *req.DefaultLocation
	}
	if err := checkSemesterDates(semester); err != nil {
		return nil, err
	}

	if err := s.save(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

// ────────────────────── Archive ──────────────────────

func (s *semesterService) Archive(ctx context.Context, code string, archived bool) (*model.Semester, error) {
	semester, err := getSemester(ctx, s.repo, code)
	if err != nil {
		return nil, err
	}
	if semester.IsArchived == archived {
		return semester, nil
	}
	semester.IsArchived = archived
	if err := s.save(ctx, semester); err != nil {
		return nil, err
	}
	return semester, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除学期（级联删除其课程）；removeDir 时一并删除工作区中的学期目录
func (s *semesterService) Delete(ctx context.Context, code string, removeDir bool) error {
	semester, err := getSemester(ctx, s.repo, code)
	if err != nil {
		return err
	}
	if err := s.repo.Semester.Delete(ctx, semester.ID); err != nil {
		s.logger.Error("删除学期失败", zap.String("code", code), zap.Error(err))
		return storageErr("semester.delete", err)
	}

	if removeDir {
		dir := s.paths.SemesterDirOf(semester)
		if dir == s.paths.Base || !s.paths.Contains(dir) {
			return nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return ioErr("semester.remove_dir", err)
		}
	}
	return nil
}

// ── 辅助函数 ──

// save 在事务中更新行，并同步改写描述文件（目录存在时）
func (s *semesterService) save(ctx context.Context, semester *model.Semester) error {
	dir := s.paths.SemesterDirOf(semester)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Semester.Update(ctx, semester); err != nil {
			return storageErr("semester.update", err)
		}
		if isDir(dir) {
			if _, err := workspace.WriteSemesterDescriptor(dir, semester); err != nil {
				return ioErr("semester.descriptor", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("更新学期失败", zap.String("code", semester.Code()), zap.Error(err))
	}
	return err
}

// refreshDescriptor 提交后改写描述文件；失败只记录，下次 sync 会补齐
func (s *semesterService) refreshDescriptor(semester *model.Semester) {
	dir := s.paths.SemesterDirOf(semester)
	if !isDir(dir) {
		return
	}
	if _, err := workspace.WriteSemesterDescriptor(dir, semester); err != nil {
		s.logger.Warn("改写学期描述文件失败", zap.String("dir", dir), zap.Error(err))
	}
}

func (s *semesterService) importDescriptor(dir string, semester *model.Semester) {
	if !workspace.HasDescriptor(dir, workspace.SemesterDescriptorName) {
		return
	}
	desc, err := workspace.ReadSemesterDescriptor(dir)
	if err != nil {
		s.logger.Warn("读取已有学期描述文件失败", zap.String("dir", dir), zap.Error(err))
		return
	}
	var onDisk model.Semester
	if err := desc.ApplyTo(&onDisk); err != nil || onDisk.Type != semester.Type || onDisk.Number != semester.Number {
		return
	}
	if semester.StartDate == nil {
		semester.StartDate = onDisk.StartDate
	}
	if semester.EndDate == nil {
		semester.EndDate = onDisk.EndDate
	}
	if semester.University == "" {
		semester.University = onDisk.University
	}
	if semester.DefaultLocation == "" {
		semester.DefaultLocation = onDisk.DefaultLocation
	}
}

// getSemester 按短码查询
func getSemester(ctx context.Context, repo *repository.Repository, code string) (*model.Semester, error) {
	semType, number, ok := workspace.ParseSemesterCode(code)
	if !ok {
		return nil, ErrInvalidSemesterCode
	}
	semester, err := repo.Semester.GetByCode(ctx, semType, number)
	if err != nil {
		return nil, notFoundOr(err, ErrSemesterNotFound, code, "semester.get")
	}
	return semester, nil
}

// semesterOrCurrent code 为空时取当前学期
func semesterOrCurrent(ctx context.Context, repo *repository.Repository, code string) (*model.Semester, error) {
	if code != "" {
		return getSemester(ctx, repo, code)
	}
	semester, err := repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentSemester
		}
		return nil, storageErr("semester.current", err)
	}
	return semester, nil
}

func currentOrNil(ctx context.Context, repo *repository.Repository) (*model.Semester, error) {
	semester, err := repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storageErr("semester.current", err)
	}
	return semester, nil
}

func checkSemesterDates(s *model.Semester) error {
	if s.StartDate != nil && s.EndDate != nil && s.EndDate.Before(*s.StartDate) {
		return ErrSemesterDateRange
	}
	return nil
}
