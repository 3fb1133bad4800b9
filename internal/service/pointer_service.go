package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/symlink"
	"github.com/leonfuss/mms-sub000/internal/workspace"
)

// PointerState 当前指针及其指向的学期、课程（均可能为空）
type PointerState struct {
	Pointer  *model.ActivePointer
	Semester *model.Semester
	Course   *model.Course
}

// CourseID 当前课程 id（无则为 nil）
func (p *PointerState) CourseID() *int64 {
	if p == nil || p.Pointer == nil {
		return nil
	}
	return p.Pointer.CourseID
}

// PointerService 当前学期/课程指针：数据库单行 + 两个符号链接
//
// 写入顺序固定为：先提交数据库，再更新链接。链接更新失败时数据库已是新值，
// 由下一次 Repair 把链接拉回与数据库一致。
type PointerService interface {
	Get(ctx context.Context) (*PointerState, error)
	// Activate 将指针指向 courseID（nil 表示无当前课程，学期取当前学期）
	Activate(ctx context.Context, courseID, lectureID *int64) (*PointerState, error)
	ClearCourse(ctx context.Context) (*PointerState, error)
	// Repair 按数据库中的指针修正链接，返回是否做了修改
	Repair(ctx context.Context) (bool, error)
	// Targets 指针对应的链接目标
	Targets(state *PointerState) (semesterDir, courseDir string)
}

type pointerService struct {
	repo   *repository.Repository
	paths  workspace.Paths
	links  *symlink.Manager
	logger *zap.Logger
}

// NewPointerService 创建 PointerService 实例
func NewPointerService(repo *repository.Repository, paths workspace.Paths, links *symlink.Manager, logger *zap.Logger) PointerService {
	return &pointerService{repo: repo, paths: paths, links: links, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *pointerService) Get(ctx context.Context) (*PointerState, error) {
	pointer, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	state := &PointerState{Pointer: pointer}

	if pointer.SemesterID != nil {
		sem, err := s.repo.Semester.GetByID(ctx, *pointer.SemesterID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storageErr("pointer.semester", err)
		}
		state.Semester = sem
	}
	if pointer.CourseID != nil {
		course, err := s.repo.Course.GetByID(ctx, *pointer.CourseID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storageErr("pointer.course", err)
		}
		state.Course = course
	}
	return state, nil
}

// ────────────────────── Activate ──────────────────────

func (s *pointerService) Activate(ctx context.Context, courseID, lectureID *int64) (*PointerState, error) {
	state := &PointerState{}

	if courseID != nil {
		course, err := s.repo.Course.GetByID(ctx, *courseID)
		if err != nil {
			return nil, notFoundOr(err, ErrCourseNotFound, idKey(*courseID), "pointer.course")
		}
		state.Course = course
		state.Semester = course.Semester
		if state.Semester == nil {
			if state.Semester, err = s.repo.Semester.GetByID(ctx, course.SemesterID); err != nil {
				return nil, storageErr("pointer.semester", err)
			}
		}
	} else {
		sem, err := currentOrNil(ctx, s.repo)
		if err != nil {
			return nil, err
		}
		state.Semester = sem
	}

	pointer, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if !model.SameCourse(pointer.CourseID, courseID) {
		if courseID != nil {
			pointer.ActivatedAt = &now
		} else {
			pointer.ActivatedAt = nil
		}
	}
	pointer.CourseID = courseID
	pointer.LectureID = lectureID
	pointer.SemesterID = nil
	if state.Semester != nil {
		id := state.Semester.ID
		pointer.SemesterID = &id
	}
	pointer.UpdatedAt = now

	if err := s.repo.ActivePointer.Save(ctx, pointer); err != nil {
		s.logger.Error("写入当前指针失败", zap.Error(err))
		return nil, storageErr("pointer.save", err)
	}
	state.Pointer = pointer

	semDir, courseDir := s.Targets(state)
	if err := s.links.Update(semDir, courseDir); err != nil {
		return state, ioErr("pointer.symlink", err)
	}
	return state, nil
}

// ────────────────────── ClearCourse ──────────────────────

func (s *pointerService) ClearCourse(ctx context.Context) (*PointerState, error) {
	return s.Activate(ctx, nil, nil)
}

// ────────────────────── Repair ──────────────────────

func (s *pointerService) Repair(ctx context.Context) (bool, error) {
	state, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	wantSem, wantCourse := s.Targets(state)
	gotSem, gotCourse, err := s.links.Current()
	if err == nil && gotSem == wantSem && gotCourse == wantCourse {
		return false, nil
	}
	if err := s.links.Update(wantSem, wantCourse); err != nil {
		return false, ioErr("pointer.repair", err)
	}
	s.logger.Info("修复符号链接",
		zap.String("semester", wantSem),
		zap.String("course", wantCourse),
	)
	return true, nil
}

// ────────────────────── Targets ──────────────────────

func (s *pointerService) Targets(state *PointerState) (semesterDir, courseDir string) {
	if state == nil || state.Semester == nil {
		return "", ""
	}
	semesterDir = s.paths.SemesterDirOf(state.Semester)
	if state.Course != nil {
		courseDir = s.paths.CourseDirOf(state.Semester.Code(), state.Course)
	}
	return semesterDir, courseDir
}

// load 读取单行指针；行缺失时视为空指针，首次写入时创建
func (s *pointerService) load(ctx context.Context) (*model.ActivePointer, error) {
	pointer, err := s.repo.ActivePointer.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.ActivePointer{ID: model.ActivePointerID}, nil
		}
		return nil, storageErr("pointer.get", err)
	}
	return pointer, nil
}
