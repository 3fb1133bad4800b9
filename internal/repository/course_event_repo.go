package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// CourseEventRepository 单次事件数据访问接口
type CourseEventRepository interface {
	Create(ctx context.Context, e *model.CourseEvent) error
	GetByID(ctx context.Context, id int64) (*model.CourseEvent, error)
	ListByDate(ctx context.Context, d dates.Date) ([]model.CourseEvent, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.CourseEvent, error)
	Delete(ctx context.Context, id int64) error
}

type courseEventRepo struct {
	db *gorm.DB
}

// NewCourseEventRepo 创建 CourseEventRepository 实例
func NewCourseEventRepo(db *gorm.DB) CourseEventRepository {
	return &courseEventRepo{db: db}
}

func (r *courseEventRepo) Create(ctx context.Context, e *model.CourseEvent) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

func (r *courseEventRepo) GetByID(ctx context.Context, id int64) (*model.CourseEvent, error) {
	var e model.CourseEvent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByDate 按 id 升序，同一时刻多个事件时先创建者优先
func (r *courseEventRepo) ListByDate(ctx context.Context, d dates.Date) ([]model.CourseEvent, error) {
	var list []model.CourseEvent
	err := r.db.WithContext(ctx).
		Where("date = ?", d.String()).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *courseEventRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.CourseEvent, error) {
	var list []model.CourseEvent
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("date ASC, start_time ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *courseEventRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CourseEvent{}).Error
}
