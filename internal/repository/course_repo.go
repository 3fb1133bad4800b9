package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	GetByShortName(ctx context.Context, semesterID int64, shortName string) (*model.Course, error)
	ListBySemester(ctx context.Context, semesterID int64) ([]model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	ListUnmapped(ctx context.Context) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id int64) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *courseRepo) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByShortName(ctx context.Context, semesterID int64, shortName string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Where("semester_id = ? AND short_name = ?", semesterID, shortName).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ListBySemester 按 short_name 排序，解析器依赖此稳定顺序
func (r *courseRepo) ListBySemester(ctx context.Context, semesterID int64) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Where("semester_id = ?", semesterID).
		Order("short_name ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Semester").
		Order("semester_id ASC, short_name ASC").
		Find(&courses).Error
	return courses, err
}

// ListUnmapped 读取视图 v_unmapped_courses
func (r *courseRepo) ListUnmapped(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Table("v_unmapped_courses").
		Order("semester_id ASC, short_name ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Course{}).Error
}
