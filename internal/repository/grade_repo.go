package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// GradeRepository 成绩数据访问接口
type GradeRepository interface {
	// Create 写入成绩及其组成部分
	Create(ctx context.Context, g *model.Grade) error
	GetByID(ctx context.Context, id int64) (*model.Grade, error)
	ListByCourse(ctx context.Context, courseID int64) ([]model.Grade, error)
	// ListFinal 全部最终成绩（含课程），GPA 与导出使用
	ListFinal(ctx context.Context) ([]model.Grade, error)
	Delete(ctx context.Context, id int64) error
}

type gradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo 创建 GradeRepository 实例
func NewGradeRepo(db *gorm.DB) GradeRepository {
	return &gradeRepo{db: db}
}

func (r *gradeRepo) Create(ctx context.Context, g *model.Grade) error {
	return r.db.WithContext(ctx).Omit("Course").Create(g).Error
}

func (r *gradeRepo) GetByID(ctx context.Context, id int64) (*model.Grade, error) {
	var g model.Grade
	err := r.db.WithContext(ctx).
		Preload("Components").
		Preload("Course").
		Where("id = ?", id).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gradeRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.Grade, error) {
	var list []model.Grade
	err := r.db.WithContext(ctx).
		Preload("Components").
		Where("course_id = ?", courseID).
		Order("attempt_number ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *gradeRepo) ListFinal(ctx context.Context) ([]model.Grade, error) {
	var list []model.Grade
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Semester").
		Where("is_final = ?", true).
		Order("course_id ASC, attempt_number ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *gradeRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Grade{}).Error
}
