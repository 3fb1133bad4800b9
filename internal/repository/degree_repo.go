package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// DegreeRepository 学位、模块与课程映射数据访问接口
type DegreeRepository interface {
	Create(ctx context.Context, d *model.Degree) error
	GetByID(ctx context.Context, id int64) (*model.Degree, error)
	List(ctx context.Context) ([]model.Degree, error)
	Update(ctx context.Context, d *model.Degree) error
	Delete(ctx context.Context, id int64) error

	CreateArea(ctx context.Context, a *model.DegreeArea) error
	GetArea(ctx context.Context, id int64) (*model.DegreeArea, error)
	ListAreas(ctx context.Context, degreeID int64) ([]model.DegreeArea, error)

	// Map 课程在该学位下已有映射时覆盖（一门课在一个学位中只属于一个模块）
	Map(ctx context.Context, m *model.CourseDegreeMapping) error
	Unmap(ctx context.Context, courseID, degreeID int64) error
	ListMappings(ctx context.Context, degreeID int64) ([]model.CourseDegreeMapping, error)

	Progress(ctx context.Context, degreeID int64) ([]model.DegreeProgress, error)
}

type degreeRepo struct {
	db *gorm.DB
}

// NewDegreeRepo 创建 DegreeRepository 实例
func NewDegreeRepo(db *gorm.DB) DegreeRepository {
	return &degreeRepo{db: db}
}

// Create 同时写入 Areas
func (r *degreeRepo) Create(ctx context.Context, d *model.Degree) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *degreeRepo) GetByID(ctx context.Context, id int64) (*model.Degree, error) {
	var d model.Degree
	err := r.db.WithContext(ctx).
		Preload("Areas", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *degreeRepo) List(ctx context.Context) ([]model.Degree, error) {
	var list []model.Degree
	err := r.db.WithContext(ctx).
		Order("start_date ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *degreeRepo) Update(ctx context.Context, d *model.Degree) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(d).Error
}

func (r *degreeRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Degree{}).Error
}

// ── 模块 ──

func (r *degreeRepo) CreateArea(ctx context.Context, a *model.DegreeArea) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *degreeRepo) GetArea(ctx context.Context, id int64) (*model.DegreeArea, error) {
	var a model.DegreeArea
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *degreeRepo) ListAreas(ctx context.Context, degreeID int64) ([]model.DegreeArea, error) {
	var list []model.DegreeArea
	err := r.db.WithContext(ctx).
		Where("degree_id = ?", degreeID).
		Order("display_order ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ── 映射 ──

func (r *degreeRepo) Map(ctx context.Context, m *model.CourseDegreeMapping) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "degree_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"area_id", "ects_override"}),
		}).
		Create(m).Error
}

func (r *degreeRepo) Unmap(ctx context.Context, courseID, degreeID int64) error {
	res := r.db.WithContext(ctx).
		Where("course_id = ? AND degree_id = ?", courseID, degreeID).
		Delete(&model.CourseDegreeMapping{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *degreeRepo) ListMappings(ctx context.Context, degreeID int64) ([]model.CourseDegreeMapping, error) {
	var list []model.CourseDegreeMapping
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Area").
		Where("degree_id = ?", degreeID).
		Order("area_id ASC, course_id ASC").
		Find(&list).Error
	return list, err
}

// Progress 读取视图 v_degree_progress
func (r *degreeRepo) Progress(ctx context.Context, degreeID int64) ([]model.DegreeProgress, error) {
	var rows []model.DegreeProgress
	err := r.db.WithContext(ctx).
		Where("degree_id = ?", degreeID).
		Order("area_id ASC").
		Find(&rows).Error
	return rows, err
}
