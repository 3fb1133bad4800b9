package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// HolidayRepository 假期及例外数据访问接口
type HolidayRepository interface {
	Create(ctx context.Context, h *model.Holiday) error
	GetByID(ctx context.Context, id int64) (*model.Holiday, error)
	List(ctx context.Context) ([]model.Holiday, error)
	ListCovering(ctx context.Context, d dates.Date) ([]model.Holiday, error)
	Delete(ctx context.Context, id int64) error
	AddException(ctx context.Context, holidayID, courseID int64) error
	RemoveException(ctx context.Context, holidayID, courseID int64) error
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) Create(ctx context.Context, h *model.Holiday) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(h).Error
}

func (r *holidayRepo) GetByID(ctx context.Context, id int64) (*model.Holiday, error) {
	var h model.Holiday
	err := r.db.WithContext(ctx).
		Preload("Exceptions").
		Where("id = ?", id).
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *holidayRepo) List(ctx context.Context) ([]model.Holiday, error) {
	var list []model.Holiday
	err := r.db.WithContext(ctx).
		Preload("Exceptions").
		Order("start_date ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ListCovering 覆盖日期 d 的假期（含例外），ISO 文本可直接按字典序比较
func (r *holidayRepo) ListCovering(ctx context.Context, d dates.Date) ([]model.Holiday, error) {
	var list []model.Holiday
	iso := d.String()
	err := r.db.WithContext(ctx).
		Preload("Exceptions").
		Where("start_date <= ? AND end_date >= ?", iso, iso).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *holidayRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Holiday{}).Error
}

// AddException 幂等：已存在时忽略
func (r *holidayRepo) AddException(ctx context.Context, holidayID, courseID int64) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.HolidayException{HolidayID: holidayID, CourseID: courseID}).Error
}

func (r *holidayRepo) RemoveException(ctx context.Context, holidayID, courseID int64) error {
	return r.db.WithContext(ctx).
		Where("holiday_id = ? AND course_id = ?", holidayID, courseID).
		Delete(&model.HolidayException{}).Error
}
