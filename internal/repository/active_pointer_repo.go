package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// ActivePointerRepository 当前指针（单行表）数据访问接口
type ActivePointerRepository interface {
	Get(ctx context.Context) (*model.ActivePointer, error)
	Save(ctx context.Context, p *model.ActivePointer) error
}

type activePointerRepo struct {
	db *gorm.DB
}

// NewActivePointerRepo 创建 ActivePointerRepository 实例
func NewActivePointerRepo(db *gorm.DB) ActivePointerRepository {
	return &activePointerRepo{db: db}
}

func (r *activePointerRepo) Get(ctx context.Context) (*model.ActivePointer, error) {
	var p model.ActivePointer
	err := r.db.WithContext(ctx).
		Where("id = ?", model.ActivePointerID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save 覆盖写入唯一一行，id 固定
func (r *activePointerRepo) Save(ctx context.Context, p *model.ActivePointer) error {
	p.ID = model.ActivePointerID
	return r.db.WithContext(ctx).Save(p).Error
}
