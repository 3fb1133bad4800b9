package dto

// ── 学期模块 DTO ──

// CreateSemesterRequest 创建学期请求
type CreateSemesterRequest struct {
	Type            string `json:"type"             validate:"required"`
	Number          int    `json:"number"           validate:"required,min=1"`
	StartDate       string `json:"start_date"       validate:"omitempty,anydate"`
	EndDate         string `json:"end_date"         validate:"omitempty,anydate"`
	University      string `json:"university"       validate:"omitempty,max=200"`
	DefaultLocation string `json:"default_location" validate:"omitempty,max=200"`
	SetCurrent      bool   `json:"set_current"`
}

// UpdateSemesterRequest 更新学期请求（nil 表示不修改）
type UpdateSemesterRequest struct {
	StartDate       *string `json:"start_date"       validate:"omitempty,anydate"`
	EndDate         *string `json:"end_date"         validate:"omitempty,anydate"`
	University      *string `json:"university"       validate:"omitempty,max=200"`
	DefaultLocation *string `json:"default_location" validate:"omitempty,max=200"`
}
