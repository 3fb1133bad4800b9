package dto

// ── 成绩模块 DTO ──

// RecordGradeRequest 记录成绩；Grade 与 Components 二选一（都给出时以组成部分计算为准）
type RecordGradeRequest struct {
	CourseID       int64              `json:"course_id"       validate:"required"`
	Scheme         string             `json:"scheme"          validate:"required"`
	Grade          *float64           `json:"grade"           validate:"required_without=Components"`
	Components     []ComponentRequest `json:"components"      validate:"omitempty,dive"`
	IsFinal        bool               `json:"is_final"`
	AttemptNumber  int                `json:"attempt_number"  validate:"omitempty,min=1"`
	ExamDate       string             `json:"exam_date"       validate:"omitempty,anydate"`
	OriginalGrade  *float64           `json:"original_grade"`
	OriginalScheme string             `json:"original_scheme" validate:"required_with=OriginalGrade"`
}

// ComponentRequest 成绩组成部分；百分制 Grade 或 得分/总分
type ComponentRequest struct {
	Name         string   `json:"name"          validate:"required,max=100"`
	Weight       float64  `json:"weight"        validate:"min=0"`
	PointsEarned *float64 `json:"points_earned" validate:"omitempty,min=0"`
	PointsTotal  *float64 `json:"points_total"  validate:"omitempty,gt=0"`
	Grade        *float64 `json:"grade"         validate:"omitempty,min=0,max=100"`
	IsBonus      bool     `json:"is_bonus"`
	BonusPoints  float64  `json:"bonus_points"  validate:"min=0"`
}
