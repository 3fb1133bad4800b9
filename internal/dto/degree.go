package dto

// ── 学位模块 DTO ──

// CreateDegreeRequest 创建学位请求；日期为德式 DD.MM.YYYY
type CreateDegreeRequest struct {
	Type              string              `json:"type"                validate:"required"`
	Name              string              `json:"name"                validate:"required,max=200"`
	University        string              `json:"university"          validate:"required,max=200"`
	TotalECTSRequired int                 `json:"total_ects_required" validate:"min=0"`
	StartDate         string              `json:"start_date"          validate:"required,gdate"`
	ExpectedEndDate   string              `json:"expected_end_date"   validate:"required,gdate"`
	Areas             []CreateAreaRequest `json:"areas"               validate:"dive"`
}

// CreateAreaRequest 学位模块
type CreateAreaRequest struct {
	CategoryName     string `json:"category_name"      validate:"required,max=200"`
	RequiredECTS     int    `json:"required_ects"      validate:"required,min=1"`
	CountsTowardsGPA bool   `json:"counts_towards_gpa"`
	DisplayOrder     int    `json:"display_order"      validate:"min=0"`
}

// MapCourseRequest 课程映射到学位模块
type MapCourseRequest struct {
	CourseID     int64 `json:"course_id"     validate:"required"`
	DegreeID     int64 `json:"degree_id"     validate:"required"`
	AreaID       int64 `json:"area_id"       validate:"required"`
	ECTSOverride *int  `json:"ects_override" validate:"omitempty,min=1"`
}
