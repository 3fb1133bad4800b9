package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求；SemesterCode 为空时使用当前学期
type CreateCourseRequest struct {
	SemesterCode        string `json:"semester"              validate:"omitempty"`
	ShortName           string `json:"short_name"            validate:"required,shortname,max=64"`
	Name                string `json:"name"                  validate:"required,max=200"`
	ECTS                int    `json:"ects"                  validate:"required,min=1,max=30"`
	Lecturer            string `json:"lecturer"              validate:"omitempty,max=200"`
	LecturerEmail       string `json:"lecturer_email"        validate:"omitempty,email"`
	Tutor               string `json:"tutor"                 validate:"omitempty,max=200"`
	TutorEmail          string `json:"tutor_email"           validate:"omitempty,email"`
	LearningPlatformURL string `json:"learning_platform_url" validate:"omitempty,url"`
	University          string `json:"university"            validate:"omitempty,max=200"`
	Location            string `json:"location"              validate:"omitempty,max=200"`
	IsExternal          bool   `json:"is_external"`
	OriginalPath        string `json:"original_path"         validate:"omitempty"`
	HasGitRepo          bool   `json:"has_git_repo"`
	GitRemoteURL        string `json:"git_remote_url"        validate:"omitempty"`
}

// UpdateCourseRequest 更新课程请求（nil 表示不修改）
type UpdateCourseRequest struct {
	Name                *string `json:"name"                  validate:"omitempty,min=1,max=200"`
	ECTS                *int    `json:"ects"                  validate:"omitempty,min=1,max=30"`
	Lecturer            *string `json:"lecturer"              validate:"omitempty,max=200"`
	LecturerEmail       *string `json:"lecturer_email"        validate:"omitempty,email"`
	Tutor               *string `json:"tutor"                 validate:"omitempty,max=200"`
	TutorEmail          *string `json:"tutor_email"           validate:"omitempty,email"`
	LearningPlatformURL *string `json:"learning_platform_url" validate:"omitempty,url"`
	University          *string `json:"university"            validate:"omitempty,max=200"`
	Location            *string `json:"location"              validate:"omitempty,max=200"`
	HasGitRepo          *bool   `json:"has_git_repo"`
	GitRemoteURL        *string `json:"git_remote_url"`
	IsArchived          *bool   `json:"is_archived"`
	IsDropped           *bool   `json:"is_dropped"`
}
