package model

import "gorm.io/datatypes"

// Course 课程表，对应 courses
type Course struct {
	ID                  int64             `gorm:"primaryKey;autoIncrement"                      json:"id"`
	SemesterID          int64             `gorm:"not null;uniqueIndex:uq_course_semester_short" json:"semester_id"`
	ShortName           string            `gorm:"type:text;not null;uniqueIndex:uq_course_semester_short" json:"short_name"`
	Name                string            `gorm:"type:text;not null"                            json:"name"`
	DirectoryPath       string            `gorm:"type:text;not null"                            json:"directory_path"`
	DescriptorPath      *string           `gorm:"type:text"                                     json:"descriptor_path,omitempty"`
	ECTS                int               `gorm:"not null"                                      json:"ects"`
	Lecturer            string            `gorm:"type:text"                                     json:"lecturer,omitempty"`
	LecturerEmail       string            `gorm:"type:text"                                     json:"lecturer_email,omitempty"`
	Tutor               string            `gorm:"type:text"                                     json:"tutor,omitempty"`
	TutorEmail          string            `gorm:"type:text"                                     json:"tutor_email,omitempty"`
	LearningPlatformURL string            `gorm:"type:text"                                     json:"learning_platform_url,omitempty"`
	University          string            `gorm:"type:text"                                     json:"university,omitempty"`
	Location            string            `gorm:"type:text"                                     json:"location,omitempty"`
	IsExternal          bool              `gorm:"not null;default:false"                        json:"is_external"`
	OriginalPath        *string           `gorm:"type:text"                                     json:"original_path,omitempty"`
	HasGitRepo          bool              `gorm:"not null;default:false"                        json:"has_git_repo"`
	GitRemoteURL        *string           `gorm:"type:text"                                     json:"git_remote_url,omitempty"`
	IsArchived          bool              `gorm:"not null;default:false"                        json:"is_archived"`
	IsDropped           bool              `gorm:"not null;default:false"                        json:"is_dropped"`
	Extra               datatypes.JSONMap `gorm:"type:text"                                     json:"extra,omitempty"` // 描述文件中的未知键，原样回写
	BaseModel

	// 关联
	Semester *Semester `gorm:"foreignKey:SemesterID" json:"semester,omitempty"`
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// OwnsDirectory 是否需要在工作区中创建课程目录：非外部课程，或外部课程但没有原始路径
func (c *Course) OwnsDirectory() bool {
	return !c.IsExternal || c.OriginalPath == nil || *c.OriginalPath == ""
}
