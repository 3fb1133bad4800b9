package model

import "github.com/leonfuss/mms-sub000/pkg/dates"

// Degree 学位表，对应 degrees
type Degree struct {
	ID                int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type              DegreeType `gorm:"type:text;not null"       json:"type"`
	Name              string     `gorm:"type:text;not null"       json:"name"`
	University        string     `gorm:"type:text;not null"       json:"university"`
	TotalECTSRequired int        `gorm:"not null"                 json:"total_ects_required"`
	StartDate         dates.Date `gorm:"type:text;not null"       json:"start_date"`
	ExpectedEndDate   dates.Date `gorm:"type:text;not null"       json:"expected_end_date"`
	IsActive          bool       `gorm:"not null;default:true"    json:"is_active"`
	BaseModel

	// 关联
	Areas []DegreeArea `gorm:"foreignKey:DegreeID" json:"areas,omitempty"`
}

func (Degree) TableName() string { return "degrees" }

// DegreeArea 学位模块（如 "Core CS"），对应 degree_areas
type DegreeArea struct {
	ID               int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	DegreeID         int64  `gorm:"not null"                 json:"degree_id"`
	CategoryName     string `gorm:"type:text;not null"       json:"category_name"`
	RequiredECTS     int    `gorm:"not null"                 json:"required_ects"`
	CountsTowardsGPA bool   `gorm:"not null;default:true"    json:"counts_towards_gpa"`
	DisplayOrder     int    `gorm:"not null;default:0"       json:"display_order"`
}

func (DegreeArea) TableName() string { return "degree_areas" }

// CourseDegreeMapping 课程 ↔ 学位模块映射，对应 course_degree_mappings
type CourseDegreeMapping struct {
	CourseID     int64 `gorm:"primaryKey" json:"course_id"`
	DegreeID     int64 `gorm:"primaryKey" json:"degree_id"`
	AreaID       int64 `gorm:"not null"   json:"area_id"`
	ECTSOverride *int  `json:"ects_override,omitempty"`

	// 关联
	Course *Course     `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Area   *DegreeArea `gorm:"foreignKey:AreaID"   json:"area,omitempty"`
}

func (CourseDegreeMapping) TableName() string { return "course_degree_mappings" }

// DegreeProgress 视图 v_degree_progress 的一行
type DegreeProgress struct {
	DegreeID         int64    `json:"degree_id"`
	AreaID           int64    `json:"area_id"`
	CategoryName     string   `json:"category_name"`
	RequiredECTS     int      `json:"required_ects"`
	EarnedECTS       int      `json:"earned_ects"`
	AreaGPA          *float64 `json:"area_gpa,omitempty"`
	CountsTowardsGPA bool     `json:"counts_towards_gpa"`
}

func (DegreeProgress) TableName() string { return "v_degree_progress" }
