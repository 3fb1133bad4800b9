package model

import (
	"time"

	"github.com/leonfuss/mms-sub000/pkg/dates"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

// Grade 成绩，对应 grades
type Grade struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID       int64           `gorm:"not null;index"           json:"course_id"`
	Grade          float64         `gorm:"not null"                 json:"grade"`
	GradingScheme  grading.Scheme  `gorm:"type:text;not null"       json:"grading_scheme"`
	OriginalGrade  *float64        `json:"original_grade,omitempty"`
	OriginalScheme *grading.Scheme `gorm:"type:text"                json:"original_scheme,omitempty"`
	IsFinal        bool            `gorm:"not null;default:true"    json:"is_final"`
	Passed         bool            `gorm:"not null"                 json:"passed"` // 由 (grade, scheme) 计算，不可单独设置
	AttemptNumber  int             `gorm:"not null;default:1"       json:"attempt_number"`
	ExamDate       *dates.Date     `gorm:"type:text"                json:"exam_date,omitempty"`
	RecordedAt     time.Time       `gorm:"not null"                 json:"recorded_at"`

	// 关联
	Components []GradeComponent `gorm:"foreignKey:GradeID" json:"components,omitempty"`
	Course     *Course          `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Grade) TableName() string { return "grades" }

// German 换算为德式成绩；Pass/Fail 无法换算时 ok=false
func (g *Grade) German() (float64, bool) {
	if g.GradingScheme == grading.PassFail {
		return 0, false
	}
	v, err := grading.Convert(g.Grade, g.GradingScheme, grading.German)
	if err != nil {
		return 0, false
	}
	return v, true
}

// GradeComponent 成绩组成，对应 grade_components
type GradeComponent struct {
	ID            int64    `gorm:"primaryKey;autoIncrement" json:"id"`
	GradeID       int64    `gorm:"not null;index"           json:"grade_id"`
	ComponentName string   `gorm:"type:text;not null"       json:"component_name"`
	Weight        float64  `gorm:"not null"                 json:"weight"`
	PointsEarned  *float64 `json:"points_earned,omitempty"`
	PointsTotal   *float64 `json:"points_total,omitempty"`
	Grade         *float64 `json:"grade,omitempty"`
	IsBonus       bool     `gorm:"not null;default:false"   json:"is_bonus"`
	BonusPoints   float64  `gorm:"not null;default:0"       json:"bonus_points"`
}

func (GradeComponent) TableName() string { return "grade_components" }

// ToGrading 转为计算用结构
func (c GradeComponent) ToGrading() grading.Component {
	return grading.Component{
		Name:         c.ComponentName,
		Weight:       c.Weight,
		PointsEarned: c.PointsEarned,
		PointsTotal:  c.PointsTotal,
		Grade:        c.Grade,
		IsBonus:      c.IsBonus,
		BonusPoints:  c.BonusPoints,
	}
}
