package model

import "github.com/leonfuss/mms-sub000/pkg/dates"

// CourseEvent 单次事件（取消、替换、补课、特殊、一次性），对应 course_events
type CourseEvent struct {
	ID           int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	CourseID     int64        `gorm:"not null;index"           json:"course_id"`
	ScheduleID   *int64       `json:"schedule_id,omitempty"`
	ScheduleType ScheduleType `gorm:"type:text;not null"       json:"schedule_type"`
	EventType    EventType    `gorm:"type:text;not null"       json:"event_type"`
	Date         dates.Date   `gorm:"type:text;not null;index" json:"date"`
	StartTime    *dates.Clock `gorm:"type:text"                json:"start_time,omitempty"`
	EndTime      *dates.Clock `gorm:"type:text"                json:"end_time,omitempty"`
	Room         string       `gorm:"type:text"                json:"room,omitempty"`
	Location     string       `gorm:"type:text"                json:"location,omitempty"`
	Description  string       `gorm:"type:text"                json:"description,omitempty"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (CourseEvent) TableName() string { return "course_events" }

// WholeDay 未指定时间（整天生效，仅对取消有意义）
func (e *CourseEvent) WholeDay() bool {
	return e.StartTime == nil || e.EndTime == nil
}

// CoversTime 整天事件或 t ∈ [start, end)
func (e *CourseEvent) CoversTime(t dates.Clock) bool {
	if e.WholeDay() {
		return true
	}
	return t.Within(*e.StartTime, *e.EndTime)
}
