package model

import "time"

// ActivePointerID 单行表的固定主键
const ActivePointerID = 1

// ActivePointer 当前学期/课程指针，对应 active_pointer（单行，id 固定为 1）
type ActivePointer struct {
	ID          int64      `gorm:"primaryKey"    json:"-"`
	SemesterID  *int64     `json:"semester_id,omitempty"`
	CourseID    *int64     `json:"course_id,omitempty"`
	LectureID   *int64     `json:"lecture_id,omitempty"` // 当前生效的 course_schedules.id
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"not null"      json:"updated_at"`
}

// TableName 指定表名
func (ActivePointer) TableName() string { return "active_pointer" }

// SameCourse 两个可选课程 ID 是否相同
func SameCourse(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
