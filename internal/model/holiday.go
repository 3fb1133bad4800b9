package model

import "github.com/leonfuss/mms-sub000/pkg/dates"

// Holiday 假期（默认对所有课程生效），对应 holidays
type Holiday struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string     `gorm:"type:text;not null"       json:"name"`
	StartDate dates.Date `gorm:"type:text;not null"       json:"start_date"`
	EndDate   dates.Date `gorm:"type:text;not null"       json:"end_date"`
	BaseModel

	Exceptions []HolidayException `gorm:"foreignKey:HolidayID" json:"exceptions,omitempty"`
}

func (Holiday) TableName() string { return "holidays" }

// Covers start ≤ d ≤ end
func (h *Holiday) Covers(d dates.Date) bool {
	return d.Between(h.StartDate, h.EndDate)
}

// HolidayException 某课程不受该假期影响，对应 holiday_exceptions
type HolidayException struct {
	HolidayID int64 `gorm:"primaryKey" json:"holiday_id"`
	CourseID  int64 `gorm:"primaryKey" json:"course_id"`
}

func (HolidayException) TableName() string { return "holiday_exceptions" }
