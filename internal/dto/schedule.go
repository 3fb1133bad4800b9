package dto

// ── 课程安排模块 DTO ──

// AddScheduleRequest 新增每周安排；日期为空时取所属学期起止日期
type AddScheduleRequest struct {
	CourseID  int64  `json:"course_id"  validate:"required"`
	Type      string `json:"type"       validate:"required"`
	Day       string `json:"day"        validate:"required"`
	StartTime string `json:"start_time" validate:"required,clock"`
	EndTime   string `json:"end_time"   validate:"required,clock"`
	StartDate string `json:"start_date" validate:"omitempty,anydate"`
	EndDate   string `json:"end_date"   validate:"omitempty,anydate"`
	Room      string `json:"room"       validate:"omitempty,max=100"`
	Location  string `json:"location"   validate:"omitempty,max=200"`
}

// UpdateScheduleRequest 修改每周安排（nil 表示不修改）
type UpdateScheduleRequest struct {
	Type      *string `json:"type"`
	Day       *string `json:"day"`
	StartTime *string `json:"start_time" validate:"omitempty,clock"`
	EndTime   *string `json:"end_time"   validate:"omitempty,clock"`
	StartDate *string `json:"start_date" validate:"omitempty,anydate"`
	EndDate   *string `json:"end_date"   validate:"omitempty,anydate"`
	Room      *string `json:"room"       validate:"omitempty,max=100"`
	Location  *string `json:"location"   validate:"omitempty,max=200"`
}

// CancelRequest 取消某日课程；不带时间表示整天取消
type CancelRequest struct {
	CourseID    int64  `json:"course_id"   validate:"required"`
	Date        string `json:"date"        validate:"required,anydate"`
	StartTime   string `json:"start_time"  validate:"omitempty,clock"`
	EndTime     string `json:"end_time"    validate:"omitempty,clock"`
	ScheduleID  *int64 `json:"schedule_id"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// OverrideRequest 某日替换（换教室/换时间/由其他课程占用）
type OverrideRequest struct {
	CourseID    int64  `json:"course_id"   validate:"required"`
	Date        string `json:"date"        validate:"required,anydate"`
	StartTime   string `json:"start_time"  validate:"required,clock"`
	EndTime     string `json:"end_time"    validate:"required,clock"`
	ScheduleID  *int64 `json:"schedule_id"`
	Room        string `json:"room"        validate:"omitempty,max=100"`
	Location    string `json:"location"    validate:"omitempty,max=200"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// AddEventRequest 通用单次事件（补课、特殊、一次性……）
type AddEventRequest struct {
	CourseID     int64  `json:"course_id"     validate:"required"`
	EventType    string `json:"event_type"    validate:"required"`
	ScheduleType string `json:"schedule_type" validate:"omitempty"`
	Date         string `json:"date"          validate:"required,anydate"`
	StartTime    string `json:"start_time"    validate:"omitempty,clock"`
	EndTime      string `json:"end_time"      validate:"omitempty,clock"`
	Room         string `json:"room"          validate:"omitempty,max=100"`
	Location     string `json:"location"      validate:"omitempty,max=200"`
	Description  string `json:"description"   validate:"omitempty,max=500"`
}

// ── 假期 ──

// AddHolidayRequest 新增假期
type AddHolidayRequest struct {
	Name      string `json:"name"       validate:"required,max=200"`
	StartDate string `json:"start_date" validate:"required,anydate"`
	EndDate   string `json:"end_date"   validate:"required,anydate"`
}
