// Package resolver 根据每周课程安排、单次事件与假期，判定某一时刻的当前课程。
//
// 判定规则按优先级逐课程求值，课程按 short_name 的稳定顺序遍历：
//
//  1. 取消：该课程当天存在覆盖此刻（或整天）的取消事件 → 跳过该课程
//  2. 替换/补课/特殊/一次性事件覆盖此刻 → 事件属于其他课程时立即返回该课程，否则接受当前课程
//  3. 该课程的一次性事件覆盖此刻 → 返回该课程
//  4. 非假期，且存在覆盖当天星期与此刻的每周安排 → 返回该课程
//
// 时间窗口均为分钟精度的半开区间 [start, end)。
package resolver

import (
	"time"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// Rule 判定命中的规则
type Rule string

const (
	RuleNone     Rule = ""
	RuleEvent    Rule = "event"    // 替换类事件
	RuleOneTime  Rule = "onetime"  // 本课程一次性事件
	RuleSchedule Rule = "schedule" // 每周安排
)

// Decision 判定结果
type Decision struct {
	CourseID   int64
	ScheduleID *int64 // 命中的每周安排
	EventID    *int64 // 命中的事件
	Rule       Rule
}

// Active 是否有当前课程
func (d Decision) Active() bool { return d.Rule != RuleNone }

// Snapshot 判定所需的已提交数据
type Snapshot struct {
	Date      dates.Date
	Semester  *model.Semester
	Courses   []model.Course                   // 按 short_name 排序
	Schedules map[int64][]model.CourseSchedule // course_id → 安排
	Events    []model.CourseEvent              // Date 当天的事件，按 id 排序
	Holidays  []model.Holiday                  // 含 Exceptions
}

// Resolve 返回 now 时刻的当前课程；纯函数
func Resolve(snap *Snapshot, now time.Time) (int64, bool) {
	d := Decide(snap, now)
	return d.CourseID, d.Active()
}

// Decide 同 Resolve，附带命中规则
func Decide(snap *Snapshot, now time.Time) Decision {
	if snap == nil || snap.Semester == nil {
		return Decision{}
	}
	day := dates.DateOf(now)
	t := dates.ClockOf(now)
	weekday := day.Weekday()

	events := eventsOn(snap.Events, day)
	inSemester := make(map[int64]bool, len(snap.Courses))
	for _, c := range snap.Courses {
		inSemester[c.ID] = true
	}

	for _, c := range snap.Courses {
		// 取消
		if cancelled(events, c.ID, t) {
			continue
		}

		// 替换类事件
		if ev := replacement(events, c.ID, t, inSemester); ev != nil {
			id := ev.ID
			return Decision{CourseID: ev.CourseID, EventID: &id, Rule: RuleEvent}
		}

		// 一次性事件
		for i := range events {
			ev := &events[i]
			if ev.CourseID == c.ID && ev.EventType.Normalize() == model.EventOneTime && ev.CoversTime(t) {
				id := ev.ID
				return Decision{CourseID: c.ID, EventID: &id, Rule: RuleOneTime}
			}
		}

		// 每周安排（假期除外）
		if IsHoliday(snap.Holidays, day, c.ID) {
			continue
		}
		for _, s := range snap.Schedules[c.ID] {
			if day.Between(s.StartDate, s.EndDate) && s.DayOfWeek == weekday && InWindow(t, s.StartTime, s.EndTime) {
				id := s.ID
				return Decision{CourseID: c.ID, ScheduleID: &id, Rule: RuleSchedule}
			}
		}
	}
	return Decision{}
}

// IsHoliday day 对课程 courseID 是否为假期：存在覆盖 day 的假期且该课程没有例外
func IsHoliday(holidays []model.Holiday, day dates.Date, courseID int64) bool {
	for i := range holidays {
		h := &holidays[i]
		if !h.Covers(day) {
			continue
		}
		if !hasException(h, courseID) {
			return true
		}
	}
	return false
}

// InWindow t ∈ [start, end)
func InWindow(t, start, end dates.Clock) bool {
	return t.Within(start, end)
}

func hasException(h *model.Holiday, courseID int64) bool {
	for _, ex := range h.Exceptions {
		if ex.CourseID == courseID {
			return true
		}
	}
	return false
}

func eventsOn(events []model.CourseEvent, day dates.Date) []model.CourseEvent {
	out := make([]model.CourseEvent, 0, len(events))
	for _, e := range events {
		if e.Date.Equal(day) {
			out = append(out, e)
		}
	}
	return out
}

func cancelled(events []model.CourseEvent, courseID int64, t dates.Clock) bool {
	for i := range events {
		ev := &events[i]
		if ev.CourseID == courseID && ev.EventType.IsCancellation() && ev.CoversTime(t) {
			return true
		}
	}
	return false
}

// replacement 查找覆盖此刻的替换类事件；候选课程自己的事件优先，其次按 id 顺序取第一个
func replacement(events []model.CourseEvent, courseID int64, t dates.Clock, inSemester map[int64]bool) *model.CourseEvent {
	var other *model.CourseEvent
	for i := range events {
		ev := &events[i]
		if !ev.EventType.IsReplacement() || !ev.CoversTime(t) || !inSemester[ev.CourseID] {
			continue
		}
		if ev.CourseID == courseID {
			return ev
		}
		if other == nil {
			other = ev
		}
	}
	return other
}
