package resolver

import (
	"sort"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// SlotStatus 日程条目状态
type SlotStatus string

const (
	SlotScheduled SlotStatus = "scheduled"
	SlotCancelled SlotStatus = "cancelled"
	SlotHoliday   SlotStatus = "holiday"
	SlotMoved     SlotStatus = "moved" // 被当天的替换事件取代
	SlotExtra     SlotStatus = "extra" // 来自单次事件
)

// Slot 某天日程中的一条
type Slot struct {
	Course       model.Course
	ScheduleType model.ScheduleType
	Start        *dates.Clock // 整天事件为 nil
	End          *dates.Clock
	Room         string
	Location     string
	Status       SlotStatus
	EventType    model.EventType // 仅 SlotExtra
	Description  string
	ScheduleID   *int64
	EventID      *int64
}

// Agenda 列出 day 当天所有课程安排与单次事件，按开始时间排序（整天事件在前）
func Agenda(snap *Snapshot, day dates.Date) []Slot {
	if snap == nil || snap.Semester == nil {
		return nil
	}
	events := eventsOn(snap.Events, day)
	weekday := day.Weekday()

	var slots []Slot
	for _, c := range snap.Courses {
		holiday := IsHoliday(snap.Holidays, day, c.ID)
		for _, s := range snap.Schedules[c.ID] {
			if !day.Between(s.StartDate, s.EndDate) || s.DayOfWeek != weekday {
				continue
			}
			start, end := s.StartTime, s.EndTime
			id := s.ID
			slot := Slot{
				Course:       c,
				ScheduleType: s.ScheduleType,
				Start:        &start,
				End:          &end,
				Room:         s.Room,
				Location:     s.Location,
				Status:       SlotScheduled,
				ScheduleID:   &id,
			}
			switch {
			case holiday:
				slot.Status = SlotHoliday
			case cancelledOverlap(events, c.ID, s):
				slot.Status = SlotCancelled
			case movedBy(events, s.ID):
				slot.Status = SlotMoved
			}
			slots = append(slots, slot)
		}

		for i := range events {
			ev := events[i]
			if ev.CourseID != c.ID || ev.EventType.IsCancellation() {
				continue
			}
			id := ev.ID
			slots = append(slots, Slot{
				Course:       c,
				ScheduleType: ev.ScheduleType,
				Start:        ev.StartTime,
				End:          ev.EndTime,
				Room:         ev.Room,
				Location:     ev.Location,
				Status:       SlotExtra,
				EventType:    ev.EventType.Normalize(),
				Description:  ev.Description,
				EventID:      &id,
			})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i].Start, slots[j].Start
		switch {
		case a == nil && b == nil:
			return slots[i].Course.ShortName < slots[j].Course.ShortName
		case a == nil:
			return true
		case b == nil:
			return false
		case a.Minutes != b.Minutes:
			return a.Minutes < b.Minutes
		}
		return slots[i].Course.ShortName < slots[j].Course.ShortName
	})
	return slots
}

// cancelledOverlap 整天取消，或取消时段与安排时段重叠
func cancelledOverlap(events []model.CourseEvent, courseID int64, s model.CourseSchedule) bool {
	for i := range events {
		ev := &events[i]
		if ev.CourseID != courseID || !ev.EventType.IsCancellation() {
			continue
		}
		if ev.WholeDay() {
			return true
		}
		if ev.StartTime.Minutes < s.EndTime.Minutes && s.StartTime.Minutes < ev.EndTime.Minutes {
			return true
		}
	}
	return false
}

func movedBy(events []model.CourseEvent, scheduleID int64) bool {
	for _, ev := range events {
		if ev.ScheduleID != nil && *ev.ScheduleID == scheduleID && ev.EventType.Normalize() == model.EventOverride {
			return true
		}
	}
	return false
}
