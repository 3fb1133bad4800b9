package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/resolver"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// ── 测试辅助 ──

type scheduleFixture struct {
	svc     ScheduleService
	holiday HolidayService
	m       *mockRepos
	algo    *model.Course
	lab     *model.Course
}

// setupTestScheduleService 当前学期 b3（2024-10-01 至 2025-02-01），课程 algo 与 labwork
func setupTestScheduleService() *scheduleFixture {
	repo, m := newMockRepos()
	ctx := context.Background()
	start, end := dates.NewDate(2024, time.October, 1), dates.NewDate(2025, time.February, 1)
	sem := &model.Semester{Type: model.SemesterBachelor, Number: 3, IsCurrent: true, StartDate: &start, EndDate: &end}
	m.semesters.Create(ctx, sem)

	algo := &model.Course{SemesterID: sem.ID, ShortName: "algo", Name: "Algorithms", ECTS: 8, Location: "Garching"}
	lab := &model.Course{SemesterID: sem.ID, ShortName: "labwork", Name: "Lab", ECTS: 5}
	m.courses.Create(ctx, algo)
	m.courses.Create(ctx, lab)

	return &scheduleFixture{
		svc:     NewScheduleService(repo, zap.NewNop()),
		holiday: NewHolidayService(repo, zap.NewNop()),
		m:       m,
		algo:    algo,
		lab:     lab,
	}
}

// mondayLecture algo 每周一 14:00-16:00
func (f *scheduleFixture) mondayLecture(t *testing.T) *model.CourseSchedule {
	t.Helper()
	sc, err := f.svc.Add(context.Background(), &dto.AddScheduleRequest{
		CourseID:  f.algo.ID,
		Type:      "lecture",
		Day:       "monday",
		StartTime: "14:00",
		EndTime:   "16:00",
		Room:      "HS1",
	})
	if err != nil {
		t.Fatalf("Add 应成功: %v", err)
	}
	return sc
}

var (
	testMonday  = dates.NewDate(2024, time.November, 18)
	testInstant = time.Date(2024, time.November, 18, 14, 30, 0, 0, time.Local)
)

// ── Add 测试 ──

func TestScheduleService_Add_DefaultsFromSemester(t *testing.T) {
	f := setupTestScheduleService()
	sc := f.mondayLecture(t)

	if !sc.StartDate.Equal(dates.NewDate(2024, time.October, 1)) || !sc.EndDate.Equal(dates.NewDate(2025, time.February, 1)) {
		t.Errorf("日期应取学期起止，实际 %s ~ %s", sc.StartDate, sc.EndDate)
	}
	if sc.DayOfWeek != 0 {
		t.Errorf("monday 应解析为 0，实际 %d", sc.DayOfWeek)
	}
	if sc.Location != "Garching" {
		t.Errorf("location 应继承课程，实际 %q", sc.Location)
	}
}

func TestScheduleService_Add_TimeRange(t *testing.T) {
	f := setupTestScheduleService()

	_, err := f.svc.Add(context.Background(), &dto.AddScheduleRequest{
		CourseID: f.algo.ID, Type: "lecture", Day: "mon", StartTime: "16:00", EndTime: "14:00",
	})
	if !errors.Is(err, ErrScheduleTimeRange) {
		t.Errorf("期望 ErrScheduleTimeRange，实际: %v", err)
	}
}

func TestScheduleService_Add_NoDates(t *testing.T) {
	f := setupTestScheduleService()
	sem := f.m.semesters.items[f.algo.SemesterID]
	sem.StartDate, sem.EndDate = nil, nil

	_, err := f.svc.Add(context.Background(), &dto.AddScheduleRequest{
		CourseID: f.algo.ID, Type: "lecture", Day: "mon", StartTime: "14:00", EndTime: "16:00",
	})
	if !errors.Is(err, ErrScheduleNoDates) {
		t.Errorf("期望 ErrScheduleNoDates，实际: %v", err)
	}
}

func TestScheduleService_Update(t *testing.T) {
	f := setupTestScheduleService()
	sc := f.mondayLecture(t)

	room := "HS2"
	end := "13:00"
	if _, err := f.svc.Update(context.Background(), sc.ID, &dto.UpdateScheduleRequest{Room: &room}); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if f.m.schedules.items[sc.ID].Room != "HS2" {
		t.Error("room 应已更新")
	}
	_, err := f.svc.Update(context.Background(), sc.ID, &dto.UpdateScheduleRequest{EndTime: &end})
	if !errors.Is(err, ErrScheduleTimeRange) {
		t.Errorf("期望 ErrScheduleTimeRange，实际: %v", err)
	}
}

// ── Cancel / Override / AddEvent 测试 ──

func TestScheduleService_Cancel_WholeDay(t *testing.T) {
	f := setupTestScheduleService()
	sc := f.mondayLecture(t)

	ev, err := f.svc.Cancel(context.Background(), &dto.CancelRequest{CourseID: f.algo.ID, Date: "18.11.2024"})
	if err != nil {
		t.Fatalf("Cancel 应成功: %v", err)
	}
	if !ev.WholeDay() || ev.EventType != model.EventCancelled {
		t.Errorf("应为整天取消事件，实际 %+v", ev)
	}
	if ev.ScheduleID == nil || *ev.ScheduleID != sc.ID {
		t.Error("应自动关联当天的每周安排")
	}
}

func TestScheduleService_Cancel_ForeignSchedule(t *testing.T) {
	f := setupTestScheduleService()
	sc := f.mondayLecture(t)

	_, err := f.svc.Cancel(context.Background(), &dto.CancelRequest{
		CourseID: f.lab.ID, Date: "2024-11-18", ScheduleID: &sc.ID,
	})
	if !errors.Is(err, ErrScheduleMismatch) {
		t.Errorf("期望 ErrScheduleMismatch，实际: %v", err)
	}
}

func TestScheduleService_Cancel_TimePair(t *testing.T) {
	f := setupTestScheduleService()

	_, err := f.svc.Cancel(context.Background(), &dto.CancelRequest{
		CourseID: f.algo.ID, Date: "2024-11-18", StartTime: "14:00",
	})
	if !errors.Is(err, ErrEventTimePair) {
		t.Errorf("期望 ErrEventTimePair，实际: %v", err)
	}
}

func TestScheduleService_AddEvent_NeedsTime(t *testing.T) {
	f := setupTestScheduleService()

	_, err := f.svc.AddEvent(context.Background(), &dto.AddEventRequest{
		CourseID: f.algo.ID, EventType: "makeup", Date: "2024-11-20",
	})
	if !errors.Is(err, ErrEventNeedsTime) {
		t.Errorf("期望 ErrEventNeedsTime，实际: %v", err)
	}
}

func TestScheduleService_DeleteEvent(t *testing.T) {
	f := setupTestScheduleService()
	ctx := context.Background()
	ev, _ := f.svc.AddEvent(ctx, &dto.AddEventRequest{
		CourseID: f.algo.ID, EventType: "special", Date: "2024-11-20", StartTime: "10:00", EndTime: "12:00",
	})

	if err := f.svc.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("DeleteEvent 应成功: %v", err)
	}
	if err := f.svc.DeleteEvent(ctx, ev.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("期望 ErrEventNotFound，实际: %v", err)
	}
}

// ── Today 测试 ──

func TestScheduleService_Today_Active(t *testing.T) {
	f := setupTestScheduleService()
	f.mondayLecture(t)

	agenda, err := f.svc.Today(context.Background(), testMonday, testInstant)
	if err != nil {
		t.Fatalf("Today 应成功: %v", err)
	}
	if len(agenda.Slots) != 1 || agenda.Slots[0].Status != resolver.SlotScheduled {
		t.Fatalf("应有 1 条正常日程，实际 %+v", agenda.Slots)
	}
	if agenda.Active == nil || agenda.Active.ID != f.algo.ID {
		t.Errorf("14:30 当前课程应为 algo，实际 %v", agenda.Active)
	}
}

func TestScheduleService_Today_Cancelled(t *testing.T) {
	f := setupTestScheduleService()
	f.mondayLecture(t)
	ctx := context.Background()
	f.svc.Cancel(ctx, &dto.CancelRequest{CourseID: f.algo.ID, Date: "2024-11-18"})

	agenda, err := f.svc.Today(ctx, testMonday, testInstant)
	if err != nil {
		t.Fatal(err)
	}
	if agenda.Active != nil {
		t.Errorf("取消后不应有当前课程，实际 %s", agenda.Active.ShortName)
	}
	if agenda.Slots[0].Status != resolver.SlotCancelled {
		t.Errorf("日程应标记为 cancelled，实际 %s", agenda.Slots[0].Status)
	}
}

func TestScheduleService_Today_Override(t *testing.T) {
	f := setupTestScheduleService()
	sc := f.mondayLecture(t)
	ctx := context.Background()

	_, err := f.svc.Override(ctx, &dto.OverrideRequest{
		CourseID: f.lab.ID, Date: "2024-11-18", StartTime: "14:00", EndTime: "16:00", ScheduleID: &sc.ID,
	})
	if err != nil {
		t.Fatalf("Override 应成功: %v", err)
	}
	agenda, _ := f.svc.Today(ctx, testMonday, testInstant)
	if agenda.Active == nil || agenda.Active.ID != f.lab.ID {
		t.Errorf("替换后当前课程应为 labwork，实际 %v", agenda.Active)
	}
}

func TestScheduleService_Today_HolidayException(t *testing.T) {
	f := setupTestScheduleService()
	f.mondayLecture(t)
	ctx := context.Background()

	h, err := f.holiday.Add(ctx, &dto.AddHolidayRequest{Name: "Dies Academicus", StartDate: "2024-11-18", EndDate: "2024-11-18"})
	if err != nil {
		t.Fatalf("新增假期应成功: %v", err)
	}
	agenda, _ := f.svc.Today(ctx, testMonday, testInstant)
	if agenda.Active != nil {
		t.Error("假期中不应有当前课程")
	}

	if err := f.holiday.AddException(ctx, h.ID, f.algo.ID); err != nil {
		t.Fatalf("AddException 应成功: %v", err)
	}
	agenda, _ = f.svc.Today(ctx, testMonday, testInstant)
	if agenda.Active == nil || agenda.Active.ID != f.algo.ID {
		t.Errorf("有例外时当前课程应为 algo，实际 %v", agenda.Active)
	}
}

func TestScheduleService_Today_OtherDayHasNoDecision(t *testing.T) {
	f := setupTestScheduleService()
	f.mondayLecture(t)

	agenda, err := f.svc.Today(context.Background(), testMonday.AddDays(7), testInstant)
	if err != nil {
		t.Fatal(err)
	}
	if agenda.Decision != nil {
		t.Error("非今天的日程不应附带判定结果")
	}
	if len(agenda.Slots) != 1 {
		t.Errorf("下周一仍应有 1 条日程，实际 %d", len(agenda.Slots))
	}
}

// ── Holiday 测试 ──

func TestHolidayService_Add_DateRange(t *testing.T) {
	f := setupTestScheduleService()

	_, err := f.holiday.Add(context.Background(), &dto.AddHolidayRequest{Name: "X", StartDate: "2024-12-24", EndDate: "2024-12-23"})
	if !errors.Is(err, ErrHolidayDateRange) {
		t.Errorf("期望 ErrHolidayDateRange，实际: %v", err)
	}
}

func TestHolidayService_Exception_UnknownHoliday(t *testing.T) {
	f := setupTestScheduleService()

	err := f.holiday.AddException(context.Background(), 42, f.algo.ID)
	if !errors.Is(err, ErrHolidayNotFound) {
		t.Errorf("期望 ErrHolidayNotFound，实际: %v", err)
	}
}
