package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/resolver"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 课程安排模块业务错误 ──

var (
	ErrScheduleNotFound  = apperr.New(apperr.KindNotFound, "schedule not found")
	ErrEventNotFound     = apperr.New(apperr.KindNotFound, "event not found")
	ErrScheduleTimeRange = apperr.New(apperr.KindDateRange, "start time must be before end time")
	ErrScheduleDateRange = apperr.New(apperr.KindDateRange, "schedule end date must not be before its start date")
	ErrScheduleNoDates   = apperr.New(apperr.KindValidation, "start and end date are required because the semester has no dates")
	ErrEventTimePair     = apperr.New(apperr.KindValidation, "start and end time must be given together")
	ErrEventNeedsTime    = apperr.New(apperr.KindValidation, "start and end time are required for this event type")
	ErrScheduleMismatch  = apperr.New(apperr.KindValidation, "schedule does not belong to the course")
)

// DayAgenda 某天的日程及（当天时）此刻的当前课程
type DayAgenda struct {
	Date     dates.Date
	Semester *model.Semester
	Slots    []resolver.Slot
	Decision *resolver.Decision // 仅当 Date 为今天时有值
	Active   *model.Course
}

// ScheduleService 课程安排与单次事件业务接口
type ScheduleService interface {
	Add(ctx context.Context, req *dto.AddScheduleRequest) (*model.CourseSchedule, error)
	List(ctx context.Context, courseID int64) ([]model.CourseSchedule, error)
	Update(ctx context.Context, id int64, req *dto.UpdateScheduleRequest) (*model.CourseSchedule, error)
	Delete(ctx context.Context, id int64) error

	Cancel(ctx context.Context, req *dto.CancelRequest) (*model.CourseEvent, error)
	Override(ctx context.Context, req *dto.OverrideRequest) (*model.CourseEvent, error)
	AddEvent(ctx context.Context, req *dto.AddEventRequest) (*model.CourseEvent, error)
	ListEvents(ctx context.Context, courseID int64) ([]model.CourseEvent, error)
	DeleteEvent(ctx context.Context, id int64) error

	// Today day 当天的日程；day 与 now 同一天时附带此刻的判定结果
	Today(ctx context.Context, day dates.Date, now time.Time) (*DayAgenda, error)
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

// ────────────────────── Add ──────────────────────

func (s *scheduleService) Add(ctx context.Context, req *dto.AddScheduleRequest) (*model.CourseSchedule, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}

	schedule := &model.CourseSchedule{
		CourseID: course.ID,
		Room:     req.Room,
		Location: req.Location,
	}
	if schedule.ScheduleType, err = model.ParseScheduleType(req.Type); err != nil {
		return nil, apperr.Validation("type", err.Error())
	}
	if schedule.DayOfWeek, err = dates.ParseWeekday(req.Day); err != nil {
		return nil, apperr.Validation("day", err.Error())
	}
	if schedule.StartTime, err = parseClock("start_time", req.StartTime); err != nil {
		return nil, err
	}
	if schedule.EndTime, err = parseClock("end_time", req.EndTime); err != nil {
		return nil, err
	}

	// 日期缺省取学期起止
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if course.Semester != nil {
		if start == nil {
			start = course.Semester.StartDate
		}
		if end == nil {
			end = course.Semester.EndDate
		}
	}
	if start == nil || end == nil {
		return nil, ErrScheduleNoDates
	}
	schedule.StartDate, schedule.EndDate = *start, *end
	if schedule.Location == "" {
		schedule.Location = course.Location
	}

	if err := checkSchedule(schedule); err != nil {
		return nil, err
	}
	if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
		s.logger.Error("新增课程安排失败", zap.Int64("course_id", course.ID), zap.Error(err))
		return nil, storageErr("schedule.create", err)
	}
	return schedule, nil
}

// ────────────────────── List ──────────────────────

func (s *scheduleService) List(ctx context.Context, courseID int64) ([]model.CourseSchedule, error) {
	if _, err := getCourse(ctx, s.repo, courseID); err != nil {
		return nil, err
	}
	schedules, err := s.repo.Schedule.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("列出课程安排失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, storageErr("schedule.list", err)
	}
	return schedules, nil
}

// ────────────────────── Update ──────────────────────

func (s *scheduleService) Update(ctx context.Context, id int64, req *dto.UpdateScheduleRequest) (*model.CourseSchedule, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	schedule, err := s.getSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		if schedule.ScheduleType, err = model.ParseScheduleType(*req.Type); err != nil {
			return nil, apperr.Validation("type", err.Error())
		}
	}
	if req.Day != nil {
		if schedule.DayOfWeek, err = dates.ParseWeekday(*req.Day); err != nil {
			return nil, apperr.Validation("day", err.Error())
		}
	}
	if req.StartTime != nil {
		if schedule.StartTime, err = parseClock("start_time", *req.StartTime); err != nil {
			return nil, err
		}
	}
	if req.EndTime != nil {
		if schedule.EndTime, err = parseClock("end_time", *req.EndTime); err != nil {
			return nil, err
		}
	}
	if req.StartDate != nil {
		d, err := dates.Parse(*req.StartDate)
		if err != nil {
			return nil, apperr.Validation("start_date", err.Error())
		}
		schedule.StartDate = d
	}
	if req.EndDate != nil {
		d, err := dates.Parse(*req.EndDate)
		if err != nil {
			return nil, apperr.Validation("end_date", err.Error())
		}
		schedule.EndDate = d
	}
	if req.Room != nil {
		schedule.Room = *req.Room
	}
	if req.Location != nil {
		schedule.Location = *req.Location
	}

	if err := checkSchedule(schedule); err != nil {
		return nil, err
	}
	if err := s.repo.Schedule.Update(ctx, schedule); err != nil {
		s.logger.Error("更新课程安排失败", zap.Int64("id", id), zap.Error(err))
		return nil, storageErr("schedule.update", err)
	}
	return schedule, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scheduleService) Delete(ctx context.Context, id int64) error {
	if _, err := s.getSchedule(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Schedule.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程安排失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("schedule.delete", err)
	}
	return nil
}

// ────────────────────── Cancel ──────────────────────

// Cancel 取消某日的课程；不给时间时整天取消
func (s *scheduleService) Cancel(ctx context.Context, req *dto.CancelRequest) (*model.CourseEvent, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}
	day, err := dates.Parse(req.Date)
	if err != nil {
		return nil, apperr.Validation("date", err.Error())
	}
	start, end, err := timePair(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	event := &model.CourseEvent{
		CourseID:     course.ID,
		EventType:    model.EventCancelled,
		ScheduleType: model.ScheduleLecture,
		Date:         day,
		StartTime:    start,
		EndTime:      end,
		Description:  req.Description,
	}
	schedule, err := s.matchSchedule(ctx, course.ID, req.ScheduleID, day, start, true)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		id := schedule.ID
		event.ScheduleID = &id
		event.ScheduleType = schedule.ScheduleType
	}

	return s.createEvent(ctx, event)
}

// ────────────────────── Override ──────────────────────

// Override 某日替换：换教室、换时间，或由 req.CourseID 指定的课程占用该时段。
// ScheduleID 可指向被替换的（其他课程的）每周安排。
func (s *scheduleService) Override(ctx context.Context, req *dto.OverrideRequest) (*model.CourseEvent, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}
	day, err := dates.Parse(req.Date)
	if err != nil {
		return nil, apperr.Validation("date", err.Error())
	}
	start, end, err := timePair(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	event := &model.CourseEvent{
		CourseID:     course.ID,
		EventType:    model.EventOverride,
		ScheduleType: model.ScheduleLecture,
		Date:         day,
		StartTime:    start,
		EndTime:      end,
		Room:         req.Room,
		Location:     req.Location,
		Description:  req.Description,
	}
	schedule, err := s.matchSchedule(ctx, course.ID, req.ScheduleID, day, start, false)
	if err != nil {
		return nil, err
	}
	if schedule != nil {
		id := schedule.ID
		event.ScheduleID = &id
		event.ScheduleType = schedule.ScheduleType
		if event.Room == "" && schedule.CourseID == course.ID {
			event.Room = schedule.Room
		}
	}

	return s.createEvent(ctx, event)
}

// ────────────────────── AddEvent ──────────────────────

func (s *scheduleService) AddEvent(ctx context.Context, req *dto.AddEventRequest) (*model.CourseEvent, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, req.CourseID)
	if err != nil {
		return nil, err
	}
	eventType, err := model.ParseEventType(req.EventType)
	if err != nil {
		return nil, apperr.Validation("event_type", err.Error())
	}
	scheduleType := model.ScheduleLecture
	if req.ScheduleType != "" {
		if scheduleType, err = model.ParseScheduleType(req.ScheduleType); err != nil {
			return nil, apperr.Validation("schedule_type", err.Error())
		}
	}
	day, err := dates.Parse(req.Date)
	if err != nil {
		return nil, apperr.Validation("date", err.Error())
	}
	start, end, err := timePair(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	// 整天只对取消有意义
	if eventType.IsReplacement() && start == nil {
		return nil, fmt.Errorf("%w: %s", ErrEventNeedsTime, eventType)
	}

	return s.createEvent(ctx, &model.CourseEvent{
		CourseID:     course.ID,
		EventType:    eventType,
		ScheduleType: scheduleType,
		Date:         day,
		StartTime:    start,
		EndTime:      end,
		Room:         req.Room,
		Location:     req.Location,
		Description:  req.Description,
	})
}

// ────────────────────── ListEvents / DeleteEvent ──────────────────────

func (s *scheduleService) ListEvents(ctx context.Context, courseID int64) ([]model.CourseEvent, error) {
	if _, err := getCourse(ctx, s.repo, courseID); err != nil {
		return nil, err
	}
	events, err := s.repo.Event.ListByCourse(ctx, courseID)
	if err != nil {
		s.logger.Error("列出事件失败", zap.Int64("course_id", courseID), zap.Error(err))
		return nil, storageErr("event.list", err)
	}
	return events, nil
}

func (s *scheduleService) DeleteEvent(ctx context.Context, id int64) error {
	if _, err := s.repo.Event.GetByID(ctx, id); err != nil {
		return notFoundOr(err, ErrEventNotFound, idKey(id), "event.get")
	}
	if err := s.repo.Event.Delete(ctx, id); err != nil {
		s.logger.Error("删除事件失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("event.delete", err)
	}
	return nil
}

// ────────────────────── Today ──────────────────────

func (s *scheduleService) Today(ctx context.Context, day dates.Date, now time.Time) (*DayAgenda, error) {
	snap, err := resolver.LoadSnapshot(ctx, s.repo, day)
	if err != nil {
		s.logger.Error("加载日程快照失败", zap.String("date", day.String()), zap.Error(err))
		return nil, storageErr("schedule.today", err)
	}

	agenda := &DayAgenda{
		Date:     day,
		Semester: snap.Semester,
		Slots:    resolver.Agenda(snap, day),
	}
	if dates.DateOf(now).Equal(day) {
		d := resolver.Decide(snap, now)
		agenda.Decision = &d
		if d.Active() {
			agenda.Active, _ = snap.Course(d.CourseID)
		}
	}
	return agenda, nil
}

// ── 辅助函数 ──

func (s *scheduleService) getSchedule(ctx context.Context, id int64) (*model.CourseSchedule, error) {
	schedule, err := s.repo.Schedule.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrScheduleNotFound, idKey(id), "schedule.get")
	}
	return schedule, nil
}

// matchSchedule 事件关联的每周安排：显式给出时校验，否则取该课程当天（覆盖 start 时刻的）第一条安排
func (s *scheduleService) matchSchedule(ctx context.Context, courseID int64, scheduleID *int64, day dates.Date, start *dates.Clock, sameCourse bool) (*model.CourseSchedule, error) {
	if scheduleID != nil {
		schedule, err := s.getSchedule(ctx, *scheduleID)
		if err != nil {
			return nil, err
		}
		if sameCourse && schedule.CourseID != courseID {
			return nil, ErrScheduleMismatch
		}
		return schedule, nil
	}

	schedules, err := s.repo.Schedule.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, storageErr("schedule.list", err)
	}
	for i := range schedules {
		sc := &schedules[i]
		if !sc.Covers(day) {
			continue
		}
		if start == nil || start.Within(sc.StartTime, sc.EndTime) {
			return sc, nil
		}
	}
	return nil, nil
}

func (s *scheduleService) createEvent(ctx context.Context, event *model.CourseEvent) (*model.CourseEvent, error) {
	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("新增事件失败",
			zap.Int64("course_id", event.CourseID),
			zap.String("type", event.EventType.String()),
			zap.Error(err),
		)
		return nil, storageErr("event.create", err)
	}
	return event, nil
}

func checkSchedule(sc *model.CourseSchedule) error {
	if !sc.StartTime.Before(sc.EndTime) {
		return ErrScheduleTimeRange
	}
	if sc.EndDate.Before(sc.StartDate) {
		return ErrScheduleDateRange
	}
	return nil
}

// timePair 起止时间必须同时给出或同时省略
func timePair(startStr, endStr string) (*dates.Clock, *dates.Clock, error) {
	if startStr == "" && endStr == "" {
		return nil, nil, nil
	}
	if startStr == "" || endStr == "" {
		return nil, nil, ErrEventTimePair
	}
	start, err := parseClock("start_time", startStr)
	if err != nil {
		return nil, nil, err
	}
	end, err := parseClock("end_time", endStr)
	if err != nil {
		return nil, nil, err
	}
	if !start.Before(end) {
		return nil, nil, ErrScheduleTimeRange
	}
	return &start, &end, nil
}
