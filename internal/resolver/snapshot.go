package resolver

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// LoadSnapshot 读取 day 当天判定所需的数据；没有当前学期时返回 Semester 为 nil 的快照。
// 已退课（is_dropped）的课程不参与判定。
func LoadSnapshot(ctx context.Context, repo *repository.Repository, day dates.Date) (*Snapshot, error) {
	snap := &Snapshot{Date: day, Schedules: make(map[int64][]model.CourseSchedule)}

	sem, err := repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return snap, nil
		}
		return nil, fmt.Errorf("load current semester: %w", err)
	}
	snap.Semester = sem

	courses, err := repo.Course.ListBySemester(ctx, sem.ID)
	if err != nil {
		return nil, fmt.Errorf("load courses: %w", err)
	}
	ids := make([]int64, 0, len(courses))
	active := make(map[int64]bool, len(courses))
	for _, c := range courses {
		if c.IsDropped {
			continue
		}
		snap.Courses = append(snap.Courses, c)
		ids = append(ids, c.ID)
		active[c.ID] = true
	}

	schedules, err := repo.Schedule.ListByCourses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load schedules: %w", err)
	}
	for _, s := range schedules {
		snap.Schedules[s.CourseID] = append(snap.Schedules[s.CourseID], s)
	}

	events, err := repo.Event.ListByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	for _, e := range events {
		if active[e.CourseID] {
			snap.Events = append(snap.Events, e)
		}
	}

	if snap.Holidays, err = repo.Holiday.ListCovering(ctx, day); err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	return snap, nil
}

// Course 按 id 查找快照中的课程
func (s *Snapshot) Course(id int64) (*model.Course, bool) {
	for i := range s.Courses {
		if s.Courses[i].ID == id {
			return &s.Courses[i], true
		}
	}
	return nil, false
}
