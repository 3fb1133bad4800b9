package service

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// errUnique 模拟 SQLite 唯一约束冲突
var errUnique = errors.New("UNIQUE constraint failed: mock")

// ── Mock SemesterRepository ──

type mockSemesterRepo struct {
	items  map[int64]*model.Semester
	nextID int64
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{items: make(map[int64]*model.Semester)}
}

func (m *mockSemesterRepo) Create(_ context.Context, s *model.Semester) error {
	for _, it := range m.items {
		if it.Type == s.Type && it.Number == s.Number {
			return errUnique
		}
	}
	m.nextID++
	s.ID = m.nextID
	m.items[s.ID] = s
	return nil
}

func (m *mockSemesterRepo) GetByID(_ context.Context, id int64) (*model.Semester, error) {
	if s, ok := m.items[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetByCode(_ context.Context, t model.SemesterType, n int) (*model.Semester, error) {
	for _, s := range m.items {
		if s.Type == t && s.Number == n {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.items {
		if s.IsCurrent {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var result []model.Semester
	for _, s := range m.items {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockSemesterRepo) Update(_ context.Context, s *model.Semester) error {
	m.items[s.ID] = s
	return nil
}

func (m *mockSemesterRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockSemesterRepo) ClearCurrent(_ context.Context) error {
	for _, s := range m.items {
		s.IsCurrent = false
	}
	return nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	items     map[int64]*model.Course
	semesters *mockSemesterRepo
	mapped    map[int64]bool
	nextID    int64
}

func newMockCourseRepo(semesters *mockSemesterRepo) *mockCourseRepo {
	return &mockCourseRepo{items: make(map[int64]*model.Course), semesters: semesters, mapped: make(map[int64]bool)}
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	for _, it := range m.items {
		if it.SemesterID == c.SemesterID && it.ShortName == c.ShortName {
			return errUnique
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.items[c.ID] = c
	return nil
}

func (m *mockCourseRepo) attach(c *model.Course) *model.Course {
	if c.Semester == nil {
		c.Semester = m.semesters.items[c.SemesterID]
	}
	return c
}

func (m *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if c, ok := m.items[id]; ok {
		return m.attach(c), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByShortName(_ context.Context, semesterID int64, short string) (*model.Course, error) {
	for _, c := range m.items {
		if c.SemesterID == semesterID && c.ShortName == short {
			return m.attach(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) ListBySemester(_ context.Context, semesterID int64) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.items {
		if c.SemesterID == semesterID {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ShortName < result[j].ShortName })
	return result, nil
}

func (m *mockCourseRepo) ListAll(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.items {
		result = append(result, *m.attach(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCourseRepo) ListUnmapped(ctx context.Context) ([]model.Course, error) {
	all, _ := m.ListAll(ctx)
	var result []model.Course
	for _, c := range all {
		if !m.mapped[c.ID] {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	m.items[c.ID] = c
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// ── Mock DegreeRepository ──

type mockDegreeRepo struct {
	degrees  map[int64]*model.Degree
	areas    map[int64]*model.DegreeArea
	mappings []model.CourseDegreeMapping
	progress map[int64][]model.DegreeProgress
	courses  *mockCourseRepo
	nextID   int64
}

func newMockDegreeRepo(courses *mockCourseRepo) *mockDegreeRepo {
	return &mockDegreeRepo{
		degrees:  make(map[int64]*model.Degree),
		areas:    make(map[int64]*model.DegreeArea),
		progress: make(map[int64][]model.DegreeProgress),
		courses:  courses,
	}
}

func (m *mockDegreeRepo) Create(ctx context.Context, d *model.Degree) error {
	m.nextID++
	d.ID = m.nextID
	m.degrees[d.ID] = d
	for i := range d.Areas {
		d.Areas[i].DegreeID = d.ID
		if err := m.CreateArea(ctx, &d.Areas[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockDegreeRepo) GetByID(_ context.Context, id int64) (*model.Degree, error) {
	if d, ok := m.degrees[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDegreeRepo) List(_ context.Context) ([]model.Degree, error) {
	var result []model.Degree
	for _, d := range m.degrees {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDegreeRepo) Update(_ context.Context, d *model.Degree) error {
	m.degrees[d.ID] = d
	return nil
}

func (m *mockDegreeRepo) Delete(_ context.Context, id int64) error {
	delete(m.degrees, id)
	return nil
}

func (m *mockDegreeRepo) CreateArea(_ context.Context, a *model.DegreeArea) error {
	for _, it := range m.areas {
		if it.DegreeID == a.DegreeID && it.CategoryName == a.CategoryName {
			return errUnique
		}
	}
	m.nextID++
	a.ID = m.nextID
	m.areas[a.ID] = a
	return nil
}

func (m *mockDegreeRepo) GetArea(_ context.Context, id int64) (*model.DegreeArea, error) {
	if a, ok := m.areas[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDegreeRepo) ListAreas(_ context.Context, degreeID int64) ([]model.DegreeArea, error) {
	var result []model.DegreeArea
	for _, a := range m.areas {
		if a.DegreeID == degreeID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].DisplayOrder < result[j].DisplayOrder })
	return result, nil
}

func (m *mockDegreeRepo) Map(_ context.Context, mp *model.CourseDegreeMapping) error {
	for i, it := range m.mappings {
		if it.CourseID == mp.CourseID && it.DegreeID == mp.DegreeID {
			m.mappings[i] = *mp
			return nil
		}
	}
	m.mappings = append(m.mappings, *mp)
	if m.courses != nil {
		m.courses.mapped[mp.CourseID] = true
	}
	return nil
}

func (m *mockDegreeRepo) Unmap(_ context.Context, courseID, degreeID int64) error {
	for i, it := range m.mappings {
		if it.CourseID == courseID && it.DegreeID == degreeID {
			m.mappings = append(m.mappings[:i], m.mappings[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockDegreeRepo) ListMappings(_ context.Context, degreeID int64) ([]model.CourseDegreeMapping, error) {
	var result []model.CourseDegreeMapping
	for _, it := range m.mappings {
		if it.DegreeID != degreeID {
			continue
		}
		it.Area = m.areas[it.AreaID]
		if m.courses != nil {
			it.Course = m.courses.items[it.CourseID]
		}
		result = append(result, it)
	}
	return result, nil
}

func (m *mockDegreeRepo) Progress(_ context.Context, degreeID int64) ([]model.DegreeProgress, error) {
	return m.progress[degreeID], nil
}

// ── Mock CourseScheduleRepository ──

type mockScheduleRepo struct {
	items  map[int64]*model.CourseSchedule
	nextID int64
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{items: make(map[int64]*model.CourseSchedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, s *model.CourseSchedule) error {
	m.nextID++
	s.ID = m.nextID
	m.items[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id int64) (*model.CourseSchedule, error) {
	if s, ok := m.items[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListByCourse(ctx context.Context, courseID int64) ([]model.CourseSchedule, error) {
	return m.ListByCourses(ctx, []int64{courseID})
}

func (m *mockScheduleRepo) ListByCourses(_ context.Context, courseIDs []int64) ([]model.CourseSchedule, error) {
	want := make(map[int64]bool, len(courseIDs))
	for _, id := range courseIDs {
		want[id] = true
	}
	var result []model.CourseSchedule
	for _, s := range m.items {
		if want[s.CourseID] {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockScheduleRepo) Update(_ context.Context, s *model.CourseSchedule) error {
	m.items[s.ID] = s
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// ── Mock CourseEventRepository ──

type mockEventRepo struct {
	items  map[int64]*model.CourseEvent
	nextID int64
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{items: make(map[int64]*model.CourseEvent)}
}

func (m *mockEventRepo) Create(_ context.Context, e *model.CourseEvent) error {
	m.nextID++
	e.ID = m.nextID
	m.items[e.ID] = e
	return nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*model.CourseEvent, error) {
	if e, ok := m.items[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEventRepo) ListByDate(_ context.Context, d dates.Date) ([]model.CourseEvent, error) {
	var result []model.CourseEvent
	for _, e := range m.items {
		if e.Date.Equal(d) {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockEventRepo) ListByCourse(_ context.Context, courseID int64) ([]model.CourseEvent, error) {
	var result []model.CourseEvent
	for _, e := range m.items {
		if e.CourseID == courseID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	items  map[int64]*model.Holiday
	nextID int64
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{items: make(map[int64]*model.Holiday)}
}

func (m *mockHolidayRepo) Create(_ context.Context, h *model.Holiday) error {
	m.nextID++
	h.ID = m.nextID
	m.items[h.ID] = h
	return nil
}

func (m *mockHolidayRepo) GetByID(_ context.Context, id int64) (*model.Holiday, error) {
	if h, ok := m.items[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHolidayRepo) List(_ context.Context) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.items {
		result = append(result, *h)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockHolidayRepo) ListCovering(_ context.Context, d dates.Date) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.items {
		if h.Covers(d) {
			result = append(result, *h)
		}
	}
	return result, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

func (m *mockHolidayRepo) AddException(_ context.Context, holidayID, courseID int64) error {
	h := m.items[holidayID]
	for _, ex := range h.Exceptions {
		if ex.CourseID == courseID {
			return nil
		}
	}
	h.Exceptions = append(h.Exceptions, model.HolidayException{HolidayID: holidayID, CourseID: courseID})
	return nil
}

func (m *mockHolidayRepo) RemoveException(_ context.Context, holidayID, courseID int64) error {
	h := m.items[holidayID]
	for i, ex := range h.Exceptions {
		if ex.CourseID == courseID {
			h.Exceptions = append(h.Exceptions[:i], h.Exceptions[i+1:]...)
			break
		}
	}
	return nil
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	items   map[int64]*model.Grade
	courses *mockCourseRepo
	nextID  int64
}

func newMockGradeRepo(courses *mockCourseRepo) *mockGradeRepo {
	return &mockGradeRepo{items: make(map[int64]*model.Grade), courses: courses}
}

func (m *mockGradeRepo) Create(_ context.Context, g *model.Grade) error {
	m.nextID++
	g.ID = m.nextID
	m.items[g.ID] = g
	return nil
}

func (m *mockGradeRepo) GetByID(_ context.Context, id int64) (*model.Grade, error) {
	if g, ok := m.items[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGradeRepo) ListByCourse(_ context.Context, courseID int64) ([]model.Grade, error) {
	var result []model.Grade
	for _, g := range m.items {
		if g.CourseID == courseID {
			result = append(result, *g)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGradeRepo) ListFinal(_ context.Context) ([]model.Grade, error) {
	var result []model.Grade
	for _, g := range m.items {
		if !g.IsFinal {
			continue
		}
		row := *g
		if c, ok := m.courses.items[g.CourseID]; ok {
			row.Course = m.courses.attach(c)
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockGradeRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// ── Mock ActivePointerRepository ──

type mockPointerRepo struct {
	pointer *model.ActivePointer
	saves   int
}

func (m *mockPointerRepo) Get(_ context.Context) (*model.ActivePointer, error) {
	if m.pointer == nil {
		return nil, gorm.ErrRecordNotFound
	}
	p := *m.pointer
	return &p, nil
}

func (m *mockPointerRepo) Save(_ context.Context, p *model.ActivePointer) error {
	cp := *p
	m.pointer = &cp
	m.saves++
	return nil
}

// ── 组合 ──

// mockRepos 全部 mock，测试中直接操作其中的数据
type mockRepos struct {
	semesters *mockSemesterRepo
	courses   *mockCourseRepo
	degrees   *mockDegreeRepo
	schedules *mockScheduleRepo
	events    *mockEventRepo
	holidays  *mockHolidayRepo
	grades    *mockGradeRepo
	pointer   *mockPointerRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	semesters := newMockSemesterRepo()
	courses := newMockCourseRepo(semesters)
	m := &mockRepos{
		semesters: semesters,
		courses:   courses,
		degrees:   newMockDegreeRepo(courses),
		schedules: newMockScheduleRepo(),
		events:    newMockEventRepo(),
		holidays:  newMockHolidayRepo(),
		grades:    newMockGradeRepo(courses),
		pointer:   &mockPointerRepo{},
	}
	repo := &repository.Repository{
		Semester:      m.semesters,
		Course:        m.courses,
		Degree:        m.degrees,
		Schedule:      m.schedules,
		Event:         m.events,
		Holiday:       m.holidays,
		Grade:         m.grades,
		ActivePointer: m.pointer,
	}
	return repo, m
}
