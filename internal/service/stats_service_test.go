package service

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

// ── 测试辅助 ──

type statsFixture struct {
	repo   *repository.Repository
	m      *mockRepos
	degree *model.Degree
	core   *model.DegreeArea
	soft   *model.DegreeArea
	course map[string]*model.Course
}

// setupStatsFixture 构造如下数据：
//
//	b1: algo 8 ECTS（先 5.0 后 1.3）、db 6 ECTS 2.0（另有一条非最终 1.0）
//	b2: pf 5 ECTS 通过（Pass/Fail）、ana 4 ECTS 5.0、soft 5 ECTS 1.0、sem 3 ECTS 无成绩
//	学位：algo → Core（ects_override 10，计 GPA）；soft → Soft Skills（不计 GPA）
func setupStatsFixture() *statsFixture {
	repo, m := newMockRepos()
	ctx := context.Background()
	f := &statsFixture{repo: repo, m: m, course: make(map[string]*model.Course)}

	b1 := &model.Semester{Type: model.SemesterBachelor, Number: 1}
	b2 := &model.Semester{Type: model.SemesterBachelor, Number: 2, IsCurrent: true}
	m.semesters.Create(ctx, b1)
	m.semesters.Create(ctx, b2)

	add := func(sem *model.Semester, short string, ects int) {
		c := &model.Course{SemesterID: sem.ID, ShortName: short, Name: short, ECTS: ects}
		m.courses.Create(ctx, c)
		f.course[short] = c
	}
	add(b1, "algo", 8)
	add(b1, "db", 6)
	add(b2, "pf", 5)
	add(b2, "ana", 4)
	add(b2, "soft", 5)
	add(b2, "sem", 3)

	t0 := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	grade := func(short string, value float64, scheme grading.Scheme, final bool, at time.Time) {
		examDate := dates.DateOf(at)
		m.grades.Create(ctx, &model.Grade{
			CourseID:      f.course[short].ID,
			Grade:         value,
			GradingScheme: scheme,
			IsFinal:       final,
			Passed:        grading.Passed(value, scheme),
			AttemptNumber: 1,
			ExamDate:      &examDate,
			RecordedAt:    at,
		})
	}
	grade("algo", 5.0, grading.German, true, t0)
	grade("algo", 1.3, grading.German, true, t0.AddDate(0, 2, 0))
	grade("db", 2.0, grading.German, true, t0)
	grade("db", 1.0, grading.German, false, t0.AddDate(0, 0, 1))
	grade("pf", 1, grading.PassFail, true, t0)
	grade("ana", 5.0, grading.German, true, t0)
	grade("soft", 1.0, grading.German, true, t0)

	f.degree = &model.Degree{
		Type:              model.DegreeBachelor,
		Name:              "Informatik",
		University:        "TUM",
		TotalECTSRequired: 180,
		Areas: []model.DegreeArea{
			{CategoryName: "Core", RequiredECTS: 120, CountsTowardsGPA: true, DisplayOrder: 1},
			{CategoryName: "Soft Skills", RequiredECTS: 6, CountsTowardsGPA: false, DisplayOrder: 2},
		},
	}
	m.degrees.Create(ctx, f.degree)
	f.core, f.soft = &f.degree.Areas[0], &f.degree.Areas[1]

	override := 10
	m.degrees.Map(ctx, &model.CourseDegreeMapping{CourseID: f.course["algo"].ID, DegreeID: f.degree.ID, AreaID: f.core.ID, ECTSOverride: &override})
	m.degrees.Map(ctx, &model.CourseDegreeMapping{CourseID: f.course["soft"].ID, DegreeID: f.degree.ID, AreaID: f.soft.ID})
	return f
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// ── OverallGPA 测试 ──

func TestStatsService_OverallGPA(t *testing.T) {
	f := setupStatsFixture()
	svc := NewStatsService(f.repo, zap.NewNop())

	res, err := svc.OverallGPA(context.Background(), false)
	if err != nil {
		t.Fatalf("OverallGPA 应成功: %v", err)
	}
	// (1.3·8 + 2.0·6) / 14 = 1.6
	if !res.HasData || !almostEqual(res.GPA, 1.6) || res.ECTS != 14 || res.Courses != 2 {
		t.Errorf("期望 GPA 1.6 / 14 ECTS / 2 门，实际 %+v", res)
	}

	withSoft, _ := svc.OverallGPA(context.Background(), true)
	// (1.3·8 + 2.0·6 + 1.0·5) / 19 = 1.442…
	if !almostEqual(withSoft.GPA, 1.44) || withSoft.ECTS != 19 {
		t.Errorf("包含不计 GPA 模块时期望 1.44 / 19 ECTS，实际 %+v", withSoft)
	}
}

// ── SemesterGPA 测试 ──

func TestStatsService_SemesterGPA(t *testing.T) {
	f := setupStatsFixture()
	svc := NewStatsService(f.repo, zap.NewNop())
	ctx := context.Background()

	b1, err := svc.SemesterGPA(ctx, "b1", false)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(b1.GPA, 1.6) {
		t.Errorf("b1 期望 1.6，实际 %v", b1.GPA)
	}

	// b2 只有 Pass/Fail、未通过和不计 GPA 的课程
	b2, _ := svc.SemesterGPA(ctx, "b2", false)
	if b2.HasData {
		t.Errorf("b2 不应有可计入 GPA 的成绩，实际 %+v", b2)
	}
}

// ── DegreeGPA / AreaGPA 测试 ──

func TestStatsService_DegreeGPA_UsesOverride(t *testing.T) {
	f := setupStatsFixture()
	svc := NewStatsService(f.repo, zap.NewNop())
	ctx := context.Background()

	res, err := svc.DegreeGPA(ctx, f.degree.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(res.GPA, 1.3) || res.ECTS != 10 {
		t.Errorf("期望 1.3 / 10 ECTS（ects_override），实际 %+v", res)
	}

	all, _ := svc.DegreeGPA(ctx, f.degree.ID, true)
	// (1.3·10 + 1.0·5) / 15 = 1.2
	if !almostEqual(all.GPA, 1.2) || all.ECTS != 15 {
		t.Errorf("期望 1.2 / 15 ECTS，实际 %+v", all)
	}
}

func TestStatsService_AreaGPA(t *testing.T) {
	f := setupStatsFixture()
	svc := NewStatsService(f.repo, zap.NewNop())
	ctx := context.Background()

	soft, err := svc.AreaGPA(ctx, f.soft.ID, false)
	if err != nil {
		t.Fatal(err)
	}
	if soft.HasData {
		t.Error("不计 GPA 的模块默认不应有 GPA")
	}
	soft, _ = svc.AreaGPA(ctx, f.soft.ID, true)
	if !almostEqual(soft.GPA, 1.0) {
		t.Errorf("期望 1.0，实际 %v", soft.GPA)
	}
	if _, err := svc.AreaGPA(ctx, 999, false); err == nil {
		t.Error("不存在的模块应报错")
	}
}

// ── Summary 测试 ──

func TestStatsService_Summary(t *testing.T) {
	f := setupStatsFixture()
	svc := NewStatsService(f.repo, zap.NewNop())

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary 应成功: %v", err)
	}
	if sum.Passed != 4 || sum.Failed != 1 || sum.Ungraded != 1 {
		t.Errorf("期望 通过 4 / 未通过 1 / 无成绩 1，实际 %d/%d/%d", sum.Passed, sum.Failed, sum.Ungraded)
	}
	if sum.EarnedECTS != 24 {
		t.Errorf("期望已修 24 ECTS，实际 %d", sum.EarnedECTS)
	}
	if len(sum.Semesters) != 2 || sum.Semesters[1].Courses != 4 {
		t.Fatalf("学期汇总错误: %+v", sum.Semesters)
	}
	if sum.Semesters[0].GPA == nil || sum.Semesters[1].GPA != nil {
		t.Error("只有 b1 应带学期 GPA")
	}
}

func TestStatsService_Summary_SkipsDropped(t *testing.T) {
	f := setupStatsFixture()
	f.course["sem"].IsDropped = true
	svc := NewStatsService(f.repo, zap.NewNop())

	sum, _ := svc.Summary(context.Background())
	if sum.Ungraded != 0 || sum.Semesters[1].Courses != 3 {
		t.Errorf("退课的课程不应计入，实际 ungraded=%d courses=%d", sum.Ungraded, sum.Semesters[1].Courses)
	}
}
