package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/symlink"
	"github.com/leonfuss/mms-sub000/internal/workspace"
)

// ── 测试辅助 ──

type courseFixture struct {
	svc   CourseService
	m     *mockRepos
	paths workspace.Paths
	links *symlink.Manager
}

// setupTestCourseService 预置当前学期 b3
func setupTestCourseService(t *testing.T) *courseFixture {
	t.Helper()
	repo, m := newMockRepos()
	paths := workspace.NewPaths(t.TempDir())
	links := symlink.NewManager(t.TempDir(), "cs", "cc")
	pointer := NewPointerService(repo, paths, links, zap.NewNop())

	sem := &model.Semester{
		Type:            model.SemesterBachelor,
		Number:          3,
		University:      "TUM",
		DefaultLocation: "Garching",
		IsCurrent:       true,
	}
	m.semesters.Create(context.Background(), sem)
	sem.DirectoryPath = paths.SemesterDirOf(sem)
	os.MkdirAll(sem.DirectoryPath, 0o755)

	return &courseFixture{
		svc:   NewCourseService(repo, paths, pointer, zap.NewNop()),
		m:     m,
		paths: paths,
		links: links,
	}
}

// ── Create 测试 ──

func TestCourseService_Create_Success(t *testing.T) {
	f := setupTestCourseService(t)

	course, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{
		ShortName: "algo",
		Name:      "Algorithms",
		ECTS:      8,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if course.University != "TUM" || course.Location != "Garching" {
		t.Errorf("university/location 应继承学期，实际 %q %q", course.University, course.Location)
	}

	dir := filepath.Join(f.paths.Base, "b3", "algo")
	if course.DirectoryPath != dir {
		t.Errorf("期望目录 %s，实际 %s", dir, course.DirectoryPath)
	}
	if !workspace.HasDescriptor(dir, workspace.CourseDescriptorName) {
		t.Error("课程目录中应有描述文件")
	}
	if course.DescriptorPath == nil || *course.DescriptorPath != filepath.Join(dir, workspace.CourseDescriptorName) {
		t.Errorf("descriptor_path 错误: %v", course.DescriptorPath)
	}
}

func TestCourseService_Create_ExternalWithOriginalPath(t *testing.T) {
	f := setupTestCourseService(t)
	original := t.TempDir()

	course, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{
		ShortName:    "ml",
		Name:         "Machine Learning",
		ECTS:         6,
		IsExternal:   true,
		OriginalPath: original,
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if course.DescriptorPath != nil {
		t.Error("外部课程不应有描述文件路径")
	}
	if isDir(filepath.Join(f.paths.Base, "b3", "ml")) {
		t.Error("外部课程不应在工作区中创建目录")
	}
	if got := f.svc.Directory(course); got != original {
		t.Errorf("外部课程目录应为原始路径，实际 %s", got)
	}
}

func TestCourseService_Create_RelativeOriginalPath(t *testing.T) {
	f := setupTestCourseService(t)

	_, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{
		ShortName:    "ml",
		Name:         "Machine Learning",
		ECTS:         6,
		IsExternal:   true,
		OriginalPath: "courses/ml",
	})
	if !errors.Is(err, ErrCourseOriginalPath) {
		t.Errorf("期望 ErrCourseOriginalPath，实际: %v", err)
	}
}

func TestCourseService_Create_Duplicate(t *testing.T) {
	f := setupTestCourseService(t)
	req := &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8}

	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.Create(context.Background(), req)
	if !errors.Is(err, ErrCourseExists) {
		t.Errorf("期望 ErrCourseExists，实际: %v", err)
	}
	if !isDir(filepath.Join(f.paths.Base, "b3", "algo")) {
		t.Error("冲突时不应删除已有课程目录")
	}
}

func TestCourseService_Create_InvalidShortName(t *testing.T) {
	f := setupTestCourseService(t)

	_, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{ShortName: ".hidden", Name: "X", ECTS: 5})
	if err == nil {
		t.Fatal("以 '.' 开头的 short_name 应被拒绝")
	}
	if len(f.m.courses.items) != 0 {
		t.Error("校验失败时不应写入数据库")
	}
}

func TestCourseService_Create_NoCurrentSemester(t *testing.T) {
	f := setupTestCourseService(t)
	f.m.semesters.ClearCurrent(context.Background())

	_, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8})
	if !errors.Is(err, ErrNoCurrentSemester) {
		t.Errorf("期望 ErrNoCurrentSemester，实际: %v", err)
	}
}

func TestCourseService_Create_DetectsGit(t *testing.T) {
	f := setupTestCourseService(t)
	os.MkdirAll(filepath.Join(f.paths.Base, "b3", "db", ".git"), 0o755)

	course, err := f.svc.Create(context.Background(), &dto.CreateCourseRequest{ShortName: "db", Name: "Databases", ECTS: 6})
	if err != nil {
		t.Fatal(err)
	}
	if !course.HasGitRepo {
		t.Error("目录中存在 .git 时应标记 has_git_repo")
	}
}

// ── Get / List 测试 ──

func TestCourseService_GetAndList(t *testing.T) {
	f := setupTestCourseService(t)
	ctx := context.Background()
	f.svc.Create(ctx, &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8})
	f.svc.Create(ctx, &dto.CreateCourseRequest{ShortName: "db", Name: "Databases", ECTS: 6})

	courses, err := f.svc.List(ctx, "")
	if err != nil || len(courses) != 2 {
		t.Fatalf("期望 2 门课程，实际 %d %v", len(courses), err)
	}
	if _, err := f.svc.Get(ctx, "b3", "db"); err != nil {
		t.Errorf("Get b3/db 应成功: %v", err)
	}
	if _, err := f.svc.Get(ctx, "b3", "nope"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── Update 测试 ──

func TestCourseService_Update_RewritesDescriptor(t *testing.T) {
	f := setupTestCourseService(t)
	ctx := context.Background()
	course, _ := f.svc.Create(ctx, &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8})

	lecturer := "Prof. Knuth"
	if _, err := f.svc.Update(ctx, course.ID, &dto.UpdateCourseRequest{Lecturer: &lecturer}); err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	desc, err := workspace.ReadCourseDescriptor(filepath.Join(f.paths.Base, "b3", "algo"))
	if err != nil {
		t.Fatal(err)
	}
	if desc.Lecturer != lecturer {
		t.Errorf("描述文件应同步 lecturer，实际 %q", desc.Lecturer)
	}
}

// ── Delete 测试 ──

func TestCourseService_Delete_RemoveDir(t *testing.T) {
	f := setupTestCourseService(t)
	ctx := context.Background()
	course, _ := f.svc.Create(ctx, &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8})

	if err := f.svc.Delete(ctx, course.ID, true); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if isDir(filepath.Join(f.paths.Base, "b3", "algo")) {
		t.Error("课程目录应已删除")
	}
	if _, err := f.svc.GetByID(ctx, course.ID); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("期望 ErrCourseNotFound，实际: %v", err)
	}
}

// ── SetActive 测试 ──

func TestCourseService_SetActive_UpdatesPointerAndLinks(t *testing.T) {
	f := setupTestCourseService(t)
	ctx := context.Background()
	course, _ := f.svc.Create(ctx, &dto.CreateCourseRequest{ShortName: "algo", Name: "Algorithms", ECTS: 8})

	state, err := f.svc.SetActive(ctx, course.ID)
	if err != nil {
		t.Fatalf("SetActive 应成功: %v", err)
	}
	if id := state.CourseID(); id == nil || *id != course.ID {
		t.Errorf("指针应指向课程 %d", course.ID)
	}
	if f.m.pointer.pointer == nil || f.m.pointer.pointer.ActivatedAt == nil {
		t.Error("指针应已写入数据库并记录激活时间")
	}
	sem, cc, err := f.links.Current()
	if err != nil {
		t.Fatal(err)
	}
	if sem != filepath.Join(f.paths.Base, "b3") || cc != filepath.Join(f.paths.Base, "b3", "algo") {
		t.Errorf("链接目标错误: %s %s", sem, cc)
	}
}

// ── SuggestShortName 测试 ──

func TestCourseService_SuggestShortName(t *testing.T) {
	f := setupTestCourseService(t)

	tests := []struct {
		name string
		want string
	}{
		{"Analysis", "analysis"},
		{"Théorie", "theorie"},
		{"Linear Algebra 2", "linear-algebra-2"},
		{"Algorithms and Data Structures", "ads"},
		{"Einführung in die Informatik", "ei"},
		{"Software Engineering Praktikum 2", "sep2"},
		{"  ", "course"},
	}
	for _, tt := range tests {
		if got := f.svc.SuggestShortName(tt.name); got != tt.want {
			t.Errorf("SuggestShortName(%q) = %q，期望 %q", tt.name, got, tt.want)
		}
	}
}
