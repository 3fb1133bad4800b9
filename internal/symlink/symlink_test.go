package symlink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	base := t.TempDir()
	os.MkdirAll(filepath.Join(base, "b3", "algo"), 0o755)
	os.MkdirAll(filepath.Join(base, "b3", "db"), 0o755)
	return NewManager(t.TempDir(), "cs", "cc"), base
}

func TestUpdate_CreatesAndReplaces(t *testing.T) {
	m, base := newTestManager(t)
	sem := filepath.Join(base, "b3")

	if err := m.Update(sem, filepath.Join(sem, "algo")); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	gotSem, gotCourse, err := m.Current()
	if err != nil || gotSem != sem || gotCourse != filepath.Join(sem, "algo") {
		t.Fatalf("链接目标错误: %s %s %v", gotSem, gotCourse, err)
	}

	if err := m.Update(sem, filepath.Join(sem, "db")); err != nil {
		t.Fatalf("切换失败: %v", err)
	}
	if _, c, _ := m.Current(); c != filepath.Join(sem, "db") {
		t.Errorf("课程链接应已切换，实际 %s", c)
	}
	// 通过链接可以访问目标目录
	if _, err := os.Stat(m.CoursePath()); err != nil {
		t.Errorf("课程链接不可解析: %v", err)
	}
}

func TestUpdate_NoopWhenUnchanged(t *testing.T) {
	m, base := newTestManager(t)
	sem := filepath.Join(base, "b3")
	m.Update(sem, "")
	before, _ := os.Lstat(m.SemesterPath())
	if err := m.Update(sem, ""); err != nil {
		t.Fatalf("Update 失败: %v", err)
	}
	after, _ := os.Lstat(m.SemesterPath())
	if !os.SameFile(before, after) {
		t.Error("目标未变化时不应重建链接")
	}
}

func TestClearCourse_KeepsSemester(t *testing.T) {
	m, base := newTestManager(t)
	sem := filepath.Join(base, "b3")
	m.Update(sem, filepath.Join(sem, "algo"))

	if err := m.ClearCourse(); err != nil {
		t.Fatalf("ClearCourse 失败: %v", err)
	}
	s, c, _ := m.Current()
	if s != sem || c != "" {
		t.Errorf("期望仅保留学期链接，实际 %q %q", s, c)
	}
	if err := m.ClearCourse(); err != nil {
		t.Errorf("重复清除应无错误: %v", err)
	}
}

func TestUpdate_RefusesToReplaceRealDirectory(t *testing.T) {
	m, base := newTestManager(t)
	os.MkdirAll(m.CoursePath(), 0o755)
	err := m.Update(filepath.Join(base, "b3"), filepath.Join(base, "b3", "algo"))
	if !errors.Is(err, ErrNotSymlink) {
		t.Errorf("期望 ErrNotSymlink，实际 %v", err)
	}
}

func TestVerify(t *testing.T) {
	m, base := newTestManager(t)
	within := func(p string) bool { return strings.HasPrefix(p, base) }
	m.Update(filepath.Join(base, "b3"), filepath.Join(base, "b3", "algo"))
	if err := m.Verify(within); err != nil {
		t.Errorf("工作区内链接应通过校验: %v", err)
	}
	m.Update("/tmp", "")
	if err := m.Verify(within); err == nil {
		t.Error("指向工作区外应报错")
	}
}
