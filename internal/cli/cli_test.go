package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

type testEnv struct {
	configPath string
	basePath   string
	linkDir    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		configPath: filepath.Join(dir, "config.yaml"),
		basePath:   filepath.Join(dir, "uni"),
		linkDir:    filepath.Join(dir, "links"),
	}
	for _, d := range []string{env.basePath, env.linkDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("创建目录失败: %v", err)
		}
	}
	body := "general:\n" +
		"  student_name: Ada\n" +
		"  university: TU Test\n" +
		"workspace:\n" +
		"  base_path: " + env.basePath + "\n" +
		"  symlink_path: " + env.linkDir + "\n" +
		"daemon:\n" +
		"  pid_file: " + filepath.Join(dir, "daemon.pid") + "\n" +
		"  log_file: " + filepath.Join(dir, "daemon.log") + "\n" +
		"db:\n" +
		"  path: " + filepath.Join(dir, "mms.db") + "\n"
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}

	prev := isTerminalFunc
	isTerminalFunc = func(int) bool { return false }
	t.Cleanup(func() { isTerminalFunc = prev })
	return env
}

// run 执行一条命令，返回 stdout
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	if err != nil {
		t.Fatalf("命令 %v 失败: %v", args, err)
	}
	return out
}

func (e *testEnv) seed(t *testing.T) {
	t.Helper()
	e.mustRun(t, "semester", "add", "b3", "--start", "2024-10-01", "--end", "2025-01-31", "--current")
	e.mustRun(t, "course", "add", "algo", "--name", "Algorithms", "--ects", "6")
}

func TestSemesterAddAndList(t *testing.T) {
	env := newTestEnv(t)
	out := env.mustRun(t, "semester", "add", "b3", "--start", "01.10.2024", "--end", "31.01.2025", "--current")
	if !strings.Contains(out, "Created semester b3") {
		t.Errorf("期望创建提示，实际: %q", out)
	}

	out = env.mustRun(t, "semester", "list")
	if !strings.Contains(out, "b3") || !strings.Contains(out, "current") {
		t.Errorf("列表应包含当前学期 b3，实际: %q", out)
	}
}

func TestSemesterAdd_InvalidCode(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "semester", "add", "x9")
	if err == nil {
		t.Fatal("非法学期短码应返回错误")
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("期望校验错误，实际: %v", err)
	}
	if apperr.ExitCode(err) != 1 {
		t.Errorf("期望退出码 1，实际: %d", apperr.ExitCode(err))
	}
}

func TestCourseAddListShow(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out := env.mustRun(t, "course", "list")
	if !strings.Contains(out, "algo") || !strings.Contains(out, "Algorithms") {
		t.Errorf("课程列表缺少 algo，实际: %q", out)
	}

	out = env.mustRun(t, "course", "show", "b3/algo")
	if !strings.Contains(out, "ECTS") || !strings.Contains(out, "6") {
		t.Errorf("课程详情缺少 ECTS，实际: %q", out)
	}

	out = env.mustRun(t, "course", "open", "algo", "--print")
	if !strings.HasPrefix(strings.TrimSpace(out), env.basePath) {
		t.Errorf("课程目录应位于工作区内，实际: %q", out)
	}
	if _, err := os.Stat(strings.TrimSpace(out)); err != nil {
		t.Errorf("课程目录应已创建: %v", err)
	}
}

func TestCourseShow_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	_, err := env.run(t, "course", "show", "nope")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("期望 NotFound，实际: %v", err)
	}
}

func TestCourseDelete_RefusesWithoutYes(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	_, err := env.run(t, "course", "delete", "algo")
	if err == nil {
		t.Fatal("非交互模式下未给 --yes 应拒绝删除")
	}
	if apperr.ExitCode(err) != 1 {
		t.Errorf("期望退出码 1，实际: %d", apperr.ExitCode(err))
	}
	if out := env.mustRun(t, "course", "list"); !strings.Contains(out, "algo") {
		t.Errorf("课程不应被删除，实际: %q", out)
	}

	env.mustRun(t, "course", "delete", "algo", "--yes")
	if out := env.mustRun(t, "course", "list"); strings.Contains(out, "algo") {
		t.Errorf("--yes 后课程应被删除，实际: %q", out)
	}
}

func TestCourseGradeAndStats(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out := env.mustRun(t, "course", "grade", "algo", "--grade", "1.7")
	if !strings.Contains(out, "passed") {
		t.Errorf("1.7 应为通过，实际: %q", out)
	}

	out = env.mustRun(t, "course", "grade", "algo", "--list")
	if !strings.Contains(out, "1.70") {
		t.Errorf("成绩列表缺少 1.70，实际: %q", out)
	}

	out = env.mustRun(t, "stats", "gpa", "--semester", "b3")
	if !strings.Contains(out, "1.70") {
		t.Errorf("学期 GPA 应为 1.70，实际: %q", out)
	}
}

func TestCourseGrade_Components(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	_, err := env.run(t, "course", "grade", "algo", "--component", "exam:1")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("格式错误的组成部分应返回校验错误，实际: %v", err)
	}

	c, err := parseComponent("exam:0.6:42/60")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if c.Weight != 0.6 || c.PointsEarned == nil || *c.PointsEarned != 42 || *c.PointsTotal != 60 {
		t.Errorf("解析结果错误: %+v", c)
	}
	b, err := parseBonus("quiz:2.5")
	if err != nil || !b.IsBonus || b.BonusPoints != 2.5 {
		t.Errorf("奖励分解析错误: %+v, %v", b, err)
	}
}

func TestScheduleAddAndToday(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out := env.mustRun(t, "schedule", "add", "algo", "--day", "mon", "--start", "10:00", "--end", "12:00", "--room", "HS1")
	if !strings.Contains(out, "Added lecture") {
		t.Errorf("期望新增提示，实际: %q", out)
	}

	// 2024-11-18 为周一
	out = env.mustRun(t, "today", "--date", "2024-11-18")
	if !strings.Contains(out, "10:00-12:00") || !strings.Contains(out, "algo") {
		t.Errorf("当天日程缺少 algo，实际: %q", out)
	}

	env.mustRun(t, "holiday", "add", "Break", "--start", "2024-11-18")
	out = env.mustRun(t, "today", "--date", "2024-11-18")
	if !strings.Contains(out, "holiday") {
		t.Errorf("假期当天应标记 holiday，实际: %q", out)
	}
}

func TestCourseSetActive_WarnsAboutDaemon(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	out := env.mustRun(t, "course", "set-active", "algo")
	if !strings.Contains(out, "Current course is now") {
		t.Errorf("期望切换提示，实际: %q", out)
	}
	if !strings.Contains(out, "at its next check") {
		t.Errorf("应提示守护进程会在下次检查时切回，实际: %q", out)
	}
}

func TestSync_DryRun(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t)

	courseDir := strings.TrimSpace(env.mustRun(t, "course", "open", "algo", "--print"))
	if err := os.RemoveAll(courseDir); err != nil {
		t.Fatalf("删除目录失败: %v", err)
	}

	out := env.mustRun(t, "sync", "--dry-run")
	if !strings.Contains(out, "would") {
		t.Errorf("dry-run 应列出待执行动作，实际: %q", out)
	}
	if _, err := os.Stat(courseDir); !os.IsNotExist(err) {
		t.Errorf("dry-run 不应创建目录")
	}

	env.mustRun(t, "sync")
	if _, err := os.Stat(courseDir); err != nil {
		t.Errorf("sync 后目录应存在: %v", err)
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("#12", "course"); err != nil || id != 12 {
		t.Errorf("期望 12，实际 %d, %v", id, err)
	}
	for _, bad := range []string{"", "abc", "0", "-3"} {
		if _, err := parseID(bad, "course"); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("%q 应返回校验错误，实际: %v", bad, err)
		}
	}
}

func TestUnknownFlag_IsValidationError(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "semester", "list", "--bogus")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("未知参数应为校验错误，实际: %v", err)
	}
}
