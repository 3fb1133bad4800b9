package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("EDITOR", "")
	path := writeConfig(t, `
general:
  student_name: Ada
  editor: nano
workspace:
  base_path: /tmp/uni
daemon:
  check_interval: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.General.StudentName != "Ada" {
		t.Errorf("期望 student_name=Ada，实际=%s", cfg.General.StudentName)
	}
	if cfg.General.Editor != "nano" {
		t.Errorf("期望 editor=nano，实际=%s", cfg.General.Editor)
	}
	if cfg.Daemon.CheckInterval != 30*time.Second {
		t.Errorf("期望 check_interval=30s，实际=%s", cfg.Daemon.CheckInterval)
	}
	if cfg.Workspace.CurrentSemesterLink != "cs" || cfg.Workspace.CurrentCourseLink != "cc" {
		t.Errorf("链接名默认值错误: %+v", cfg.Workspace)
	}
	if filepath.Base(cfg.Database.Path) != "mms.db" {
		t.Errorf("期望默认数据库文件 mms.db，实际=%s", cfg.Database.Path)
	}
}

func TestLoad_EditorEnvOverrides(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("EDITOR", "hx")
	path := writeConfig(t, "general:\n  student_name: Ada\n  editor: nano\nworkspace:\n  base_path: /tmp/uni\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.General.Editor != "hx" {
		t.Errorf("EDITOR 应覆盖配置文件，实际=%s", cfg.General.Editor)
	}
}

func TestLoad_MissingFile_MissingFields(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), FileName)

	cfg, err := Load(path)
	if apperr.KindOf(err) != apperr.KindMissingConfigField {
		t.Fatalf("期望 MissingConfigField，实际: %v", err)
	}
	if cfg == nil {
		t.Fatal("缺字段时仍应返回配置以便交互补全")
	}
	if got := cfg.MissingFields(); len(got) != 2 {
		t.Errorf("期望 2 个缺失字段，实际=%v", got)
	}
}

func TestLoad_RelativeBasePathRejected(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	path := writeConfig(t, "general:\n  student_name: Ada\nworkspace:\n  base_path: uni\n")

	_, err := Load(path)
	if apperr.KindOf(err) != apperr.KindConfigParse {
		t.Errorf("期望 ConfigParse，实际: %v", err)
	}
}

func TestSave_Roundtrip(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("EDITOR", "")
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg, _ := Load(path)
	cfg.General.StudentName = "Grace"
	cfg.Workspace.BasePath = "/srv/study"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("重新加载失败: %v", err)
	}
	if reloaded.General.StudentName != "Grace" || reloaded.Workspace.BasePath != "/srv/study" {
		t.Errorf("写回内容不一致: %+v", reloaded.General)
	}
	if reloaded.Daemon.CheckInterval != time.Minute {
		t.Errorf("check_interval 应保持 1m，实际=%s", reloaded.Daemon.CheckInterval)
	}
}

func TestDSN_Pragmas(t *testing.T) {
	c := DatabaseConfig{Path: "/tmp/x.db"}
	want := "file:/tmp/x.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_time_format=sqlite"
	if got := c.DSN(); got != want {
		t.Errorf("DSN 错误:\n期望 %s\n实际 %s", want, got)
	}
}
