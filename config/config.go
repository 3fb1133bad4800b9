package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// AppName 应用名，决定配置、数据目录的名称
const AppName = "mms"

// FileName 配置文件名（固定）
const FileName = "config.yaml"

// Config 应用全局配置结构体
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Daemon    DaemonConfig    `mapstructure:"daemon"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`

	// 配置文件实际路径（不参与反序列化）
	Path string `mapstructure:"-"`
}

// GeneralConfig 学生与工具偏好
type GeneralConfig struct {
	StudentName     string `mapstructure:"student_name"`
	StudentID       string `mapstructure:"student_id"`
	University      string `mapstructure:"university"`
	Editor          string `mapstructure:"editor"`
	PDFViewer       string `mapstructure:"pdf_viewer"`
	DefaultLocation string `mapstructure:"default_location"`
}

// WorkspaceConfig 工作区与符号链接配置
type WorkspaceConfig struct {
	BasePath            string `mapstructure:"base_path"`
	SymlinkPath         string `mapstructure:"symlink_path"`
	CurrentSemesterLink string `mapstructure:"current_semester_link"`
	CurrentCourseLink   string `mapstructure:"current_course_link"`
}

// DaemonConfig 后台进程配置
type DaemonConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	LogFile       string        `mapstructure:"log_file"`
	PIDFile       string        `mapstructure:"pid_file"`
}

// DatabaseConfig SQLite 数据库配置
type DatabaseConfig struct {
	Path          string `mapstructure:"path"`
	BusyTimeoutMS int    `mapstructure:"busy_timeout_ms"`
	MaxOpenConns  int    `mapstructure:"max_open_conns"`
	LogSQL        bool   `mapstructure:"log_sql"`
}

// DSN 生成 modernc sqlite 连接字符串：外键、忙等待、WAL
func (c *DatabaseConfig) DSN() string {
	timeout := c.BusyTimeoutMS
	if timeout <= 0 {
		timeout = 5000
	}
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_time_format=sqlite",
		c.Path, timeout,
	)
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ── 目录约定 ──

// ConfigDir 用户配置目录下的应用目录
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "config.dir", err)
	}
	return filepath.Join(dir, AppName), nil
}

// DataDir 用户本地数据目录下的应用目录（数据库、PID 文件）
func DataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", apperr.Wrap(apperr.KindIO, "config.data_dir", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// DefaultPath 默认配置文件路径
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// newViper 创建带默认值与环境变量绑定的 viper 实例
func newViper() (*viper.Viper, error) {
	v := viper.New()

	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}
	home, _ := os.UserHomeDir()

	// ── 默认值 ──
	v.SetDefault("general.student_name", "")
	v.SetDefault("general.student_id", "")
	v.SetDefault("general.university", "")
	v.SetDefault("general.editor", "vi")
	v.SetDefault("general.pdf_viewer", defaultOpener())
	v.SetDefault("general.default_location", "")

	v.SetDefault("workspace.base_path", "")
	v.SetDefault("workspace.symlink_path", home)
	v.SetDefault("workspace.current_semester_link", "cs")
	v.SetDefault("workspace.current_course_link", "cc")

	v.SetDefault("daemon.check_interval", "1m")
	v.SetDefault("daemon.log_file", filepath.Join(dataDir, "daemon.log"))
	v.SetDefault("daemon.pid_file", filepath.Join(dataDir, "daemon.pid"))

	v.SetDefault("db.path", filepath.Join(dataDir, AppName+".db"))
	v.SetDefault("db.busy_timeout_ms", 5000)
	v.SetDefault("db.max_open_conns", 4)
	v.SetDefault("db.log_sql", false)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")

	// ── 环境变量 ──
	v.SetEnvPrefix("MMS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// Load 从配置文件与环境变量加载配置
// 优先级：EDITOR > MMS_* 环境变量 > 配置文件 > 默认值
// 文件缺失时只依赖默认值；必填项缺失时返回 MissingConfigField 错误，但仍返回已加载的配置供交互式补全。
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// 配置目录下的 .env（存在时加载，不覆盖已有环境变量）
	dotEnv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotEnv); err == nil {
		if err := godotenv.Load(dotEnv); err != nil {
			return nil, apperr.Wrap(apperr.KindConfigParse, "config.dotenv", err)
		}
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, apperr.Wrap(apperr.KindConfigParse, "config.read", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindConfigParse, "config.unmarshal", err)
	}
	cfg.Path = path

	if editor := os.Getenv("EDITOR"); editor != "" {
		cfg.General.Editor = editor
	}
	cfg.Workspace.BasePath = expandHome(cfg.Workspace.BasePath)
	cfg.Workspace.SymlinkPath = expandHome(cfg.Workspace.SymlinkPath)
	cfg.Database.Path = expandHome(cfg.Database.Path)

	// ── 关键配置校验 ──
	if err := cfg.Validate(); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if missing := c.MissingFields(); len(missing) > 0 {
		return apperr.Newf(apperr.KindMissingConfigField,
			"missing required config fields: %s (run `mms config init`)", strings.Join(missing, ", "))
	}
	if !filepath.IsAbs(c.Workspace.BasePath) {
		return apperr.Newf(apperr.KindConfigParse, "workspace.base_path must be absolute, got %q", c.Workspace.BasePath)
	}
	if c.Daemon.CheckInterval < time.Second {
		return apperr.Newf(apperr.KindConfigParse, "daemon.check_interval must be at least 1s, got %s", c.Daemon.CheckInterval)
	}
	if c.Workspace.CurrentSemesterLink == "" || c.Workspace.CurrentCourseLink == "" ||
		c.Workspace.CurrentSemesterLink == c.Workspace.CurrentCourseLink {
		return apperr.New(apperr.KindConfigParse, "workspace link names must be non-empty and distinct")
	}
	return nil
}

// MissingFields 返回缺失的必填字段（点分路径）
func (c *Config) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Workspace.BasePath) == "" {
		missing = append(missing, "workspace.base_path")
	}
	if strings.TrimSpace(c.General.StudentName) == "" {
		missing = append(missing, "general.student_name")
	}
	return missing
}

// SymlinkDir 符号链接所在目录
func (c *Config) SymlinkDir() string {
	if c.Workspace.SymlinkPath != "" {
		return c.Workspace.SymlinkPath
	}
	return c.Workspace.BasePath
}

// Save 将配置写回 path（覆盖）
func (c *Config) Save(path string) error {
	if path == "" {
		path = c.Path
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Wrap(apperr.KindIO, "config.save", err)
	}

	v := viper.New()
	v.Set("general.student_name", c.General.StudentName)
	v.Set("general.student_id", c.General.StudentID)
	v.Set("general.university", c.General.University)
	v.Set("general.editor", c.General.Editor)
	v.Set("general.pdf_viewer", c.General.PDFViewer)
	v.Set("general.default_location", c.General.DefaultLocation)
	v.Set("workspace.base_path", c.Workspace.BasePath)
	v.Set("workspace.symlink_path", c.Workspace.SymlinkPath)
	v.Set("workspace.current_semester_link", c.Workspace.CurrentSemesterLink)
	v.Set("workspace.current_course_link", c.Workspace.CurrentCourseLink)
	v.Set("daemon.check_interval", c.Daemon.CheckInterval.String())
	v.Set("daemon.log_file", c.Daemon.LogFile)
	v.Set("daemon.pid_file", c.Daemon.PIDFile)
	v.Set("db.path", c.Database.Path)
	v.Set("db.busy_timeout_ms", c.Database.BusyTimeoutMS)
	v.Set("db.max_open_conns", c.Database.MaxOpenConns)
	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)

	if err := v.WriteConfigAs(path); err != nil {
		return apperr.Wrap(apperr.KindIO, "config.save", err)
	}
	c.Path = path
	return nil
}

func isNotExist(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	return os.IsNotExist(err)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func defaultOpener() string {
	if runtime.GOOS == "darwin" {
		return "open"
	}
	return "xdg-open"
}
