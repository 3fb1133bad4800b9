package symlink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotSymlink 链接位置已存在非符号链接的文件或目录，拒绝覆盖
var ErrNotSymlink = errors.New("refusing to replace: path exists and is not a symlink")

// Manager 维护"当前学期"与"当前课程"两个符号链接
type Manager struct {
	Dir          string // 链接所在目录
	SemesterLink string // 叶子名，如 "cs"
	CourseLink   string // 叶子名，如 "cc"
}

// NewManager 创建 Manager
func NewManager(dir, semesterLink, courseLink string) *Manager {
	return &Manager{Dir: dir, SemesterLink: semesterLink, CourseLink: courseLink}
}

// SemesterPath 当前学期链接的完整路径
func (m *Manager) SemesterPath() string { return filepath.Join(m.Dir, m.SemesterLink) }

// CoursePath 当前课程链接的完整路径
func (m *Manager) CoursePath() string { return filepath.Join(m.Dir, m.CourseLink) }

// Update 将两个链接指向给定目标；目标为空时删除对应链接。已正确的链接不动。
func (m *Manager) Update(semesterDir, courseDir string) error {
	if err := m.set(m.SemesterPath(), semesterDir); err != nil {
		return err
	}
	return m.set(m.CoursePath(), courseDir)
}

// ClearCourse 删除当前课程链接，保留学期链接
func (m *Manager) ClearCourse() error {
	return remove(m.CoursePath())
}

// Current 读取两个链接的目标；链接不存在时对应值为空
func (m *Manager) Current() (semesterDir, courseDir string, err error) {
	if semesterDir, err = readLink(m.SemesterPath()); err != nil {
		return "", "", err
	}
	if courseDir, err = readLink(m.CoursePath()); err != nil {
		return "", "", err
	}
	return semesterDir, courseDir, nil
}

// Verify 检查存在的链接都指向 within 判定为真的路径
func (m *Manager) Verify(within func(path string) bool) error {
	sem, course, err := m.Current()
	if err != nil {
		return err
	}
	for _, target := range []string{sem, course} {
		if target != "" && !within(target) {
			return fmt.Errorf("symlink target %s is outside the workspace", target)
		}
	}
	return nil
}

// set unlink 后重新 symlink；目标一致时不做任何事
func (m *Manager) set(path, target string) error {
	if target == "" {
		return remove(path)
	}
	current, err := readLink(path)
	if err != nil {
		return err
	}
	if current == target {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create link directory: %w", err)
	}
	if err := remove(path); err != nil {
		return err
	}
	if err := os.Symlink(target, path); err != nil {
		return fmt.Errorf("symlink %s -> %s: %w", path, target, err)
	}
	return nil
}

func readLink(path string) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNotSymlink)
	}
	return os.Readlink(path)
}

func remove(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return fmt.Errorf("%s: %w", path, ErrNotSymlink)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlink %s: %w", path, err)
	}
	return nil
}
