package workspace

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// 描述文件名（位于所属目录内）
const (
	SemesterDescriptorName = ".semester.yaml"
	CourseDescriptorName   = ".course.yaml"
)

var semesterCodeRegex = regexp.MustCompile(`^[bm][0-9]+$`)

// Paths 由短码推导工作区目录
type Paths struct {
	Base string
}

// NewPaths 创建 Paths；base 为工作区根目录（绝对路径）
func NewPaths(base string) Paths {
	return Paths{Base: filepath.Clean(base)}
}

// SemesterDir <base>/<code>
func (p Paths) SemesterDir(code string) string {
	return filepath.Join(p.Base, code)
}

// CourseDir <base>/<code>/<short_name>
func (p Paths) CourseDir(semesterCode, shortName string) string {
	return filepath.Join(p.Base, semesterCode, shortName)
}

// SemesterDirOf 学期目录
func (p Paths) SemesterDirOf(s *model.Semester) string {
	return p.SemesterDir(s.Code())
}

// CourseDirOf 课程目录：外部课程且有原始路径时为原始路径，否则在学期目录下
func (p Paths) CourseDirOf(semesterCode string, c *model.Course) string {
	if !c.OwnsDirectory() {
		return *c.OriginalPath
	}
	return p.CourseDir(semesterCode, c.ShortName)
}

// Contains path 是否位于工作区内（含 base 本身）
func (p Paths) Contains(path string) bool {
	rel, err := filepath.Rel(p.Base, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ParseSemesterCode 严格解析 ^[bm][0-9]+$，序号必须为正
func ParseSemesterCode(name string) (model.SemesterType, int, bool) {
	if !semesterCodeRegex.MatchString(name) {
		return "", 0, false
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}
	t := model.SemesterBachelor
	if name[0] == 'm' {
		t = model.SemesterMaster
	}
	return t, n, true
}
