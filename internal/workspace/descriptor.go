package workspace

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

// ── 学期描述文件 ──

// SemesterDescriptor .semester.yaml 的内容
type SemesterDescriptor struct {
	Type       string `yaml:"type"`
	Number     int    `yaml:"number"`
	StartDate  string `yaml:"start_date,omitempty"`
	EndDate    string `yaml:"end_date,omitempty"`
	University string `yaml:"university,omitempty"`
	Location   string `yaml:"location,omitempty"`
	IsCurrent  bool   `yaml:"is_current"`
	IsArchived bool   `yaml:"is_archived"`
}

// SemesterDescriptorOf 由数据库行生成描述
func SemesterDescriptorOf(s *model.Semester) SemesterDescriptor {
	d := SemesterDescriptor{
		Type:       s.Type.String(),
		Number:     s.Number,
		University: s.University,
		Location:   s.DefaultLocation,
		IsCurrent:  s.IsCurrent,
		IsArchived: s.IsArchived,
	}
	if s.StartDate != nil {
		d.StartDate = s.StartDate.String()
	}
	if s.EndDate != nil {
		d.EndDate = s.EndDate.String()
	}
	return d
}

// ApplyTo 将描述中的字段写回模型（用于从磁盘导入）
func (d SemesterDescriptor) ApplyTo(s *model.Semester) error {
	t, err := model.ParseSemesterType(d.Type)
	if err != nil {
		return err
	}
	s.Type = t
	s.Number = d.Number
	s.University = d.University
	s.DefaultLocation = d.Location
	s.IsArchived = d.IsArchived
	if s.StartDate, err = optionalDate(d.StartDate); err != nil {
		return err
	}
	if s.EndDate, err = optionalDate(d.EndDate); err != nil {
		return err
	}
	return nil
}

// ── 课程描述文件 ──

// CourseDescriptor .course.yaml 的内容；未知键保存在 Extra 中原样回写
type CourseDescriptor struct {
	ShortName           string `yaml:"short_name"`
	Name                string `yaml:"name"`
	ECTS                int    `yaml:"ects"`
	Lecturer            string `yaml:"lecturer,omitempty"`
	LecturerEmail       string `yaml:"lecturer_email,omitempty"`
	Tutor               string `yaml:"tutor,omitempty"`
	TutorEmail          string `yaml:"tutor_email,omitempty"`
	LearningPlatformURL string `yaml:"learning_platform_url,omitempty"`
	University          string `yaml:"university,omitempty"`
	Location            string `yaml:"location,omitempty"`
	IsExternal          bool   `yaml:"is_external"`
	OriginalPath        string `yaml:"original_path,omitempty"`
	IsDropped           bool   `yaml:"is_dropped"`
	HasGitRepo          bool   `yaml:"has_git_repo"`
	GitRemoteURL        string `yaml:"git_remote_url,omitempty"`

	Extra map[string]interface{} `yaml:",inline"`
}

// CourseDescriptorOf 由数据库行生成描述
func CourseDescriptorOf(c *model.Course) CourseDescriptor {
	d := CourseDescriptor{
		ShortName:           c.ShortName,
		Name:                c.Name,
		ECTS:                c.ECTS,
		Lecturer:            c.Lecturer,
		LecturerEmail:       c.LecturerEmail,
		Tutor:               c.Tutor,
		TutorEmail:          c.TutorEmail,
		LearningPlatformURL: c.LearningPlatformURL,
		University:          c.University,
		Location:            c.Location,
		IsExternal:          c.IsExternal,
		IsDropped:           c.IsDropped,
		HasGitRepo:          c.HasGitRepo,
	}
	if c.OriginalPath != nil {
		d.OriginalPath = *c.OriginalPath
	}
	if c.GitRemoteURL != nil {
		d.GitRemoteURL = *c.GitRemoteURL
	}
	if len(c.Extra) > 0 {
		d.Extra = map[string]interface{}(c.Extra)
	}
	return d
}

// ApplyTo 将描述中的字段写回模型
func (d CourseDescriptor) ApplyTo(c *model.Course) {
	c.ShortName = d.ShortName
	c.Name = d.Name
	c.ECTS = d.ECTS
	c.Lecturer = d.Lecturer
	c.LecturerEmail = d.LecturerEmail
	c.Tutor = d.Tutor
	c.TutorEmail = d.TutorEmail
	c.LearningPlatformURL = d.LearningPlatformURL
	c.University = d.University
	c.Location = d.Location
	c.IsExternal = d.IsExternal
	c.IsDropped = d.IsDropped
	c.HasGitRepo = d.HasGitRepo
	c.OriginalPath = optionalString(d.OriginalPath)
	c.GitRemoteURL = optionalString(d.GitRemoteURL)
	if len(d.Extra) > 0 {
		c.Extra = d.Extra
	}
}

// ── 读写 ──

// WriteSemesterDescriptor 写入 <dir>/.semester.yaml，内容未变化时不写；返回是否写入
func WriteSemesterDescriptor(dir string, s *model.Semester) (bool, error) {
	return writeYAML(filepath.Join(dir, SemesterDescriptorName), SemesterDescriptorOf(s))
}

// ReadSemesterDescriptor 读取 <dir>/.semester.yaml
func ReadSemesterDescriptor(dir string) (*SemesterDescriptor, error) {
	var d SemesterDescriptor
	if err := readYAML(filepath.Join(dir, SemesterDescriptorName), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// WriteCourseDescriptor 写入 <dir>/.course.yaml，内容未变化时不写；返回是否写入
func WriteCourseDescriptor(dir string, c *model.Course) (bool, error) {
	return writeYAML(filepath.Join(dir, CourseDescriptorName), CourseDescriptorOf(c))
}

// ReadCourseDescriptor 读取 <dir>/.course.yaml
func ReadCourseDescriptor(dir string) (*CourseDescriptor, error) {
	var d CourseDescriptor
	if err := readYAML(filepath.Join(dir, CourseDescriptorName), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// HasDescriptor dir 下是否存在指定描述文件
func HasDescriptor(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && info.Mode().IsRegular()
}

func writeYAML(path string, v interface{}) (bool, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return false, fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeIfChanged(path, buf.Bytes())
}

func readYAML(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// writeIfChanged 先写临时文件再 rename，读者不会看到半截内容
func writeIfChanged(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return false, err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return false, err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return false, err
	}
	return true, nil
}

func optionalDate(s string) (*dates.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
