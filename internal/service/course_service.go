package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	"github.com/leonfuss/mms-sub000/internal/workspace"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound     = apperr.New(apperr.KindNotFound, "course not found")
	ErrCourseExists       = apperr.New(apperr.KindValidation, "a course with this short name already exists in the semester")
	ErrCourseOriginalPath = apperr.New(apperr.KindValidation, "original_path must be an absolute path")
)

// CourseService 课程业务接口
type CourseService interface {
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*model.Course, error)
	// List semesterCode 为空时列出当前学期的课程
	List(ctx context.Context, semesterCode string) ([]model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	Get(ctx context.Context, semesterCode, shortName string) (*model.Course, error)
	GetByID(ctx context.Context, id int64) (*model.Course, error)
	Update(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*model.Course, error)
	Delete(ctx context.Context, id int64, removeDir bool) error
	// SetActive 手动把当前课程指向该课程（守护进程下一次判定时可能再改写）
	SetActive(ctx context.Context, id int64) (*PointerState, error)
	Directory(c *model.Course) string
	SuggestShortName(name string) string
}

type courseService struct {
	repo    *repository.Repository
	paths   workspace.Paths
	pointer PointerService
	logger  *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, paths workspace.Paths, pointer PointerService, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, paths: paths, pointer: pointer, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*model.Course, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if req.OriginalPath != "" && !filepath.IsAbs(req.OriginalPath) {
		return nil, ErrCourseOriginalPath
	}
	semester, err := semesterOrCurrent(ctx, s.repo, req.SemesterCode)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		SemesterID:          semester.ID,
		ShortName:           req.ShortName,
		Name:                req.Name,
		ECTS:                req.ECTS,
		Lecturer:            req.Lecturer,
		LecturerEmail:       req.LecturerEmail,
		Tutor:               req.Tutor,
		TutorEmail:          req.TutorEmail,
		LearningPlatformURL: req.LearningPlatformURL,
		University:          req.University,
		Location:            req.Location,
		IsExternal:          req.IsExternal,
		HasGitRepo:          req.HasGitRepo,
		GitRemoteURL:        optionalString(req.GitRemoteURL),
	}
	if req.IsExternal {
		course.OriginalPath = optionalString(req.OriginalPath)
	}
	if course.University == "" {
		course.University = semester.University
	}
	if course.Location == "" {
		course.Location = semester.DefaultLocation
	}

	dir := s.paths.CourseDirOf(semester.Code(), course)
	course.DirectoryPath = dir
	owns := course.OwnsDirectory()
	if owns {
		descriptor := filepath.Join(dir, workspace.CourseDescriptorName)
		course.DescriptorPath = &descriptor
		s.importDescriptor(dir, course)
	}
	if !course.HasGitRepo && isDir(filepath.Join(dir, ".git")) {
		course.HasGitRepo = true
	}

	guard := &dirGuard{}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Course.Create(ctx, course); err != nil {
			if repository.IsUniqueViolation(err) {
				return ErrCourseExists
			}
			return storageErr("course.create", err)
		}
		if !owns {
			return nil
		}
		if err := guard.mkdir(dir); err != nil {
			return ioErr("course.mkdir", err)
		}
		if _, err := workspace.WriteCourseDescriptor(dir, course); err != nil {
			return ioErr("course.descriptor", err)
		}
		return nil
	})
	if err != nil {
		guard.rollback()
		if !errors.Is(err, ErrCourseExists) {
			s.logger.Error("创建课程失败", zap.String("short_name", course.ShortName), zap.Error(err))
		}
		return nil, err
	}

	course.Semester = semester
	s.logger.Info("创建课程",
		zap.String("semester", semester.Code()),
		zap.String("short_name", course.ShortName),
		zap.String("dir", dir),
	)
	return course, nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, semesterCode string) ([]model.Course, error) {
	semester, err := semesterOrCurrent(ctx, s.repo, semesterCode)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.Course.ListBySemester(ctx, semester.ID)
	if err != nil {
		s.logger.Error("列出课程失败", zap.String("semester", semester.Code()), zap.Error(err))
		return nil, storageErr("course.list", err)
	}
	for i := range courses {
		courses[i].Semester = semester
	}
	return courses, nil
}

func (s *courseService) ListAll(ctx context.Context) ([]model.Course, error) {
	courses, err := s.repo.Course.ListAll(ctx)
	if err != nil {
		s.logger.Error("列出全部课程失败", zap.Error(err))
		return nil, storageErr("course.list_all", err)
	}
	return courses, nil
}

// ────────────────────── Get ──────────────────────

func (s *courseService) Get(ctx context.Context, semesterCode, shortName string) (*model.Course, error) {
	semester, err := semesterOrCurrent(ctx, s.repo, semesterCode)
	if err != nil {
		return nil, err
	}
	course, err := s.repo.Course.GetByShortName(ctx, semester.ID, shortName)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound, semester.Code()+"/"+shortName, "course.get")
	}
	if course.Semester == nil {
		course.Semester = semester
	}
	return course, nil
}

func (s *courseService) GetByID(ctx context.Context, id int64) (*model.Course, error) {
	return getCourse(ctx, s.repo, id)
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, id int64, req *dto.UpdateCourseRequest) (*model.Course, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	course, err := getCourse(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.ECTS != nil {
		course.ECTS = *req.ECTS
	}
	if req.Lecturer != nil {
		course.Lecturer = *req.Lecturer
	}
	if req.LecturerEmail != nil {
		course.LecturerEmail = *req.LecturerEmail
	}
	if req.Tutor != nil {
		course.Tutor = *req.Tutor
	}
	if req.TutorEmail != nil {
		course.TutorEmail = *req.TutorEmail
	}
	if req.LearningPlatformURL != nil {
		course.LearningPlatformURL = *req.LearningPlatformURL
	}
	if req.University != nil {
		course.University = *req.University
	}
	if req.Location != nil {
		course.Location = *req.Location
	}
	if req.HasGitRepo != nil {
		course.HasGitRepo = *req.HasGitRepo
	}
	if req.GitRemoteURL != nil {
		course.GitRemoteURL = optionalString(*req.GitRemoteURL)
	}
	if req.IsArchived != nil {
		course.IsArchived = *req.IsArchived
	}
	if req.IsDropped != nil {
		course.IsDropped = *req.IsDropped
	}

	dir := s.Directory(course)
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Course.Update(ctx, course); err != nil {
			return storageErr("course.update", err)
		}
		if course.OwnsDirectory() && isDir(dir) {
			if _, err := workspace.WriteCourseDescriptor(dir, course); err != nil {
				return ioErr("course.descriptor", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("更新课程失败", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return course, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除课程（级联删除安排、事件、成绩、映射）；removeDir 只删除工作区内自有的课程目录
func (s *courseService) Delete(ctx context.Context, id int64, removeDir bool) error {
	course, err := getCourse(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if err := s.repo.Course.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.Int64("id", id), zap.Error(err))
		return storageErr("course.delete", err)
	}

	if removeDir && course.OwnsDirectory() {
		dir := s.Directory(course)
		if !s.paths.Contains(dir) || dir == s.paths.Base {
			return nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return ioErr("course.remove_dir", err)
		}
	}
	return nil
}

// ────────────────────── SetActive ──────────────────────

func (s *courseService) SetActive(ctx context.Context, id int64) (*PointerState, error) {
	return s.pointer.Activate(ctx, &id, nil)
}

// ────────────────────── Directory ──────────────────────

func (s *courseService) Directory(c *model.Course) string {
	if c.Semester != nil {
		return s.paths.CourseDirOf(c.Semester.Code(), c)
	}
	return c.DirectoryPath
}

// ────────────────────── SuggestShortName ──────────────────────

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// 缩写时忽略的虚词
var fillerWords = map[string]bool{
	"and": true, "of": true, "the": true, "for": true, "in": true, "to": true,
	"und": true, "der": true, "die": true, "das": true, "des": true,
}

// shortNameMaxLen 超过此长度的多词名称改用首字母缩写
const shortNameMaxLen = 16

// SuggestShortName 由课程名生成 short_name 建议：去除变音符号，仅保留 [a-z0-9-]；
// 名称过长时取各实词首字母，如 "Algorithms and Data Structures" → "ads"
func (s *courseService) SuggestShortName(name string) string {
	slug := slugify(name)
	words := strings.Split(slug, "-")
	if len(slug) <= shortNameMaxLen || len(words) < 2 {
		if len(slug) > shortNameMaxLen {
			slug = strings.Trim(slug[:shortNameMaxLen], "-")
		}
		return slug
	}

	var b strings.Builder
	for _, w := range words {
		if w == "" || fillerWords[w] {
			continue
		}
		r := []rune(w)
		if unicode.IsDigit(r[0]) {
			b.WriteString(w)
			continue
		}
		b.WriteRune(r[0])
	}
	if b.Len() == 0 {
		return "course"
	}
	return b.String()
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	// 去除变音符号（é → e、ü → u）
	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = string(buf)

	s = reNonAlnum.ReplaceAllString(s, "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "course"
	}
	return s
}

// ── 辅助函数 ──

// importDescriptor 目录中已有 .course.yaml 时，保留其中的未知键并补全请求未给出的字段
func (s *courseService) importDescriptor(dir string, course *model.Course) {
	if !workspace.HasDescriptor(dir, workspace.CourseDescriptorName) {
		return
	}
	desc, err := workspace.ReadCourseDescriptor(dir)
	if err != nil {
		s.logger.Warn("读取已有课程描述文件失败", zap.String("dir", dir), zap.Error(err))
		return
	}
	if len(desc.Extra) > 0 {
		course.Extra = desc.Extra
	}
	if course.Lecturer == "" {
		course.Lecturer = desc.Lecturer
	}
	if course.LecturerEmail == "" {
		course.LecturerEmail = desc.LecturerEmail
	}
	if course.Tutor == "" {
		course.Tutor = desc.Tutor
	}
	if course.TutorEmail == "" {
		course.TutorEmail = desc.TutorEmail
	}
	if course.LearningPlatformURL == "" {
		course.LearningPlatformURL = desc.LearningPlatformURL
	}
	if course.GitRemoteURL == nil {
		course.GitRemoteURL = optionalString(desc.GitRemoteURL)
	}
}

func getCourse(ctx context.Context, repo *repository.Repository, id int64) (*model.Course, error) {
	course, err := repo.Course.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrCourseNotFound, idKey(id), "course.get")
	}
	return course, nil
}
