package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/leonfuss/mms-sub000/internal/model"
)

// ── Mock Repositories ──

type mockSemesterRepo struct {
	items map[int64]*model.Semester
}

func newMockSemesterRepo(items ...model.Semester) *mockSemesterRepo {
	m := &mockSemesterRepo{items: make(map[int64]*model.Semester)}
	for i := range items {
		s := items[i]
		m.items[s.ID] = &s
	}
	return m
}

func (m *mockSemesterRepo) Create(_ context.Context, s *model.Semester) error {
	s.ID = int64(len(m.items) + 1)
	m.items[s.ID] = s
	return nil
}
func (m *mockSemesterRepo) GetByID(_ context.Context, id int64) (*model.Semester, error) {
	if s, ok := m.items[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockSemesterRepo) GetByCode(_ context.Context, t model.SemesterType, n int) (*model.Semester, error) {
	for _, s := range m.items {
		if s.Type == t && s.Number == n {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockSemesterRepo) GetCurrent(_ context.Context) (*model.Semester, error) {
	for _, s := range m.items {
		if s.IsCurrent {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockSemesterRepo) List(_ context.Context) ([]model.Semester, error) {
	var out []model.Semester
	for _, s := range m.items {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (m *mockSemesterRepo) Update(_ context.Context, s *model.Semester) error {
	m.items[s.ID] = s
	return nil
}
func (m *mockSemesterRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}
func (m *mockSemesterRepo) ClearCurrent(_ context.Context) error {
	for _, s := range m.items {
		s.IsCurrent = false
	}
	return nil
}

type mockCourseRepo struct {
	items map[int64]*model.Course
}

func newMockCourseRepo(items ...model.Course) *mockCourseRepo {
	m := &mockCourseRepo{items: make(map[int64]*model.Course)}
	for i := range items {
		c := items[i]
		m.items[c.ID] = &c
	}
	return m
}

func (m *mockCourseRepo) Create(_ context.Context, c *model.Course) error {
	c.ID = int64(len(m.items) + 1)
	m.items[c.ID] = c
	return nil
}
func (m *mockCourseRepo) GetByID(_ context.Context, id int64) (*model.Course, error) {
	if c, ok := m.items[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCourseRepo) GetByShortName(_ context.Context, semesterID int64, short string) (*model.Course, error) {
	for _, c := range m.items {
		if c.SemesterID == semesterID && c.ShortName == short {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (m *mockCourseRepo) ListBySemester(_ context.Context, semesterID int64) ([]model.Course, error) {
	var out []model.Course
	for _, c := range m.items {
		if c.SemesterID == semesterID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShortName < out[j].ShortName })
	return out, nil
}
func (m *mockCourseRepo) ListAll(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	for _, c := range m.items {
		out = append(out, *c)
	}
	return out, nil
}
func (m *mockCourseRepo) ListUnmapped(ctx context.Context) ([]model.Course, error) {
	return m.ListAll(ctx)
}
func (m *mockCourseRepo) Update(_ context.Context, c *model.Course) error {
	m.items[c.ID] = c
	return nil
}
func (m *mockCourseRepo) Delete(_ context.Context, id int64) error {
	delete(m.items, id)
	return nil
}

// ── Paths ──

func TestParseSemesterCode_Strict(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		typ    model.SemesterType
		number int
	}{
		{"b3", true, model.SemesterBachelor, 3},
		{"m12", true, model.SemesterMaster, 12},
		{"b0", false, "", 0},
		{"bx", false, "", 0},
		{"b", false, "", 0},
		{"B3", false, "", 0},
		{"b3a", false, "", 0},
		{"notes", false, "", 0},
	}
	for _, c := range cases {
		typ, n, ok := ParseSemesterCode(c.in)
		if ok != c.ok || typ != c.typ || n != c.number {
			t.Errorf("ParseSemesterCode(%q) = (%s, %d, %v)，期望 (%s, %d, %v)", c.in, typ, n, ok, c.typ, c.number, c.ok)
		}
	}
}

func TestPaths_Contains(t *testing.T) {
	p := NewPaths("/home/u/uni")
	if !p.Contains("/home/u/uni/b3/algo") || !p.Contains("/home/u/uni") {
		t.Error("工作区内路径应被包含")
	}
	if p.Contains("/home/u/unix") || p.Contains("/home/u") || p.Contains("/home/u/uni/../x") {
		t.Error("工作区外路径不应被包含")
	}
}

func TestCourseDirOf_ExternalWithOriginalPath(t *testing.T) {
	p := NewPaths("/base")
	orig := "/elsewhere/ml"
	ext := &model.Course{ShortName: "ml", IsExternal: true, OriginalPath: &orig}
	if got := p.CourseDirOf("m1", ext); got != orig {
		t.Errorf("外部课程应使用原始路径，实际 %s", got)
	}
	ext.OriginalPath = nil
	if got := p.CourseDirOf("m1", ext); got != "/base/m1/ml" {
		t.Errorf("无原始路径的外部课程应在工作区内，实际 %s", got)
	}
}

// ── Descriptors ──

func TestCourseDescriptor_PreservesExtraKeys(t *testing.T) {
	dir := t.TempDir()
	body := "short_name: algo\nname: Algorithms\nects: 6\nis_external: false\nis_dropped: false\nhas_git_repo: false\nexam_room: HS1\ntags:\n  - core\n"
	if err := os.WriteFile(filepath.Join(dir, CourseDescriptorName), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := ReadCourseDescriptor(dir)
	if err != nil {
		t.Fatalf("读取描述文件失败: %v", err)
	}
	var c model.Course
	d.ApplyTo(&c)
	if c.ECTS != 6 || c.Extra["exam_room"] != "HS1" {
		t.Fatalf("字段未正确读取: ects=%d extra=%v", c.ECTS, c.Extra)
	}

	c.Name = "Algorithmen"
	if _, err := WriteCourseDescriptor(dir, &c); err != nil {
		t.Fatalf("写回失败: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, CourseDescriptorName))
	if !strings.Contains(string(data), "exam_room: HS1") || !strings.Contains(string(data), "- core") {
		t.Errorf("未知键应原样回写:\n%s", data)
	}
}

func TestWriteSemesterDescriptor_SkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	s := &model.Semester{Type: model.SemesterBachelor, Number: 3, University: "TUM"}
	changed, err := WriteSemesterDescriptor(dir, s)
	if err != nil || !changed {
		t.Fatalf("首次写入应发生: %v %v", changed, err)
	}
	changed, err = WriteSemesterDescriptor(dir, s)
	if err != nil || changed {
		t.Errorf("内容未变化时不应写入: %v %v", changed, err)
	}

	d, err := ReadSemesterDescriptor(dir)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	var back model.Semester
	if err := d.ApplyTo(&back); err != nil || back.Code() != "b3" || back.University != "TUM" {
		t.Errorf("读回错误: %v %+v", err, back)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("不应残留临时文件，实际 %d 个文件", len(entries))
	}
}

// ── Reconciliation ──

func TestCheckStatus_ThreeDisjointSets(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"b1", "b2", "m7", "notes", ".git"} {
		os.MkdirAll(filepath.Join(base, name), 0o755)
	}
	os.Symlink(filepath.Join(base, "b1"), filepath.Join(base, "cs"))

	sems := newMockSemesterRepo(
		model.Semester{ID: 1, Type: model.SemesterBachelor, Number: 1},
		model.Semester{ID: 2, Type: model.SemesterBachelor, Number: 2},
		model.Semester{ID: 3, Type: model.SemesterBachelor, Number: 3},
	)
	r := NewReconciler(NewPaths(base), sems, newMockCourseRepo(), zap.NewNop())

	st, err := r.CheckStatus(context.Background())
	if err != nil {
		t.Fatalf("CheckStatus 失败: %v", err)
	}
	if len(st.Synced) != 2 || len(st.DBOnly) != 1 || st.DBOnly[0].Code() != "b3" {
		t.Fatalf("synced/db_only 错误: synced=%d db_only=%+v", len(st.Synced), st.DBOnly)
	}
	if len(st.DiskOnly) != 2 {
		t.Fatalf("期望 2 个 disk_only（m7, notes），实际 %+v", st.DiskOnly)
	}
	if st.DiskOnly[0].Name != "m7" || st.DiskOnly[0].Parsed == nil || st.DiskOnly[0].Parsed.Code() != "m7" {
		t.Errorf("m7 应被解析: %+v", st.DiskOnly[0])
	}
	if st.DiskOnly[1].Name != "notes" || st.DiskOnly[1].Parsed != nil {
		t.Errorf("notes 应为 parsed=none: %+v", st.DiskOnly[1])
	}
}

func TestSyncToFilesystem_Idempotent(t *testing.T) {
	base := t.TempDir()
	sems := newMockSemesterRepo(model.Semester{ID: 1, Type: model.SemesterBachelor, Number: 3})
	orig := "/nonexistent/ext"
	courses := newMockCourseRepo(
		model.Course{ID: 1, SemesterID: 1, ShortName: "algo", Name: "Algorithms", ECTS: 6},
		model.Course{ID: 2, SemesterID: 1, ShortName: "ext", Name: "External", ECTS: 5, IsExternal: true, OriginalPath: &orig},
	)
	r := NewReconciler(NewPaths(base), sems, courses, zap.NewNop())
	ctx := context.Background()

	dry, err := r.SyncToFilesystem(ctx, true)
	if err != nil {
		t.Fatalf("dry-run 失败: %v", err)
	}
	if len(dry.Actions) != 4 {
		t.Fatalf("期望 4 个动作，实际 %v", dry.Actions)
	}
	if dry.Actions[0].String() != "create folder "+filepath.Join(base, "b3") {
		t.Errorf("第一个动作错误: %s", dry.Actions[0])
	}
	if _, err := os.Stat(filepath.Join(base, "b3")); !os.IsNotExist(err) {
		t.Fatal("dry-run 不应创建目录")
	}

	first, err := r.SyncToFilesystem(ctx, false)
	if err != nil || first.NothingToDo() || len(first.Failed()) != 0 {
		t.Fatalf("首次同步应执行动作: %v %+v", err, first)
	}
	if !HasDescriptor(filepath.Join(base, "b3", "algo"), CourseDescriptorName) {
		t.Error("课程描述文件应被写入")
	}
	if _, err := os.Stat(filepath.Join(base, "b3", "ext")); !os.IsNotExist(err) {
		t.Error("有原始路径的外部课程不应在工作区中建目录")
	}

	second, err := r.SyncToFilesystem(ctx, false)
	if err != nil || !second.NothingToDo() {
		t.Errorf("第二次同步应无事可做: %v %v", err, second.Actions)
	}
}

func TestCheckCourses(t *testing.T) {
	base := t.TempDir()
	os.MkdirAll(filepath.Join(base, "b3", "algo"), 0o755)
	os.MkdirAll(filepath.Join(base, "b3", "scratch"), 0o755)
	sem := model.Semester{ID: 1, Type: model.SemesterBachelor, Number: 3}
	courses := newMockCourseRepo(
		model.Course{ID: 1, SemesterID: 1, ShortName: "algo"},
		model.Course{ID: 2, SemesterID: 1, ShortName: "db"},
	)
	r := NewReconciler(NewPaths(base), newMockSemesterRepo(sem), courses, zap.NewNop())

	st, err := r.CheckCourses(context.Background(), &sem)
	if err != nil {
		t.Fatalf("CheckCourses 失败: %v", err)
	}
	if len(st.Synced) != 1 || st.Synced[0].ShortName != "algo" {
		t.Errorf("synced 错误: %+v", st.Synced)
	}
	if len(st.DBOnly) != 1 || st.DBOnly[0].ShortName != "db" {
		t.Errorf("db_only 错误: %+v", st.DBOnly)
	}
	if len(st.DiskOnly) != 1 || st.DiskOnly[0].Name != "scratch" {
		t.Errorf("disk_only 错误: %+v", st.DiskOnly)
	}
}
