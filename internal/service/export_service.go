package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/repository"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoGrades     = apperr.New(apperr.KindNotFound, "no final grades to export")
	ErrExportGenerateFail = apperr.New(apperr.KindIO, "failed to generate the spreadsheet")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - 成绩单导出为 Excel (.xlsx)，以 bytes.Buffer 返回，由调用方写入文件
//   - 每门课只导出最近一次最终成绩
//   - 指定学位时只导出映射到该学位的课程，并附加模块进度 Sheet
type ExportService interface {
	// ExportTranscript 导出成绩单；degreeID 为 nil 时导出全部课程
	ExportTranscript(ctx context.Context, degreeID *int64) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	stats  StatsService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, stats: NewStatsService(repo, logger), logger: logger}
}

// transcriptRow 成绩单中的一行
type transcriptRow struct {
	semester model.Semester
	course   model.Course
	grade    model.Grade
	area     string
	ects     int
}

// ═══════════════════════════════════════════════════════════
// ExportTranscript 导出成绩单为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "Transcript"：学期 | 课程 | 短名 | ECTS | 成绩 | 体系 | 德式 | 通过 | 次数 | 考试日期 [| 模块]
//   - 末行为 GPA 汇总
//   - 指定学位时另有 Sheet "Progress"：模块 | 要求 ECTS | 已修 ECTS | 模块 GPA | 计入 GPA
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTranscript(ctx context.Context, degreeID *int64) (*bytes.Buffer, string, error) {
	// 1. 查询最终成绩并取每门课最近一次
	grades, err := s.repo.Grade.ListFinal(ctx)
	if err != nil {
		s.logger.Error("查询最终成绩失败", zap.Error(err))
		return nil, "", storageErr("export.grades", err)
	}
	latest := make(map[int64]model.Grade)
	for _, g := range grades {
		prev, ok := latest[g.CourseID]
		if !ok || g.RecordedAt.After(prev.RecordedAt) || (g.RecordedAt.Equal(prev.RecordedAt) && g.ID > prev.ID) {
			latest[g.CourseID] = g
		}
	}

	// 2. 指定学位时按映射过滤
	var degree *model.Degree
	var mappings map[int64]model.CourseDegreeMapping
	if degreeID != nil {
		if degree, err = s.repo.Degree.GetByID(ctx, *degreeID); err != nil {
			return nil, "", notFoundOr(err, ErrDegreeNotFound, idKey(*degreeID), "export.degree")
		}
		list, err := s.repo.Degree.ListMappings(ctx, *degreeID)
		if err != nil {
			return nil, "", storageErr("export.mappings", err)
		}
		mappings = make(map[int64]model.CourseDegreeMapping, len(list))
		for _, m := range list {
			mappings[m.CourseID] = m
		}
	}

	// 3. 组装行
	var rows []transcriptRow
	for _, g := range latest {
		if g.Course == nil || g.Course.Semester == nil {
			continue
		}
		row := transcriptRow{semester: *g.Course.Semester, course: *g.Course, grade: g, ects: g.Course.ECTS}
		if mappings != nil {
			m, ok := mappings[g.CourseID]
			if !ok {
				continue
			}
			if m.Area != nil {
				row.area = m.Area.CategoryName
			}
			if m.ECTSOverride != nil {
				row.ects = *m.ECTSOverride
			}
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoGrades
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.semester.Type != b.semester.Type {
			return a.semester.Type == model.SemesterBachelor
		}
		if a.semester.Number != b.semester.Number {
			return a.semester.Number < b.semester.Number
		}
		return a.course.ShortName < b.course.ShortName
	})

	// 4. GPA 汇总
	var gpaText string
	if degree != nil {
		res, err := s.stats.DegreeGPA(ctx, degree.ID, false)
		if err != nil {
			return nil, "", err
		}
		gpaText = gpaCell(res.HasData, res.GPA, res.ECTS)
	} else {
		res, err := s.stats.OverallGPA(ctx, false)
		if err != nil {
			return nil, "", err
		}
		gpaText = gpaCell(res.HasData, res.GPA, res.ECTS)
	}

	// 5. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Transcript"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	headers := []string{"Semester", "Course", "Short name", "ECTS", "Grade", "Scheme", "German", "Passed", "Attempt", "Exam date"}
	if degree != nil {
		headers = append(headers, "Area")
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	// 标题行
	title := "Transcript"
	if degree != nil {
		title = fmt.Sprintf("Transcript: %s (%s)", degree.Name, degree.University)
	}
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", boldStyle)

	// 表头
	row := 2
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(headers)-1), row), headerStyle)

	// 数据行
	row = 3
	for _, r := range rows {
		german := "-"
		if v, ok := r.grade.German(); ok {
			german = grading.Format(v, grading.German)
		}
		passed := "no"
		if r.grade.Passed {
			passed = "yes"
		}
		examDate := ""
		if r.grade.ExamDate != nil {
			examDate = r.grade.ExamDate.German()
		}

		values := []interface{}{
			r.semester.Code(),
			r.course.Name,
			r.course.ShortName,
			r.ects,
			grading.Format(r.grade.Grade, r.grade.GradingScheme),
			r.grade.GradingScheme.String(),
			german,
			passed,
			r.grade.AttemptNumber,
			examDate,
		}
		if degree != nil {
			values = append(values, r.area)
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		row++
	}

	// 汇总行
	f.SetCellValue(sheetName, cell("A", row+1), "GPA")
	f.SetCellValue(sheetName, cell("B", row+1), gpaText)
	f.SetCellStyle(sheetName, cell("A", row+1), cell("B", row+1), boldStyle)

	// 设置列宽
	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "J", 12)
	if degree != nil {
		f.SetColWidth(sheetName, "K", "K", 24)
	}

	// 6. 学位进度
	if degree != nil {
		if err := s.writeProgressSheet(ctx, f, degree, headerStyle); err != nil {
			return nil, "", err
		}
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := "transcript.xlsx"
	if degree != nil {
		filename = fmt.Sprintf("transcript_%s.xlsx", slugify(degree.Name))
	}
	return buf, filename, nil
}

func (s *exportService) writeProgressSheet(ctx context.Context, f *excelize.File, degree *model.Degree, headerStyle int) error {
	progress, err := s.repo.Degree.Progress(ctx, degree.ID)
	if err != nil {
		s.logger.Error("查询学位进度失败", zap.Int64("degree_id", degree.ID), zap.Error(err))
		return storageErr("export.progress", err)
	}

	sheetName := "Progress"
	if _, err := f.NewSheet(sheetName); err != nil {
		return ErrExportGenerateFail
	}
	headers := []string{"Area", "Required ECTS", "Earned ECTS", "Area GPA", "Counts towards GPA"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(headers)-1), 1), headerStyle)

	row := 2
	earned := 0
	for _, p := range progress {
		gpa := "-"
		if p.AreaGPA != nil {
			gpa = grading.Format(*p.AreaGPA, grading.German)
		}
		counts := "no"
		if p.CountsTowardsGPA {
			counts = "yes"
		}
		for i, v := range []interface{}{p.CategoryName, p.RequiredECTS, p.EarnedECTS, gpa, counts} {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		earned += p.EarnedECTS
		row++
	}
	f.SetCellValue(sheetName, cell("A", row+1), "Total")
	f.SetCellValue(sheetName, cell("B", row+1), degree.TotalECTSRequired)
	f.SetCellValue(sheetName, cell("C", row+1), earned)
	f.SetColWidth(sheetName, "A", "A", 28)
	f.SetColWidth(sheetName, "B", "E", 18)
	return nil
}

// ── 辅助函数 ──

func gpaCell(ok bool, gpa, ects float64) string {
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f (%.0f ECTS)", gpa, ects)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
