package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportService_ExportTranscript_All(t *testing.T) {
	f := setupStatsFixture()
	svc := NewExportService(f.repo, zap.NewNop())

	buf, filename, err := svc.ExportTranscript(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportTranscript 应成功: %v", err)
	}
	if filename != "transcript.xlsx" {
		t.Errorf("期望文件名 transcript.xlsx，实际 %s", filename)
	}

	x, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("生成的文件无法解析: %v", err)
	}
	defer x.Close()

	rows, err := x.GetRows("Transcript")
	if err != nil {
		t.Fatal(err)
	}
	// 标题 + 表头 + 5 门有最终成绩的课程 + 空行 + GPA
	if len(rows) != 9 {
		t.Fatalf("期望 9 行，实际 %d", len(rows))
	}
	if rows[1][0] != "Semester" {
		t.Errorf("第二行应为表头，实际 %v", rows[1])
	}
	// 按学期、short_name 排序，algo 取最近一次成绩
	if rows[2][2] != "algo" || rows[2][4] != "1.30" {
		t.Errorf("第一条应为 algo 1.30，实际 %v", rows[2])
	}
	if rows[8][0] != "GPA" || rows[8][1] != "1.60 (14 ECTS)" {
		t.Errorf("GPA 行错误: %v", rows[8])
	}
}

func TestExportService_ExportTranscript_Degree(t *testing.T) {
	f := setupStatsFixture()
	svc := NewExportService(f.repo, zap.NewNop())

	buf, filename, err := svc.ExportTranscript(context.Background(), &f.degree.ID)
	if err != nil {
		t.Fatalf("ExportTranscript 应成功: %v", err)
	}
	if filename != "transcript_informatik.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	x, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	defer x.Close()

	rows, _ := x.GetRows("Transcript")
	// 只含映射到学位的 algo 与 soft
	if len(rows) != 6 {
		t.Fatalf("期望 6 行，实际 %d", len(rows))
	}
	if rows[2][3] != "10" || rows[2][10] != "Core" {
		t.Errorf("algo 应使用 ects_override 并标注模块，实际 %v", rows[2])
	}
	if idx, err := x.GetSheetIndex("Progress"); err != nil || idx < 0 {
		t.Error("应包含 Progress Sheet")
	}
}

func TestExportService_ExportTranscript_NoGrades(t *testing.T) {
	repo, _ := newMockRepos()
	svc := NewExportService(repo, zap.NewNop())

	_, _, err := svc.ExportTranscript(context.Background(), nil)
	if !errors.Is(err, ErrExportNoGrades) {
		t.Errorf("期望 ErrExportNoGrades，实际: %v", err)
	}
}
