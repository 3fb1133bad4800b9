package dto

import "github.com/leonfuss/mms-sub000/internal/model"

// ── 统计与进度响应 ──

// DegreeProgressResponse 学位进度：各模块已修/要求 ECTS 与模块 GPA
type DegreeProgressResponse struct {
	Degree       model.Degree           `json:"degree"`
	Areas        []model.DegreeProgress `json:"areas"`
	EarnedECTS   int                    `json:"earned_ects"`
	RequiredECTS int                    `json:"required_ects"`
}

// Percent 完成比例（0-100）
func (r *DegreeProgressResponse) Percent() float64 {
	if r.RequiredECTS <= 0 {
		return 0
	}
	p := float64(r.EarnedECTS) / float64(r.RequiredECTS) * 100
	if p > 100 {
		return 100
	}
	return p
}

// GPAResult 一次 GPA 计算的结果（德式成绩）
type GPAResult struct {
	Scope   string  `json:"scope"` // overall | semester:<code> | degree:<id> | area:<id>
	GPA     float64 `json:"gpa"`
	ECTS    float64 `json:"ects"`    // 参与计算的 ECTS
	Courses int     `json:"courses"` // 参与计算的课程数
	HasData bool    `json:"has_data"`
}

// SemesterSummary 单个学期的概要
type SemesterSummary struct {
	Code       string     `json:"code"`
	Courses    int        `json:"courses"`
	ECTS       int        `json:"ects"`        // 学期内全部（未退课）课程的 ECTS
	EarnedECTS int        `json:"earned_ects"` // 已通过课程的 ECTS
	GPA        *GPAResult `json:"gpa,omitempty"`
}

// StatsSummary 总览
type StatsSummary struct {
	Overall    GPAResult         `json:"overall"`
	Semesters  []SemesterSummary `json:"semesters"`
	EarnedECTS int               `json:"earned_ects"`
	Passed     int               `json:"passed"`
	Failed     int               `json:"failed"`
	Ungraded   int               `json:"ungraded"`
}
