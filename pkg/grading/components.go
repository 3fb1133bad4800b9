package grading

import (
	"errors"
	"fmt"
)

// Component 成绩组成部分（期中、期末、作业……）
type Component struct {
	Name         string
	Weight       float64
	PointsEarned *float64
	PointsTotal  *float64
	Grade        *float64 // 显式百分制成绩，优先于得分
	IsBonus      bool
	BonusPoints  float64
}

var (
	ErrNoComponents  = errors.New("no weighted components")
	ErrZeroWeight    = errors.New("component weights sum to zero")
	ErrNegativeValue = errors.New("negative weight or points")
)

// Percentage 单个组成部分的百分制成绩
func (c Component) Percentage() (float64, error) {
	if c.Grade != nil {
		return clamp(*c.Grade, 0, 100), nil
	}
	if c.PointsEarned != nil && c.PointsTotal != nil && *c.PointsTotal > 0 {
		if *c.PointsEarned < 0 {
			return 0, ErrNegativeValue
		}
		return *c.PointsEarned / *c.PointsTotal * 100, nil
	}
	return 0, fmt.Errorf("component %q has neither a grade nor points", c.Name)
}

// WeightedMean 计算组成部分的加权平均（百分制）。
//
// grade = Σ(wᵢ·gᵢ) / Σwᵢ，奖励项不参与加权；
// 归一化之后再加上奖励项的 bonus_points，结果截断在 100。
// 奖励分只增不减，因此结果对每个输入单调。
func WeightedMean(components []Component) (float64, error) {
	var weighted, weights, bonus float64
	n := 0
	for _, c := range components {
		if c.Weight < 0 || c.BonusPoints < 0 {
			return 0, ErrNegativeValue
		}
		if c.IsBonus {
			bonus += c.BonusPoints
			continue
		}
		g, err := c.Percentage()
		if err != nil {
			return 0, err
		}
		weighted += c.Weight * g
		weights += c.Weight
		n++
	}
	if n == 0 {
		return 0, ErrNoComponents
	}
	if weights == 0 {
		return 0, ErrZeroWeight
	}
	return clamp(weighted/weights+bonus, 0, 100), nil
}

// Weighted GPA 计算输入：已换算为德式成绩的分数及其 ECTS
type Weighted struct {
	Grade float64
	ECTS  float64
}

// GPA ECTS 加权平均；无输入时 ok=false
func GPA(items []Weighted) (gpa float64, totalECTS float64, ok bool) {
	var sum float64
	for _, it := range items {
		if it.ECTS <= 0 {
			continue
		}
		sum += it.Grade * it.ECTS
		totalECTS += it.ECTS
	}
	if totalECTS == 0 {
		return 0, 0, false
	}
	return sum / totalECTS, totalECTS, true
}
