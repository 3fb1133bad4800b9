package grading

import (
	"fmt"
	"math"
	"strings"
)

// Scheme 评分体系
type Scheme string

const (
	German     Scheme = "german"
	ECTS       Scheme = "ects"
	US         Scheme = "us"
	Percentage Scheme = "percentage"
	PassFail   Scheme = "passfail"
)

// PassThreshold 所有体系统一经百分制判定是否通过
const PassThreshold = 50.0

// ParseScheme 解析评分体系，大小写不敏感并接受常见别名
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "german", "de", "ger", "deutsch":
		return German, nil
	case "ects", "ects-letter", "letter":
		return ECTS, nil
	case "us", "gpa", "us-gpa", "us4", "4.0":
		return US, nil
	case "percentage", "percent", "pct", "%":
		return Percentage, nil
	case "passfail", "pass-fail", "pass/fail", "pf":
		return PassFail, nil
	}
	return "", fmt.Errorf("unknown grading scheme %q", s)
}

func (s Scheme) String() string { return string(s) }

// ── ECTS 字母等级 ──

// ECTSGrade ECTS 字母等级 A-F
type ECTSGrade string

const (
	ECTSA ECTSGrade = "A"
	ECTSB ECTSGrade = "B"
	ECTSC ECTSGrade = "C"
	ECTSD ECTSGrade = "D"
	ECTSE ECTSGrade = "E"
	ECTSF ECTSGrade = "F"
)

var ectsBands = []struct {
	grade ECTSGrade
	min   float64
	mid   float64
	value float64 // 数值编码：A=1 … F=6，用于数据库存储
}{
	{ECTSA, 90, 95, 1},
	{ECTSB, 80, 85, 2},
	{ECTSC, 70, 75, 3},
	{ECTSD, 60, 65, 4},
	{ECTSE, 50, 55, 5},
	{ECTSF, 0, 25, 6},
}

// ParseECTSGrade 解析字母等级
func ParseECTSGrade(s string) (ECTSGrade, error) {
	u := ECTSGrade(strings.ToUpper(strings.TrimSpace(s)))
	for _, b := range ectsBands {
		if b.grade == u {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown ECTS grade %q", s)
}

// ECTSFromPercentage 百分制到字母等级的分段函数
func ECTSFromPercentage(pct float64) ECTSGrade {
	for _, b := range ectsBands {
		if pct >= b.min {
			return b.grade
		}
	}
	return ECTSF
}

// Value 字母等级的数值编码
func (g ECTSGrade) Value() float64 {
	for _, b := range ectsBands {
		if b.grade == g {
			return b.value
		}
	}
	return 6
}

// ECTSFromValue 数值编码还原字母等级（四舍五入到最近的档位）
func ECTSFromValue(v float64) ECTSGrade {
	idx := int(math.Round(v)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ectsBands) {
		idx = len(ectsBands) - 1
	}
	return ectsBands[idx].grade
}

func (g ECTSGrade) midpoint() float64 {
	for _, b := range ectsBands {
		if b.grade == g {
			return b.mid
		}
	}
	return 25
}

// ── 体系换算（以百分制为枢轴） ──

// ToPercentage 将 scheme 下的数值换算为 0-100 百分制。
// ECTS 的数值为字母等级编码（A=1 … F=6）。
func ToPercentage(value float64, scheme Scheme) (float64, error) {
	switch scheme {
	case German:
		g := clamp(value, 1, 5)
		return clamp(100-(g-1)*50/3, 0, 100), nil
	case US:
		return clamp(value/4*100, 0, 100), nil
	case Percentage:
		return clamp(value, 0, 100), nil
	case ECTS:
		return ECTSFromValue(value).midpoint(), nil
	case PassFail:
		if value >= 1 {
			return 100, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown grading scheme %q", scheme)
}

// FromPercentage 将百分制换算到目标体系
func FromPercentage(pct float64, scheme Scheme) (float64, error) {
	pct = clamp(pct, 0, 100)
	switch scheme {
	case German:
		// 1.0 ↔ 100%，4.0 ↔ 50%，线性外推并截断到 [1,5]
		return clamp(1+(100-pct)*3/50, 1, 5), nil
	case US:
		return pct / 100 * 4, nil
	case Percentage:
		return pct, nil
	case ECTS:
		return ECTSFromPercentage(pct).Value(), nil
	case PassFail:
		if pct >= PassThreshold {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unknown grading scheme %q", scheme)
}

// Convert 跨体系换算
func Convert(value float64, from, to Scheme) (float64, error) {
	if from == to {
		return value, nil
	}
	pct, err := ToPercentage(value, from)
	if err != nil {
		return 0, err
	}
	return FromPercentage(pct, to)
}

// Passed 成绩是否通过，由 (grade, scheme) 唯一决定
func Passed(value float64, scheme Scheme) bool {
	pct, err := ToPercentage(value, scheme)
	if err != nil {
		return false
	}
	return pct >= PassThreshold
}

// Validate 检查数值在体系的合法范围内
func Validate(value float64, scheme Scheme) error {
	var lo, hi float64
	switch scheme {
	case German:
		lo, hi = 1, 5
	case US:
		lo, hi = 0, 4
	case Percentage:
		lo, hi = 0, 100
	case ECTS:
		lo, hi = 1, 6
	case PassFail:
		if value != 0 && value != 1 {
			return fmt.Errorf("pass/fail grade must be 0 or 1, got %g", value)
		}
		return nil
	default:
		return fmt.Errorf("unknown grading scheme %q", scheme)
	}
	if math.IsNaN(value) || value < lo || value > hi {
		return fmt.Errorf("%s grade must be within [%g, %g], got %g", scheme, lo, hi, value)
	}
	return nil
}

// Format 按体系习惯格式化
func Format(value float64, scheme Scheme) string {
	switch scheme {
	case German, US:
		return fmt.Sprintf("%.2f", value)
	case Percentage:
		return fmt.Sprintf("%.1f%%", value)
	case ECTS:
		return string(ECTSFromValue(value))
	case PassFail:
		if value >= 1 {
			return "pass"
		}
		return "fail"
	}
	return fmt.Sprintf("%g", value)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
