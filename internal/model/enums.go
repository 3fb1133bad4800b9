package model

import (
	"fmt"
	"strings"
)

// ── 学期类型 ──

// SemesterType 学位阶段（决定学期短码前缀）
type SemesterType string

const (
	SemesterBachelor SemesterType = "bachelor"
	SemesterMaster   SemesterType = "master"
)

// ParseSemesterType 大小写不敏感，接受 b/bsc/m/msc 等别名
func ParseSemesterType(s string) (SemesterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bachelor", "b", "bsc", "ba":
		return SemesterBachelor, nil
	case "master", "m", "msc", "ma":
		return SemesterMaster, nil
	}
	return "", fmt.Errorf("unknown semester type %q (expected bachelor or master)", s)
}

// Prefix 短码前缀
func (t SemesterType) Prefix() string {
	if t == SemesterMaster {
		return "m"
	}
	return "b"
}

func (t SemesterType) String() string { return string(t) }

// ── 学位类型 ──

// DegreeType 学位类型
type DegreeType string

const (
	DegreeBachelor DegreeType = "bachelor"
	DegreeMaster   DegreeType = "master"
	DegreePhD      DegreeType = "phd"
)

// ParseDegreeType 大小写不敏感
func ParseDegreeType(s string) (DegreeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bachelor", "b", "bsc", "ba":
		return DegreeBachelor, nil
	case "master", "m", "msc", "ma":
		return DegreeMaster, nil
	case "phd", "ph.d.", "doctorate", "dr":
		return DegreePhD, nil
	}
	return "", fmt.Errorf("unknown degree type %q (expected bachelor, master or phd)", s)
}

// ECTSBounds 该学位类型允许的总 ECTS 区间（闭区间）
func (t DegreeType) ECTSBounds() (lo, hi int) {
	switch t {
	case DegreeBachelor:
		return 90, 240
	case DegreeMaster:
		return 60, 120
	default:
		return 0, 0
	}
}

func (t DegreeType) String() string { return string(t) }

// ── 课程安排类型 ──

// ScheduleType 课程安排类型
type ScheduleType string

const (
	ScheduleLecture  ScheduleType = "lecture"
	ScheduleTutorium ScheduleType = "tutorium"
	ScheduleExercise ScheduleType = "exercise"
)

// ParseScheduleType 大小写不敏感
func ParseScheduleType(s string) (ScheduleType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lecture", "lec", "vorlesung", "vl":
		return ScheduleLecture, nil
	case "tutorium", "tut", "tutorial":
		return ScheduleTutorium, nil
	case "exercise", "ex", "übung", "uebung", "ue":
		return ScheduleExercise, nil
	}
	return "", fmt.Errorf("unknown schedule type %q (expected lecture, tutorium or exercise)", s)
}

func (t ScheduleType) String() string { return string(t) }

// ── 事件类型 ──

// EventType 单次事件类型
type EventType string

const (
	EventOneTime   EventType = "onetime"
	EventMakeup    EventType = "makeup"
	EventSpecial   EventType = "special"
	EventOverride  EventType = "override"
	EventCancelled EventType = "cancelled"
)

// ParseEventType 大小写不敏感；历史数据中的 "Cancellation" 同样解析为 cancelled
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onetime", "one-time", "one_time", "once":
		return EventOneTime, nil
	case "makeup", "make-up":
		return EventMakeup, nil
	case "special":
		return EventSpecial, nil
	case "override", "roomchange", "timechange":
		return EventOverride, nil
	case "cancelled", "canceled", "cancellation", "cancel":
		return EventCancelled, nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Normalize 返回规范形式；无法识别时原样返回
func (t EventType) Normalize() EventType {
	if n, err := ParseEventType(string(t)); err == nil {
		return n
	}
	return t
}

// IsCancellation 取消事件
func (t EventType) IsCancellation() bool { return t.Normalize() == EventCancelled }

// IsReplacement 替代/追加类事件（Override、Makeup、Special、OneTime）
func (t EventType) IsReplacement() bool {
	switch t.Normalize() {
	case EventOverride, EventMakeup, EventSpecial, EventOneTime:
		return true
	}
	return false
}

func (t EventType) String() string { return string(t.Normalize()) }
