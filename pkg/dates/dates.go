package dates

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ISOLayout 持久化日期格式
const ISOLayout = "2006-01-02"

// ── Date ──

// Date 不含时区的日历日期，数据库中以 TEXT "YYYY-MM-DD" 存储。
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate 构造日期（会按 time.Date 规则归一化溢出的月/日）
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf 取 t 在其自身时区下的日历日期
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today 本地时区的今天
func Today() Date { return DateOf(time.Now()) }

// IsZero 是否为零值
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// Time 返回 loc 时区下当天零点
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Weekday ISO 星期，0=周一 … 6=周日
func (d Date) Weekday() int {
	return ISOWeekday(d.Time(time.UTC).Weekday())
}

// AddDays 加减天数
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Before / After / Equal 比较
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }
func (d Date) Equal(o Date) bool  { return d.Compare(o) == 0 }

// Compare 返回 -1 / 0 / 1
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

// Between 闭区间判断 start ≤ d ≤ end
func (d Date) Between(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// German 以 DD.MM.YYYY 格式输出
func (d Date) German() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, d.Month, d.Year)
}

// Scan 实现 sql.Scanner，接受 TEXT 或驱动解析出的 time.Time
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.parseStored(string(v))
	case string:
		return d.parseStored(v)
	default:
		return fmt.Errorf("Date.Scan: unsupported type %T", src)
	}
}

func (d *Date) parseStored(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > 10 {
		s = s[:10]
	}
	parsed, err := ParseISO(s)
	if err != nil {
		return fmt.Errorf("Date.Scan: %w", err)
	}
	*d = parsed
	return nil
}

// Value 实现 driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// MarshalText / UnmarshalText 使 Date 在 YAML/JSON 中以 ISO 文本出现
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ── 解析 ──

var germanDate = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)

// ParseISO 解析 YYYY-MM-DD
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(ISOLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// ParseGerman 解析 DD.MM.YYYY（前导零可省略）
func ParseGerman(s string) (Date, error) {
	m := germanDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Date{}, fmt.Errorf("invalid date %q, expected DD.MM.YYYY", s)
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	d := NewDate(year, time.Month(month), day)
	// 拒绝 31.02.2025 这类被 time.Date 归一化的输入
	if d.Day != day || int(d.Month) != month {
		return Date{}, fmt.Errorf("invalid date %q: no such day", s)
	}
	return d, nil
}

// Parse 同时接受德式与 ISO 格式
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ".") {
		return ParseGerman(s)
	}
	return ParseISO(s)
}

// ISOWeekday time.Weekday (0=周日) → 0=周一 … 6=周日
func ISOWeekday(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// WeekdayName 0=Mon … 6=Sun
func WeekdayName(day int) string {
	names := [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	if day < 0 || day >= len(names) {
		return "?"
	}
	return names[day]
}

// ParseWeekday 接受 0-6 或英文/德文缩写
func ParseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday %d out of range 0-6", n)
		}
		return n, nil
	}
	aliases := map[string]int{
		"mon": 0, "monday": 0, "mo": 0, "montag": 0,
		"tue": 1, "tuesday": 1, "di": 1, "dienstag": 1,
		"wed": 2, "wednesday": 2, "mi": 2, "mittwoch": 2,
		"thu": 3, "thursday": 3, "do": 3, "donnerstag": 3,
		"fri": 4, "friday": 4, "fr": 4, "freitag": 4,
		"sat": 5, "saturday": 5, "sa": 5, "samstag": 5,
		"sun": 6, "sunday": 6, "so": 6, "sonntag": 6,
	}
	if n, ok := aliases[s]; ok {
		return n, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
