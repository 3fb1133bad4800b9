package dates

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock 一天内的时刻，分钟精度，数据库中以 TEXT "HH:MM" 存储。
type Clock struct {
	Minutes int // 自 00:00 起的分钟数，0-1439
}

// NewClock 由时分构造
func NewClock(hour, minute int) Clock {
	return Clock{Minutes: hour*60 + minute}
}

// ClockOf 取 t 的时分
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock 解析 "HH:MM"（也接受 "HH:MM:SS"，秒被忽略）
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}
	return NewClock(h, m), nil
}

// ParseClockLenient 解析失败时返回 00:00（用于读取历史数据）
func ParseClockLenient(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		return Clock{}
	}
	return c
}

func (c Clock) Hour() int   { return c.Minutes / 60 }
func (c Clock) Minute() int { return c.Minutes % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Before 严格早于
func (c Clock) Before(o Clock) bool { return c.Minutes < o.Minutes }

// Within 半开区间 [start, end)
func (c Clock) Within(start, end Clock) bool {
	return c.Minutes >= start.Minutes && c.Minutes < end.Minutes
}

// Scan 实现 sql.Scanner；格式错误的存量值按 00:00 处理
func (c *Clock) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = Clock{}
	case []byte:
		*c = ParseClockLenient(string(v))
	case string:
		*c = ParseClockLenient(v)
	case time.Time:
		*c = ClockOf(v)
	default:
		return fmt.Errorf("Clock.Scan: unsupported type %T", src)
	}
	return nil
}

// Value 实现 driver.Valuer
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c Clock) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
