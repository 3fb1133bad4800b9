package dates

import (
	"testing"
	"time"
)

func TestParse_BothFormats(t *testing.T) {
	want := NewDate(2024, time.November, 18)
	for _, in := range []string{"2024-11-18", "18.11.2024", " 18.11.2024 "} {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) 失败: %v", in, err)
		}
		if !got.Equal(want) {
			t.Errorf("Parse(%q) = %s，期望 %s", in, got, want)
		}
	}
	if d, err := ParseGerman("1.2.2025"); err != nil || d.String() != "2025-02-01" {
		t.Errorf("前导零应可省略: %v %s", err, d)
	}
}

func TestParseGerman_RejectsOverflow(t *testing.T) {
	for _, in := range []string{"31.02.2025", "00.01.2025", "2025-02-01", "1.1.25"} {
		if _, err := ParseGerman(in); err == nil {
			t.Errorf("ParseGerman(%q) 应失败", in)
		}
	}
}

func TestDate_WeekdayIsISO(t *testing.T) {
	// 2024-11-18 为周一
	if wd := NewDate(2024, time.November, 18).Weekday(); wd != 0 {
		t.Errorf("周一应为 0，实际 %d", wd)
	}
	if wd := NewDate(2024, time.November, 24).Weekday(); wd != 6 {
		t.Errorf("周日应为 6，实际 %d", wd)
	}
}

func TestDate_BetweenIsClosed(t *testing.T) {
	start, end := NewDate(2024, time.October, 1), NewDate(2025, time.February, 1)
	cases := map[Date]bool{
		start:             true,
		end:               true,
		start.AddDays(-1): false,
		end.AddDays(1):    false,
		start.AddDays(40): true,
	}
	for d, want := range cases {
		if got := d.Between(start, end); got != want {
			t.Errorf("%s.Between = %v，期望 %v", d, got, want)
		}
	}
}

func TestDate_ScanValue(t *testing.T) {
	d := NewDate(2025, time.March, 9)
	v, _ := d.Value()
	if v != "2025-03-09" {
		t.Errorf("Value 应为 ISO 文本，实际 %v", v)
	}
	var back Date
	if err := back.Scan("2025-03-09 00:00:00"); err != nil || !back.Equal(d) {
		t.Errorf("Scan 带时间的文本失败: %v %s", err, back)
	}
	if err := back.Scan(nil); err != nil || !back.IsZero() {
		t.Errorf("Scan(nil) 应得到零值")
	}
	if v, _ := (Date{}).Value(); v != nil {
		t.Errorf("零值应写入 NULL，实际 %v", v)
	}
	if got := d.German(); got != "09.03.2025" {
		t.Errorf("German() = %s", got)
	}
}

func TestClock_HalfOpenWindow(t *testing.T) {
	start, end := NewClock(14, 0), NewClock(16, 0)
	cases := map[Clock]bool{
		NewClock(14, 0):  true,
		NewClock(15, 59): true,
		NewClock(16, 0):  false,
		NewClock(13, 59): false,
	}
	for c, want := range cases {
		if got := c.Within(start, end); got != want {
			t.Errorf("%s.Within(14:00,16:00) = %v，期望 %v", c, got, want)
		}
	}
}

func TestClock_ParseAndLenientScan(t *testing.T) {
	if c, err := ParseClock("09:05"); err != nil || c.String() != "09:05" {
		t.Errorf("ParseClock 失败: %v %s", err, c)
	}
	if c, err := ParseClock("9:05:30"); err != nil || c.Minutes != 9*60+5 {
		t.Errorf("秒应被忽略: %v %d", err, c.Minutes)
	}
	for _, bad := range []string{"24:00", "12:5", "noon", ""} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) 应失败", bad)
		}
	}
	var c Clock
	if err := c.Scan("garbage"); err != nil || c.Minutes != 0 {
		t.Errorf("格式错误的存量值应按 00:00 处理: %v %v", err, c)
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "Mon": 0, "montag": 0, "Fri": 4, "so": 6} {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %d, %v；期望 %d", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("7"); err == nil {
		t.Error("7 超出范围")
	}
}
