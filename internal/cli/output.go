package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", yellow("⚠"), fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

func heading(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, bold(fmt.Sprintf(format, args...)))
}

// newTable 列对齐输出，调用方负责 Flush
func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func dateOrDash(d *dates.Date) string {
	if d == nil || d.IsZero() {
		return "-"
	}
	return d.String()
}

func clockRange(start, end *dates.Clock) string {
	if start == nil || end == nil {
		return "all day"
	}
	return start.String() + "-" + end.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func courseLabel(c *model.Course) string {
	if c == nil {
		return "-"
	}
	if c.Semester != nil {
		return fmt.Sprintf("%s/%s (%s)", c.Semester.Code(), c.ShortName, c.Name)
	}
	return fmt.Sprintf("%s (%s)", c.ShortName, c.Name)
}
