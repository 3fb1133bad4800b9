package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/resolver"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func newTodayCommand() *cobra.Command {
	todayCmd := &cobra.Command{
		Use:   "today",
		Short: "Show today's schedule and the course running right now",
		Args:  exactArgs(0),
		RunE:  withApp(runToday),
	}
	todayCmd.Flags().StringP("date", "d", "", "Show another day instead")
	return todayCmd
}

func runToday(cmd *cobra.Command, _ []string, a *app) error {
	now := time.Now()
	day := dates.DateOf(now)
	if v := optionalString(cmd, "date"); v != nil {
		d, err := dates.Parse(*v)
		if err != nil {
			return apperr.Validation("date", err.Error())
		}
		day = d
	}

	agenda, err := a.svc.Schedule.Today(cmd.Context(), day, now)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if agenda.Semester == nil {
		warn(out, "No current semester.")
		return nil
	}
	heading(out, "%s, %s (%s)", time.Weekday((day.Weekday()+1)%7), day.German(), agenda.Semester.Code())
	if len(agenda.Slots) == 0 {
		fmt.Fprintln(out, faint("No classes."))
	} else {
		tw := newTable(out)
		for i := range agenda.Slots {
			s := &agenda.Slots[i]
			line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s", clockRange(s.Start, s.End), s.Course.ShortName, slotKind(s), orDash(s.Room), slotStatus(s))
			if agenda.Decision != nil && agenda.Decision.Active() && isDecided(agenda.Decision, s) {
				line = bold(line) + "\t" + green("◀ now")
			}
			fmt.Fprintln(tw, line)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if agenda.Decision != nil {
		fmt.Fprintln(out)
		if agenda.Active != nil {
			fmt.Fprintf(out, "Now: %s\n", bold(courseLabel(agenda.Active)))
		} else {
			fmt.Fprintln(out, "Now: no class")
		}
	}
	return nil
}

func slotKind(s *resolver.Slot) string {
	if s.Status == resolver.SlotExtra {
		return s.EventType.String()
	}
	return s.ScheduleType.String()
}

func slotStatus(s *resolver.Slot) string {
	switch s.Status {
	case resolver.SlotCancelled:
		return red("cancelled")
	case resolver.SlotHoliday:
		return yellow("holiday")
	case resolver.SlotMoved:
		return faint("moved")
	case resolver.SlotExtra:
		return orDash(s.Description)
	}
	return ""
}

func isDecided(d *resolver.Decision, s *resolver.Slot) bool {
	if d.EventID != nil && s.EventID != nil {
		return *d.EventID == *s.EventID
	}
	if d.ScheduleID != nil && s.ScheduleID != nil && s.Status == resolver.SlotScheduled {
		return *d.ScheduleID == *s.ScheduleID
	}
	return false
}
