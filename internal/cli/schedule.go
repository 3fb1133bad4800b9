package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
)

func newScheduleCommand() *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage weekly schedules and one-off events of a course",
	}

	addCmd := &cobra.Command{
		Use:   "add <course>",
		Short: "Add a weekly slot, e.g. `mms schedule add algo --day mon --start 10:00 --end 12:00`",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleAdd),
	}
	addCmd.Flags().StringP("type", "t", string(model.ScheduleLecture), "lecture|tutorium|exercise")
	addCmd.Flags().StringP("day", "d", "", "Weekday (mon..sun or 0-6, 0=Monday)")
	addCmd.Flags().String("start", "", "Start time HH:MM")
	addCmd.Flags().String("end", "", "End time HH:MM")
	addCmd.Flags().String("from", "", "First date (default: semester start)")
	addCmd.Flags().String("until", "", "Last date (default: semester end)")
	addCmd.Flags().String("room", "", "Room")
	addCmd.Flags().String("location", "", "Location")

	listCmd := &cobra.Command{
		Use:   "list <course>",
		Short: "List weekly slots and events of a course",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleList),
	}

	editCmd := &cobra.Command{
		Use:   "edit <schedule-id>",
		Short: "Update a weekly slot",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleEdit),
	}
	editCmd.Flags().StringP("type", "t", "", "lecture|tutorium|exercise")
	editCmd.Flags().StringP("day", "d", "", "Weekday")
	editCmd.Flags().String("start", "", "Start time HH:MM")
	editCmd.Flags().String("end", "", "End time HH:MM")
	editCmd.Flags().String("from", "", "First date")
	editCmd.Flags().String("until", "", "Last date")
	editCmd.Flags().String("room", "", "Room")
	editCmd.Flags().String("location", "", "Location")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a weekly slot (or an event with --event)",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleDelete),
	}
	deleteCmd.Flags().Bool("event", false, "The id refers to an event")

	cancelCmd := &cobra.Command{
		Use:   "cancel <course>",
		Short: "Cancel a course on a date (whole day unless --start/--end)",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleCancel),
	}
	cancelCmd.Flags().String("date", "", "Date to cancel")
	cancelCmd.Flags().String("start", "", "Start time of the cancelled slot")
	cancelCmd.Flags().String("end", "", "End time of the cancelled slot")
	cancelCmd.Flags().Int64("schedule", 0, "Weekly slot id")
	cancelCmd.Flags().String("reason", "", "Description")

	overrideCmd := &cobra.Command{
		Use:   "override <course>",
		Short: "Move a course on a date to another time or room",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleOverride),
	}
	overrideCmd.Flags().String("date", "", "Date")
	overrideCmd.Flags().String("start", "", "New start time")
	overrideCmd.Flags().String("end", "", "New end time")
	overrideCmd.Flags().Int64("schedule", 0, "Weekly slot that is replaced")
	overrideCmd.Flags().String("room", "", "Room")
	overrideCmd.Flags().String("location", "", "Location")
	overrideCmd.Flags().String("reason", "", "Description")

	eventCmd := &cobra.Command{
		Use:   "event <course>",
		Short: "Add a one-off event (makeup, special, onetime)",
		Args:  exactArgs(1),
		RunE:  withApp(runScheduleEvent),
	}
	eventCmd.Flags().StringP("type", "t", string(model.EventOneTime), "onetime|makeup|special")
	eventCmd.Flags().String("schedule-type", "", "lecture|tutorium|exercise (default: lecture)")
	eventCmd.Flags().String("date", "", "Date")
	eventCmd.Flags().String("start", "", "Start time")
	eventCmd.Flags().String("end", "", "End time")
	eventCmd.Flags().String("room", "", "Room")
	eventCmd.Flags().String("location", "", "Location")
	eventCmd.Flags().String("description", "", "Description")

	scheduleCmd.AddCommand(addCmd, listCmd, editCmd, deleteCmd, cancelCmd, overrideCmd, eventCmd)
	return scheduleCmd
}

func printSchedules(out io.Writer, schedules []model.CourseSchedule) error {
	if len(schedules) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tTYPE\tDAY\tTIME\tPERIOD\tROOM")
	for i := range schedules {
		s := &schedules[i]
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s - %s\t%s\n",
			s.ID, s.ScheduleType, dates.WeekdayName(s.DayOfWeek), clockRange(&s.StartTime, &s.EndTime),
			s.StartDate, s.EndDate, orDash(s.Room))
	}
	return tw.Flush()
}

func printEvents(out io.Writer, events []model.CourseEvent) error {
	if len(events) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tDATE\tEVENT\tTIME\tROOM\tDESCRIPTION")
	for i := range events {
		e := &events[i]
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Date, e.EventType, clockRange(e.StartTime, e.EndTime), orDash(e.Room), orDash(e.Description))
	}
	return tw.Flush()
}

func scheduleIDFlag(cmd *cobra.Command) *int64 {
	id := optionalID(cmd, "schedule")
	if id != nil && *id == 0 {
		return nil
	}
	return id
}

// ────────────────────── 每周安排 ──────────────────────

func runScheduleAdd(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.AddScheduleRequest{CourseID: course.ID}
	req.Type, _ = cmd.Flags().GetString("type")
	req.Day, _ = cmd.Flags().GetString("day")
	req.StartTime, _ = cmd.Flags().GetString("start")
	req.EndTime, _ = cmd.Flags().GetString("end")
	req.StartDate, _ = cmd.Flags().GetString("from")
	req.EndDate, _ = cmd.Flags().GetString("until")
	req.Room, _ = cmd.Flags().GetString("room")
	req.Location, _ = cmd.Flags().GetString("location")

	s, err := a.svc.Schedule.Add(ctx, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Added %s #%d for %s: %s %s",
		s.ScheduleType, s.ID, course.ShortName, dates.WeekdayName(s.DayOfWeek), clockRange(&s.StartTime, &s.EndTime))
	return nil
}

func runScheduleList(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	schedules, err := a.svc.Schedule.List(ctx, course.ID)
	if err != nil {
		return err
	}
	events, err := a.svc.Schedule.ListEvents(ctx, course.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	heading(out, "Weekly schedule of %s", course.ShortName)
	if err := printSchedules(out, schedules); err != nil {
		return err
	}
	fmt.Fprintln(out)
	heading(out, "Events")
	return printEvents(out, events)
}

func runScheduleEdit(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "schedule")
	if err != nil {
		return err
	}
	req := &dto.UpdateScheduleRequest{
		Type:      optionalString(cmd, "type"),
		Day:       optionalString(cmd, "day"),
		StartTime: optionalString(cmd, "start"),
		EndTime:   optionalString(cmd, "end"),
		StartDate: optionalString(cmd, "from"),
		EndDate:   optionalString(cmd, "until"),
		Room:      optionalString(cmd, "room"),
		Location:  optionalString(cmd, "location"),
	}
	s, err := a.svc.Schedule.Update(cmd.Context(), id, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Updated schedule #%d: %s %s", s.ID, dates.WeekdayName(s.DayOfWeek), clockRange(&s.StartTime, &s.EndTime))
	return nil
}

func runScheduleDelete(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "id")
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if isEvent, _ := cmd.Flags().GetBool("event"); isEvent {
		if err := a.svc.Schedule.DeleteEvent(cmd.Context(), id); err != nil {
			return err
		}
		success(out, "Deleted event #%d", id)
		return nil
	}
	if err := a.svc.Schedule.Delete(cmd.Context(), id); err != nil {
		return err
	}
	success(out, "Deleted schedule #%d", id)
	return nil
}

// ────────────────────── 单次事件 ──────────────────────

func runScheduleCancel(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.CancelRequest{CourseID: course.ID, ScheduleID: scheduleIDFlag(cmd)}
	req.Date, _ = cmd.Flags().GetString("date")
	req.StartTime, _ = cmd.Flags().GetString("start")
	req.EndTime, _ = cmd.Flags().GetString("end")
	req.Description, _ = cmd.Flags().GetString("reason")

	ev, err := a.svc.Schedule.Cancel(ctx, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Cancelled %s on %s (%s), event #%d", course.ShortName, ev.Date, clockRange(ev.StartTime, ev.EndTime), ev.ID)
	return nil
}

func runScheduleOverride(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.OverrideRequest{CourseID: course.ID, ScheduleID: scheduleIDFlag(cmd)}
	req.Date, _ = cmd.Flags().GetString("date")
	req.StartTime, _ = cmd.Flags().GetString("start")
	req.EndTime, _ = cmd.Flags().GetString("end")
	req.Room, _ = cmd.Flags().GetString("room")
	req.Location, _ = cmd.Flags().GetString("location")
	req.Description, _ = cmd.Flags().GetString("reason")

	ev, err := a.svc.Schedule.Override(ctx, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "%s on %s moved to %s, event #%d", course.ShortName, ev.Date, clockRange(ev.StartTime, ev.EndTime), ev.ID)
	return nil
}

func runScheduleEvent(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.AddEventRequest{CourseID: course.ID}
	req.EventType, _ = cmd.Flags().GetString("type")
	req.ScheduleType, _ = cmd.Flags().GetString("schedule-type")
	req.Date, _ = cmd.Flags().GetString("date")
	req.StartTime, _ = cmd.Flags().GetString("start")
	req.EndTime, _ = cmd.Flags().GetString("end")
	req.Room, _ = cmd.Flags().GetString("room")
	req.Location, _ = cmd.Flags().GetString("location")
	req.Description, _ = cmd.Flags().GetString("description")

	ev, err := a.svc.Schedule.AddEvent(ctx, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Added %s event #%d for %s on %s (%s)", ev.EventType, ev.ID, course.ShortName, ev.Date, clockRange(ev.StartTime, ev.EndTime))
	return nil
}
