package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
)

func newHolidayCommand() *cobra.Command {
	holidayCmd := &cobra.Command{
		Use:   "holiday",
		Short: "Manage holidays (no classes unless a course is excepted)",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a holiday period",
		Args:  exactArgs(1),
		RunE:  withApp(runHolidayAdd),
	}
	addCmd.Flags().String("start", "", "First day")
	addCmd.Flags().String("end", "", "Last day (default: same as --start)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List holidays",
		Args:  exactArgs(0),
		RunE:  withApp(runHolidayList),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <holiday-id>",
		Short: "Delete a holiday",
		Args:  exactArgs(1),
		RunE:  withApp(runHolidayDelete),
	}

	exceptCmd := &cobra.Command{
		Use:   "except <holiday-id> <course>",
		Short: "Let a course take place despite the holiday",
		Args:  exactArgs(2),
		RunE:  withApp(runHolidayExcept),
	}
	exceptCmd.Flags().Bool("remove", false, "Remove the exception instead")

	holidayCmd.AddCommand(addCmd, listCmd, deleteCmd, exceptCmd)
	return holidayCmd
}

func runHolidayAdd(cmd *cobra.Command, args []string, a *app) error {
	req := &dto.AddHolidayRequest{Name: args[0]}
	req.StartDate, _ = cmd.Flags().GetString("start")
	req.EndDate, _ = cmd.Flags().GetString("end")
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}
	h, err := a.svc.Holiday.Add(cmd.Context(), req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Added holiday #%d %s (%s - %s)", h.ID, h.Name, h.StartDate, h.EndDate)
	return nil
}

func runHolidayList(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	holidays, err := a.svc.Holiday.List(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(holidays) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tEND\tEXCEPT")
	for i := range holidays {
		h := &holidays[i]
		var except []string
		for _, ex := range h.Exceptions {
			label := fmt.Sprintf("#%d", ex.CourseID)
			if c, err := a.svc.Course.GetByID(ctx, ex.CourseID); err == nil {
				label = c.ShortName
			}
			except = append(except, label)
		}
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\n", h.ID, h.Name, h.StartDate, h.EndDate, orDash(strings.Join(except, ",")))
	}
	return tw.Flush()
}

func runHolidayDelete(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "holiday")
	if err != nil {
		return err
	}
	if err := a.svc.Holiday.Delete(cmd.Context(), id); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Deleted holiday #%d", id)
	return nil
}

func runHolidayExcept(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	id, err := parseID(args[0], "holiday")
	if err != nil {
		return err
	}
	course, err := resolveCourse(ctx, a, args[1])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if remove, _ := cmd.Flags().GetBool("remove"); remove {
		if err := a.svc.Holiday.RemoveException(ctx, id, course.ID); err != nil {
			return err
		}
		success(out, "%s is off again during holiday #%d", course.ShortName, id)
		return nil
	}
	if err := a.svc.Holiday.AddException(ctx, id, course.ID); err != nil {
		return err
	}
	success(out, "%s takes place during holiday #%d", course.ShortName, id)
	return nil
}
