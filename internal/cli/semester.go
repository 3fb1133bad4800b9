package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/internal/workspace"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func newSemesterCommand() *cobra.Command {
	semesterCmd := &cobra.Command{
		Use:     "semester",
		Aliases: []string{"sem"},
		Short:   "Manage semesters",
	}

	addCmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Create a semester, e.g. `mms semester add b3`",
		Args:  exactArgs(1),
		RunE:  withApp(runSemesterAdd),
	}
	addCmd.Flags().String("start", "", "Start date (DD.MM.YYYY or YYYY-MM-DD)")
	addCmd.Flags().String("end", "", "End date (DD.MM.YYYY or YYYY-MM-DD)")
	addCmd.Flags().String("university", "", "University (default: general.university)")
	addCmd.Flags().String("location", "", "Default location (default: general.default_location)")
	addCmd.Flags().Bool("current", false, "Make it the current semester")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all semesters",
		Args:  exactArgs(0),
		RunE:  withApp(runSemesterList),
	}

	setCurrentCmd := &cobra.Command{
		Use:   "set-current <code>",
		Short: "Switch the current semester",
		Args:  exactArgs(1),
		RunE:  withApp(runSemesterSetCurrent),
	}

	showCmd := &cobra.Command{
		Use:   "show [code]",
		Short: "Show a semester and its courses (default: current)",
		Args:  rangeArgs(0, 1),
		RunE:  withApp(runSemesterShow),
	}

	editCmd := &cobra.Command{
		Use:   "edit <code>",
		Short: "Update semester dates, university or location",
		Args:  exactArgs(1),
		RunE:  withApp(runSemesterEdit),
	}
	editCmd.Flags().String("start", "", "Start date")
	editCmd.Flags().String("end", "", "End date")
	editCmd.Flags().String("university", "", "University")
	editCmd.Flags().String("location", "", "Default location")

	archiveCmd := &cobra.Command{
		Use:   "archive <code>",
		Short: "Archive a semester",
		Args:  exactArgs(1),
		RunE:  withApp(runSemesterArchive),
	}
	archiveCmd.Flags().Bool("undo", false, "Unarchive instead")

	deleteCmd := &cobra.Command{
		Use:   "delete <code>",
		Short: "Delete a semester and all its courses",
		Args:  exactArgs(1),
		RunE:  withApp(runSemesterDelete),
	}
	deleteCmd.Flags().Bool("remove-dir", false, "Also remove the semester directory")
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	semesterCmd.AddCommand(addCmd, listCmd, setCurrentCmd, showCmd, editCmd, archiveCmd, deleteCmd)
	return semesterCmd
}

func runSemesterAdd(cmd *cobra.Command, args []string, a *app) error {
	typ, number, ok := workspace.ParseSemesterCode(args[0])
	if !ok {
		return apperr.Validation("semester code", fmt.Sprintf("%q must look like b3 or m1", args[0]))
	}
	req := &dto.CreateSemesterRequest{
		Type:            string(typ),
		Number:          number,
		University:      a.cfg.General.University,
		DefaultLocation: a.cfg.General.DefaultLocation,
	}
	req.StartDate, _ = cmd.Flags().GetString("start")
	req.EndDate, _ = cmd.Flags().GetString("end")
	req.SetCurrent, _ = cmd.Flags().GetBool("current")
	if v := optionalString(cmd, "university"); v != nil {
		req.University = *v
	}
	if v := optionalString(cmd, "location"); v != nil {
		req.DefaultLocation = *v
	}

	sem, err := a.svc.Semester.Create(cmd.Context(), req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Created semester %s at %s", sem.Code(), sem.DirectoryPath)
	return nil
}

func runSemesterList(cmd *cobra.Command, _ []string, a *app) error {
	semesters, err := a.svc.Semester.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(semesters) == 0 {
		warn(out, "No semesters yet. Create one with `mms semester add b1`.")
		return nil
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "CODE\tSTART\tEND\tUNIVERSITY\tSTATUS")
	for i := range semesters {
		s := &semesters[i]
		status := ""
		switch {
		case s.IsCurrent:
			status = green("current")
		case s.IsArchived:
			status = faint("archived")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Code(), dateOrDash(s.StartDate), dateOrDash(s.EndDate), orDash(s.University), status)
	}
	return tw.Flush()
}

func runSemesterSetCurrent(cmd *cobra.Command, args []string, a *app) error {
	sem, err := a.svc.Semester.SetCurrent(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Current semester is now %s", sem.Code())
	return nil
}

func runSemesterShow(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	var (
		sem *model.Semester
		err error
	)
	if len(args) == 1 {
		sem, err = a.svc.Semester.Get(ctx, args[0])
	} else {
		sem, err = a.svc.Semester.Current(ctx)
	}
	if err != nil {
		return err
	}
	courses, err := a.svc.Course.List(ctx, sem.Code())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	heading(out, "Semester %s", sem.Code())
	tw := newTable(out)
	fmt.Fprintf(tw, "Directory\t%s\n", sem.DirectoryPath)
	fmt.Fprintf(tw, "Period\t%s - %s\n", dateOrDash(sem.StartDate), dateOrDash(sem.EndDate))
	fmt.Fprintf(tw, "University\t%s\n", orDash(sem.University))
	fmt.Fprintf(tw, "Location\t%s\n", orDash(sem.DefaultLocation))
	fmt.Fprintf(tw, "Current\t%s\n", yesNo(sem.IsCurrent))
	fmt.Fprintf(tw, "Archived\t%s\n", yesNo(sem.IsArchived))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	heading(out, "Courses (%d)", len(courses))
	return printCourses(out, courses)
}

func runSemesterEdit(cmd *cobra.Command, args []string, a *app) error {
	req := &dto.UpdateSemesterRequest{
		StartDate:       optionalString(cmd, "start"),
		EndDate:         optionalString(cmd, "end"),
		University:      optionalString(cmd, "university"),
		DefaultLocation: optionalString(cmd, "location"),
	}
	sem, err := a.svc.Semester.Update(cmd.Context(), args[0], req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Updated semester %s", sem.Code())
	return nil
}

func runSemesterArchive(cmd *cobra.Command, args []string, a *app) error {
	undo, _ := cmd.Flags().GetBool("undo")
	sem, err := a.svc.Semester.Archive(cmd.Context(), args[0], !undo)
	if err != nil {
		return err
	}
	if undo {
		success(cmd.OutOrStdout(), "Unarchived semester %s", sem.Code())
	} else {
		success(cmd.OutOrStdout(), "Archived semester %s", sem.Code())
	}
	return nil
}

func runSemesterDelete(cmd *cobra.Command, args []string, a *app) error {
	removeDir, _ := cmd.Flags().GetBool("remove-dir")
	if err := confirmDestructive(cmd, fmt.Sprintf("Delete semester %s and all its courses?", args[0])); err != nil {
		return err
	}
	if err := a.svc.Semester.Delete(cmd.Context(), args[0], removeDir); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Deleted semester %s", args[0])
	return nil
}
