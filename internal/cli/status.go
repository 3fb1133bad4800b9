package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/daemon"
	"github.com/leonfuss/mms-sub000/internal/service"
	"github.com/leonfuss/mms-sub000/internal/symlink"
	"github.com/leonfuss/mms-sub000/internal/workspace"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func newStatusCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current pointer, daemon state and workspace consistency",
		Args:  exactArgs(0),
		RunE:  withApp(runStatus),
	}
	statusCmd.Flags().Bool("courses", false, "Also compare course directories of the current semester")
	return statusCmd
}

func newSyncCommand() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Create missing directories and descriptor files for database records",
		Args:  exactArgs(0),
		RunE:  withApp(runSync),
	}
	syncCmd.Flags().Bool("dry-run", false, "Only print what would be done")
	return syncCmd
}

func runStatus(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	state, err := a.svc.Pointer.Get(ctx)
	if err != nil {
		return err
	}
	heading(out, "Pointer")
	tw := newTable(out)
	semester := "-"
	if state.Semester != nil {
		semester = state.Semester.Code()
	}
	fmt.Fprintf(tw, "Semester\t%s\n", semester)
	fmt.Fprintf(tw, "Course\t%s\n", courseLabel(state.Course))
	if state.Pointer != nil && state.Pointer.ActivatedAt != nil {
		fmt.Fprintf(tw, "Since\t%s\n", state.Pointer.ActivatedAt.Local().Format("02.01.2006 15:04"))
	}
	fmt.Fprintf(tw, "Links\t%s\n", linkState(a, state))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	heading(out, "Daemon")
	if err := printDaemonStatus(out, a); err != nil {
		return err
	}

	fmt.Fprintln(out)
	heading(out, "Workspace %s", a.cfg.Workspace.BasePath)
	st, err := a.svc.Workspace.CheckStatus(ctx)
	if err != nil {
		return err
	}
	printSemesterStatus(out, st)

	if withCourses, _ := cmd.Flags().GetBool("courses"); withCourses {
		current, err := a.svc.Semester.Current(ctx)
		if errors.Is(err, service.ErrNoCurrentSemester) {
			warn(out, "No current semester.")
			return nil
		}
		if err != nil {
			return err
		}
		cs, err := a.svc.Workspace.CheckCourses(ctx, current)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		heading(out, "Courses of %s", current.Code())
		printCourseStatus(out, cs)
	}
	return nil
}

// linkState 比较链接实际指向与指针期望值；只读
func linkState(a *app, state *service.PointerState) string {
	links := symlink.NewManager(a.cfg.SymlinkDir(), a.cfg.Workspace.CurrentSemesterLink, a.cfg.Workspace.CurrentCourseLink)
	wantSem, wantCourse := a.svc.Pointer.Targets(state)
	gotSem, gotCourse, err := links.Current()
	if err != nil {
		return red(err.Error())
	}
	if gotSem == wantSem && gotCourse == wantCourse {
		return green("in sync")
	}
	return yellow("out of sync (the daemon or `mms course set-active` repairs them)")
}

func printDaemonStatus(out io.Writer, a *app) error {
	svc, err := daemon.NewService(a.cfg, "", a.logger)
	if err != nil {
		return err
	}
	st := svc.Status()
	tw := newTable(out)
	if st.Running {
		fmt.Fprintf(tw, "State\t%s (pid %d)\n", green("running"), st.PID)
	} else {
		fmt.Fprintf(tw, "State\t%s\n", faint("stopped"))
	}
	installed := yesNo(st.Installed)
	if st.UnitPath != "" {
		installed += " (" + st.UnitPath + ")"
	}
	fmt.Fprintf(tw, "Installed\t%s\n", installed)
	fmt.Fprintf(tw, "Log\t%s\n", orDash(st.LogFile))
	return tw.Flush()
}

func printSemesterStatus(out io.Writer, st *workspace.Status) {
	fmt.Fprintf(out, "%s %d synced\n", green("✓"), len(st.Synced))
	for i := range st.DBOnly {
		fmt.Fprintf(out, "%s %s missing on disk (%s)\n", yellow("⚠"), st.DBOnly[i].Code(), st.DBOnly[i].DirectoryPath)
	}
	printDiskOnly(out, st.DiskOnly)
	if len(st.DBOnly) > 0 {
		fmt.Fprintln(out, faint("Run `mms sync` to create missing directories."))
	}
}

func printCourseStatus(out io.Writer, cs *workspace.CourseStatus) {
	fmt.Fprintf(out, "%s %d synced\n", green("✓"), len(cs.Synced))
	for i := range cs.DBOnly {
		c := &cs.DBOnly[i]
		fmt.Fprintf(out, "%s %s missing on disk (%s)\n", yellow("⚠"), c.ShortName, c.DirectoryPath)
	}
	printDiskOnly(out, cs.DiskOnly)
}

func printDiskOnly(out io.Writer, entries []workspace.DiskEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%s %s not in database (%s)\n", yellow("?"), e.Name, e.Path)
	}
}

func runSync(cmd *cobra.Command, _ []string, a *app) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	report, err := a.svc.Workspace.SyncToFilesystem(cmd.Context(), dryRun)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if report.NothingToDo() {
		success(out, "Workspace is in sync")
		return nil
	}
	for _, action := range report.Actions {
		switch {
		case action.Err != nil:
			failure(out, "%s: %v", action, action.Err)
		case report.DryRun:
			fmt.Fprintf(out, "  would %s\n", action)
		default:
			success(out, "%s", action)
		}
	}
	if failed := report.Failed(); len(failed) > 0 {
		return apperr.Newf(apperr.KindIO, "%d of %d sync actions failed", len(failed), len(report.Actions))
	}
	return nil
}
