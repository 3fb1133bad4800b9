package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

const progressBarWidth = 30

func newStatsCommand() *cobra.Command {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "GPA, degree progress and transcript export",
	}

	gpaCmd := &cobra.Command{
		Use:   "gpa",
		Short: "Show the GPA (overall summary unless a scope is given)",
		Args:  exactArgs(0),
		RunE:  withApp(runStatsGPA),
	}
	gpaCmd.Flags().StringP("semester", "s", "", "Only this semester")
	gpaCmd.Flags().Int64("degree", 0, "Only courses mapped to this degree")
	gpaCmd.Flags().Int64("area", 0, "Only courses mapped to this area")
	gpaCmd.Flags().Bool("all", false, "Include areas that do not count towards the GPA")

	progressCmd := &cobra.Command{
		Use:   "progress <degree-id>",
		Short: "Show ECTS progress per degree area",
		Args:  exactArgs(1),
		RunE:  withApp(runStatsProgress),
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export a transcript as an Excel workbook",
		Args:  exactArgs(0),
		RunE:  withApp(runStatsExport),
	}
	exportCmd.Flags().Int64("degree", 0, "Only courses mapped to this degree")
	exportCmd.Flags().StringP("out", "o", "", "Output file or directory (default: current directory)")

	statsCmd.AddCommand(gpaCmd, progressCmd, exportCmd)
	return statsCmd
}

func formatGPA(r *dto.GPAResult) string {
	if r == nil || !r.HasData {
		return faint("no grades")
	}
	return fmt.Sprintf("%s  (%d courses, %g ECTS)", bold(fmt.Sprintf("%.2f", r.GPA)), r.Courses, r.ECTS)
}

func runStatsGPA(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	all, _ := cmd.Flags().GetBool("all")

	var (
		result *dto.GPAResult
		err    error
	)
	switch {
	case cmd.Flags().Changed("semester"):
		code, _ := cmd.Flags().GetString("semester")
		result, err = a.svc.Stats.SemesterGPA(ctx, code, all)
	case cmd.Flags().Changed("degree"):
		id, _ := cmd.Flags().GetInt64("degree")
		result, err = a.svc.Stats.DegreeGPA(ctx, id, all)
	case cmd.Flags().Changed("area"):
		id, _ := cmd.Flags().GetInt64("area")
		result, err = a.svc.Stats.AreaGPA(ctx, id, all)
	case all:
		result, err = a.svc.Stats.OverallGPA(ctx, true)
	default:
		summary, err := a.svc.Stats.Summary(ctx)
		if err != nil {
			return err
		}
		return printSummary(out, summary)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "GPA %s: %s\n", result.Scope, formatGPA(result))
	return nil
}

func printSummary(out io.Writer, s *dto.StatsSummary) error {
	heading(out, "Overall GPA: %s", formatGPA(&s.Overall))
	fmt.Fprintf(out, "Earned %d ECTS, %d passed, %d failed, %d ungraded\n\n", s.EarnedECTS, s.Passed, s.Failed, s.Ungraded)

	tw := newTable(out)
	fmt.Fprintln(tw, "SEMESTER\tCOURSES\tECTS\tEARNED\tGPA")
	for _, sem := range s.Semesters {
		gpa := "-"
		if sem.GPA != nil && sem.GPA.HasData {
			gpa = fmt.Sprintf("%.2f", sem.GPA.GPA)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", sem.Code, sem.Courses, sem.ECTS, sem.EarnedECTS, gpa)
	}
	return tw.Flush()
}

func progressBar(earned, required int) string {
	if required <= 0 {
		return strings.Repeat("░", progressBarWidth)
	}
	filled := earned * progressBarWidth / required
	if filled > progressBarWidth {
		filled = progressBarWidth
	}
	return green(strings.Repeat("█", filled)) + strings.Repeat("░", progressBarWidth-filled)
}

func runStatsProgress(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "degree")
	if err != nil {
		return err
	}
	progress, err := a.svc.Degree.Progress(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	heading(out, "%s: %d / %d ECTS (%.1f%%)", progress.Degree.Name, progress.EarnedECTS, progress.RequiredECTS, progress.Percent())
	fmt.Fprintln(out, progressBar(progress.EarnedECTS, progress.RequiredECTS))
	fmt.Fprintln(out)

	tw := newTable(out)
	for _, area := range progress.Areas {
		gpa := ""
		if area.AreaGPA != nil {
			gpa = fmt.Sprintf("GPA %.2f", *area.AreaGPA)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d / %d\t%s\n", area.CategoryName, progressBar(area.EarnedECTS, area.RequiredECTS), area.EarnedECTS, area.RequiredECTS, gpa)
	}
	return tw.Flush()
}

func runStatsExport(cmd *cobra.Command, _ []string, a *app) error {
	degreeID := optionalID(cmd, "degree")
	buf, filename, err := a.svc.Export.ExportTranscript(cmd.Context(), degreeID)
	if err != nil {
		return err
	}

	target, _ := cmd.Flags().GetString("out")
	switch {
	case target == "":
		target = filename
	case strings.HasSuffix(target, string(os.PathSeparator)):
		target = filepath.Join(target, filename)
	default:
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			target = filepath.Join(target, filename)
		}
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return apperr.Wrap(apperr.KindIO, "export.write", err)
	}
	success(cmd.OutOrStdout(), "Transcript written to %s", target)
	return nil
}
