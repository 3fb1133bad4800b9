package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	"github.com/leonfuss/mms-sub000/pkg/dates"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func newDegreeCommand() *cobra.Command {
	degreeCmd := &cobra.Command{
		Use:   "degree",
		Short: "Manage degree programs, their areas and course mappings",
	}

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a degree program",
		Args:  exactArgs(1),
		RunE:  withApp(runDegreeAdd),
	}
	addCmd.Flags().StringP("type", "t", string(model.DegreeBachelor), "bachelor|master|phd")
	addCmd.Flags().String("university", "", "University (default: general.university)")
	addCmd.Flags().IntP("ects", "e", 0, "Total ECTS required")
	addCmd.Flags().String("start", "", "Start date")
	addCmd.Flags().String("end", "", "Expected end date")
	addCmd.Flags().StringArray("area", nil, "Area Name:ECTS[:nogpa] (repeatable)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List degree programs",
		Args:  exactArgs(0),
		RunE:  withApp(runDegreeList),
	}

	showCmd := &cobra.Command{
		Use:   "show <degree-id>",
		Short: "Show areas, progress and mapped courses",
		Args:  exactArgs(1),
		RunE:  withApp(runDegreeShow),
	}

	areaAddCmd := &cobra.Command{
		Use:   "area-add <degree-id> <name>",
		Short: "Add an area to a degree program",
		Args:  exactArgs(2),
		RunE:  withApp(runDegreeAreaAdd),
	}
	areaAddCmd.Flags().IntP("ects", "e", 0, "Required ECTS")
	areaAddCmd.Flags().Bool("no-gpa", false, "Area does not count towards the GPA")
	areaAddCmd.Flags().Int("order", 0, "Display order")

	mapCmd := &cobra.Command{
		Use:   "map <course>",
		Short: "Map a course to an area of a degree",
		Args:  exactArgs(1),
		RunE:  withApp(runDegreeMap),
	}
	mapCmd.Flags().Int64("degree", 0, "Degree id")
	mapCmd.Flags().Int64("area", 0, "Area id")
	mapCmd.Flags().Int("ects", 0, "Count the course with different ECTS")

	unmapCmd := &cobra.Command{
		Use:   "unmap <course>",
		Short: "Remove a course mapping",
		Args:  exactArgs(1),
		RunE:  withApp(runDegreeUnmap),
	}
	unmapCmd.Flags().Int64("degree", 0, "Degree id")

	unmappedCmd := &cobra.Command{
		Use:   "unmapped",
		Short: "List courses that are not mapped to any degree",
		Args:  exactArgs(0),
		RunE:  withApp(runDegreeUnmapped),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <degree-id>",
		Short: "Delete a degree program with its areas and mappings",
		Args:  exactArgs(1),
		RunE:  withApp(runDegreeDelete),
	}
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	degreeCmd.AddCommand(addCmd, listCmd, showCmd, areaAddCmd, mapCmd, unmapCmd, unmappedCmd, deleteCmd)
	return degreeCmd
}

// germanDate 接受两种日期写法，统一转为 DD.MM.YYYY
func germanDate(field, s string) (string, error) {
	if s == "" {
		return "", nil
	}
	d, err := dates.Parse(s)
	if err != nil {
		return "", apperr.Validation(field, err.Error())
	}
	return d.German(), nil
}

// parseArea Name:ECTS[:nogpa]
func parseArea(arg string) (dto.CreateAreaRequest, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return dto.CreateAreaRequest{}, apperr.Validation("area", fmt.Sprintf("%q must be Name:ECTS[:nogpa]", arg))
	}
	ects, err := strconv.Atoi(parts[1])
	if err != nil {
		return dto.CreateAreaRequest{}, apperr.Validation("area ects", parts[1])
	}
	area := dto.CreateAreaRequest{CategoryName: parts[0], RequiredECTS: ects, CountsTowardsGPA: true}
	if len(parts) == 3 {
		if parts[2] != "nogpa" {
			return dto.CreateAreaRequest{}, apperr.Validation("area", fmt.Sprintf("unknown option %q", parts[2]))
		}
		area.CountsTowardsGPA = false
	}
	return area, nil
}

func runDegreeAdd(cmd *cobra.Command, args []string, a *app) error {
	req := &dto.CreateDegreeRequest{Name: args[0], University: a.cfg.General.University}
	req.Type, _ = cmd.Flags().GetString("type")
	req.TotalECTSRequired, _ = cmd.Flags().GetInt("ects")
	if v := optionalString(cmd, "university"); v != nil {
		req.University = *v
	}

	var err error
	start, _ := cmd.Flags().GetString("start")
	if req.StartDate, err = germanDate("start_date", start); err != nil {
		return err
	}
	end, _ := cmd.Flags().GetString("end")
	if req.ExpectedEndDate, err = germanDate("expected_end_date", end); err != nil {
		return err
	}
	areas, _ := cmd.Flags().GetStringArray("area")
	for _, arg := range areas {
		area, err := parseArea(arg)
		if err != nil {
			return err
		}
		req.Areas = append(req.Areas, area)
	}

	degree, err := a.svc.Degree.Create(cmd.Context(), req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Created %s #%d %s (%d ECTS, %d areas)", degree.Type, degree.ID, degree.Name, degree.TotalECTSRequired, len(degree.Areas))
	return nil
}

func runDegreeList(cmd *cobra.Command, _ []string, a *app) error {
	degrees, err := a.svc.Degree.List(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(degrees) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tUNIVERSITY\tECTS\tPERIOD")
	for i := range degrees {
		d := &degrees[i]
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%d\t%s - %s\n", d.ID, d.Type, d.Name, d.University, d.TotalECTSRequired, d.StartDate.German(), d.ExpectedEndDate.German())
	}
	return tw.Flush()
}

func runDegreeShow(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	id, err := parseID(args[0], "degree")
	if err != nil {
		return err
	}
	progress, err := a.svc.Degree.Progress(ctx, id)
	if err != nil {
		return err
	}
	mappings, err := a.svc.Degree.Mappings(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	d := &progress.Degree
	heading(out, "%s (%s, %s)", d.Name, d.Type, d.University)
	fmt.Fprintf(out, "%d / %d ECTS (%.1f%%)\n\n", progress.EarnedECTS, progress.RequiredECTS, progress.Percent())

	tw := newTable(out)
	fmt.Fprintln(tw, "AREA\tNAME\tECTS\tGPA\tCOUNTS")
	for _, area := range progress.Areas {
		gpa := "-"
		if area.AreaGPA != nil {
			gpa = strconv.FormatFloat(*area.AreaGPA, 'f', 2, 64)
		}
		fmt.Fprintf(tw, "#%d\t%s\t%d / %d\t%s\t%s\n", area.AreaID, area.CategoryName, area.EarnedECTS, area.RequiredECTS, gpa, yesNo(area.CountsTowardsGPA))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	heading(out, "Mapped courses (%d)", len(mappings))
	tw = newTable(out)
	for i := range mappings {
		m := &mappings[i]
		course := fmt.Sprintf("#%d", m.CourseID)
		if m.Course != nil {
			course = courseLabel(m.Course)
		}
		area := fmt.Sprintf("#%d", m.AreaID)
		if m.Area != nil {
			area = m.Area.CategoryName
		}
		ects := ""
		if m.ECTSOverride != nil {
			ects = fmt.Sprintf("%d ECTS", *m.ECTSOverride)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", course, area, ects)
	}
	return tw.Flush()
}

func runDegreeAreaAdd(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "degree")
	if err != nil {
		return err
	}
	req := &dto.CreateAreaRequest{CategoryName: args[1]}
	req.RequiredECTS, _ = cmd.Flags().GetInt("ects")
	req.DisplayOrder, _ = cmd.Flags().GetInt("order")
	noGPA, _ := cmd.Flags().GetBool("no-gpa")
	req.CountsTowardsGPA = !noGPA

	area, err := a.svc.Degree.AddArea(cmd.Context(), id, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Added area #%d %s (%d ECTS)", area.ID, area.CategoryName, area.RequiredECTS)
	return nil
}

func runDegreeMap(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.MapCourseRequest{CourseID: course.ID, ECTSOverride: optionalInt(cmd, "ects")}
	req.DegreeID, _ = cmd.Flags().GetInt64("degree")
	req.AreaID, _ = cmd.Flags().GetInt64("area")

	if _, err := a.svc.Degree.MapCourse(ctx, req); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Mapped %s to degree #%d, area #%d", course.ShortName, req.DegreeID, req.AreaID)
	return nil
}

func runDegreeUnmap(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	degreeID, _ := cmd.Flags().GetInt64("degree")
	if err := a.svc.Degree.UnmapCourse(ctx, course.ID, degreeID); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Unmapped %s from degree #%d", course.ShortName, degreeID)
	return nil
}

func runDegreeUnmapped(cmd *cobra.Command, _ []string, a *app) error {
	courses, err := a.svc.Degree.Unmapped(cmd.Context())
	if err != nil {
		return err
	}
	return printCourses(cmd.OutOrStdout(), courses)
}

func runDegreeDelete(cmd *cobra.Command, args []string, a *app) error {
	id, err := parseID(args[0], "degree")
	if err != nil {
		return err
	}
	if err := confirmDestructive(cmd, fmt.Sprintf("Delete degree #%d with its areas and mappings?", id)); err != nil {
		return err
	}
	if err := a.svc.Degree.Delete(cmd.Context(), id); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Deleted degree #%d", id)
	return nil
}
