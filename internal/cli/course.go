package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/internal/dto"
	"github.com/leonfuss/mms-sub000/internal/model"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
	"github.com/leonfuss/mms-sub000/pkg/grading"
)

func newCourseCommand() *cobra.Command {
	courseCmd := &cobra.Command{
		Use:   "course",
		Short: "Manage courses of a semester",
		Long: `Manage courses of a semester.

A course is referenced as <short_name> (current semester), <semester>/<short_name>
(e.g. b3/algo) or #<id>.`,
	}

	addCmd := &cobra.Command{
		Use:   "add [short-name]",
		Short: "Create a course in the current (or --semester) semester",
		Args:  rangeArgs(0, 1),
		RunE:  withApp(runCourseAdd),
	}
	addCmd.Flags().StringP("name", "n", "", "Full course name")
	addCmd.Flags().IntP("ects", "e", 0, "ECTS credits (1-30)")
	addCmd.Flags().StringP("semester", "s", "", "Semester code (default: current)")
	addCourseDetailFlags(addCmd)
	addCmd.Flags().Bool("external", false, "Course lives outside the workspace")
	addCmd.Flags().String("original-path", "", "Absolute path of an external course directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List courses of the current (or --semester) semester",
		Args:  exactArgs(0),
		RunE:  withApp(runCourseList),
	}
	listCmd.Flags().StringP("semester", "s", "", "Semester code (default: current)")
	listCmd.Flags().Bool("all", false, "List courses of all semesters")

	showCmd := &cobra.Command{
		Use:   "show <course>",
		Short: "Show course details, schedule and grades",
		Args:  exactArgs(1),
		RunE:  withApp(runCourseShow),
	}

	editCmd := &cobra.Command{
		Use:   "edit <course>",
		Short: "Update course fields",
		Args:  exactArgs(1),
		RunE:  withApp(runCourseEdit),
	}
	editCmd.Flags().StringP("name", "n", "", "Full course name")
	editCmd.Flags().IntP("ects", "e", 0, "ECTS credits (1-30)")
	addCourseDetailFlags(editCmd)
	editCmd.Flags().Bool("archived", false, "Mark as archived")
	editCmd.Flags().Bool("dropped", false, "Mark as dropped (excluded from schedule and statistics)")

	openCmd := &cobra.Command{
		Use:   "open <course>",
		Short: "Open the course directory",
		Args:  exactArgs(1),
		RunE:  withApp(runCourseOpen),
	}
	openCmd.Flags().Bool("editor", false, "Open with general.editor instead of the system opener")
	openCmd.Flags().Bool("print", false, "Only print the directory path")

	gradeCmd := &cobra.Command{
		Use:   "grade <course>",
		Short: "Record, list or delete grades of a course",
		Long: `Record, list or delete grades of a course.

Components are given as name:weight:value where value is a percentage (85)
or points (42/60). Bonus points are given as name:points and are added to the
weighted percentage afterwards.`,
		Args: exactArgs(1),
		RunE: withApp(runCourseGrade),
	}
	gradeCmd.Flags().Float64P("grade", "g", 0, "Grade value in the given scheme")
	gradeCmd.Flags().String("scheme", string(grading.German), "Grading scheme: german|ects|us|percentage|passfail")
	gradeCmd.Flags().StringArray("component", nil, "Grade component name:weight:value (repeatable)")
	gradeCmd.Flags().StringArray("bonus", nil, "Bonus component name:points (repeatable)")
	gradeCmd.Flags().Bool("final", true, "Whether this is the final grade")
	gradeCmd.Flags().Int("attempt", 0, "Attempt number (default: next attempt)")
	gradeCmd.Flags().String("exam-date", "", "Exam date")
	gradeCmd.Flags().Float64("original", 0, "Original grade before conversion")
	gradeCmd.Flags().String("original-scheme", "", "Scheme of the original grade")
	gradeCmd.Flags().Bool("list", false, "List recorded grades")
	gradeCmd.Flags().Int64("delete", 0, "Delete the grade with this id")

	setActiveCmd := &cobra.Command{
		Use:   "set-active [course]",
		Short: "Point the current course symlink at a course",
		Args:  rangeArgs(0, 1),
		RunE:  withApp(runCourseSetActive),
	}
	setActiveCmd.Flags().Bool("clear", false, "Clear the current course")

	deleteCmd := &cobra.Command{
		Use:   "delete <course>",
		Short: "Delete a course with its schedule and grades",
		Args:  exactArgs(1),
		RunE:  withApp(runCourseDelete),
	}
	deleteCmd.Flags().Bool("remove-dir", false, "Also remove the course directory")
	deleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")

	courseCmd.AddCommand(addCmd, listCmd, showCmd, editCmd, openCmd, gradeCmd, setActiveCmd, deleteCmd)
	return courseCmd
}

func addCourseDetailFlags(cmd *cobra.Command) {
	cmd.Flags().String("lecturer", "", "Lecturer")
	cmd.Flags().String("lecturer-email", "", "Lecturer email")
	cmd.Flags().String("tutor", "", "Tutor")
	cmd.Flags().String("tutor-email", "", "Tutor email")
	cmd.Flags().String("url", "", "Learning platform URL")
	cmd.Flags().String("university", "", "University (default: semester university)")
	cmd.Flags().String("location", "", "Location (default: semester location)")
	cmd.Flags().String("git-remote", "", "Git remote URL")
}

// resolveCourse 解析课程引用：<short>、<semester>/<short> 或 #<id>
func resolveCourse(ctx context.Context, a *app, ref string) (*model.Course, error) {
	if strings.HasPrefix(ref, "#") {
		id, err := parseID(ref, "course")
		if err != nil {
			return nil, err
		}
		return a.svc.Course.GetByID(ctx, id)
	}
	if code, short, ok := strings.Cut(ref, "/"); ok {
		return a.svc.Course.Get(ctx, code, short)
	}
	return a.svc.Course.Get(ctx, "", ref)
}

func printCourses(out io.Writer, courses []model.Course) error {
	if len(courses) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tSHORT\tNAME\tECTS\tLECTURER\tFLAGS")
	for i := range courses {
		c := &courses[i]
		var flags []string
		if c.IsExternal {
			flags = append(flags, "external")
		}
		if c.HasGitRepo {
			flags = append(flags, "git")
		}
		if c.IsDropped {
			flags = append(flags, "dropped")
		}
		if c.IsArchived {
			flags = append(flags, "archived")
		}
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%d\t%s\t%s\n", c.ID, c.ShortName, c.Name, c.ECTS, orDash(c.Lecturer), strings.Join(flags, ","))
	}
	return tw.Flush()
}

// ────────────────────── add ──────────────────────

func runCourseAdd(cmd *cobra.Command, args []string, a *app) error {
	p := newPrompter(cmd)
	req := &dto.CreateCourseRequest{}
	req.Name, _ = cmd.Flags().GetString("name")
	req.ECTS, _ = cmd.Flags().GetInt("ects")
	req.SemesterCode, _ = cmd.Flags().GetString("semester")
	req.IsExternal, _ = cmd.Flags().GetBool("external")
	req.OriginalPath, _ = cmd.Flags().GetString("original-path")
	req.Lecturer, _ = cmd.Flags().GetString("lecturer")
	req.LecturerEmail, _ = cmd.Flags().GetString("lecturer-email")
	req.Tutor, _ = cmd.Flags().GetString("tutor")
	req.TutorEmail, _ = cmd.Flags().GetString("tutor-email")
	req.LearningPlatformURL, _ = cmd.Flags().GetString("url")
	req.University, _ = cmd.Flags().GetString("university")
	req.Location, _ = cmd.Flags().GetString("location")
	req.GitRemoteURL, _ = cmd.Flags().GetString("git-remote")
	req.HasGitRepo = req.GitRemoteURL != ""
	if req.OriginalPath != "" {
		req.IsExternal = true
	}

	var err error
	if req.Name == "" {
		if req.Name, err = p.askRequired("Course name", ""); err != nil {
			return err
		}
	}
	if len(args) == 1 {
		req.ShortName = args[0]
	} else if req.ShortName, err = p.ask("Short name", a.svc.Course.SuggestShortName(req.Name)); err != nil {
		return err
	}
	if req.ECTS == 0 {
		v, err := p.askRequired("ECTS", "")
		if err != nil {
			return err
		}
		if req.ECTS, err = strconv.Atoi(v); err != nil {
			return apperr.Validation("ects", fmt.Sprintf("%q is not a number", v))
		}
	}

	course, err := a.svc.Course.Create(cmd.Context(), req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Created course %s at %s", courseLabel(course), course.DirectoryPath)
	return nil
}

// ────────────────────── list / show ──────────────────────

func runCourseList(cmd *cobra.Command, _ []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if all, _ := cmd.Flags().GetBool("all"); all {
		courses, err := a.svc.Course.ListAll(ctx)
		if err != nil {
			return err
		}
		return printCourses(out, courses)
	}
	code, _ := cmd.Flags().GetString("semester")
	courses, err := a.svc.Course.List(ctx, code)
	if err != nil {
		return err
	}
	return printCourses(out, courses)
}

func runCourseShow(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	schedules, err := a.svc.Schedule.List(ctx, course.ID)
	if err != nil {
		return err
	}
	grades, err := a.svc.Grade.List(ctx, course.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	heading(out, "%s", courseLabel(course))
	tw := newTable(out)
	fmt.Fprintf(tw, "ID\t#%d\n", course.ID)
	fmt.Fprintf(tw, "ECTS\t%d\n", course.ECTS)
	fmt.Fprintf(tw, "Directory\t%s\n", a.svc.Course.Directory(course))
	fmt.Fprintf(tw, "Lecturer\t%s %s\n", orDash(course.Lecturer), course.LecturerEmail)
	fmt.Fprintf(tw, "Tutor\t%s %s\n", orDash(course.Tutor), course.TutorEmail)
	fmt.Fprintf(tw, "Platform\t%s\n", orDash(course.LearningPlatformURL))
	fmt.Fprintf(tw, "Location\t%s\n", orDash(course.Location))
	fmt.Fprintf(tw, "External\t%s\n", yesNo(course.IsExternal))
	fmt.Fprintf(tw, "Git\t%s\n", yesNo(course.HasGitRepo))
	fmt.Fprintf(tw, "Dropped\t%s\n", yesNo(course.IsDropped))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	heading(out, "Schedule")
	if err := printSchedules(out, schedules); err != nil {
		return err
	}
	fmt.Fprintln(out)
	heading(out, "Grades")
	return printGrades(out, grades)
}

// ────────────────────── edit ──────────────────────

func runCourseEdit(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	req := &dto.UpdateCourseRequest{
		Name:                optionalString(cmd, "name"),
		ECTS:                optionalInt(cmd, "ects"),
		Lecturer:            optionalString(cmd, "lecturer"),
		LecturerEmail:       optionalString(cmd, "lecturer-email"),
		Tutor:               optionalString(cmd, "tutor"),
		TutorEmail:          optionalString(cmd, "tutor-email"),
		LearningPlatformURL: optionalString(cmd, "url"),
		University:          optionalString(cmd, "university"),
		Location:            optionalString(cmd, "location"),
		GitRemoteURL:        optionalString(cmd, "git-remote"),
		IsArchived:          optionalBool(cmd, "archived"),
		IsDropped:           optionalBool(cmd, "dropped"),
	}
	updated, err := a.svc.Course.Update(ctx, course.ID, req)
	if err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Updated course %s", courseLabel(updated))
	return nil
}

// ────────────────────── open ──────────────────────

func runCourseOpen(cmd *cobra.Command, args []string, a *app) error {
	course, err := resolveCourse(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}
	dir := a.svc.Course.Directory(course)
	if onlyPrint, _ := cmd.Flags().GetBool("print"); onlyPrint {
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	}
	program := a.cfg.General.PDFViewer
	if useEditor, _ := cmd.Flags().GetBool("editor"); useEditor {
		program = a.cfg.General.Editor
	}
	return openWith(cmd, program, dir)
}

// ────────────────────── grade ──────────────────────

func runCourseGrade(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}

	if id, _ := cmd.Flags().GetInt64("delete"); id != 0 {
		if err := a.svc.Grade.Delete(ctx, id); err != nil {
			return err
		}
		success(out, "Deleted grade #%d", id)
		return nil
	}
	if list, _ := cmd.Flags().GetBool("list"); list {
		grades, err := a.svc.Grade.List(ctx, course.ID)
		if err != nil {
			return err
		}
		return printGrades(out, grades)
	}

	req := &dto.RecordGradeRequest{
		CourseID:      course.ID,
		Grade:         optionalFloat(cmd, "grade"),
		OriginalGrade: optionalFloat(cmd, "original"),
	}
	req.Scheme, _ = cmd.Flags().GetString("scheme")
	req.IsFinal, _ = cmd.Flags().GetBool("final")
	req.AttemptNumber, _ = cmd.Flags().GetInt("attempt")
	req.ExamDate, _ = cmd.Flags().GetString("exam-date")
	req.OriginalScheme, _ = cmd.Flags().GetString("original-scheme")

	components, _ := cmd.Flags().GetStringArray("component")
	for _, arg := range components {
		c, err := parseComponent(arg)
		if err != nil {
			return err
		}
		req.Components = append(req.Components, c)
	}
	bonuses, _ := cmd.Flags().GetStringArray("bonus")
	for _, arg := range bonuses {
		c, err := parseBonus(arg)
		if err != nil {
			return err
		}
		req.Components = append(req.Components, c)
	}

	grade, err := a.svc.Grade.Record(ctx, req)
	if err != nil {
		return err
	}
	mark := green("passed")
	if !grade.Passed {
		mark = red("failed")
	}
	success(out, "Recorded grade %s (%s) for %s, attempt %d: %s",
		grading.Format(grade.Grade, grade.GradingScheme), grade.GradingScheme, course.ShortName, grade.AttemptNumber, mark)
	return nil
}

// parseComponent name:weight:value，value 为百分比或 得分/总分
func parseComponent(arg string) (dto.ComponentRequest, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 3 {
		return dto.ComponentRequest{}, apperr.Validation("component", fmt.Sprintf("%q must be name:weight:value", arg))
	}
	weight, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return dto.ComponentRequest{}, apperr.Validation("component weight", parts[1])
	}
	c := dto.ComponentRequest{Name: parts[0], Weight: weight}
	if earned, total, ok := strings.Cut(parts[2], "/"); ok {
		e, err1 := strconv.ParseFloat(earned, 64)
		t, err2 := strconv.ParseFloat(total, 64)
		if err1 != nil || err2 != nil {
			return dto.ComponentRequest{}, apperr.Validation("component points", parts[2])
		}
		c.PointsEarned, c.PointsTotal = &e, &t
		return c, nil
	}
	g, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return dto.ComponentRequest{}, apperr.Validation("component value", parts[2])
	}
	c.Grade = &g
	return c, nil
}

// parseBonus name:points
func parseBonus(arg string) (dto.ComponentRequest, error) {
	name, pts, ok := strings.Cut(arg, ":")
	points, err := strconv.ParseFloat(pts, 64)
	if !ok || err != nil {
		return dto.ComponentRequest{}, apperr.Validation("bonus", fmt.Sprintf("%q must be name:points", arg))
	}
	return dto.ComponentRequest{Name: name, IsBonus: true, BonusPoints: points}, nil
}

func printGrades(out io.Writer, grades []model.Grade) error {
	if len(grades) == 0 {
		fmt.Fprintln(out, faint("(none)"))
		return nil
	}
	tw := newTable(out)
	fmt.Fprintln(tw, "ID\tGRADE\tSCHEME\tPASSED\tFINAL\tATTEMPT\tEXAM DATE")
	for i := range grades {
		g := &grades[i]
		fmt.Fprintf(tw, "#%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			g.ID, grading.Format(g.Grade, g.GradingScheme), g.GradingScheme, yesNo(g.Passed), yesNo(g.IsFinal), g.AttemptNumber, dateOrDash(g.ExamDate))
	}
	return tw.Flush()
}

// ────────────────────── set-active / delete ──────────────────────

func runCourseSetActive(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if clearFlag, _ := cmd.Flags().GetBool("clear"); clearFlag || len(args) == 0 {
		if _, err := a.svc.Pointer.ClearCourse(ctx); err != nil {
			return err
		}
		success(out, "Cleared the current course")
		return nil
	}

	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	if _, err := a.svc.Course.SetActive(ctx, course.ID); err != nil {
		return err
	}
	success(out, "Current course is now %s", courseLabel(course))
	warn(out, "A running daemon will switch it back to the scheduled course at its next check.")
	return nil
}

func runCourseDelete(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	course, err := resolveCourse(ctx, a, args[0])
	if err != nil {
		return err
	}
	if err := confirmDestructive(cmd, fmt.Sprintf("Delete course %s with its schedule and grades?", courseLabel(course))); err != nil {
		return err
	}
	removeDir, _ := cmd.Flags().GetBool("remove-dir")
	if err := a.svc.Course.Delete(ctx, course.ID, removeDir); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Deleted course %s", courseLabel(course))
	return nil
}
