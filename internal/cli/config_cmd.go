package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/leonfuss/mms-sub000/config"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, show or edit the configuration file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file (prompts for missing fields)",
		Args:  exactArgs(0),
		RunE:  runConfigInit,
	}
	initCmd.Flags().String("student-name", "", "Student name")
	initCmd.Flags().String("student-id", "", "Student ID")
	initCmd.Flags().String("university", "", "University")
	initCmd.Flags().String("base-path", "", "Workspace base path (absolute)")
	initCmd.Flags().String("symlink-path", "", "Directory that holds the current semester/course symlinks")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  exactArgs(0),
		RunE:  runConfigShow,
	}

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in $EDITOR",
		Args:  exactArgs(0),
		RunE:  runConfigEdit,
	}

	configCmd.AddCommand(initCmd, showCmd, editCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if cfg == nil {
		return err
	}

	for flag, dst := range map[string]*string{
		"student-name": &cfg.General.StudentName,
		"student-id":   &cfg.General.StudentID,
		"university":   &cfg.General.University,
		"base-path":    &cfg.Workspace.BasePath,
		"symlink-path": &cfg.Workspace.SymlinkPath,
	} {
		if v := optionalString(cmd, flag); v != nil {
			*dst = *v
		}
	}
	cfg.Workspace.BasePath = expandPath(cfg.Workspace.BasePath)
	cfg.Workspace.SymlinkPath = expandPath(cfg.Workspace.SymlinkPath)

	p := newPrompter(cmd)
	if p.interactive {
		if err := runSetup(p, cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Workspace.BasePath, 0o755); err != nil {
		return apperr.Wrap(apperr.KindIO, "config.init", err)
	}
	if err := cfg.Save(cfg.Path); err != nil {
		return err
	}
	success(cmd.OutOrStdout(), "Config written to %s", cfg.Path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if cfg == nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err != nil {
		warn(out, "%v", err)
	}

	tw := newTable(out)
	rows := [][2]string{
		{"config file", cfg.Path},
		{"general.student_name", cfg.General.StudentName},
		{"general.student_id", cfg.General.StudentID},
		{"general.university", cfg.General.University},
		{"general.editor", cfg.General.Editor},
		{"general.pdf_viewer", cfg.General.PDFViewer},
		{"general.default_location", cfg.General.DefaultLocation},
		{"workspace.base_path", cfg.Workspace.BasePath},
		{"workspace.symlink_path", cfg.SymlinkDir()},
		{"workspace.current_semester_link", cfg.Workspace.CurrentSemesterLink},
		{"workspace.current_course_link", cfg.Workspace.CurrentCourseLink},
		{"daemon.check_interval", cfg.Daemon.CheckInterval.String()},
		{"daemon.log_file", cfg.Daemon.LogFile},
		{"daemon.pid_file", cfg.Daemon.PIDFile},
		{"db.path", cfg.Database.Path},
		{"log.level", cfg.Log.Level},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], orDash(r[1]))
	}
	return tw.Flush()
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if cfg == nil {
		return err
	}
	if _, statErr := os.Stat(cfg.Path); os.IsNotExist(statErr) {
		if err := cfg.Save(cfg.Path); err != nil {
			return err
		}
	}
	return openWith(cmd, cfg.General.Editor, cfg.Path)
}

// openWith 以前台子进程运行 program target
func openWith(cmd *cobra.Command, program, target string) error {
	if program == "" {
		return apperr.New(apperr.KindMissingConfigField, "no program configured to open "+target)
	}
	c := exec.Command(program, target)
	c.Stdin = os.Stdin
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	if err := c.Run(); err != nil {
		return apperr.Wrap(apperr.KindIO, "open", err)
	}
	return nil
}
