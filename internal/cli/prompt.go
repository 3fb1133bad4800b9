package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leonfuss/mms-sub000/config"
	apperr "github.com/leonfuss/mms-sub000/pkg/errors"
)

// isTerminalFunc 可在测试中替换
var isTerminalFunc = term.IsTerminal

func isTerminal(f *os.File) bool {
	return isTerminalFunc(int(f.Fd()))
}

// prompter 终端交互输入；非交互模式下所有问题直接取默认值
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:          bufio.NewReader(cmd.InOrStdin()),
		out:         cmd.ErrOrStderr(),
		interactive: stdinIsTerminal(),
	}
}

// ask 读取一行；空输入取 def
func (p *prompter) ask(label, def string) (string, error) {
	if !p.interactive {
		return def, nil
	}
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", apperr.Wrap(apperr.KindIO, "prompt", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return def, nil
	}
	return line, nil
}

// askRequired 重复询问直到输入非空
func (p *prompter) askRequired(label, def string) (string, error) {
	for {
		v, err := p.ask(label, def)
		if err != nil || v != "" {
			return v, err
		}
		if !p.interactive {
			return "", apperr.Validation(label, "is required")
		}
	}
}

func (p *prompter) confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	v, err := p.ask(fmt.Sprintf("%s (%s)", label, hint), "")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	}
	return def, nil
}

// confirmDestructive --yes 跳过确认；非交互且未给 --yes 时拒绝执行
func confirmDestructive(cmd *cobra.Command, label string) error {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return nil
	}
	p := newPrompter(cmd)
	if !p.interactive {
		return apperr.New(apperr.KindValidation, "refusing to continue without --yes in non-interactive mode")
	}
	ok, err := p.confirm(label, false)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.KindValidation, "aborted")
	}
	return nil
}

// runSetup 交互式补全必填配置项
func runSetup(p *prompter, cfg *config.Config) error {
	var err error
	if cfg.General.StudentName, err = p.askRequired("Student name", cfg.General.StudentName); err != nil {
		return err
	}
	if cfg.General.StudentID, err = p.ask("Student ID", cfg.General.StudentID); err != nil {
		return err
	}
	if cfg.General.University, err = p.ask("University", cfg.General.University); err != nil {
		return err
	}
	if cfg.General.DefaultLocation, err = p.ask("Default location", cfg.General.DefaultLocation); err != nil {
		return err
	}
	base, err := p.askRequired("Workspace base path", cfg.Workspace.BasePath)
	if err != nil {
		return err
	}
	cfg.Workspace.BasePath = expandPath(base)
	if cfg.Workspace.SymlinkPath, err = p.ask("Symlink directory", cfg.Workspace.SymlinkPath); err != nil {
		return err
	}
	cfg.Workspace.SymlinkPath = expandPath(cfg.Workspace.SymlinkPath)
	return nil
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return home + strings.TrimPrefix(p, "~")
		}
	}
	return p
}
