package tool

import (
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// ToolError describes a failed external command.
type ToolError struct {
	Args     []string
	Dir      string
	ExitCode int // -1 when the process never ran or was killed by a signal.
	Stdout   string
	Stderr   string
	Err      error
}

func newToolError(args []string, dir string, res Result, err error) *ToolError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &ToolError{
		Args:     append([]string(nil), args...),
		Dir:      dir,
		ExitCode: code,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Err:      err,
	}
}

func (e *ToolError) Error() string {
	name := "command"
	if len(e.Args) > 0 {
		name = e.Args[0]
	}
	if e.ExitCode >= 0 {
		return fmt.Sprintf("%s exited with status %d", name, e.ExitCode)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Command renders Args for logs, quoting arguments that contain spaces.
func (e *ToolError) Command() string { return FormatArgs(e.Args) }

// FormatArgs renders argv for logs, quoting arguments that contain spaces.
func FormatArgs(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", a)
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// Known failure signatures in tool output, checked in order by Hint.
var hints = []struct {
	re   *regexp.Regexp
	hint string
}{
	{regexp.MustCompile(`(?i)no such file or directory`), "input or frame file missing"},
	{regexp.MustCompile(`Invalid data found when processing input`), "input is not a decodable video"},
	{regexp.MustCompile(`(?i)cedev-config.*(not found|No such file)`), "CE toolchain not on PATH (cedev-config)"},
	{regexp.MustCompile(`(?i)(too many colors|palette.*(full|exceed))`), "frames need more colors than the palette holds"},
	{regexp.MustCompile(`(?i)No rule to make target`), "project directory incomplete; rerun build"},
}

// Hint classifies a failure from its captured output. It returns "" when
// nothing known matches.
func Hint(err error) string {
	var te *ToolError
	if !errors.As(err, &te) {
		return ""
	}
	if errors.Is(te.Err, exec.ErrNotFound) {
		return "binary not found on PATH"
	}
	text := te.Stderr + "\n" + te.Stdout
	for _, h := range hints {
		if h.re.MatchString(text) {
			return h.hint
		}
	}
	return ""
}
