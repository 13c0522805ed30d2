package tool

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner executes one argv command in dir. A non-nil error is a *ToolError.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (Result, error)
}

// ExecRunner runs commands with os/exec. When Tee is set, stdout and stderr
// are copied to it live as well as captured.
type ExecRunner struct {
	Tee io.Writer
}

// Run starts args[0] with args[1:] in dir and waits for it.
func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) (Result, error) {
	if len(args) == 0 {
		return Result{}, &ToolError{Dir: dir, ExitCode: -1, Err: errors.New("empty command")}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	if r.Tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Tee)
		cmd.Stderr = io.MultiWriter(&stderr, r.Tee)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		return res, newToolError(args, dir, res, err)
	}
	return res, nil
}
