// Package check provides system diagnostics (the check command) and
// pre-run dependency validation (CheckBuildDeps, CheckSweepDeps) for
// ffmpeg, ffprobe, convimg, make and the CE C toolchain.
package check

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/tool"
)

// Sentinel errors returned when a required tool is missing.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrConvimgNotFound = errors.New("convimg not found on PATH")
	ErrMakeNotFound    = errors.New("make not found on PATH")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
}

// Checker looks up and runs tools. The zero value uses exec.LookPath and
// runs nothing; RunCheck needs Runner for version probes.
type Checker struct {
	Tools    tool.Tools
	Runner   tool.Runner
	LookPath func(string) (string, error)
}

// New returns a checker for the binaries configured in cfg.
func New(cfg *config.Config, runner tool.Runner) *Checker {
	return &Checker{Tools: tool.FromConfig(cfg), Runner: runner}
}

func (c *Checker) lookPath(name string) (string, error) {
	if c.LookPath != nil {
		return c.LookPath(name)
	}
	return exec.LookPath(name)
}

// cedevConfig is installed with the CE C toolchain; the generated makefile
// calls it to locate the toolchain makefile.
const cedevConfig = "cedev-config"

// RunCheck prints the availability of every collaborator and runs a short
// ffmpeg encode. It is informational: it never stops early. The result
// reports whether every required tool was found.
func (c *Checker) RunCheck(ctx context.Context, log Logger) bool {
	log.Info("=== System Check ===")
	ok := true

	ok = c.checkVersion(ctx, log, "ffmpeg", c.Tools.FFmpegBin(), true, "-version") && ok
	if c.checkVersion(ctx, log, "ffprobe", c.Tools.FFprobeBin(), false, "-version") {
		log.Info("  source dimensions come from ffprobe")
	} else {
		log.Info("  source dimensions will be decoded from the first frame")
	}
	ok = c.checkVersion(ctx, log, "convimg", c.Tools.ConvimgBin(), true, "--version") && ok
	ok = c.checkVersion(ctx, log, "make", c.Tools.MakeBin(), true, "--version") && ok
	c.checkVersion(ctx, log, "CE toolchain", cedevConfig, false, "--version")

	if ok {
		c.checkEncode(ctx, log)
	}
	return ok
}

// checkVersion verifies bin is on PATH and logs the first line of its
// version output. Missing required tools log an error, optional ones a
// warning.
func (c *Checker) checkVersion(ctx context.Context, log Logger, label, bin string, required bool, versionArg string) bool {
	if _, err := c.lookPath(bin); err != nil {
		if required {
			log.Error("%s not found (%s)", label, bin)
		} else {
			log.Warn("%s not found (%s)", label, bin)
		}
		return false
	}
	if c.Runner == nil {
		log.Success("%s: %s", label, bin)
		return true
	}
	res, err := c.Runner.Run(ctx, "", bin, versionArg)
	if err != nil {
		log.Warn("%s found but %s failed: %v", label, versionArg, err)
		return true
	}
	log.Success("%s: %s", label, firstLine(res.Stdout+res.Stderr))
	return true
}

// checkEncode extracts one synthetic frame through the same filter chain
// the resize stage uses.
func (c *Checker) checkEncode(ctx context.Context, log Logger) {
	if c.Runner == nil {
		return
	}
	log.Info("Testing ffmpeg rgb24 scale...")
	if _, err := c.Runner.Run(ctx, "", encodeTestArgs(c.Tools)...); err != nil {
		log.Error("ffmpeg test encode failed: %v", err)
		return
	}
	log.Success("ffmpeg encode works")
}

// encodeTestArgs scales a synthetic frame to the default project size and
// discards it.
func encodeTestArgs(t tool.Tools) []string {
	return []string{
		t.FFmpegBin(),
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=320x240:d=0.1",
		"-vf", tool.ScaleFilter(64, -1),
		"-frames:v", "1",
		"-f", "null", "-",
	}
}

// CheckBuildDeps verifies what the build command needs: ffmpeg and
// convimg. ffprobe is optional.
func (c *Checker) CheckBuildDeps() error {
	if _, err := c.lookPath(c.Tools.FFmpegBin()); err != nil {
		return ErrFFmpegNotFound
	}
	if _, err := c.lookPath(c.Tools.ConvimgBin()); err != nil {
		return ErrConvimgNotFound
	}
	return nil
}

// CheckSweepDeps verifies the build dependencies plus make.
func (c *Checker) CheckSweepDeps() error {
	if err := c.CheckBuildDeps(); err != nil {
		return err
	}
	if _, err := c.lookPath(c.Tools.MakeBin()); err != nil {
		return ErrMakeNotFound
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
