// Package config holds runtime configuration: defaults, CLI flag binding,
// environment/config-file layering, and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stderr is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// ArgumentError reports a missing or malformed command-line argument. It is
// always fatal: the process exits before any pipeline work begins.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

func argErr(format string, args ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, args...)}
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [Load] (config file, environment, flags) and, for the build
// command, by [BuildFlags.Apply].
type Config struct {
	// Work root: frames/ and calc/ are created below it.
	Root string

	// Single-configuration build (calcanim build).
	Input          string
	Width          int
	Height         int // Resolved by BuildFlags.Apply; default round(0.75 * Width).
	FPS            int
	EndOnLastFrame bool
	Archive        bool
	Compress       bool
	Debug          bool

	// Sweep (calcanim sweep).
	InputDir     string
	Extensions   []string // Default: .gif, .mp4.
	FPSList      []int    // Default: 20, 10, 5.
	Sizes        []int    // Default: 64, 32, 16.
	Lanes        int      // Default: 4.
	Retries      int      // Extra attempts per failed step. Default: 0 (disabled).
	RetryBackoff time.Duration
	RetryMaxWait time.Duration
	LedgerPath   string // SQLite job ledger; empty disables it.
	MetricsFile  string // Prometheus textfile output; empty disables it.

	// External tools.
	FFmpegBin  string
	FFprobeBin string
	ConvimgBin string
	MakeBin    string

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string
}

// DefaultConfig returns a Config with stock defaults: 64px wide at 10 fps for
// a single build, and a 20/10/5 fps x 64/32/16 px sweep over four lanes.
func DefaultConfig() Config {
	return Config{
		Root:         ".",
		Width:        64,
		FPS:          10,
		InputDir:     ".",
		Extensions:   []string{".gif", ".mp4"},
		FPSList:      []int{20, 10, 5},
		Sizes:        []int{64, 32, 16},
		Lanes:        4,
		Retries:      0,
		RetryBackoff: 100 * time.Millisecond,
		RetryMaxWait: 5 * time.Second,
		FFmpegBin:    "ffmpeg",
		FFprobeBin:   "ffprobe",
		ConvimgBin:   "convimg",
		MakeBin:      "make",
		ColorMode:    ColorAuto,
	}
}

// ValidateBuild checks the single-configuration fields.
func (c *Config) ValidateBuild() error {
	if c.Input == "" {
		return argErr("Missing required argument: --input (-i)")
	}
	if c.Width <= 0 {
		return argErr("Width must be a positive integer (got %d)", c.Width)
	}
	if c.Height <= 0 {
		return argErr("Height must be a positive integer (got %d)", c.Height)
	}
	if c.FPS <= 0 {
		return argErr("FPS must be a positive integer (got %d)", c.FPS)
	}
	return c.validateCommon()
}

// ValidateSweep checks the sweep fields.
func (c *Config) ValidateSweep() error {
	if c.InputDir == "" {
		return errors.New("input directory must not be empty")
	}
	if len(c.FPSList) == 0 {
		return errors.New("need at least one fps value")
	}
	for _, f := range c.FPSList {
		if f <= 0 {
			return fmt.Errorf("invalid fps %d (must be positive)", f)
		}
	}
	if len(c.Sizes) == 0 {
		return errors.New("need at least one size")
	}
	for _, s := range c.Sizes {
		if s <= 0 {
			return fmt.Errorf("invalid size %d (must be positive)", s)
		}
	}
	if c.Lanes <= 0 {
		return fmt.Errorf("invalid lane count %d (must be positive)", c.Lanes)
	}
	if c.Retries < 0 {
		return fmt.Errorf("invalid retry count %d", c.Retries)
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}
	if c.Root == "" {
		return errors.New("work root must not be empty")
	}
	return nil
}

// NormalizeExtensions lower-cases extensions and ensures a leading dot.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
