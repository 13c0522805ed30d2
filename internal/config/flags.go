package config

// This file binds command-line flags. Build arguments keep their raw text so
// Apply can report exact, user-facing parse errors; everything else is registered on pflag sets and read back through viper (see load.go).

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/backmassage/calcanim/internal/project"
)

// Version is shown by --version; override at build time with
// -ldflags "-X github.com/backmassage/calcanim/internal/config.Version=...".
var Version = "0.3.0-dev"

var (
	trueTokens  = []string{"", "true", "yes", "y", "1"}
	falseTokens = []string{"false", "no", "n", "0"}
)

// ParseBool maps a flag token to a boolean. The empty token (a bare flag)
// is true. ok is false for anything outside the vocabulary.
func ParseBool(s string) (value, ok bool) {
	for _, t := range trueTokens {
		if s == t {
			return true, true
		}
	}
	for _, t := range falseTokens {
		if s == t {
			return false, true
		}
	}
	return false, false
}

// boolToken records a boolean flag's raw token. It reports type "bool" so
// pflag renders it as a switch, and NoOptDefVal makes a bare flag "true".
type boolToken struct {
	raw string
}

func (b *boolToken) String() string     { return b.raw }
func (b *boolToken) Set(s string) error { b.raw = s; return nil }
func (b *boolToken) Type() string       { return "bool" }

// BuildFlags holds the raw build arguments until Apply validates them.
type BuildFlags struct {
	fs *pflag.FlagSet

	input, width, height, fps string

	endOnLastFrame, debug, archive, compress boolToken
}

// Register defines the build flags on fs. -h is left to help, so height is
// long-only.
func (b *BuildFlags) Register(fs *pflag.FlagSet) {
	b.fs = fs
	fs.StringVarP(&b.input, "input", "i", "", "Video file to build (required)")
	fs.StringVarP(&b.width, "width", "w", "", "Width of the animation (default 64)")
	fs.StringVar(&b.height, "height", "", "Height of the animation (default 0.75 * width)")
	fs.StringVarP(&b.fps, "fps", "f", "", "Frames per second (default 10)")
	boolVar(fs, &b.endOnLastFrame, "end-on-last-frame", "e", "End on the last frame (default: input is not a .gif)")
	boolVar(fs, &b.debug, "debug", "d", "Print a frame counter while playing")
	boolVar(fs, &b.archive, "archive", "a", "Archive the program variable")
	boolVar(fs, &b.compress, "compress", "c", "Compress the program")
}

func boolVar(fs *pflag.FlagSet, p *boolToken, name, short, usage string) {
	fs.VarP(p, name, short, usage)
	fs.Lookup(name).NoOptDefVal = "true"
}

// Apply validates the raw build arguments and writes them into cfg, filling
// height and end-on-last-frame defaults. Every failure is an *ArgumentError.
func (b *BuildFlags) Apply(cfg *Config) error {
	if strings.TrimSpace(b.input) == "" {
		return argErr("Missing required argument: --input (-i)")
	}
	cfg.Input = b.input

	var err error
	if b.width != "" {
		if cfg.Width, err = parseInt(b.width, "Width"); err != nil {
			return err
		}
	}
	cfg.Height = project.DefaultHeight(cfg.Width)
	if b.height != "" {
		if cfg.Height, err = parseInt(b.height, "Height"); err != nil {
			return err
		}
	}
	if b.fps != "" {
		if cfg.FPS, err = parseInt(b.fps, "FPS"); err != nil {
			return err
		}
	}

	// Sweep-level archive/compress defaults do not apply to a single build.
	cfg.Debug, cfg.Archive, cfg.Compress = false, false, false
	cfg.EndOnLastFrame = project.DefaultEndOnLastFrame(cfg.Input)
	switches := []struct {
		name string
		tok  *boolToken
		dst  *bool
		msg  string
	}{
		{"debug", &b.debug, &cfg.Debug, "Debug must be a boolean"},
		{"archive", &b.archive, &cfg.Archive, "Archive must be a boolean"},
		{"compress", &b.compress, &cfg.Compress, "Compress must be a boolean"},
		{"end-on-last-frame", &b.endOnLastFrame, &cfg.EndOnLastFrame, "End on last frame must be a boolean"},
	}
	for _, s := range switches {
		if !b.changed(s.name) {
			continue
		}
		v, ok := ParseBool(s.tok.raw)
		if !ok {
			return argErr("%s (got %q)", s.msg, s.tok.raw)
		}
		*s.dst = v
	}
	return cfg.ValidateBuild()
}

func (b *BuildFlags) changed(name string) bool {
	return b.fs != nil && b.fs.Changed(name)
}

// parseInt parses a whole number argument; returns an ArgumentError naming
// the argument on failure.
func parseInt(s, name string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, argErr("%s must be an integer (got %q)", name, s)
	}
	return n, nil
}

// RegisterGlobalFlags defines the flags shared by every command.
func RegisterGlobalFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.BoolP(KeyVerbose, "v", false, "Verbose output")
	fs.String(KeyColor, string(d.ColorMode), "Color output: auto | always | never")
	fs.String(KeyLog, "", "Append logs to file")
	fs.String(KeyRoot, d.Root, "Work root (frames/ and calc/ are created below it)")
	fs.String(KeyConfig, "", "YAML config file")
	fs.String(KeyFFmpeg, d.FFmpegBin, "ffmpeg binary")
	fs.String(KeyFFprobe, d.FFprobeBin, "ffprobe binary")
	fs.String(KeyConvimg, d.ConvimgBin, "convimg binary")
	fs.String(KeyMake, d.MakeBin, "make binary")
}

// RegisterSweepFlags defines the sweep flags.
func RegisterSweepFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.String(KeyInputDir, d.InputDir, "Directory scanned for input videos")
	fs.StringSlice(KeyExtensions, d.Extensions, "Input extensions")
	fs.IntSlice(KeyFPSList, d.FPSList, "Frame rates to render")
	fs.IntSlice(KeySizes, d.Sizes, "Widths to render (height is 0.75 * width)")
	fs.Int(KeyLanes, d.Lanes, "Concurrent worker lanes")
	fs.Int(KeyRetries, d.Retries, "Extra attempts per failed step (0 disables retry)")
	fs.Duration(KeyRetryBackoff, d.RetryBackoff, "Initial retry backoff")
	fs.Duration(KeyRetryMaxWait, d.RetryMaxWait, "Retry backoff cap")
	fs.Bool(KeySweepArchive, true, "Pass --archive to every build")
	fs.Bool(KeySweepCompress, true, "Pass --compress to every build")
	fs.String(KeyLedger, "", "SQLite ledger of job outcomes (empty disables)")
	fs.String(KeyMetricsFile, "", "Write Prometheus metrics to this file when done")
}

// ParseColorMode validates a --color value.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	}
	return "", fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
}
