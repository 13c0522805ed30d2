package tool

import (
	"fmt"
	"strconv"

	"github.com/backmassage/calcanim/internal/config"
)

// Tools names the external binaries. Zero fields fall back to the plain
// command names on PATH.
type Tools struct {
	FFmpeg  string
	FFprobe string
	Convimg string
	Make    string
	Verbose bool // ffmpeg -loglevel info instead of error.
}

// FromConfig takes the binaries and verbosity from cfg.
func FromConfig(cfg *config.Config) Tools {
	return Tools{
		FFmpeg:  cfg.FFmpegBin,
		FFprobe: cfg.FFprobeBin,
		Convimg: cfg.ConvimgBin,
		Make:    cfg.MakeBin,
		Verbose: cfg.Verbose,
	}
}

func (t Tools) FFmpegBin() string  { return or(t.FFmpeg, "ffmpeg") }
func (t Tools) FFprobeBin() string { return or(t.FFprobe, "ffprobe") }
func (t Tools) ConvimgBin() string { return or(t.Convimg, "convimg") }
func (t Tools) MakeBin() string    { return or(t.Make, "make") }

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// preamble is shared by every ffmpeg invocation.
func (t Tools) preamble() []string {
	args := make([]string, 0, 16)
	args = append(args, t.FFmpegBin(), "-hide_banner", "-nostdin")
	if t.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}
	return append(args, "-y")
}

// Extract samples input at fps frames per second into an image sequence.
func (t Tools) Extract(input string, fps int, outPattern string) []string {
	args := t.preamble()
	return append(args, "-i", input, "-vf", "fps="+strconv.Itoa(fps), outPattern)
}

// ScaleFilter is the resize filter chain: rgb24 conversion, then scale to
// w:h where -1 preserves aspect for that side.
func ScaleFilter(w, h int) string {
	return fmt.Sprintf("format=rgb24, scale=%d:%d", w, h)
}

// Scale resizes an image sequence with ScaleFilter(w, h).
func (t Tools) Scale(inPattern string, w, h int, outPattern string) []string {
	args := t.preamble()
	return append(args, "-i", inPattern, "-vf", ScaleFilter(w, h), outPattern)
}

// ConvertSprites compiles a descriptor into C sprite sources. Run it with the
// descriptor's directory as working directory.
func (t Tools) ConvertSprites(descriptor string) []string {
	return []string{t.ConvimgBin(), "-i", descriptor}
}

// MakeClean removes previous toolchain output.
func (t Tools) MakeClean() []string {
	return []string{t.MakeBin(), "clean"}
}

// MakeBuild compiles the project with jobs parallel recipes.
func (t Tools) MakeBuild(jobs int) []string {
	if jobs < 1 {
		jobs = 1
	}
	return []string{t.MakeBin(), "-j" + strconv.Itoa(jobs)}
}

// Probe asks ffprobe for the first video stream's dimensions as JSON.
func (t Tools) Probe(path string) []string {
	return []string{t.FFprobeBin(), "-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json", path}
}
