// Package project defines the per-configuration value that drives one
// conversion and the directory layout derived from it.
//
// Every path the pipeline touches is computed here, relative to the work
// root, so layout rules can be tested without any I/O.
package project

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strings"
)

// Reference canvas (the CE LCD is 320x240). The aspect-fit decision and the
// default height are both derived from it.
const (
	ReferenceWidth  = 320
	ReferenceHeight = 240
)

// maxNameLen is the CE program name limit.
const maxNameLen = 8

// fallbackName is used when an identifier has no usable characters.
const fallbackName = "ANIM"

var nameStrip = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Configuration is one (video, width, height, fps) conversion plus the
// makefile and playback switches. It is a value type: copies are
// independent and nothing mutates it after construction.
type Configuration struct {
	VideoID        string // Source basename without extension.
	Input          string // Path to the source video.
	Width          int
	Height         int
	FPS            int
	EndOnLastFrame bool
	Archive        bool
	Compress       bool
	Debug          bool
}

// Validate reports the first field that cannot produce a project.
func (c Configuration) Validate() error {
	switch {
	case c.VideoID == "":
		return fmt.Errorf("configuration has empty video id (input %q)", c.Input)
	case c.Input == "":
		return fmt.Errorf("configuration %s has empty input", c.VideoID)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("configuration %s has invalid size %dx%d", c.VideoID, c.Width, c.Height)
	case c.FPS <= 0:
		return fmt.Errorf("configuration %s has invalid fps %d", c.VideoID, c.FPS)
	}
	return nil
}

// Key is the configuration's directory name: <id>-<fps>fps-<w>x<h>.
func (c Configuration) Key() string {
	return fmt.Sprintf("%s-%dfps-%dx%d", c.VideoID, c.FPS, c.Width, c.Height)
}

func (c Configuration) String() string { return c.Key() }

// VideoID derives the identifier for an input file: its base name with the
// final extension removed.
func VideoID(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DefaultHeight returns the height matching width on the 4:3 reference
// canvas, rounded to the nearest pixel.
func DefaultHeight(width int) int {
	return int(math.Round(float64(width) * ReferenceHeight / ReferenceWidth))
}

// DefaultEndOnLastFrame reports whether playback should stop after the last
// frame when nothing was requested explicitly. GIFs loop; other inputs play
// once.
func DefaultEndOnLastFrame(input string) bool {
	return !strings.EqualFold(filepath.Ext(input), ".gif")
}

// ProjectName derives the makefile NAME: characters outside [A-Za-z0-9_]
// removed, upper-cased, cut to 8 characters. An identifier with nothing
// left falls back to ANIM.
func ProjectName(id string) string {
	name := strings.ToUpper(nameStrip.ReplaceAllString(id, ""))
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if name == "" {
		return fallbackName
	}
	return name
}

// Layout maps a Configuration to its paths, all relative to the work root.
type Layout struct {
	cfg Configuration
}

// NewLayout returns the layout for c.
func NewLayout(c Configuration) Layout { return Layout{cfg: c} }

// Config returns the configuration the layout was built from.
func (l Layout) Config() Configuration { return l.cfg }

// FramesDir is frames/<id>.
func (l Layout) FramesDir() string { return filepath.Join("frames", l.cfg.VideoID) }

// NormalDir holds frames sampled at the target rate: frames/<id>/normal-<fps>fps.
func (l Layout) NormalDir() string {
	return filepath.Join(l.FramesDir(), fmt.Sprintf("normal-%dfps", l.cfg.FPS))
}

// NormalPattern is the ffmpeg image-sequence pattern inside NormalDir.
func (l Layout) NormalPattern() string { return filepath.Join(l.NormalDir(), FramePattern) }

// FirstFrame is the frame probed for source dimensions.
func (l Layout) FirstFrame() string { return filepath.Join(l.NormalDir(), "frame_1.png") }

// ResizedDir holds scaled frames and convimg output:
// frames/<id>/resized-<fps>fps-<w>x<h>.
func (l Layout) ResizedDir() string {
	return filepath.Join(l.FramesDir(),
		fmt.Sprintf("resized-%dfps-%dx%d", l.cfg.FPS, l.cfg.Width, l.cfg.Height))
}

// ResizedPattern is the ffmpeg image-sequence pattern inside ResizedDir.
func (l Layout) ResizedPattern() string { return filepath.Join(l.ResizedDir(), FramePattern) }

// DescriptorName is the convimg descriptor file name, <id>.yaml.
func (l Layout) DescriptorName() string { return l.cfg.VideoID + ".yaml" }

// Descriptor is the convimg descriptor path inside ResizedDir.
func (l Layout) Descriptor() string { return filepath.Join(l.ResizedDir(), l.DescriptorName()) }

// HeaderName is the convimg include file, <id>.h.
func (l Layout) HeaderName() string { return l.cfg.VideoID + ".h" }

// ProjectDir is calc/<key>.
func (l Layout) ProjectDir() string { return filepath.Join("calc", l.cfg.Key()) }

func (l Layout) SrcDir() string     { return filepath.Join(l.ProjectDir(), "src") }
func (l Layout) GfxDir() string     { return filepath.Join(l.SrcDir(), "gfx") }
func (l Layout) ObjDir() string     { return filepath.Join(l.ProjectDir(), "obj") }
func (l Layout) BinDir() string     { return filepath.Join(l.ProjectDir(), "bin") }
func (l Layout) MainSource() string { return filepath.Join(l.SrcDir(), "main.c") }
func (l Layout) Makefile() string   { return filepath.Join(l.ProjectDir(), "makefile") }
func (l Layout) GitIgnore() string  { return filepath.Join(l.ProjectDir(), ".gitignore") }

// Stale lists the project subdirectories removed before regeneration.
func (l Layout) Stale() []string {
	return []string{l.SrcDir(), l.ObjDir(), l.BinDir()}
}

// FramePattern is the numbered frame file pattern ffmpeg reads and writes.
const FramePattern = "frame_%d.png"
