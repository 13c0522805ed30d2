package pipeline

import (
	"time"

	"github.com/backmassage/calcanim/internal/probe"
	"github.com/backmassage/calcanim/internal/project"
)

// Stage names, used in error wrapping, logs and metrics labels.
const (
	StageExtract  = "extract"
	StageResize   = "resize"
	StageQuantize = "quantize"
	StageAssemble = "assemble"
)

// StageTiming records how long one stage took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result summarizes a successful run.
type Result struct {
	Config       project.Configuration
	ProjectDir   string // Relative to the work root.
	Source       probe.Dimensions
	ScaleW       int
	ScaleH       int
	FrameCount   int
	Skipped      []string // Frame headers ignored for a non-numeric suffix.
	GfxFiles     int
	BytesWritten int64
	Stages       []StageTiming
}

// Elapsed is the sum of all stage durations.
func (r *Result) Elapsed() time.Duration {
	var d time.Duration
	for _, s := range r.Stages {
		d += s.Duration
	}
	return d
}
