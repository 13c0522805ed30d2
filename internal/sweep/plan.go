package sweep

import (
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/backmassage/calcanim/internal/project"
	"github.com/backmassage/calcanim/internal/scheduler"
	"github.com/backmassage/calcanim/internal/tool"
)

// Options shapes the configurations and jobs of a sweep.
type Options struct {
	Self     string // Executable re-invoked for render jobs.
	Root     string // Absolute work root shared by every job.
	Archive  bool
	Compress bool
	Lanes    int
	Tools    tool.Tools // Non-empty binaries are forwarded to render jobs.
	Verbose  bool
}

// Plan is an immutable sweep: the configurations in enumeration order and
// one render and one compile job for each.
type Plan struct {
	Configs []project.Configuration
	Render  []scheduler.Job
	Compile []scheduler.Job
}

// Enumerate expands inputs × fpsList × sizes, files outermost and sizes
// innermost. Heights follow the 4:3 reference; end-on-last-frame follows
// the input's extension.
func Enumerate(inputs []string, fpsList, sizes []int, opts Options) []project.Configuration {
	out := make([]project.Configuration, 0, len(inputs)*len(fpsList)*len(sizes))
	for _, in := range inputs {
		for _, fps := range fpsList {
			for _, w := range sizes {
				out = append(out, project.Configuration{
					VideoID:        project.VideoID(in),
					Input:          in,
					Width:          w,
					Height:         project.DefaultHeight(w),
					FPS:            fps,
					EndOnLastFrame: project.DefaultEndOnLastFrame(in),
					Archive:        opts.Archive,
					Compress:       opts.Compress,
				})
			}
		}
	}
	return out
}

// MakeParallelism splits the CPUs between lanes: max(1, cpus/lanes).
func MakeParallelism(cpus, lanes int) int {
	if lanes < 1 {
		lanes = 1
	}
	return max(1, cpus/lanes)
}

// BuildPlan builds the render and compile jobs for configs.
func BuildPlan(configs []project.Configuration, opts Options) Plan {
	par := MakeParallelism(runtime.GOMAXPROCS(0), opts.Lanes)
	p := Plan{
		Configs: configs,
		Render:  make([]scheduler.Job, len(configs)),
		Compile: make([]scheduler.Job, len(configs)),
	}
	for i, c := range configs {
		p.Render[i] = scheduler.Job{
			Label: c.Key(),
			Dir:   opts.Root,
			Steps: [][]string{RenderArgs(c, opts)},
		}
		p.Compile[i] = scheduler.Job{
			Label: c.Key(),
			Dir:   filepath.Join(opts.Root, project.NewLayout(c).ProjectDir()),
			Steps: [][]string{opts.Tools.MakeClean(), opts.Tools.MakeBuild(par)},
		}
	}
	return p
}

// RenderArgs is the build command line that converts c in a child process.
func RenderArgs(c project.Configuration, opts Options) []string {
	args := []string{
		opts.Self, "build",
		"--root", opts.Root,
		"-i", c.Input,
		"-w", strconv.Itoa(c.Width),
		"--height", strconv.Itoa(c.Height),
		"-f", strconv.Itoa(c.FPS),
	}
	if c.Archive {
		args = append(args, "--archive")
	}
	if c.Compress {
		args = append(args, "--compress")
	}
	for _, f := range []struct{ flag, bin string }{
		{"--ffmpeg", opts.Tools.FFmpeg},
		{"--ffprobe", opts.Tools.FFprobe},
		{"--convimg", opts.Tools.Convimg},
	} {
		if f.bin != "" {
			args = append(args, f.flag, f.bin)
		}
	}
	if opts.Verbose {
		args = append(args, "--verbose")
	}
	return args
}
