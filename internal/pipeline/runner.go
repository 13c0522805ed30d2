package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/backmassage/calcanim/internal/display"
	"github.com/backmassage/calcanim/internal/emit"
	"github.com/backmassage/calcanim/internal/logging"
	"github.com/backmassage/calcanim/internal/probe"
	"github.com/backmassage/calcanim/internal/project"
	"github.com/backmassage/calcanim/internal/tool"
)

// ErrNoFrames is returned when convimg produced no frame headers.
var ErrNoFrames = emit.ErrNoFrames

// Observer receives per-run measurements. Implementations must be safe for
// concurrent use.
type Observer interface {
	StageFinished(stage string, d time.Duration)
	FramesEmitted(n int)
}

// Runner executes the four-stage conversion for one Configuration.
type Runner struct {
	FS       FS
	Tools    tool.Tools
	Exec     tool.Runner
	Prober   probe.Prober
	Log      *logging.Logger
	Observer Observer // optional
}

// Run converts cfg into calc/<key>/. Stages run in order and the first
// failure aborts the run, wrapped with the stage name. A run that yields no
// frames returns ErrNoFrames and leaves calc/ untouched.
func (r *Runner) Run(ctx context.Context, cfg project.Configuration) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout := project.NewLayout(cfg)
	res := &Result{Config: cfg, ProjectDir: layout.ProjectDir()}
	log := r.logger().With("project", cfg.Key())

	stages := []struct {
		name string
		fn   func(context.Context, project.Layout, *Result) error
	}{
		{StageExtract, r.extract},
		{StageResize, r.resize},
		{StageQuantize, r.quantize},
		{StageAssemble, r.assemble},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		start := time.Now()
		err := s.fn(ctx, layout, res)
		d := time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		res.Stages = append(res.Stages, StageTiming{Stage: s.name, Duration: d})
		if r.Observer != nil {
			r.Observer.StageFinished(s.name, d)
		}
		log.Debug("%s done in %s", s.name, display.FormatElapsed(d))
	}

	for _, name := range res.Skipped {
		log.Warn("Ignored frame header with non-numeric index: %s", name)
	}
	if r.Observer != nil {
		r.Observer.FramesEmitted(res.FrameCount)
	}
	return res, nil
}

func (r *Runner) logger() *logging.Logger {
	if r.Log == nil {
		return logging.Discard()
	}
	return r.Log
}

// recreate removes dir and creates it again empty.
func (r *Runner) recreate(dir string) error {
	if err := r.FS.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	if err := r.FS.MkdirAll(dir); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, dir string, args []string) error {
	r.logger().Debug("exec: %s", tool.FormatArgs(args))
	_, err := r.Exec.Run(ctx, dir, args...)
	return err
}

func (r *Runner) extract(ctx context.Context, l project.Layout, _ *Result) error {
	if err := r.recreate(l.NormalDir()); err != nil {
		return err
	}
	args := r.Tools.Extract(l.Config().Input, l.Config().FPS, l.NormalPattern())
	return r.run(ctx, r.FS.Root(), args)
}

func (r *Runner) resize(ctx context.Context, l project.Layout, res *Result) error {
	src, err := r.Prober.Dimensions(ctx, r.FS.Abs(l.FirstFrame()))
	if err != nil {
		return fmt.Errorf("probe first frame: %w", err)
	}
	res.Source = src
	res.ScaleW, res.ScaleH = ScaleFor(src, l.Config().Width, l.Config().Height)

	if err := r.recreate(l.ResizedDir()); err != nil {
		return err
	}
	args := r.Tools.Scale(l.NormalPattern(), res.ScaleW, res.ScaleH, l.ResizedPattern())
	return r.run(ctx, r.FS.Root(), args)
}

func (r *Runner) quantize(ctx context.Context, l project.Layout, _ *Result) error {
	names, err := r.FS.ReadDir(l.ResizedDir())
	if err != nil {
		return fmt.Errorf("list resized frames: %w", err)
	}
	desc, err := emit.Descriptor(l.Config().VideoID, pngFrames(names))
	if err != nil {
		return err
	}
	if err := r.FS.WriteFile(l.Descriptor(), desc); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return r.run(ctx, r.FS.Abs(l.ResizedDir()), r.Tools.ConvertSprites(r.FS.Abs(l.Descriptor())))
}

func (r *Runner) assemble(_ context.Context, l project.Layout, res *Result) error {
	names, err := r.FS.ReadDir(l.ResizedDir())
	if err != nil {
		return fmt.Errorf("list convimg output: %w", err)
	}
	frames, skipped := SortFrames(names)
	res.FrameCount = len(frames)
	res.Skipped = skipped

	art, err := emit.Emit(emit.ParamsFor(l.Config(), frames))
	if err != nil {
		return err
	}

	for _, dir := range l.Stale() {
		if err := r.FS.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
	}
	if err := r.FS.MkdirAll(l.GfxDir()); err != nil {
		return fmt.Errorf("create %s: %w", l.GfxDir(), err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{l.MainSource(), art.MainSource},
		{l.Makefile(), art.Makefile},
		{l.GitIgnore(), art.GitIgnore},
	}
	for _, f := range files {
		if err := r.FS.WriteFile(f.path, f.data); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
	}
	res.BytesWritten = art.Size()

	for _, name := range gfxSources(names) {
		n, err := r.FS.CopyFile(filepath.Join(l.ResizedDir(), name), filepath.Join(l.GfxDir(), name))
		if err != nil {
			return fmt.Errorf("copy %s: %w", name, err)
		}
		res.GfxFiles++
		res.BytesWritten += n
	}
	return nil
}
