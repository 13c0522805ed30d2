package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/backmassage/calcanim/internal/check"
	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/display"
	"github.com/backmassage/calcanim/internal/metrics"
	"github.com/backmassage/calcanim/internal/pipeline"
	"github.com/backmassage/calcanim/internal/probe"
	"github.com/backmassage/calcanim/internal/project"
	"github.com/backmassage/calcanim/internal/tool"
)

func (a *app) buildCommand() *cobra.Command {
	var bf config.BuildFlags
	cmd := &cobra.Command{
		Use:   "build -i VIDEO [flags]",
		Short: "Convert one video into a calculator project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Build flags are parsed by BuildFlags.Apply, not viper: sweep
			// binds different flags under the same names.
			if err := a.v.BindPFlag(config.KeyMetricsFile, cmd.Flags().Lookup(config.KeyMetricsFile)); err != nil {
				return err
			}
			if err := a.setup(cmd.InheritedFlags()); err != nil {
				return err
			}
			return a.runBuild(cmd, &bf)
		},
	}
	bf.Register(cmd.Flags())
	cmd.Flags().String(config.KeyMetricsFile, "", "Write Prometheus metrics to this file when done")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, bf *config.BuildFlags) error {
	cfg := &a.cfg
	if err := bf.Apply(cfg); err != nil {
		return err
	}
	log := a.log

	input, err := filepath.Abs(cfg.Input)
	if err != nil {
		return err
	}
	if _, err := os.Stat(input); err != nil {
		log.Error("Input not found: %s", cfg.Input)
		return errFailed
	}

	tools := tool.FromConfig(cfg)
	if err := check.New(cfg, nil).CheckBuildDeps(); err != nil {
		log.Error("%v", err)
		return errFailed
	}

	fsys, err := pipeline.NewOSFS(cfg.Root)
	if err != nil {
		return fmt.Errorf("work root: %w", err)
	}
	pc := project.Configuration{
		VideoID:        project.VideoID(input),
		Input:          input,
		Width:          cfg.Width,
		Height:         cfg.Height,
		FPS:            cfg.FPS,
		EndOnLastFrame: cfg.EndOnLastFrame,
		Archive:        cfg.Archive,
		Compress:       cfg.Compress,
		Debug:          cfg.Debug,
	}

	exec := tool.ExecRunner{}
	if cfg.Verbose {
		exec.Tee = os.Stderr
	}
	runner := &pipeline.Runner{
		FS:       fsys,
		Tools:    tools,
		Exec:     exec,
		Prober:   probe.Auto(tools, exec),
		Log:      log,
		Observer: metrics.NewPipelineObserver(),
	}

	log.Info("Building %s from %s", pc.Key(), cfg.Input)
	res, err := runner.Run(cmd.Context(), pc)
	if err != nil {
		log.Error("Build %s failed: %v", pc.Key(), err)
		if hint := tool.Hint(err); hint != "" {
			log.Error("  hint: %s", hint)
		}
		return errFailed
	}
	log.Success("Built %s: %s, %s written in %s",
		res.ProjectDir,
		display.FormatCount(res.FrameCount, "frame"),
		display.FormatBytes(res.BytesWritten),
		display.FormatElapsed(res.Elapsed()))

	if path := cfg.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Warn("%v", err)
		}
	}
	return nil
}
