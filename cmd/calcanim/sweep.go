package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/calcanim/internal/check"
	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/display"
	"github.com/backmassage/calcanim/internal/ledger"
	"github.com/backmassage/calcanim/internal/metrics"
	"github.com/backmassage/calcanim/internal/scheduler"
	"github.com/backmassage/calcanim/internal/sweep"
	"github.com/backmassage/calcanim/internal/tool"
)

func (a *app) sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [flags]",
		Short: "Render and compile every input at every fps and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Flags()); err != nil {
				return err
			}
			return a.runSweep(cmd)
		},
	}
	config.RegisterSweepFlags(cmd.Flags())
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command) error {
	cfg := &a.cfg
	log := a.log
	if err := cfg.ValidateSweep(); err != nil {
		return err
	}
	display.PrintBanner(os.Stderr, config.Version)

	if err := check.New(cfg, nil).CheckSweepDeps(); err != nil {
		log.Error("%v", err)
		return errFailed
	}

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return err
	}
	inputs, err := sweep.Discover(cfg.InputDir, cfg.Extensions)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		log.Warn("No %v files in %s", cfg.Extensions, cfg.InputDir)
		return nil
	}

	opts := sweep.Options{
		Self:     self,
		Root:     root,
		Archive:  cfg.Archive,
		Compress: cfg.Compress,
		Lanes:    cfg.Lanes,
		Tools:    tool.FromConfig(cfg),
		Verbose:  cfg.Verbose,
	}
	plan := sweep.BuildPlan(sweep.Enumerate(inputs, cfg.FPSList, cfg.Sizes, opts), opts)

	sched := scheduler.New(cfg.Lanes, tool.ExecRunner{}, log)
	sched.Observer = metrics.NewSchedulerObserver()
	sched.Verbose = cfg.Verbose
	if cfg.Retries > 0 {
		sched.Retry = scheduler.WithRetries(cfg.Retries, cfg.RetryBackoff, cfg.RetryMaxWait)
	}

	driver := &sweep.Driver{
		Scheduler: sched,
		Log:       log,
		RunID:     time.Now().UTC().Format("20060102T150405Z"),
		OnWave:    metrics.RecordSkipped,
	}
	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cmd.Context(), cfg.LedgerPath)
		if err != nil {
			return err
		}
		defer l.Close()
		driver.Recorder = l
		log.Info("Recording run %s in %s", driver.RunID, cfg.LedgerPath)
	}

	stats := driver.Run(cmd.Context(), plan)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn("%v", err)
		}
	}
	if stats.HasFailures() || stats.Interrupted() {
		return errFailed
	}
	return nil
}
