package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/backmassage/calcanim/internal/check"
	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/display"
	"github.com/backmassage/calcanim/internal/ledger"
	"github.com/backmassage/calcanim/internal/palette"
	"github.com/backmassage/calcanim/internal/tool"
)

func (a *app) paletteCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "palette -o FILE IMAGE...",
		Short: "Build a shared 16-bit palette from images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd.InheritedFlags()); err != nil {
				return err
			}
			p, err := palette.FromFiles(args...)
			if err != nil {
				return err
			}
			src := palette.Render(p)
			if out == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), src)
				return err
			}
			if err := os.WriteFile(out, []byte(src), 0o644); err != nil {
				return err
			}
			a.log.Success("Wrote %s (%s from %s)", out,
				display.FormatCount(len(p), "color"), display.FormatCount(len(args), "image"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write the C palette array to FILE (default stdout)")
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	var (
		failed bool
		runID  string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history --ledger FILE [--run ID] [--failed]",
		Short: "Show recorded sweep runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Flags()); err != nil {
				return err
			}
			if a.cfg.LedgerPath == "" {
				return &config.ArgumentError{Msg: "Missing required argument: --ledger"}
			}
			l, err := ledger.Open(cmd.Context(), a.cfg.LedgerPath)
			if err != nil {
				return err
			}
			defer l.Close()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if runID == "" && !failed {
				runs, err := l.Runs(cmd.Context(), limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "RUN\tJOBS\tOK\tFAILED\tSKIPPED")
				for _, r := range runs {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.RunID, r.Total, r.Succeeded, r.Failed, r.Skipped)
				}
				return nil
			}

			if runID == "" {
				if runID, err = l.LatestRun(cmd.Context()); err != nil {
					return err
				}
			}
			entries, err := l.Entries(cmd.Context(), runID, failed)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "WAVE\tJOB\tSTATUS\tEXIT\tTIME\tCOMMAND")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					e.Wave, e.Label, e.Status, e.ExitCode, display.FormatElapsed(e.Duration), e.Command)
			}
			return nil
		},
	}
	cmd.Flags().String(config.KeyLedger, "", "SQLite ledger written by sweep --ledger")
	cmd.Flags().BoolVar(&failed, "failed", false, "List failed jobs of the run (default: latest run)")
	cmd.Flags().StringVar(&runID, "run", "", "List the jobs of one run")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report which external tools are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.InheritedFlags()); err != nil {
				return err
			}
			display.PrintBanner(os.Stderr, config.Version)
			if !check.New(&a.cfg, tool.ExecRunner{}).RunCheck(cmd.Context(), a.log) {
				return errFailed
			}
			return nil
		},
	}
}
