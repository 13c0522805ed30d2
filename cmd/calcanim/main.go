// Command calcanim converts videos into TI-84 Plus CE animation projects.
//
// build renders one configuration; sweep renders and compiles every
// (input, fps, size) combination in a directory over a fixed number of
// worker lanes. palette, history and check are auxiliary tools.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/backmassage/calcanim/internal/config"
	"github.com/backmassage/calcanim/internal/logging"
)

// commit is set at build time via -ldflags.
var commit = "unknown"

// errFailed signals a non-zero exit whose cause was already logged.
var errFailed = errors.New("failed")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{v: config.NewViper()}
	root := a.rootCommand()
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	if a.log != nil {
		defer a.log.Close()
	}
	if err == nil {
		return 0
	}
	var argErr *config.ArgumentError
	switch {
	case errors.Is(err, errFailed):
	case errors.As(err, &argErr) || a.log == nil:
		fmt.Fprintf(os.Stderr, "calcanim: %v\n", err)
	default:
		a.log.Error("%v", err)
	}
	return 1
}

// app carries the state shared by every command once setup has run.
type app struct {
	v   *viper.Viper
	cfg config.Config
	log *logging.Logger
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "calcanim",
		Short:         "Convert videos into TI-84 Plus CE animation programs",
		Version:       fmt.Sprintf("%s (%s)", config.Version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterGlobalFlags(root.PersistentFlags())

	root.AddCommand(
		a.buildCommand(),
		a.sweepCommand(),
		a.paletteCommand(),
		a.historyCommand(),
		a.checkCommand(),
	)
	return root
}

// setup loads .env, binds the given flag sets into viper, resolves the
// configuration and opens the logger.
func (a *app) setup(sets ...*pflag.FlagSet) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := config.BindFlags(a.v, sets...); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log, err := logging.New(&a.cfg)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}
