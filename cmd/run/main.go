// Command run hosts wasm guests on the bare-metal platform layer and offers
// a few tools for poking at the bounded formatter.
//
// Usage:
//
//	run exec guest.wasm                    call _start, main or run
//	run exec guest.wasm --func add --arg 1 --arg 2
//	run exec guest.wasm --list             list guest exports
//	run exports                            list the env host functions
//	run printf --capacity 8 "%s=%d" key 42 render once
//	run play                               interactive playground
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/baremetal-platform/alloc"
	"github.com/wippyai/baremetal-platform/config"
	"github.com/wippyai/baremetal-platform/host"
	"github.com/wippyai/baremetal-platform/platform"
)

// app carries the state shared by the subcommands once the root command has
// loaded the configuration.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "run",
		Short: "Run wasm guests against the bare-metal platform layer",
		Long: `run instantiates wasm modules with an "env" host module that provides the
platform layer a bare-metal WAMR build expects: bounded printf, a guest heap,
page mappings, counters for time, and no-op threads and locks.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides log.level)")

	root.AddCommand(
		newExecCmd(a),
		newExportsCmd(a),
		newPrintfCmd(a),
		newPlayCmd(a),
	)
	return root
}

// setup loads the configuration and installs the package loggers.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	host.SetLogger(log.Named("host"))
	platform.SetLogger(log.Named("platform"))
	alloc.SetLogger(log.Named("alloc"))
	return nil
}

// newLogger builds the process logger. Console output is colored when out is
// a terminal.
func newLogger(c config.LogConfig, out *os.File) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	var (
		w       io.Writer = out
		encoder zapcore.Encoder
	)
	if c.Format == config.FormatJSON {
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeLevel = zapcore.CapitalLevelEncoder
		if term.IsTerminal(int(out.Fd())) {
			enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
			w = colorable.NewColorable(out)
		}
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}
