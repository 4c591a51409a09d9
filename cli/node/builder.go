// This file contains the implementation of a CLI builder.

package node

import (
	"io"
	"os"

	"go.dedis.ch/heirloom"
	"go.dedis.ch/heirloom/cli"
	"go.dedis.ch/heirloom/cli/ucli"
	"golang.org/x/xerrors"
)

// CLIBuilder is an application builder that will build a CLI to start and
// control a node.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	inits    []Initializer
	writer   io.Writer
	readFile func(string) ([]byte, error)
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg(nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder that writes the output of the
// actions to the given writer, or to the standard output if it is nil.
func NewBuilderWithCfg(out io.Writer, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	builder := ucli.NewBuilder("heirloom",
		ucli.WithUsage("dead man's switch wills on a local ledger"),
		ucli.WithWriter(out),
		ucli.WithFlags(
			cli.StringFlag{
				Name:  ConfigFlag,
				Usage: "path to the configuration file",
				Value: DefaultConfigPath,
			},
			cli.StringFlag{
				Name:  DBFlag,
				Usage: "path to the ledger database, overrides the configuration",
			},
			cli.StringFlag{
				Name:  KeyFlag,
				Usage: "path to the private key, overrides the configuration",
			},
			cli.DurationFlag{
				Name:  ClockOffsetFlag,
				Usage: "shifts the clock of the ledger, overrides the configuration",
			},
			cli.StringFlag{
				Name:  MetricsFlag,
				Usage: "path of the metrics text file, overrides the configuration",
			},
			cli.StringFlag{
				Name:  LogLevelFlag,
				Usage: "logging level (trace, debug, info, warn, error, none)",
			},
		))

	return &CLIBuilder{
		Builder:  builder,
		inits:    inits,
		writer:   out,
		readFile: os.ReadFile,
	}
}

// MakeAction implements node.Builder. It creates a CLI action that starts the
// node, executes the template and stops the node.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		path := flags.Path(ConfigFlag)
		if path == "" {
			path = DefaultConfigPath
		}

		cfg, err := loadConfig(path, b.readFile)
		if err != nil {
			return xerrors.Errorf("couldn't load config: %v", err)
		}

		cfg = cfg.Override(flags)

		if cfg.LogLevel != "" {
			heirloom.Logger = heirloom.Logger.Level(heirloom.ParseLevel(cfg.LogLevel))
		}

		injector := NewInjector()
		injector.Inject(cfg)

		started, err := b.start(flags, injector)
		if err != nil {
			b.stop(started, injector)

			return xerrors.Errorf("couldn't run the controller: %v", err)
		}

		ctx := Context{
			Injector: injector,
			Flags:    flags,
			Out:      b.writer,
		}

		err = tmpl.Execute(ctx)

		errStop := b.stop(started, injector)

		if err != nil {
			return err
		}

		if errStop != nil {
			return xerrors.Errorf("couldn't stop controller: %v", errStop)
		}

		return nil
	}
}

// Build implements cli.Builder. It returns the application with the commands
// of every initializer.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	return b.Builder.Build()
}

// start starts the initializers in order and returns the number of them that
// have started.
func (b *CLIBuilder) start(flags cli.Flags, inj Injector) (int, error) {
	for i, controller := range b.inits {
		err := controller.OnStart(flags, inj)
		if err != nil {
			return i, err
		}
	}

	return len(b.inits), nil
}

// stop stops the first n initializers in reverse order, so that high level
// components are stopped before the lower level ones. It returns the first
// error, after trying to stop all of them.
func (b *CLIBuilder) stop(n int, inj Injector) error {
	var first error

	for i := n - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(inj)
		if err != nil && first == nil {
			first = err
		}
	}

	heirloom.Logger.Trace().Int("controllers", n).Msg("node has been stopped")

	return first
}
