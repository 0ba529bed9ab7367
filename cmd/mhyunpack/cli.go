package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mhyunpack/internal/catalog"
	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
	"mhyunpack/internal/output"
	"mhyunpack/internal/scramble"
	"mhyunpack/internal/settings"
)

// app carries what every command needs after flags and configuration are resolved
type app struct {
	configPath string
	verbose    bool
	quiet      bool
	debug      bool

	cfg     *settings.Config
	log     zerolog.Logger
	printer *output.Printer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mhyunpack",
		Short:         "Extract mhy and Blb3 asset containers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default ./mhyunpack.yaml)")
	pf.String("game", "", "game variant tag, e.g. GI, SR, ZZZ")
	pf.String("engine-version", "", "engine version used to decode objects, e.g. 2019.4.34f1")
	pf.String("keyset", "", "keyset file with the cipher tables")
	pf.StringP("output", "o", "", "output directory for extracted files")
	pf.Int("workers", 0, "concurrent workers")
	pf.String("temp-dir", "", "directory for spilled blocks and entries")
	pf.StringSlice("codecs", nil, "codecs in fallback order (lz4, lzma, oodle)")
	pf.String("acl-library", "", "animation codec shared library")
	pf.String("catalog", "", "catalog database recording which container holds which entry")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all non-essential output")
	pf.BoolVar(&a.debug, "debug", false, "show every debug message")

	root.AddCommand(
		a.extractCmd(),
		a.listCmd(),
		a.objectCmd(),
		a.wmvCmd(),
		a.tracksCmd(),
		a.packCmd(),
		a.indexCmd(),
		a.gamesCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	level, err := output.FromFlags(a.verbose, a.quiet, a.debug)
	if err != nil {
		return err
	}

	m := settings.NewManager(a.configPath)
	if err := m.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := m.Load(); err != nil {
		return err
	}
	a.cfg = m.GetConfig()

	// the configured level applies unless a flag asked for something else
	if !a.verbose && !a.quiet && !a.debug {
		if l, err := output.ParseLevel(a.cfg.LogLevel); err == nil {
			level = l
		}
	}
	a.log = output.New(level, cmd.ErrOrStderr())
	a.printer = output.NewPrinter(level, cmd.OutOrStdout())
	m.SetLogger(a.log)
	return nil
}

func (a *app) engine() (*scramble.Engine, error) {
	return settings.LoadEngine(a.cfg.KeySet)
}

func (a *app) containerConfig() (container.Config, error) {
	engine, err := a.engine()
	if err != nil {
		return container.Config{}, err
	}
	return a.cfg.ContainerConfig(engine, a.log)
}

func (a *app) variant() (game.Variant, error) {
	return a.cfg.Variant()
}

// openCatalog returns nil when no catalog is configured
func (a *app) openCatalog() (*catalog.Catalog, error) {
	if a.cfg.Catalog == "" {
		return nil, nil
	}
	return catalog.Open(a.cfg.Catalog)
}
