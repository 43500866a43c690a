// Package cli implements the genomectl command-line client.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/genome-variant-explorer/internal/config"
	"github.com/genome-variant-explorer/internal/database"
	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/service"
	"github.com/genome-variant-explorer/internal/users"
)

// Output formats accepted by --output.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Options wires the command tree to its collaborators. Zero fields fall back
// to the real implementations.
type Options struct {
	Out     io.Writer
	Err     io.Writer
	Version string

	NewBrowser    func(cfg *domain.Config, logger *logrus.Logger) (service.GenomeBrowser, error)
	OpenUserStore func(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (users.Store, func(), error)
	Migrate       func(ctx context.Context, cfg domain.DatabaseConfig, direction string, logger *logrus.Logger) (*database.MigrationStatus, error)
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	opts Options

	configFile string
	genome     string
	output     string
	verbose    bool

	manager *config.Manager
	logger  *logrus.Logger
	browser service.GenomeBrowser
}

// NewRootCommand builds the genomectl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.NewBrowser == nil {
		opts.NewBrowser = defaultBrowser
	}
	if opts.OpenUserStore == nil {
		opts.OpenUserStore = database.OpenUserStore
	}
	if opts.Migrate == nil {
		opts.Migrate = database.Migrate
	}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "genomectl",
		Short: "Query genome assemblies, genes, sequences and clinical variants",
		Long: `genomectl talks to the same upstreams as the genome explorer server:
the UCSC genome browser, NLM clinical tables, NCBI E-utilities and the
variant effect prediction backend.`,
		Example: `  genomectl genomes
  genomectl chromosomes hg38
  genomectl genes search BRCA1
  genomectl sequence chr17 43044295 43044395 --genome hg38
  genomectl analyze chr17 43044295 T --output yaml`,
		Version:       opts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: ./config.yaml)")
	flags.StringVar(&a.genome, "genome", "hg38", "genome assembly id")
	flags.StringVarP(&a.output, "output", "o", OutputJSON, "output format: json or yaml")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log upstream activity to stderr")

	root.AddCommand(
		a.newGenomesCmd(),
		a.newChromosomesCmd(),
		a.newGenesCmd(),
		a.newSequenceCmd(),
		a.newClinvarCmd(),
		a.newAnalyzeCmd(),
		a.newConfigCmd(),
		a.newUsersCmd(),
		a.newDBCmd(),
		a.newSetupCmd(),
	)
	return root
}

// Execute runs the command tree and reports a failure on Err.
func Execute(ctx context.Context, opts Options) int {
	cmd := NewRootCommand(opts)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) load() error {
	if a.output != OutputJSON && a.output != OutputYAML {
		return fmt.Errorf("unsupported output format %q (want json or yaml)", a.output)
	}

	manager, err := config.NewManager(a.configFile)
	if err != nil {
		return err
	}
	a.manager = manager

	logCfg := manager.GetConfig().Logging
	if !a.verbose {
		logCfg.Level = "warn"
	}
	a.logger = config.NewLogger(logCfg)
	a.logger.SetOutput(a.opts.Err)
	return nil
}

// genomeBrowser creates the service on first use so that config and setup
// commands never build upstream clients.
func (a *app) genomeBrowser() (service.GenomeBrowser, error) {
	if a.browser != nil {
		return a.browser, nil
	}
	if err := a.manager.Validate(); err != nil {
		return nil, err
	}
	browser, err := a.opts.NewBrowser(a.manager.GetConfig(), a.logger)
	if err != nil {
		return nil, err
	}
	a.browser = browser
	return browser, nil
}

func defaultBrowser(cfg *domain.Config, logger *logrus.Logger) (service.GenomeBrowser, error) {
	return service.New(service.Options{
		Upstreams:   cfg.Upstreams,
		Concurrency: cfg.Analysis.Concurrency,
		Logger:      logger,
	})
}
