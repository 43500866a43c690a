package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/genome-variant-explorer/internal/database"
	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/users"
)

func (a *app) newGenomesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "genomes",
		Short: "List genome assemblies grouped by organism",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			directory, err := browser.ListAssemblies(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(cmd, directory)
		},
	}
}

func (a *app) newChromosomesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chromosomes [genome]",
		Short: "List the primary chromosomes of an assembly",
		Long:  "List the primary chromosomes of an assembly. The assembly defaults to --genome.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genome := a.genome
			if len(args) == 1 {
				genome = args[0]
			}
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			chromosomes, err := browser.ListChromosomes(cmd.Context(), genome)
			if err != nil {
				return err
			}
			return a.print(cmd, map[string]any{"genome": genome, "chromosomes": chromosomes})
		},
	}
}

func (a *app) newGenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genes",
		Short: "Search and resolve genes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "search <query>",
		Short: "Search genes by symbol or free text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			result, err := browser.SearchGenes(cmd.Context(), args[0], a.genome)
			if err != nil {
				return err
			}
			return a.print(cmd, result)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <gene-id>",
		Short: "Resolve an NCBI gene id to its bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			resolution, err := browser.ResolveGene(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(cmd, resolution)
		},
	})

	return cmd
}

func (a *app) newSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence <chrom> <start> <end>",
		Short: "Print the reference bases of a 1-based inclusive range",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parsePosition("start", args[1])
			if err != nil {
				return err
			}
			end, err := parsePosition("end", args[2])
			if err != nil {
				return err
			}
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			region, err := browser.FetchSequence(cmd.Context(), args[0], start, end, a.genome)
			if err != nil {
				return err
			}
			return a.print(cmd, region)
		},
	}
}

func (a *app) newClinvarCmd() *cobra.Command {
	var analyze bool

	cmd := &cobra.Command{
		Use:   "clinvar <chrom> <min> <max>",
		Short: "List ClinVar variants overlapping an interval",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, err := parsePosition("min", args[1])
			if err != nil {
				return err
			}
			hi, err := parsePosition("max", args[2])
			if err != nil {
				return err
			}
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			lookup, err := browser.ResolveVariants(cmd.Context(), args[0], domain.GeneBounds{Min: lo, Max: hi}, a.genome)
			if err != nil {
				return err
			}
			if analyze && len(lookup.Variants) > 0 {
				lookup.Variants = browser.AnalyzeClinvarVariants(cmd.Context(), a.genome, lookup.Variants)
			}
			return a.print(cmd, lookup)
		},
	}
	cmd.Flags().BoolVar(&analyze, "analyze", false, "score every single-nucleotide variant with the prediction backend")
	return cmd
}

func (a *app) newAnalyzeCmd() *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   "analyze <chrom> <position> <alt>",
		Short: "Score a single-nucleotide variant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := parsePosition("position", args[1])
			if err != nil {
				return err
			}
			browser, err := a.genomeBrowser()
			if err != nil {
				return err
			}
			result, err := browser.AnalyzeVariant(cmd.Context(), domain.VariantAnalysisRequest{
				Chromosome:  args[0],
				Position:    position,
				Reference:   reference,
				Alternative: args[2],
				Genome:      a.genome,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, result)
		},
	}
	cmd.Flags().StringVar(&reference, "ref", "", "reference base, checked against the alternative")
	return cmd
}

func (a *app) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the merged configuration with secrets redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := a.manager.Settings()
			redact(settings, "upstreams", "ncbi_api_key")
			redact(settings, "webhook", "signing_secret")
			if used := a.manager.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "# config file: %s\n", used)
			}
			return a.print(cmd, settings)
		},
	})
	return cmd
}

func (a *app) newUsersCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the synced user table",
	}
	export := &cobra.Command{
		Use:   "export",
		Short: "Export every synced user as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := a.opts.OpenUserStore(cmd.Context(), a.manager.GetConfig().Database, a.logger)
			if err != nil {
				return err
			}
			defer closeStore()

			if file == "" {
				return users.ExportJSON(cmd.Context(), store, cmd.OutOrStdout())
			}
			f, err := os.Create(file)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			if err := users.ExportJSON(cmd.Context(), store, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported users to %s\n", file)
			return nil
		},
	}
	export.Flags().StringVarP(&file, "file", "f", "", "write to this file instead of stdout")
	cmd.AddCommand(export)
	return cmd
}

func (a *app) newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the user database schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:       "migrate <up|down|status>",
		Short:     "Apply, roll back one step of, or report the PostgreSQL migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown, database.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.opts.Migrate(cmd.Context(), a.manager.GetConfig().Database, args[0], a.logger)
			if err != nil {
				return err
			}
			return a.print(cmd, status)
		},
	})
	return cmd
}

func (a *app) print(cmd *cobra.Command, v any) error {
	return render(cmd.OutOrStdout(), a.output, v)
}

func parsePosition(name, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be an integer", raw)
	}
	return v, nil
}

func redact(settings map[string]any, section, key string) {
	values, ok := settings[section].(map[string]any)
	if !ok {
		return
	}
	if s, ok := values[key].(string); ok && s != "" {
		values[key] = "********"
	}
}
