package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome-variant-explorer/internal/database"
	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/service"
	"github.com/genome-variant-explorer/internal/users"
)

type fakeBrowser struct {
	service.GenomeBrowser

	genome  string
	request domain.VariantAnalysisRequest
}

func (f *fakeBrowser) ListAssemblies(context.Context) (*domain.AssemblyDirectory, error) {
	return &domain.AssemblyDirectory{Organisms: []domain.OrganismGroup{{
		Organism:   "Human",
		Assemblies: []domain.GenomeAssembly{{ID: "hg38", Name: "Dec. 2013", SourceName: "GRCh38", Organism: "Human"}},
	}}}, nil
}

func (f *fakeBrowser) ListChromosomes(_ context.Context, assemblyID string) ([]domain.Chromosome, error) {
	f.genome = assemblyID
	return []domain.Chromosome{{Name: "chr1", Size: 248956422}}, nil
}

func (f *fakeBrowser) SearchGenes(_ context.Context, query, assemblyID string) (*domain.GeneSearchResult, error) {
	f.genome = assemblyID
	return &domain.GeneSearchResult{Query: query, Genome: assemblyID, Results: []domain.GeneSummary{{Symbol: "BRCA1", GeneID: "672"}}}, nil
}

func (f *fakeBrowser) FetchSequence(_ context.Context, chromosome string, start, end int64, assemblyID string) (*domain.SequenceRegion, error) {
	f.genome = assemblyID
	return &domain.SequenceRegion{Chromosome: chromosome, Genome: assemblyID, Sequence: "ACGT", ActualRange: domain.SequenceRange{Start: start, End: end}}, nil
}

func (f *fakeBrowser) AnalyzeVariant(_ context.Context, req domain.VariantAnalysisRequest) (*domain.VariantAnalysisResult, error) {
	f.request = req
	return &domain.VariantAnalysisResult{Position: req.Position, Alternative: req.Alternative, Prediction: "Likely benign"}, nil
}

type fixture struct {
	out, errOut bytes.Buffer
	browser     *fakeBrowser
	builds      int
	migrations  []string
}

func (f *fixture) run(t *testing.T, args ...string) error {
	t.Helper()
	f.out.Reset()
	f.errOut.Reset()
	cmd := NewRootCommand(Options{
		Out: &f.out,
		Err: &f.errOut,
		NewBrowser: func(*domain.Config, *logrus.Logger) (service.GenomeBrowser, error) {
			f.builds++
			return f.browser, nil
		},
		OpenUserStore: func(ctx context.Context, cfg domain.DatabaseConfig, logger *logrus.Logger) (users.Store, func(), error) {
			store, err := users.NewSQLiteStore(filepath.Join(t.TempDir(), "users.db"))
			if err != nil {
				return nil, nil, err
			}
			return store, func() { store.Close() }, nil
		},
		Migrate: func(ctx context.Context, cfg domain.DatabaseConfig, direction string, logger *logrus.Logger) (*database.MigrationStatus, error) {
			f.migrations = append(f.migrations, direction)
			if direction == database.MigrateDown {
				return &database.MigrationStatus{}, nil
			}
			return &database.MigrationStatus{Version: 1}, nil
		},
	})
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func newFixture(t *testing.T) *fixture {
	t.Chdir(t.TempDir())
	return &fixture{browser: &fakeBrowser{}}
}

func TestGenomes_JSON(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "genomes"))

	var directory domain.AssemblyDirectory
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &directory))
	require.Len(t, directory.Organisms, 1)
	assert.Equal(t, "hg38", directory.Organisms[0].Assemblies[0].ID)
}

func TestGenomes_YAML(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "genomes", "--output", "yaml"))

	out := f.out.String()
	assert.Contains(t, out, "organisms:")
	assert.Contains(t, out, "sourceName: GRCh38")
	assert.NotContains(t, out, "{")
}

func TestUnsupportedOutput(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, "genomes", "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
	assert.Zero(t, f.builds)
}

func TestChromosomes_GenomeFromArgOrFlag(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "chromosomes", "mm39"))
	assert.Equal(t, "mm39", f.browser.genome)

	require.NoError(t, f.run(t, "chromosomes"))
	assert.Equal(t, "hg38", f.browser.genome)

	require.NoError(t, f.run(t, "chromosomes", "--genome", "hg19"))
	assert.Equal(t, "hg19", f.browser.genome)
}

func TestGenesSearch(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "genes", "search", "BRCA1", "--genome", "hg19"))

	var result domain.GeneSearchResult
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &result))
	assert.Equal(t, "hg19", result.Genome)
	assert.Equal(t, "BRCA1", result.Query)
}

func TestSequence(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "sequence", "chr17", "100", "103"))
	var region domain.SequenceRegion
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &region))
	assert.Equal(t, domain.SequenceRange{Start: 100, End: 103}, region.ActualRange)

	err := f.run(t, "sequence", "chr17", "one", "103")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "start", validationErr.Field)

	assert.Error(t, f.run(t, "sequence", "chr17", "100"))
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "analyze", "chr17", "43044295", "T", "--ref", "C"))

	assert.Equal(t, domain.VariantAnalysisRequest{
		Chromosome:  "chr17",
		Position:    43044295,
		Reference:   "C",
		Alternative: "T",
		Genome:      "hg38",
	}, f.browser.request)
	assert.Contains(t, f.out.String(), `"prediction": "Likely benign"`)
}

func TestConfigShow_RedactsSecrets(t *testing.T) {
	f := newFixture(t)
	t.Setenv("GENOME_EXPLORER_WEBHOOK_SIGNING_SECRET", "whsec_c2VjcmV0")

	require.NoError(t, f.run(t, "config", "show", "--output", "yaml"))

	out := f.out.String()
	assert.Contains(t, out, "upstreams:")
	assert.NotContains(t, out, "whsec_c2VjcmV0")
	assert.Zero(t, f.builds, "config show must not build upstream clients")
}

func TestUsersExport(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "users", "export"))
	assert.Contains(t, f.out.String(), `"users": []`)

	file := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, f.run(t, "users", "export", "--file", file))
	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var export users.Export
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, 0, export.Count)
}

func TestDBMigrate(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.run(t, "db", "migrate", "up"))
	assert.JSONEq(t, `{"version":1,"dirty":false}`, f.out.String())

	require.NoError(t, f.run(t, "db", "migrate", "down"))
	assert.JSONEq(t, `{"version":0,"dirty":false}`, f.out.String())

	require.NoError(t, f.run(t, "db", "migrate", "status", "-o", "yaml"))
	assert.Contains(t, f.out.String(), "version: 1")

	assert.Error(t, f.run(t, "db", "migrate", "sideways"))
	assert.Error(t, f.run(t, "db", "migrate"))
	assert.Equal(t, []string{"up", "down", "status"}, f.migrations)
	assert.Zero(t, f.builds)
}

func TestSetup_WritesClientConfig(t *testing.T) {
	f := newFixture(t)
	clientPath := filepath.Join(t.TempDir(), "client", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(clientPath), 0o755))
	require.NoError(t, os.WriteFile(clientPath, []byte(`{"theme":"dark","mcpServers":{"other":{"command":"/bin/other"}}}`), 0o644))

	require.NoError(t, f.run(t, "setup", "--binary", "/opt/bin/mcp-server", "--client-config", clientPath, "--data-dir", "/data"))
	assert.Contains(t, f.out.String(), "Registered "+ServerName)

	cfg, err := LoadClientConfig(clientPath)
	require.NoError(t, err)
	assert.Equal(t, "/bin/other", cfg.MCPServers["other"].Command)
	entry := cfg.MCPServers[ServerName]
	assert.Equal(t, "/opt/bin/mcp-server", entry.Command)
	assert.Equal(t, "/data", entry.Env["GENOME_EXPLORER_DATA_DIR"])
	assert.JSONEq(t, `"dark"`, string(cfg.Extra["theme"]))
}

func TestSetup_DryRun(t *testing.T) {
	f := newFixture(t)
	clientPath := filepath.Join(t.TempDir(), "config.json")

	require.NoError(t, f.run(t, "setup", "--binary", "/opt/bin/mcp-server", "--client-config", clientPath, "--dry-run"))

	assert.True(t, strings.Contains(f.out.String(), `"command": "/opt/bin/mcp-server"`))
	_, err := os.Stat(clientPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadClientConfig_Missing(t *testing.T) {
	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MCPServers)
}
