package service

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/pkg/external"
)

// GenomeBrowser is the aggregation layer over the genome, gene, clinical
// variant and prediction upstreams. Every method is safe for concurrent use.
type GenomeBrowser interface {
	// ListAssemblies returns the assembly catalog grouped by organism
	ListAssemblies(ctx context.Context) (*domain.AssemblyDirectory, error)

	// ListChromosomes returns the primary chromosomes of an assembly in karyotype order
	ListChromosomes(ctx context.Context, assemblyID string) ([]domain.Chromosome, error)

	// SearchGenes resolves free text to at most GeneSearchPageSize candidate genes
	SearchGenes(ctx context.Context, query, assemblyID string) (*domain.GeneSearchResult, error)

	// ResolveGene resolves a gene id to its bounds and default viewing range
	ResolveGene(ctx context.Context, geneID string) (*domain.GeneResolution, error)

	// FetchSequence returns the bases of a 1-based inclusive range
	FetchSequence(ctx context.Context, chromosome string, start, end int64, assemblyID string) (*domain.SequenceRegion, error)

	// ResolveVariants returns the clinical variants overlapping bounds
	ResolveVariants(ctx context.Context, chromosome string, bounds domain.GeneBounds, assemblyID string) (*domain.ClinvarLookup, error)

	// AnalyzeVariant scores one single-nucleotide variant
	AnalyzeVariant(ctx context.Context, req domain.VariantAnalysisRequest) (*domain.VariantAnalysisResult, error)

	// AnalyzeVariants scores many variants with bounded concurrency
	AnalyzeVariants(ctx context.Context, reqs []domain.VariantAnalysisRequest) []domain.VariantAnalysisOutcome

	// AnalyzeVariantsStream is AnalyzeVariants emitting each outcome as it completes
	AnalyzeVariantsStream(ctx context.Context, reqs []domain.VariantAnalysisRequest, emit func(domain.VariantAnalysisOutcome))

	// AnalyzeClinvarVariants attaches a verdict or an error to each clinical variant
	AnalyzeClinvarVariants(ctx context.Context, assemblyID string, variants []domain.ClinvarVariant) []domain.ClinvarVariant
}

// Upstream client contracts consumed by GenomeService.
type (
	assemblyCatalog interface {
		Genomes(ctx context.Context) ([]external.UCSCGenome, error)
		Chromosomes(ctx context.Context, genome string) (map[string]int64, error)
		Sequence(ctx context.Context, genome, chrom string, start, end int64) (*external.UCSCSequence, error)
	}
	geneIndex interface {
		Search(ctx context.Context, terms string, maxList int) (*external.GeneSearchPayload, error)
	}
	ncbiRecords interface {
		GeneSummary(ctx context.Context, geneID string) (*external.GeneSummaryRecord, error)
		SearchClinvar(ctx context.Context, term string, retmax int) ([]string, error)
		SummarizeClinvar(ctx context.Context, ids []string) (*external.ClinvarSummaryPayload, error)
	}
	variantPredictor interface {
		Analyze(ctx context.Context, position int64, alternative, genome, chromosome string) (*external.AnalysisReply, error)
	}
)

// Options configures a GenomeService.
type Options struct {
	Upstreams   domain.UpstreamConfig
	Concurrency int
	Registerer  prometheus.Registerer
	Logger      *logrus.Logger
}

// GenomeService implements GenomeBrowser on top of the UCSC, NLM clinical
// tables, NCBI E-utilities and prediction backend clients.
type GenomeService struct {
	ucsc        assemblyCatalog
	genes       geneIndex
	ncbi        ncbiRecords
	predictor   variantPredictor
	concurrency int
	logger      *logrus.Logger
}

var _ GenomeBrowser = (*GenomeService)(nil)

// New builds a GenomeService and its upstream clients from explicit configuration.
func New(opts Options) (*GenomeService, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	metrics := external.NewMetrics(opts.Registerer)

	var predictor variantPredictor = unconfiguredPredictor{}
	if opts.Upstreams.PredictionBaseURL != "" {
		client, err := external.NewPredictionClient(opts.Upstreams, metrics, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create prediction client: %w", err)
		}
		predictor = client
	} else {
		logger.Warn("No prediction backend configured; variant analysis is disabled")
	}

	return newGenomeService(
		external.NewUCSCClient(opts.Upstreams, metrics, logger),
		external.NewGeneSearchClient(opts.Upstreams, metrics, logger),
		external.NewEutilsClient(opts.Upstreams, metrics, logger),
		predictor,
		opts.Concurrency,
		logger,
	), nil
}

func newGenomeService(ucsc assemblyCatalog, genes geneIndex, ncbi ncbiRecords, predictor variantPredictor, concurrency int, logger *logrus.Logger) *GenomeService {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &GenomeService{
		ucsc:        ucsc,
		genes:       genes,
		ncbi:        ncbi,
		predictor:   predictor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// unconfiguredPredictor stands in when no prediction backend URL is set.
type unconfiguredPredictor struct{}

func (unconfiguredPredictor) Analyze(context.Context, int64, string, string, string) (*external.AnalysisReply, error) {
	return nil, fmt.Errorf("prediction backend: %w", domain.ErrNotConfigured)
}
