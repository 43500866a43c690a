package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genome-variant-explorer/internal/cache"
	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/middleware"
)

const (
	defaultGenome = "hg38"

	// maxBatchSize bounds one batch or stream of variant analyses.
	maxBatchSize = 100
)

// BatchAnalysisRequest is the body of the batch and streaming analysis endpoints.
type BatchAnalysisRequest struct {
	Variants []domain.VariantAnalysisRequest `json:"variants"`
}

// BatchAnalysisResponse lists one outcome per requested variant, in order.
type BatchAnalysisResponse struct {
	Outcomes []domain.VariantAnalysisOutcome `json:"outcomes"`
}

// ClinvarAnalysisRequest is the body of POST /api/v1/clinvar/analyze.
type ClinvarAnalysisRequest struct {
	Genome   string                  `json:"genome"`
	Variants []domain.ClinvarVariant `json:"variants"`
}

// ClinvarAnalysisResponse carries the variants with their verdicts attached.
type ClinvarAnalysisResponse struct {
	Genome   string                  `json:"genome"`
	Variants []domain.ClinvarVariant `json:"variants"`
}

func (s *Server) handleListGenomes(c *gin.Context) {
	directory, err := cached(s, c, cache.Key("genomes"), s.browser.ListAssemblies, nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, directory)
}

func (s *Server) handleListChromosomes(c *gin.Context) {
	genome := c.Param("genome")
	chromosomes, err := cached(s, c, cache.Key("chromosomes", genome),
		func(ctx context.Context) ([]domain.Chromosome, error) {
			return s.browser.ListChromosomes(ctx, genome)
		}, nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genome": genome, "chromosomes": chromosomes})
}

func (s *Server) handleSearchGenes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	genome := c.DefaultQuery("genome", defaultGenome)
	result, err := cached(s, c, cache.Key("genes.search", strings.ToLower(query), genome),
		func(ctx context.Context) (*domain.GeneSearchResult, error) {
			return s.browser.SearchGenes(ctx, query, genome)
		}, nil)
	if err != nil {
		s.writeError(c, err)
		return
	}
	// the key ignores case; echo this caller's spelling
	result.Query = query
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetGene(c *gin.Context) {
	geneID := c.Param("id")
	resolution, err := cached(s, c, cache.Key("genes.get", geneID),
		func(ctx context.Context) (*domain.GeneResolution, error) {
			return s.browser.ResolveGene(ctx, geneID)
		},
		func(r *domain.GeneResolution) bool { return r.Status != domain.GeneUnavailable })
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolution)
}

func (s *Server) handleGetSequence(c *gin.Context) {
	genome := c.DefaultQuery("genome", defaultGenome)
	chrom := c.Query("chrom")
	start, err := queryInt(c, "start")
	if err != nil {
		s.writeError(c, err)
		return
	}
	end, err := queryInt(c, "end")
	if err != nil {
		s.writeError(c, err)
		return
	}

	region, err := cached(s, c, cache.Key("sequence", genome, chrom, strconv.FormatInt(start, 10), strconv.FormatInt(end, 10)),
		func(ctx context.Context) (*domain.SequenceRegion, error) {
			return s.browser.FetchSequence(ctx, chrom, start, end, genome)
		},
		func(r *domain.SequenceRegion) bool { return r.Error == "" })
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, region)
}

func (s *Server) handleGetClinvar(c *gin.Context) {
	genome := c.DefaultQuery("genome", defaultGenome)
	chrom := c.Query("chrom")
	lo, err := queryInt(c, "min")
	if err != nil {
		s.writeError(c, err)
		return
	}
	hi, err := queryInt(c, "max")
	if err != nil {
		s.writeError(c, err)
		return
	}
	bounds := domain.GeneBounds{Min: lo, Max: hi}

	lookup, err := cached(s, c, cache.Key("clinvar", genome, chrom, strconv.FormatInt(lo, 10), strconv.FormatInt(hi, 10)),
		func(ctx context.Context) (*domain.ClinvarLookup, error) {
			return s.browser.ResolveVariants(ctx, chrom, bounds, genome)
		},
		func(l *domain.ClinvarLookup) bool { return l.Error == "" })
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

func (s *Server) handleAnalyzeVariant(c *gin.Context) {
	var req domain.VariantAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("body", "invalid JSON body", err.Error()))
		return
	}

	result, err := s.browser.AnalyzeVariant(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req BatchAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("body", "invalid JSON body", err.Error()))
		return
	}
	if err := validateBatch(req.Variants); err != nil {
		s.writeError(c, err)
		return
	}

	outcomes := s.browser.AnalyzeVariants(c.Request.Context(), req.Variants)
	c.JSON(http.StatusOK, BatchAnalysisResponse{Outcomes: outcomes})
}

func (s *Server) handleAnalyzeClinvar(c *gin.Context) {
	var req ClinvarAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewValidationError("body", "invalid JSON body", err.Error()))
		return
	}
	if req.Genome == "" {
		req.Genome = defaultGenome
	}
	if len(req.Variants) > maxBatchSize {
		s.writeError(c, domain.NewValidationError("variants", "too many variants in one request", len(req.Variants)))
		return
	}

	variants := s.browser.AnalyzeClinvarVariants(c.Request.Context(), req.Genome, req.Variants)
	c.JSON(http.StatusOK, ClinvarAnalysisResponse{Genome: req.Genome, Variants: variants})
}

func validateBatch(variants []domain.VariantAnalysisRequest) error {
	switch {
	case len(variants) == 0:
		return domain.NewValidationError("variants", "at least one variant is required", 0)
	case len(variants) > maxBatchSize:
		return domain.NewValidationError("variants", "too many variants in one request", len(variants))
	}
	return nil
}

func queryInt(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, domain.NewValidationError(name, name+" is required", raw)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.NewValidationError(name, name+" must be an integer", raw)
	}
	return v, nil
}

// writeError answers with the status and error envelope matching err.
func (s *Server) writeError(c *gin.Context, err error) {
	status := domain.HTTPStatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("correlation_id", c.GetString(middleware.CorrelationIDKey)).
			Error("Request failed")
	}
	c.JSON(status, domain.NewAPIError(domain.ErrorCode(err), err.Error(), "", c.GetString(middleware.CorrelationIDKey)))
}

// cached serves key from the response cache or calls load and stores the
// result. A nil cacheable stores every successful result; otherwise only
// results it accepts are stored.
func cached[T any](s *Server, c *gin.Context, key string, load func(context.Context) (T, error), cacheable func(T) bool) (T, error) {
	ctx := c.Request.Context()

	var value T
	hit, err := s.cache.Get(ctx, key, &value)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
	}
	if hit {
		c.Header("X-Cache", "HIT")
		return value, nil
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}
	c.Header("X-Cache", "MISS")
	if cacheable == nil || cacheable(value) {
		if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}
	return value, nil
}
