package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/genome-variant-explorer/internal/domain"
)

// AnalyzeVariant validates and submits one single-nucleotide variant to the
// prediction backend. Failures are returned to the caller.
func (s *GenomeService) AnalyzeVariant(ctx context.Context, req domain.VariantAnalysisRequest) (*domain.VariantAnalysisResult, error) {
	req, err := normalizeAnalysisRequest(req)
	if err != nil {
		return nil, err
	}

	reply, err := s.predictor.Analyze(ctx, req.Position, req.Alternative, req.Genome, req.Chromosome)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"chromosome":  req.Chromosome,
			"position":    req.Position,
			"alternative": req.Alternative,
			"error":       err.Error(),
		}).Error("Variant analysis failed")
		return nil, err
	}

	return &domain.VariantAnalysisResult{
		Position:                 reply.Position,
		Reference:                reply.Reference,
		Alternative:              reply.Alternative,
		DeltaScore:               reply.DeltaScore,
		Prediction:               reply.Prediction,
		ClassificationConfidence: reply.ClassificationConfidence,
	}, nil
}

func normalizeAnalysisRequest(req domain.VariantAnalysisRequest) (domain.VariantAnalysisRequest, error) {
	req.Chromosome = domain.NormalizeChromosome(strings.TrimSpace(req.Chromosome))
	req.Alternative = strings.ToUpper(strings.TrimSpace(req.Alternative))
	req.Reference = strings.ToUpper(strings.TrimSpace(req.Reference))
	req.Genome = strings.TrimSpace(req.Genome)

	switch {
	case req.Chromosome == "":
		return req, domain.NewValidationError("chromosome", "chromosome is required", req.Chromosome)
	case req.Genome == "":
		return req, domain.NewValidationError("genome", "assembly id is required", req.Genome)
	case req.Position < 1:
		return req, domain.NewValidationError("position", "position is 1-based and must be at least 1", req.Position)
	case !domain.IsNucleotide(req.Alternative):
		return req, domain.NewValidationError("alternative", "alternative must be a single base A, C, G or T", req.Alternative)
	case req.Reference != "" && !domain.IsNucleotide(req.Reference):
		return req, domain.NewValidationError("reference", "reference must be a single base A, C, G or T", req.Reference)
	case req.Reference == req.Alternative:
		return req, domain.NewValidationError("alternative", "alternative must differ from the reference base", req.Alternative)
	}
	return req, nil
}

// AnalyzeVariants scores reqs with at most the configured number of requests
// in flight. Outcomes keep the input order; a failure is recorded on its own
// outcome and never cancels siblings.
func (s *GenomeService) AnalyzeVariants(ctx context.Context, reqs []domain.VariantAnalysisRequest) []domain.VariantAnalysisOutcome {
	outcomes := make([]domain.VariantAnalysisOutcome, len(reqs))
	s.AnalyzeVariantsStream(ctx, reqs, func(outcome domain.VariantAnalysisOutcome) {
		outcomes[outcome.Index] = outcome
	})
	return outcomes
}

// AnalyzeVariantsStream runs the same fan-out as AnalyzeVariants and calls
// emit once per request as soon as its outcome is known. emit calls are
// serialized. Requests not started before ctx is done get ctx's error.
func (s *GenomeService) AnalyzeVariantsStream(ctx context.Context, reqs []domain.VariantAnalysisRequest, emit func(domain.VariantAnalysisOutcome)) {
	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	g.SetLimit(s.concurrency)

	send := func(outcome domain.VariantAnalysisOutcome) {
		mu.Lock()
		defer mu.Unlock()
		emit(outcome)
	}

	for i, req := range reqs {
		if err := ctx.Err(); err != nil {
			send(domain.VariantAnalysisOutcome{Index: i, Request: req, Error: err.Error()})
			continue
		}
		g.Go(func() error {
			outcome := domain.VariantAnalysisOutcome{Index: i, Request: req}
			result, err := s.AnalyzeVariant(ctx, req)
			if err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.Result = result
			}
			send(outcome)
			return nil
		})
	}
	_ = g.Wait()
}

// substitutionPattern matches single-base substitutions such as c.5096G>A.
var substitutionPattern = regexp.MustCompile(`([ACGT])>([ACGT])`)

// ParseSubstitution extracts the reference and alternative bases of the first
// single-base substitution named in a clinical variant title.
func ParseSubstitution(title string) (ref, alt string, err error) {
	match := substitutionPattern.FindStringSubmatch(title)
	if match == nil {
		return "", "", errors.New("title does not describe a single nucleotide substitution")
	}
	return match[1], match[2], nil
}

// AnalyzeClinvarVariants submits every clinical variant that names a
// single-base substitution and attaches the verdict, or the error, to that
// variant alone. The input slice is not modified.
func (s *GenomeService) AnalyzeClinvarVariants(ctx context.Context, assemblyID string, variants []domain.ClinvarVariant) []domain.ClinvarVariant {
	annotated := make([]domain.ClinvarVariant, len(variants))
	copy(annotated, variants)

	var (
		reqs    []domain.VariantAnalysisRequest
		targets []int
	)
	for i, variant := range annotated {
		ref, alt, err := ParseSubstitution(variant.Title)
		if err != nil {
			annotated[i].AnalysisError = err.Error()
			continue
		}
		if variant.Position < 1 {
			annotated[i].AnalysisError = "variant has no usable position"
			continue
		}
		reqs = append(reqs, domain.VariantAnalysisRequest{
			Chromosome:  variant.Chromosome,
			Position:    variant.Position,
			Reference:   ref,
			Alternative: alt,
			Genome:      assemblyID,
		})
		targets = append(targets, i)
	}

	for _, outcome := range s.AnalyzeVariants(ctx, reqs) {
		i := targets[outcome.Index]
		annotated[i].Analysis = outcome.Result
		annotated[i].AnalysisError = outcome.Error
	}
	return annotated
}
