package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

// MaxSequenceSpan bounds a single sequence request.
const MaxSequenceSpan = 1_000_000

const sequenceFailureMessage = "Internal error in fetch gene sequence"

// FetchSequence returns the uppercased bases of a 1-based inclusive range.
// Upstream failures are reported in the region's Error with an empty
// sequence; only a malformed request returns an error.
func (s *GenomeService) FetchSequence(ctx context.Context, chromosome string, start, end int64, assemblyID string) (*domain.SequenceRegion, error) {
	if err := validateRange(chromosome, start, end, assemblyID); err != nil {
		return nil, err
	}

	chrom := domain.NormalizeChromosome(chromosome)
	region := &domain.SequenceRegion{
		Chromosome:  chrom,
		Genome:      assemblyID,
		ActualRange: domain.SequenceRange{Start: start, End: end},
	}

	apiStart, apiEnd := domain.ToHalfOpenRange(start, end)
	payload, err := s.ucsc.Sequence(ctx, assemblyID, chrom, apiStart, apiEnd)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"genome": assemblyID,
			"chrom":  chrom,
			"start":  start,
			"end":    end,
			"error":  err.Error(),
		}).Warn("Sequence fetch failed")
		region.Error = sequenceFailureMessage + ": " + err.Error()
		return region, nil
	}

	if payload.Error != nil && *payload.Error != "" {
		region.Error = *payload.Error
		return region, nil
	}
	if payload.DNA == nil || *payload.DNA == "" {
		region.Error = "no sequence returned"
		return region, nil
	}

	region.Sequence = strings.ToUpper(*payload.DNA)
	return region, nil
}

func validateRange(chromosome string, start, end int64, assemblyID string) error {
	switch {
	case strings.TrimSpace(chromosome) == "":
		return domain.NewValidationError("chrom", "chromosome is required", chromosome)
	case strings.TrimSpace(assemblyID) == "":
		return domain.NewValidationError("genome", "assembly id is required", assemblyID)
	case start < 1:
		return domain.NewValidationError("start", "start is 1-based and must be at least 1", start)
	case end < start:
		return domain.NewValidationError("end", "end must not be before start", end)
	case end-start+1 > MaxSequenceSpan:
		return domain.NewValidationError("end", "range exceeds the maximum sequence span", end-start+1)
	}
	return nil
}
