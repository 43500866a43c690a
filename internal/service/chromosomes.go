package service

import (
	"context"
	"strings"

	"github.com/genome-variant-explorer/internal/domain"
)

// ListChromosomes returns the primary chromosomes of an assembly, sorted
// numerically first and by name after.
func (s *GenomeService) ListChromosomes(ctx context.Context, assemblyID string) ([]domain.Chromosome, error) {
	if strings.TrimSpace(assemblyID) == "" {
		return nil, domain.NewValidationError("genome", "assembly id is required", assemblyID)
	}

	sizes, err := s.ucsc.Chromosomes(ctx, assemblyID)
	if err != nil {
		return nil, err
	}

	chromosomes := make([]domain.Chromosome, 0, len(sizes))
	for name, size := range sizes {
		if !domain.IsPrimaryChromosome(name) {
			continue
		}
		chromosomes = append(chromosomes, domain.Chromosome{
			Name: domain.NormalizeChromosome(name),
			Size: max(size, 0),
		})
	}
	domain.SortChromosomes(chromosomes)
	return chromosomes, nil
}
