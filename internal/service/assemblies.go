package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/pkg/external"
)

// defaultOrganism labels assemblies whose organism is absent upstream.
const defaultOrganism = "Other"

// ListAssemblies fetches the assembly catalog and groups it by organism,
// keeping the upstream order of organisms and of assemblies within each.
func (s *GenomeService) ListAssemblies(ctx context.Context) (*domain.AssemblyDirectory, error) {
	genomes, err := s.ucsc.Genomes(ctx)
	if err != nil {
		return nil, err
	}

	directory := groupAssemblies(genomes)
	s.logger.WithFields(logrus.Fields{
		"assemblies": len(genomes),
		"organisms":  len(directory.Organisms),
	}).Debug("Listed genome assemblies")
	return directory, nil
}

func groupAssemblies(genomes []external.UCSCGenome) *domain.AssemblyDirectory {
	directory := &domain.AssemblyDirectory{Organisms: []domain.OrganismGroup{}}
	index := make(map[string]int)

	for _, genome := range genomes {
		organism := valueOr(genome.Organism, defaultOrganism)
		assembly := domain.GenomeAssembly{
			ID:         genome.ID,
			Name:       valueOr(genome.Description, genome.ID),
			SourceName: valueOr(genome.SourceName, genome.ID),
			Active:     bool(genome.Active),
			Organism:   organism,
		}

		i, ok := index[organism]
		if !ok {
			i = len(directory.Organisms)
			index[organism] = i
			directory.Organisms = append(directory.Organisms, domain.OrganismGroup{Organism: organism})
		}
		directory.Organisms[i].Assemblies = append(directory.Organisms[i].Assemblies, assembly)
	}
	return directory
}

func valueOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
