package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/pkg/external"
)

// GeneSearchPageSize bounds the results of one gene search.
const GeneSearchPageSize = 10

// SearchGenes resolves a free-text query to candidate genes. A declared count
// of zero is an empty result, not an error. Rows that cannot be read are
// skipped without failing the page.
func (s *GenomeService) SearchGenes(ctx context.Context, query, assemblyID string) (*domain.GeneSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "search query is required", query)
	}

	payload, err := s.genes.Search(ctx, query, GeneSearchPageSize)
	if err != nil {
		return nil, err
	}

	result := &domain.GeneSearchResult{Query: query, Genome: assemblyID, Results: []domain.GeneSummary{}}
	if payload.Count == 0 {
		return result, nil
	}

	limit := min(GeneSearchPageSize, payload.Count, len(payload.Rows))
	for i := 0; i < limit; i++ {
		gene, ok := geneFromRow(payload.Rows[i], payload.GeneIDs, i)
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"query": query,
				"row":   i,
				"error": rowError(payload.Rows[i]),
			}).Warn("Skipping unreadable gene search row")
			continue
		}
		result.Results = append(result.Results, gene)
	}
	return result, nil
}

// geneFromRow maps one display row. The gene id is aligned by position with
// the id list; a missing id yields "".
func geneFromRow(row external.GeneSearchRow, ids []string, i int) (domain.GeneSummary, bool) {
	if row.Err != nil || len(row.Fields) <= external.DisplayDescription {
		return domain.GeneSummary{}, false
	}

	// df is chromosome,Symbol,description,...: Symbol sits at 1, description at 2.
	gene := domain.GeneSummary{
		Chromosome:  domain.NormalizeChromosome(row.Fields[external.DisplayChromosome]),
		Symbol:      row.Fields[external.DisplaySymbol],
		Name:        row.Fields[external.DisplayDescription],
		Description: row.Fields[external.DisplayDescription],
	}
	if len(row.Fields) > external.DisplayMapLocation {
		gene.MapLocation = row.Fields[external.DisplayMapLocation]
	}
	if i < len(ids) {
		gene.GeneID = ids[i]
	}
	return gene, true
}

func rowError(row external.GeneSearchRow) string {
	if row.Err != nil {
		return row.Err.Error()
	}
	return "too few display fields"
}

// ResolveGene resolves a gene id to its genomic bounds and default viewing
// range. Upstream failures never escape: they become an unavailable
// resolution with a message, distinct from a gene that is not found.
func (s *GenomeService) ResolveGene(ctx context.Context, geneID string) (*domain.GeneResolution, error) {
	geneID = strings.TrimSpace(geneID)
	if geneID == "" {
		return nil, domain.NewValidationError("gene_id", "gene id is required", geneID)
	}

	record, err := s.ncbi.GeneSummary(ctx, geneID)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"gene_id": geneID,
			"error":   err.Error(),
		}).Warn("Gene details unavailable")
		return &domain.GeneResolution{
			GeneID:  geneID,
			Status:  domain.GeneUnavailable,
			Message: unavailableMessage(err),
		}, nil
	}

	info, ok := firstPlacement(record)
	if !ok {
		return &domain.GeneResolution{
			GeneID:  geneID,
			Status:  domain.GeneNotFound,
			Message: (&domain.NotFoundError{Resource: "gene placement", ID: geneID}).Error(),
		}, nil
	}

	bounds := domain.BoundsOf(info.ChrStart, info.ChrStop)
	viewing := domain.InitialViewingRange(bounds)
	return &domain.GeneResolution{
		GeneID:       geneID,
		Status:       domain.GeneFound,
		Details:      geneDetails(geneID, record),
		Bounds:       &bounds,
		InitialRange: &viewing,
	}, nil
}

func firstPlacement(record *external.GeneSummaryRecord) (domain.GenomicInfo, bool) {
	if record == nil || len(record.GenomicInfo) == 0 {
		return domain.GenomicInfo{}, false
	}
	first := record.GenomicInfo[0]
	if first.ChrStart == nil || first.ChrStop == nil {
		return domain.GenomicInfo{}, false
	}
	return domain.GenomicInfo{ChrStart: *first.ChrStart, ChrStop: *first.ChrStop, Strand: first.Strand}, true
}

func geneDetails(geneID string, record *external.GeneSummaryRecord) *domain.GeneDetails {
	details := &domain.GeneDetails{GeneID: geneID}
	for _, info := range record.GenomicInfo {
		if info.ChrStart == nil || info.ChrStop == nil {
			continue
		}
		details.GenomicInfo = append(details.GenomicInfo, domain.GenomicInfo{
			ChrStart: *info.ChrStart,
			ChrStop:  *info.ChrStop,
			Strand:   info.Strand,
		})
	}
	if record.Summary != nil {
		details.Summary = *record.Summary
	}
	if record.Organism != nil {
		details.Organism = record.Organism.ScientificName
	}
	return details
}

func unavailableMessage(err error) string {
	var statusErr *domain.UpstreamStatusError
	if errors.As(err, &statusErr) {
		return "gene service returned an error: " + statusErr.Error()
	}
	return "gene service unavailable: " + err.Error()
}
