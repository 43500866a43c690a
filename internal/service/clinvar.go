package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/pkg/external"
)

const unknownLabel = "Unknown"

// ResolveVariants returns the clinical variants overlapping bounds on a
// chromosome. Upstream failures leave Variants empty and set Error.
func (s *GenomeService) ResolveVariants(ctx context.Context, chromosome string, bounds domain.GeneBounds, assemblyID string) (*domain.ClinvarLookup, error) {
	if strings.TrimSpace(chromosome) == "" {
		return nil, domain.NewValidationError("chrom", "chromosome is required", chromosome)
	}

	chrom := domain.StripChromosomePrefix(chromosome)
	bounds = domain.BoundsOf(bounds.Min, bounds.Max)
	lookup := &domain.ClinvarLookup{
		Chromosome: chrom,
		Genome:     assemblyID,
		Bounds:     bounds,
		Variants:   []domain.ClinvarVariant{},
	}

	term := ClinvarQuery(chrom, bounds, assemblyID)
	ids, err := s.ncbi.SearchClinvar(ctx, term, external.ClinvarSearchPageSize)
	if err != nil {
		return s.degradeLookup(lookup, term, err), nil
	}
	if len(ids) == 0 {
		return lookup, nil
	}

	summary, err := s.ncbi.SummarizeClinvar(ctx, ids)
	if err != nil {
		return s.degradeLookup(lookup, term, err), nil
	}

	printer := message.NewPrinter(language.English)
	seen := make(map[string]bool, len(summary.UIDs))
	for _, uid := range summary.UIDs {
		record, ok := summary.Records[uid]
		if !ok || seen[uid] {
			continue
		}
		seen[uid] = true
		lookup.Variants = append(lookup.Variants, clinvarVariant(printer, uid, chrom, record))
	}
	return lookup, nil
}

func (s *GenomeService) degradeLookup(lookup *domain.ClinvarLookup, term string, err error) *domain.ClinvarLookup {
	s.logger.WithFields(logrus.Fields{
		"term":  term,
		"error": err.Error(),
	}).Warn("ClinVar lookup failed")
	lookup.Error = err.Error()
	return lookup
}

// ClinvarQuery builds the esearch term combining a chromosome filter with a
// position range on the assembly specific coordinate field.
func ClinvarQuery(chrom string, bounds domain.GeneBounds, assemblyID string) string {
	return fmt.Sprintf("%s[chromosome] AND %d:%d[%s]",
		chrom, bounds.Min, bounds.Max, domain.PositionFieldForAssembly(assemblyID))
}

func clinvarVariant(printer *message.Printer, uid, chrom string, record external.ClinvarSummaryRecord) domain.ClinvarVariant {
	variant := domain.ClinvarVariant{
		ClinvarID:      uid,
		Title:          valueOr(record.Title, ""),
		VariationType:  TitleCaseWords(valueOr(record.ObjType, unknownLabel)),
		Classification: unknownLabel,
		GeneSort:       valueOr(record.GeneSort, ""),
		Chromosome:     chrom,
		Location:       unknownLabel,
	}
	if record.GermlineClassification != nil && record.GermlineClassification.Description != nil {
		variant.Classification = *record.GermlineClassification.Description
	}
	if position, ok := leadingInt(record.LocationSort.String()); ok {
		variant.Position = position
		variant.Location = printer.Sprintf("%d", position)
	}
	return variant
}

// TitleCaseWords upper-cases the first letter of every space separated word
// and lower-cases the rest.
func TitleCaseWords(s string) string {
	words := strings.Split(s, " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(word[size:])
	}
	return strings.Join(words, " ")
}

// leadingInt parses the leading decimal digits of s, ignoring surrounding
// whitespace and an optional sign.
func leadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
