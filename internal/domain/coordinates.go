package domain

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// MaxInitialRangeWidth caps the default viewing window of a gene.
const MaxInitialRangeWidth = 10000

// LegacyAssembly is the only build whose clinical coordinates live in chrpos37.
const LegacyAssembly = "hg19"

const chrPrefix = "chr"

// NormalizeChromosome ensures name carries a lowercase "chr" prefix. The rest
// of the name keeps its case. Empty input stays empty.
func NormalizeChromosome(name string) string {
	if name == "" {
		return ""
	}
	if len(name) >= len(chrPrefix) && strings.EqualFold(name[:len(chrPrefix)], chrPrefix) {
		return chrPrefix + name[len(chrPrefix):]
	}
	return chrPrefix + name
}

// StripChromosomePrefix removes a leading "chr" in any case.
func StripChromosomePrefix(name string) string {
	if len(name) >= len(chrPrefix) && strings.EqualFold(name[:len(chrPrefix)], chrPrefix) {
		return name[len(chrPrefix):]
	}
	return name
}

// ToHalfOpenRange converts a 1-based inclusive range into the 0-based
// half-open range the sequence service expects.
func ToHalfOpenRange(start, end int64) (apiStart, apiEnd int64) {
	return start - 1, end
}

// PositionFieldForAssembly returns the clinical registry coordinate field
// for an assembly build.
func PositionFieldForAssembly(assemblyID string) string {
	if assemblyID == LegacyAssembly {
		return "chrpos37"
	}
	return "chrpos38"
}

// BoundsOf orders two raw endpoints that may arrive in either order.
func BoundsOf(a, b int64) GeneBounds {
	if a > b {
		a, b = b, a
	}
	return GeneBounds{Min: a, Max: b}
}

// InitialViewingRange is the whole gene, or its first MaxInitialRangeWidth
// bases when the gene is longer.
func InitialViewingRange(bounds GeneBounds) ViewingRange {
	if bounds.Span() > MaxInitialRangeWidth {
		return ViewingRange{Start: bounds.Min, End: bounds.Min + MaxInitialRangeWidth}
	}
	return ViewingRange{Start: bounds.Min, End: bounds.Max}
}

// IsPrimaryChromosome rejects alt contigs, unplaced and random scaffolds.
func IsPrimaryChromosome(name string) bool {
	return !strings.Contains(name, "_") &&
		!strings.Contains(name, "Un") &&
		!strings.Contains(name, "random")
}

// SortChromosomes orders chromosomes chr1..chr22 then the named ones. Purely
// numeric suffixes sort by value and before any other name; other names
// sort by English collation.
func SortChromosomes(chromosomes []Chromosome) {
	collator := collate.New(language.English)
	sort.SliceStable(chromosomes, func(i, j int) bool {
		return CompareChromosomeNames(collator, chromosomes[i].Name, chromosomes[j].Name) < 0
	})
}

// CompareChromosomeNames returns -1, 0 or 1. A Collator is not safe for
// concurrent use, so callers pass their own.
func CompareChromosomeNames(collator *collate.Collator, a, b string) int {
	sa := strings.TrimPrefix(a, chrPrefix)
	sb := strings.TrimPrefix(b, chrPrefix)
	na, aNumeric := numericSuffix(sa)
	nb, bNumeric := numericSuffix(sb)

	switch {
	case aNumeric && bNumeric:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case aNumeric:
		return -1
	case bNumeric:
		return 1
	}
	return collator.CompareString(sa, sb)
}

func numericSuffix(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IsNucleotide reports whether base is one of A, C, G, T (any case).
func IsNucleotide(base string) bool {
	switch strings.ToUpper(base) {
	case "A", "C", "G", "T":
		return true
	}
	return false
}
