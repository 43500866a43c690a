package domain

import (
	"testing"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

func TestNormalizeChromosome(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1", "chr1"},
		{"chr1", "chr1"},
		{"X", "chrX"},
		{"chrX", "chrX"},
		{"CHR7", "chr7"},
		{"Chr7", "chr7"},
		{"mt", "chrmt"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeChromosome(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeChromosome(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if again := NormalizeChromosome(got); again != got {
				t.Errorf("NormalizeChromosome is not idempotent for %q: %q then %q", tt.input, got, again)
			}
		})
	}
}

func TestStripChromosomePrefix(t *testing.T) {
	tests := map[string]string{
		"chr17": "17",
		"CHR17": "17",
		"17":    "17",
		"chrX":  "X",
		"ch":    "ch",
	}
	for input, expected := range tests {
		if got := StripChromosomePrefix(input); got != expected {
			t.Errorf("StripChromosomePrefix(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestToHalfOpenRange(t *testing.T) {
	start, end := ToHalfOpenRange(100, 110)
	if start != 99 || end != 110 {
		t.Errorf("ToHalfOpenRange(100, 110) = (%d, %d), want (99, 110)", start, end)
	}
	if end-start != 11 {
		t.Errorf("half-open width should equal inclusive width, got %d", end-start)
	}
}

func TestPositionFieldForAssembly(t *testing.T) {
	tests := []struct {
		assembly string
		expected string
	}{
		{"hg19", "chrpos37"},
		{"hg38", "chrpos38"},
		{"mm39", "chrpos38"},
		{"", "chrpos38"},
	}
	for _, tt := range tests {
		if got := PositionFieldForAssembly(tt.assembly); got != tt.expected {
			t.Errorf("PositionFieldForAssembly(%q) = %q, want %q", tt.assembly, got, tt.expected)
		}
	}
}

func TestBoundsOf(t *testing.T) {
	pairs := [][2]int64{{10, 20}, {20, 10}, {5, 5}, {0, 43125482}, {43170244, 43044294}}
	for _, p := range pairs {
		b := BoundsOf(p[0], p[1])
		if b.Min > b.Max {
			t.Errorf("BoundsOf(%d, %d) = %+v, min > max", p[0], p[1], b)
		}
		if b.Min != min(p[0], p[1]) || b.Max != max(p[0], p[1]) {
			t.Errorf("BoundsOf(%d, %d) = %+v", p[0], p[1], b)
		}
	}
}

func TestInitialViewingRange(t *testing.T) {
	tests := []struct {
		name     string
		bounds   GeneBounds
		expected ViewingRange
	}{
		{"short gene", GeneBounds{Min: 1000, Max: 5000}, ViewingRange{Start: 1000, End: 5000}},
		{"exactly max width", GeneBounds{Min: 0, Max: 10000}, ViewingRange{Start: 0, End: 10000}},
		{"long gene", GeneBounds{Min: 43044294, Max: 43125482}, ViewingRange{Start: 43044294, End: 43054294}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InitialViewingRange(tt.bounds)
			if got != tt.expected {
				t.Errorf("InitialViewingRange(%+v) = %+v, want %+v", tt.bounds, got, tt.expected)
			}
			if width := got.End - got.Start; width != min(tt.bounds.Span(), MaxInitialRangeWidth) {
				t.Errorf("width %d, want min(span, %d)", width, MaxInitialRangeWidth)
			}
		})
	}
}

func TestIsPrimaryChromosome(t *testing.T) {
	tests := map[string]bool{
		"chr1":                   true,
		"chrX":                   true,
		"chrM":                   true,
		"chr1_KI270706v1_random": false,
		"chrUn_KI270302v1":       false,
		"chr4_GL000008v2_alt":    false,
		"chr9_random":            false,
	}
	for name, expected := range tests {
		if got := IsPrimaryChromosome(name); got != expected {
			t.Errorf("IsPrimaryChromosome(%q) = %v, want %v", name, got, expected)
		}
	}
}

func TestSortChromosomes(t *testing.T) {
	chromosomes := []Chromosome{
		{Name: "chrY"}, {Name: "chr10"}, {Name: "chrM"}, {Name: "chr2"},
		{Name: "chrX"}, {Name: "chr1"}, {Name: "chr22"},
	}
	SortChromosomes(chromosomes)

	expected := []string{"chr1", "chr2", "chr10", "chr22", "chrM", "chrX", "chrY"}
	for i, name := range expected {
		if chromosomes[i].Name != name {
			t.Fatalf("position %d: got %s, want %s (full order %v)", i, chromosomes[i].Name, name, chromosomes)
		}
	}
}

func TestCompareChromosomeNamesNumericFirst(t *testing.T) {
	collator := collate.New(language.English)
	names := []string{"chr1", "chr2", "chr10", "chr22", "chrA", "chrM", "chrX", "chrY"}
	for i, a := range names {
		for j, b := range names {
			got := CompareChromosomeNames(collator, a, b)
			switch {
			case i < j && got >= 0:
				t.Errorf("expected %s < %s, got %d", a, b, got)
			case i > j && got <= 0:
				t.Errorf("expected %s > %s, got %d", a, b, got)
			case i == j && got != 0:
				t.Errorf("expected %s == %s, got %d", a, b, got)
			}
		}
	}
}

func TestIsNucleotide(t *testing.T) {
	for _, base := range []string{"A", "c", "G", "t"} {
		if !IsNucleotide(base) {
			t.Errorf("IsNucleotide(%q) = false", base)
		}
	}
	for _, base := range []string{"", "N", "AT", "-"} {
		if IsNucleotide(base) {
			t.Errorf("IsNucleotide(%q) = true", base)
		}
	}
}
