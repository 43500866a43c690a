package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/pkg/external"
)

func newTestService(ucsc *fakeUCSC, genes *fakeGeneIndex, ncbi *fakeNCBI, predictor *fakePredictor) *GenomeService {
	if ucsc == nil {
		ucsc = &fakeUCSC{}
	}
	if genes == nil {
		genes = &fakeGeneIndex{}
	}
	if ncbi == nil {
		ncbi = &fakeNCBI{}
	}
	if predictor == nil {
		predictor = &fakePredictor{}
	}
	return newGenomeService(ucsc, genes, ncbi, predictor, 3, nil)
}

func TestListAssemblies_GroupsByOrganismInFirstSeenOrder(t *testing.T) {
	ucsc := &fakeUCSC{genomes: []external.UCSCGenome{
		{ID: "hg38", Organism: strPtr("Human"), Description: strPtr("GRCh38/hg38"), SourceName: strPtr("GRCh38"), Active: true},
		{ID: "mm39", Organism: strPtr("Mouse"), Description: strPtr("GRCm39/mm39")},
		{ID: "hg19", Organism: strPtr("Human"), Description: strPtr("GRCh37/hg19"), Active: true},
		{ID: "mystery"},
	}}
	svc := newTestService(ucsc, nil, nil, nil)

	directory, err := svc.ListAssemblies(context.Background())
	require.NoError(t, err)
	require.Len(t, directory.Organisms, 3)

	assert.Equal(t, "Human", directory.Organisms[0].Organism)
	assert.Equal(t, "Mouse", directory.Organisms[1].Organism)
	assert.Equal(t, "Other", directory.Organisms[2].Organism)

	human := directory.Organisms[0].Assemblies
	require.Len(t, human, 2)
	assert.Equal(t, "hg38", human[0].ID)
	assert.Equal(t, "hg19", human[1].ID)
	assert.True(t, human[0].Active)

	mouse := directory.Organisms[1].Assemblies[0]
	assert.Equal(t, "mm39", mouse.SourceName, "missing source falls back to the id")
	assert.False(t, mouse.Active)

	mystery := directory.Organisms[2].Assemblies[0]
	assert.Equal(t, "mystery", mystery.Name)
	assert.Equal(t, "mystery", mystery.SourceName)

	found, ok := directory.Lookup("hg19")
	assert.True(t, ok)
	assert.Equal(t, "Human", found.Organism)
}

func TestListAssemblies_PropagatesFormatError(t *testing.T) {
	svc := newTestService(&fakeUCSC{err: &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes"}}, nil, nil, nil)
	_, err := svc.ListAssemblies(context.Background())

	var formatErr *domain.UpstreamFormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestListChromosomes_FiltersAndSorts(t *testing.T) {
	ucsc := &fakeUCSC{chromosomes: map[string]int64{
		"chr10": 133797422, "chr2": 242193529, "chr1": 248956422, "chrX": 156040895,
		"chrY": 57227415, "chrM": 16569, "chr22": 50818468,
		"chr1_KI270706v1_random": 175055, "chrUn_KI270302v1": 2274, "chr4_GL000008v2_alt": 209709,
	}}
	svc := newTestService(ucsc, nil, nil, nil)

	chromosomes, err := svc.ListChromosomes(context.Background(), "hg38")
	require.NoError(t, err)

	names := make([]string, len(chromosomes))
	for i, c := range chromosomes {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"chr1", "chr2", "chr10", "chr22", "chrM", "chrX", "chrY"}, names)
	assert.Equal(t, int64(248956422), chromosomes[0].Size)
}

func TestListChromosomes_RequiresAssembly(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)
	_, err := svc.ListChromosomes(context.Background(), " ")

	var validationErr *domain.ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestSearchGenes(t *testing.T) {
	rows := []external.GeneSearchRow{
		{Fields: []string{"17", "BRCA1", "BRCA1 DNA repair associated", "17q21.31", "protein-coding"}},
		{Err: errors.New("display row is not a list")},
		{Fields: []string{"chr13", "BRCA2", "BRCA2 DNA repair associated", "13q13.1", "protein-coding"}},
		{Fields: []string{"X"}},
		{Fields: []string{"X", "BRCC3", "BRCA1/BRCA2-containing complex subunit 3"}},
	}
	genes := &fakeGeneIndex{payload: &external.GeneSearchPayload{
		Count:   5,
		GeneIDs: []string{"672", "x", "675"},
		Rows:    rows,
	}}
	svc := newTestService(nil, genes, nil, nil)

	result, err := svc.SearchGenes(context.Background(), "BRCA", "hg38")
	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	assert.Equal(t, domain.GeneSummary{
		Symbol: "BRCA1", Name: "BRCA1 DNA repair associated", Chromosome: "chr17",
		Description: "BRCA1 DNA repair associated", MapLocation: "17q21.31", GeneID: "672",
	}, result.Results[0])
	assert.Equal(t, "chr13", result.Results[1].Chromosome)
	assert.Equal(t, "675", result.Results[1].GeneID)
	assert.Equal(t, "BRCC3", result.Results[2].Symbol)
	assert.Equal(t, "", result.Results[2].GeneID, "id list shorter than rows yields an empty id")
}

func TestSearchGenes_ZeroCountIsEmpty(t *testing.T) {
	svc := newTestService(nil, &fakeGeneIndex{payload: &external.GeneSearchPayload{Count: 0}}, nil, nil)

	result, err := svc.SearchGenes(context.Background(), "NOTAGENE", "hg38")
	require.NoError(t, err)
	assert.NotNil(t, result.Results)
	assert.Empty(t, result.Results)
}

func TestSearchGenes_PageIsBounded(t *testing.T) {
	payload := &external.GeneSearchPayload{Count: 25}
	for i := 0; i < 25; i++ {
		payload.Rows = append(payload.Rows, external.GeneSearchRow{Fields: []string{"1", "G", "gene"}})
	}
	svc := newTestService(nil, &fakeGeneIndex{payload: payload}, nil, nil)

	result, err := svc.SearchGenes(context.Background(), "G", "hg38")
	require.NoError(t, err)
	assert.Len(t, result.Results, GeneSearchPageSize)
}

func TestSearchGenes_DeclaredCountBelowRows(t *testing.T) {
	payload := &external.GeneSearchPayload{Count: 2}
	for i := 0; i < 5; i++ {
		payload.Rows = append(payload.Rows, external.GeneSearchRow{Fields: []string{"1", "G", "gene"}})
	}
	svc := newTestService(nil, &fakeGeneIndex{payload: payload}, nil, nil)

	result, err := svc.SearchGenes(context.Background(), "G", "hg38")
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
}

func TestResolveGene(t *testing.T) {
	tests := []struct {
		name           string
		ncbi           *fakeNCBI
		expectedStatus domain.GeneResolutionStatus
		expectedBounds *domain.GeneBounds
		expectedRange  *domain.ViewingRange
	}{
		{
			name: "long gene on reverse strand",
			ncbi: &fakeNCBI{gene: &external.GeneSummaryRecord{
				Summary:     strPtr("DNA repair"),
				Organism:    &external.GeneOrganism{ScientificName: "Homo sapiens"},
				GenomicInfo: []external.GenomicInfoRecord{{ChrStart: int64Ptr(43170244), ChrStop: int64Ptr(43044294)}},
			}},
			expectedStatus: domain.GeneFound,
			expectedBounds: &domain.GeneBounds{Min: 43044294, Max: 43170244},
			expectedRange:  &domain.ViewingRange{Start: 43044294, End: 43054294},
		},
		{
			name: "short gene",
			ncbi: &fakeNCBI{gene: &external.GeneSummaryRecord{
				GenomicInfo: []external.GenomicInfoRecord{{ChrStart: int64Ptr(1000), ChrStop: int64Ptr(4000)}},
			}},
			expectedStatus: domain.GeneFound,
			expectedBounds: &domain.GeneBounds{Min: 1000, Max: 4000},
			expectedRange:  &domain.ViewingRange{Start: 1000, End: 4000},
		},
		{
			name:           "no genomic info",
			ncbi:           &fakeNCBI{gene: &external.GeneSummaryRecord{}},
			expectedStatus: domain.GeneNotFound,
		},
		{
			name:           "unknown id",
			ncbi:           &fakeNCBI{},
			expectedStatus: domain.GeneNotFound,
		},
		{
			name:           "upstream failure",
			ncbi:           &fakeNCBI{geneErr: &domain.UpstreamStatusError{Service: "eutils", StatusCode: 502, Body: "bad gateway"}},
			expectedStatus: domain.GeneUnavailable,
		},
		{
			name:           "network failure",
			ncbi:           &fakeNCBI{geneErr: &domain.NetworkError{Service: "eutils", Op: "GET", Err: context.DeadlineExceeded}},
			expectedStatus: domain.GeneUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(nil, nil, tt.ncbi, nil)
			resolution, err := svc.ResolveGene(context.Background(), "672")
			require.NoError(t, err)

			assert.Equal(t, tt.expectedStatus, resolution.Status)
			assert.Equal(t, tt.expectedBounds, resolution.Bounds)
			assert.Equal(t, tt.expectedRange, resolution.InitialRange)
			if tt.expectedStatus == domain.GeneFound {
				require.NotNil(t, resolution.Details)
				assert.Empty(t, resolution.Message)
			} else {
				assert.Nil(t, resolution.Details)
				assert.NotEmpty(t, resolution.Message)
			}
		})
	}
}

func TestResolveGene_KeepsSummaryAndOrganism(t *testing.T) {
	ncbi := &fakeNCBI{gene: &external.GeneSummaryRecord{
		Summary:     strPtr("DNA repair"),
		Organism:    &external.GeneOrganism{ScientificName: "Homo sapiens"},
		GenomicInfo: []external.GenomicInfoRecord{{ChrStart: int64Ptr(1), ChrStop: int64Ptr(2), Strand: "-"}},
	}}
	svc := newTestService(nil, nil, ncbi, nil)

	resolution, err := svc.ResolveGene(context.Background(), "672")
	require.NoError(t, err)
	assert.Equal(t, "DNA repair", resolution.Details.Summary)
	assert.Equal(t, "Homo sapiens", resolution.Details.Organism)
	assert.Equal(t, "-", resolution.Details.GenomicInfo[0].Strand)
}

func TestFetchSequence(t *testing.T) {
	ucsc := &fakeUCSC{sequence: &external.UCSCSequence{DNA: strPtr("acgtnACGTN")}}
	svc := newTestService(ucsc, nil, nil, nil)

	region, err := svc.FetchSequence(context.Background(), "17", 100, 110, "hg38")
	require.NoError(t, err)

	assert.Equal(t, int64(99), ucsc.lastSequence.start)
	assert.Equal(t, int64(110), ucsc.lastSequence.end)
	assert.Equal(t, "chr17", ucsc.lastSequence.chrom)
	assert.Equal(t, "hg38", ucsc.lastSequence.genome)

	assert.Equal(t, "ACGTNACGTN", region.Sequence)
	assert.Len(t, region.Sequence, 10)
	assert.Equal(t, domain.SequenceRange{Start: 100, End: 110}, region.ActualRange)
	assert.Empty(t, region.Error)
}

func TestFetchSequence_Degrades(t *testing.T) {
	tests := []struct {
		name          string
		ucsc          *fakeUCSC
		expectedError string
	}{
		{
			name:          "upstream reported error",
			ucsc:          &fakeUCSC{sequence: &external.UCSCSequence{Error: strPtr("invalid chrom")}},
			expectedError: "invalid chrom",
		},
		{
			name:          "missing dna",
			ucsc:          &fakeUCSC{sequence: &external.UCSCSequence{}},
			expectedError: "no sequence returned",
		},
		{
			name:          "transport failure",
			ucsc:          &fakeUCSC{err: &domain.NetworkError{Service: "ucsc", Op: "GET", Err: errors.New("connection refused")}},
			expectedError: sequenceFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.ucsc, nil, nil, nil)
			region, err := svc.FetchSequence(context.Background(), "chr1", 5, 15, "hg38")
			require.NoError(t, err)
			assert.Empty(t, region.Sequence)
			assert.Contains(t, region.Error, tt.expectedError)
			assert.Equal(t, domain.SequenceRange{Start: 5, End: 15}, region.ActualRange)
		})
	}
}

func TestFetchSequence_Validation(t *testing.T) {
	svc := newTestService(nil, nil, nil, nil)
	cases := []struct {
		chrom      string
		start, end int64
		genome     string
	}{
		{"", 1, 10, "hg38"},
		{"chr1", 0, 10, "hg38"},
		{"chr1", 10, 5, "hg38"},
		{"chr1", 1, 10, ""},
		{"chr1", 1, MaxSequenceSpan + 1, "hg38"},
	}
	for _, c := range cases {
		_, err := svc.FetchSequence(context.Background(), c.chrom, c.start, c.end, c.genome)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr), "case %+v", c)
	}
}
