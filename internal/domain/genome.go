package domain

// GenomeAssembly represents a reference genome build offered by the assembly catalog.
type GenomeAssembly struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SourceName string `json:"sourceName"`
	Active     bool   `json:"active"`
	Organism   string `json:"organism"`
}

// OrganismGroup is the set of assemblies sharing one organism label.
type OrganismGroup struct {
	Organism   string           `json:"organism"`
	Assemblies []GenomeAssembly `json:"assemblies"`
}

// AssemblyDirectory groups assemblies by organism. Groups appear in the
// order their organism was first seen upstream.
type AssemblyDirectory struct {
	Organisms []OrganismGroup `json:"organisms"`
}

// Lookup returns the assembly with the given id.
func (d *AssemblyDirectory) Lookup(id string) (GenomeAssembly, bool) {
	for _, group := range d.Organisms {
		for _, assembly := range group.Assemblies {
			if assembly.ID == id {
				return assembly, true
			}
		}
	}
	return GenomeAssembly{}, false
}

// Chromosome is a primary chromosome of an assembly.
type Chromosome struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// GeneSummary is one candidate gene returned by a search.
type GeneSummary struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Chromosome  string `json:"chrom"`
	Description string `json:"description"`
	MapLocation string `json:"map_location,omitempty"`
	GeneID      string `json:"gene_id"`
}

// GeneSearchResult is one page of gene search results.
type GeneSearchResult struct {
	Query   string        `json:"query"`
	Genome  string        `json:"genome"`
	Results []GeneSummary `json:"results"`
}

// GenomicInfo is the placement of a gene on a chromosome as reported upstream.
type GenomicInfo struct {
	ChrStart int64  `json:"chrstart"`
	ChrStop  int64  `json:"chrstop"`
	Strand   string `json:"strand,omitempty"`
}

// GeneDetails is the per-gene summary record.
type GeneDetails struct {
	GeneID      string        `json:"gene_id"`
	GenomicInfo []GenomicInfo `json:"genomicinfo"`
	Summary     string        `json:"summary,omitempty"`
	Organism    string        `json:"organism,omitempty"`
}

// GeneBounds is the genomic extent of a gene with Min <= Max.
type GeneBounds struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// Span returns Max - Min.
func (b GeneBounds) Span() int64 { return b.Max - b.Min }

// ViewingRange is the default window shown for a gene.
type ViewingRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// GeneResolutionStatus tells a found gene from an absent one and from an
// upstream failure.
type GeneResolutionStatus string

const (
	GeneFound       GeneResolutionStatus = "found"
	GeneNotFound    GeneResolutionStatus = "not_found"
	GeneUnavailable GeneResolutionStatus = "unavailable"
)

// GeneResolution is the outcome of resolving a gene id. When Status is not
// GeneFound every pointer field is nil and Message explains why.
type GeneResolution struct {
	GeneID       string               `json:"gene_id"`
	Status       GeneResolutionStatus `json:"status"`
	Message      string               `json:"message,omitempty"`
	Details      *GeneDetails         `json:"geneDetails"`
	Bounds       *GeneBounds          `json:"geneBounds"`
	InitialRange *ViewingRange        `json:"initialRange"`
}

// SequenceRange is a 1-based inclusive range as requested by a caller.
type SequenceRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SequenceRegion holds the bases of a chromosome range. ActualRange echoes
// the request; len(Sequence) is what was obtained.
type SequenceRegion struct {
	Chromosome  string        `json:"chromosome"`
	Genome      string        `json:"genome"`
	Sequence    string        `json:"sequence"`
	ActualRange SequenceRange `json:"actualRange"`
	Error       string        `json:"error,omitempty"`
}

// ClinvarVariant is a clinical variant overlapping a queried interval.
type ClinvarVariant struct {
	ClinvarID      string                 `json:"clinvar_id"`
	Title          string                 `json:"title"`
	VariationType  string                 `json:"variation_type"`
	Classification string                 `json:"classification"`
	GeneSort       string                 `json:"gene_sort"`
	Chromosome     string                 `json:"chromosome"`
	Location       string                 `json:"location"`
	Position       int64                  `json:"position,omitempty"`
	Analysis       *VariantAnalysisResult `json:"evo2Result,omitempty"`
	AnalysisError  string                 `json:"evo2Error,omitempty"`
}

// ClinvarLookup is the set of clinical variants for one interval. Error is
// set when an upstream failure left Variants empty.
type ClinvarLookup struct {
	Chromosome string           `json:"chromosome"`
	Genome     string           `json:"genome"`
	Bounds     GeneBounds       `json:"bounds"`
	Variants   []ClinvarVariant `json:"variants"`
	Error      string           `json:"error,omitempty"`
}

// VariantAnalysisRequest is one single-nucleotide variant to score.
type VariantAnalysisRequest struct {
	Chromosome  string `json:"chromosome"`
	Position    int64  `json:"position"`
	Reference   string `json:"reference,omitempty"`
	Alternative string `json:"alternative"`
	Genome      string `json:"genome"`
}

// VariantAnalysisResult is the prediction backend verdict.
type VariantAnalysisResult struct {
	Position                 int64   `json:"position"`
	Reference                string  `json:"reference"`
	Alternative              string  `json:"alternative"`
	DeltaScore               float64 `json:"delta_score"`
	Prediction               string  `json:"prediction"`
	ClassificationConfidence float64 `json:"classification_confidence"`
}

// VariantAnalysisOutcome pairs a request with either its result or its error.
type VariantAnalysisOutcome struct {
	Index   int                    `json:"index"`
	Request VariantAnalysisRequest `json:"request"`
	Result  *VariantAnalysisResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
