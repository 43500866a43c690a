package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/genome-variant-explorer/internal/domain"
)

const maxToolBatch = 100

// ListGenomesParams takes no arguments.
type ListGenomesParams struct{}

// ListChromosomesParams are the arguments of list_chromosomes.
type ListChromosomesParams struct {
	Genome string `json:"genome" jsonschema:"assembly id such as hg38"`
}

// SearchGenesParams are the arguments of search_genes.
type SearchGenesParams struct {
	Query  string `json:"query" jsonschema:"gene symbol or free text"`
	Genome string `json:"genome,omitempty" jsonschema:"assembly id, defaults to hg38"`
}

// GetGeneParams are the arguments of get_gene.
type GetGeneParams struct {
	GeneID string `json:"gene_id" jsonschema:"NCBI gene id such as 672"`
}

// GetSequenceParams are the arguments of get_sequence.
type GetSequenceParams struct {
	Genome     string `json:"genome,omitempty" jsonschema:"assembly id, defaults to hg38"`
	Chromosome string `json:"chromosome" jsonschema:"chromosome name such as chr17 or 17"`
	Start      int64  `json:"start" jsonschema:"first base, 1-based"`
	End        int64  `json:"end" jsonschema:"last base, inclusive"`
}

// GetClinvarVariantsParams are the arguments of get_clinvar_variants.
type GetClinvarVariantsParams struct {
	Genome     string `json:"genome,omitempty" jsonschema:"assembly id, defaults to hg38"`
	Chromosome string `json:"chromosome" jsonschema:"chromosome name such as chr17 or 17"`
	Min        int64  `json:"min" jsonschema:"interval start"`
	Max        int64  `json:"max" jsonschema:"interval end"`
}

// AnalyzeVariantParams are the arguments of analyze_variant.
type AnalyzeVariantParams struct {
	Genome      string `json:"genome,omitempty" jsonschema:"assembly id, defaults to hg38"`
	Chromosome  string `json:"chromosome" jsonschema:"chromosome name such as chr17"`
	Position    int64  `json:"position" jsonschema:"1-based position of the variant"`
	Reference   string `json:"reference,omitempty" jsonschema:"reference base, optional"`
	Alternative string `json:"alternative" jsonschema:"alternative base A, C, G or T"`
}

// AnalyzeVariantsParams are the arguments of analyze_variants.
type AnalyzeVariantsParams struct {
	Variants []AnalyzeVariantParams `json:"variants" jsonschema:"variants to score"`
}

func (p AnalyzeVariantParams) request() domain.VariantAnalysisRequest {
	return domain.VariantAnalysisRequest{
		Chromosome:  p.Chromosome,
		Position:    p.Position,
		Reference:   p.Reference,
		Alternative: p.Alternative,
		Genome:      genomeOrDefault(p.Genome),
	}
}

func (s *Server) handleListGenomes(ctx context.Context, _ *mcp.CallToolRequest, _ ListGenomesParams) (*mcp.CallToolResult, any, error) {
	directory, err := s.browser.ListAssemblies(ctx)
	return s.respond("list_genomes", directory, err)
}

func (s *Server) handleListChromosomes(ctx context.Context, _ *mcp.CallToolRequest, params ListChromosomesParams) (*mcp.CallToolResult, any, error) {
	chromosomes, err := s.browser.ListChromosomes(ctx, params.Genome)
	if err != nil {
		return s.respond("list_chromosomes", nil, err)
	}
	return s.respond("list_chromosomes", map[string]any{"genome": params.Genome, "chromosomes": chromosomes}, nil)
}

func (s *Server) handleSearchGenes(ctx context.Context, _ *mcp.CallToolRequest, params SearchGenesParams) (*mcp.CallToolResult, any, error) {
	result, err := s.browser.SearchGenes(ctx, params.Query, genomeOrDefault(params.Genome))
	return s.respond("search_genes", result, err)
}

func (s *Server) handleGetGene(ctx context.Context, _ *mcp.CallToolRequest, params GetGeneParams) (*mcp.CallToolResult, any, error) {
	resolution, err := s.browser.ResolveGene(ctx, params.GeneID)
	return s.respond("get_gene", resolution, err)
}

func (s *Server) handleGetSequence(ctx context.Context, _ *mcp.CallToolRequest, params GetSequenceParams) (*mcp.CallToolResult, any, error) {
	region, err := s.browser.FetchSequence(ctx, params.Chromosome, params.Start, params.End, genomeOrDefault(params.Genome))
	return s.respond("get_sequence", region, err)
}

func (s *Server) handleGetClinvarVariants(ctx context.Context, _ *mcp.CallToolRequest, params GetClinvarVariantsParams) (*mcp.CallToolResult, any, error) {
	bounds := domain.GeneBounds{Min: params.Min, Max: params.Max}
	lookup, err := s.browser.ResolveVariants(ctx, params.Chromosome, bounds, genomeOrDefault(params.Genome))
	return s.respond("get_clinvar_variants", lookup, err)
}

func (s *Server) handleAnalyzeVariant(ctx context.Context, _ *mcp.CallToolRequest, params AnalyzeVariantParams) (*mcp.CallToolResult, any, error) {
	result, err := s.browser.AnalyzeVariant(ctx, params.request())
	return s.respond("analyze_variant", result, err)
}

func (s *Server) handleAnalyzeVariants(ctx context.Context, _ *mcp.CallToolRequest, params AnalyzeVariantsParams) (*mcp.CallToolResult, any, error) {
	switch {
	case len(params.Variants) == 0:
		return s.respond("analyze_variants", nil, domain.NewValidationError("variants", "at least one variant is required", 0))
	case len(params.Variants) > maxToolBatch:
		return s.respond("analyze_variants", nil, domain.NewValidationError("variants", "too many variants in one call", len(params.Variants)))
	}

	reqs := make([]domain.VariantAnalysisRequest, len(params.Variants))
	for i, v := range params.Variants {
		reqs[i] = v.request()
	}
	outcomes := s.browser.AnalyzeVariants(ctx, reqs)
	return s.respond("analyze_variants", map[string]any{"outcomes": outcomes}, nil)
}

// respond renders value as indented JSON text, or err as an error result.
// Tool failures are reported in-band so the client sees the message.
func (s *Server) respond(tool string, value any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		s.logger.WithError(err).WithField("tool", tool).Warn("Tool call failed")
		apiErr := domain.NewAPIError(domain.ErrorCode(err), err.Error(), "", "")
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: mustIndent(apiErr)}},
		}, nil, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: mustIndent(value)}},
	}, nil, nil
}

func mustIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"code":%q,"message":%q}`, domain.ErrInternalServer, err.Error())
	}
	return string(data)
}

func genomeOrDefault(genome string) string {
	if genome == "" {
		return "hg38"
	}
	return genome
}
