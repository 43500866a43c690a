// Package mcp exposes the genome browser operations as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/service"
)

// Server represents the genome explorer MCP server
type Server struct {
	mcpServer *mcp.Server
	browser   service.GenomeBrowser
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers every tool.
func NewServer(cfg domain.MCPConfig, browser service.GenomeBrowser, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	name := cfg.ServerName
	if name == "" {
		name = "genome-variant-explorer"
	}
	version := cfg.ServerVersion
	if version == "" {
		version = "v0.1.0"
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		browser:   browser,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Run serves MCP over stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting genome explorer MCP server on stdio")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// MCPServer returns the underlying SDK server, e.g. to attach another transport.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcpServer
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_genomes",
		Description: "List the reference genome assemblies available, grouped by organism.",
	}, s.handleListGenomes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_chromosomes",
		Description: "List the primary chromosomes of a genome assembly in karyotype order with their sizes.",
	}, s.handleListChromosomes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_genes",
		Description: "Search genes by symbol or free text. Returns at most 10 candidates.",
	}, s.handleSearchGenes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_gene",
		Description: "Resolve an NCBI gene id to its genomic bounds and a default viewing range.",
	}, s.handleGetGene)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_sequence",
		Description: "Fetch the reference bases of a 1-based inclusive chromosome range.",
	}, s.handleGetSequence)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_clinvar_variants",
		Description: "List ClinVar variants overlapping a chromosome interval.",
	}, s.handleGetClinvarVariants)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_variant",
		Description: "Score a single-nucleotide variant with the pathogenicity prediction backend.",
	}, s.handleAnalyzeVariant)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "analyze_variants",
		Description: "Score several single-nucleotide variants. One failure does not affect the others.",
	}, s.handleAnalyzeVariants)

	s.logger.WithField("tool_count", 8).Debug("Registered MCP tools")
}
