package external

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Jeffail/gabs"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

const (
	defaultGeneSearchBaseURL = "https://clinicaltables.nlm.nih.gov/api/ncbi_genes/v3"

	geneSearchDisplayFields = "chromosome,Symbol,description,map_location,type_of_gene"
	geneSearchExtraFields   = "chromosome,Symbol,description,map_location,type_of_gene,GenomicInfo,GeneID"
)

// Positions of the display fields requested with df.
const (
	DisplayChromosome = iota
	DisplaySymbol
	DisplayDescription
	DisplayMapLocation
	DisplayGeneType
)

// GeneSearchRow is one display row of the search tuple. Err is set when the
// row could not be read as a list of strings.
type GeneSearchRow struct {
	Fields []string
	Err    error
}

// GeneSearchPayload is the decoded [count, fieldMap, extra, displayRows]
// tuple of the clinical tables search API.
type GeneSearchPayload struct {
	Count   int
	GeneIDs []string
	Rows    []GeneSearchRow
}

// GeneSearchClient queries the NLM clinical tables NCBI genes index.
type GeneSearchClient struct {
	client *resilientClient
}

// NewGeneSearchClient creates a gene search client from the upstream configuration.
func NewGeneSearchClient(cfg domain.UpstreamConfig, metrics *Metrics, logger *logrus.Logger) *GeneSearchClient {
	baseURL := cfg.GeneSearchBaseURL
	if baseURL == "" {
		baseURL = defaultGeneSearchBaseURL
	}
	return &GeneSearchClient{client: newResilientClient(serviceConfig{
		Name:           "gene-search",
		BaseURL:        baseURL,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		RateLimit:      cfg.NCBIRateLimit,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		MaxFailures:    cfg.BreakerMaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
	}, metrics, logger)}
}

// Search runs a term search and returns at most maxList display rows.
func (c *GeneSearchClient) Search(ctx context.Context, terms string, maxList int) (*GeneSearchPayload, error) {
	query := url.Values{
		"terms": {terms},
		"df":    {geneSearchDisplayFields},
		"ef":    {geneSearchExtraFields},
	}
	if maxList > 0 {
		query.Set("maxList", strconv.Itoa(maxList))
	}

	body, err := c.client.get(ctx, "search", query)
	if err != nil {
		return nil, fmt.Errorf("failed to search genes: %w", err)
	}
	return parseGeneSearch(body)
}

func parseGeneSearch(body []byte) (*GeneSearchPayload, error) {
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, &domain.UpstreamFormatError{Service: "gene-search", Field: "response", Err: err}
	}
	if _, ok := parsed.Data().([]interface{}); !ok {
		return nil, &domain.UpstreamFormatError{Service: "gene-search", Field: "response", Err: errors.New("expected a result tuple")}
	}

	count, ok := toInt(parsed.Index(0).Data())
	if !ok {
		return nil, &domain.UpstreamFormatError{Service: "gene-search", Field: "count"}
	}
	payload := &GeneSearchPayload{Count: count}
	if count == 0 {
		return payload, nil
	}

	if ids, err := parsed.Index(2).Path("GeneID").Children(); err == nil {
		payload.GeneIDs = make([]string, len(ids))
		for i, id := range ids {
			payload.GeneIDs[i], _ = toText(id.Data())
		}
	}

	rows, err := parsed.Index(3).Children()
	if err != nil {
		return payload, nil
	}
	for _, row := range rows {
		payload.Rows = append(payload.Rows, parseDisplayRow(row))
	}
	return payload, nil
}

func parseDisplayRow(row *gabs.Container) GeneSearchRow {
	if _, ok := row.Data().([]interface{}); !ok {
		return GeneSearchRow{Err: errors.New("display row is not a list")}
	}
	cells, err := row.Children()
	if err != nil {
		return GeneSearchRow{Err: err}
	}
	fields := make([]string, len(cells))
	for i, cell := range cells {
		if cell.Data() == nil {
			continue
		}
		s, ok := cell.Data().(string)
		if !ok {
			return GeneSearchRow{Err: fmt.Errorf("display field %d is not a string", i)}
		}
		fields[i] = s
	}
	return GeneSearchRow{Fields: fields}
}
