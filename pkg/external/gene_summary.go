package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/genome-variant-explorer/internal/domain"
)

// GenomicInfoRecord is one placement entry of an NCBI gene summary.
type GenomicInfoRecord struct {
	ChrLoc    string `json:"chrloc"`
	ChrAccVer string `json:"chraccver"`
	ChrStart  *int64 `json:"chrstart"`
	ChrStop   *int64 `json:"chrstop"`
	Strand    string `json:"strand"`
}

// GeneSummaryRecord is the esummary record of one gene.
type GeneSummaryRecord struct {
	UID         string              `json:"uid"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Summary     *string             `json:"summary"`
	Organism    *GeneOrganism       `json:"organism"`
	GenomicInfo []GenomicInfoRecord `json:"genomicinfo"`
	Error       string              `json:"error"`
}

// GeneOrganism is the organism block of a gene summary.
type GeneOrganism struct {
	ScientificName string `json:"scientificname"`
	CommonName     string `json:"commonname"`
}

// GeneSummary fetches the esummary record of a gene. A nil record with a nil
// error means NCBI returned no entry for the id.
func (c *EutilsClient) GeneSummary(ctx context.Context, geneID string) (*GeneSummaryRecord, error) {
	params := url.Values{
		"db":      {"gene"},
		"id":      {geneID},
		"retmode": {"json"},
	}

	var payload struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "esummary.fcgi", params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch gene details: %w", err)
	}
	if payload.Result == nil {
		return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "result"}
	}

	raw, ok := payload.Result[geneID]
	if !ok {
		return nil, nil
	}
	var record GeneSummaryRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "result." + geneID, Err: err}
	}
	return &record, nil
}
