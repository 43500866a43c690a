package external

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

// ClinvarSearchPageSize is the number of ids requested from esearch.
const ClinvarSearchPageSize = 20

// ClinvarSummaryRecord is one esummary record of the clinvar database.
type ClinvarSummaryRecord struct {
	UID                    string                  `json:"uid"`
	Title                  *string                 `json:"title"`
	ObjType                *string                 `json:"obj_type"`
	GermlineClassification *GermlineClassification `json:"germline_classification"`
	GeneSort               *string                 `json:"gene_sort"`
	LocationSort           flexString              `json:"location_sort"`
}

// GermlineClassification is the germline classification block of a record.
type GermlineClassification struct {
	Description *string `json:"description"`
}

// ClinvarSummaryPayload holds records keyed by uid plus the uid order.
// Records that failed to decode are absent from Records.
type ClinvarSummaryPayload struct {
	UIDs    []string
	Records map[string]ClinvarSummaryRecord
}

// SearchClinvar runs esearch against clinvar and returns the id list.
func (c *EutilsClient) SearchClinvar(ctx context.Context, term string, retmax int) ([]string, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"term":    {term},
		"retmode": {"json"},
		"retmax":  {strconv.Itoa(retmax)},
	}

	var payload struct {
		ESearchResult *struct {
			IDList []string `json:"idlist"`
			Error  string   `json:"ERROR"`
		} `json:"esearchresult"`
	}
	if err := c.getJSON(ctx, "esearch.fcgi", params, &payload); err != nil {
		return nil, fmt.Errorf("ClinVar search failed: %w", err)
	}
	if payload.ESearchResult == nil {
		return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "esearchresult"}
	}
	if payload.ESearchResult.Error != "" {
		return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "esearchresult", Err: errors.New(payload.ESearchResult.Error)}
	}
	return payload.ESearchResult.IDList, nil
}

// SummarizeClinvar fetches esummary records for ids in one call.
func (c *EutilsClient) SummarizeClinvar(ctx context.Context, ids []string) (*ClinvarSummaryPayload, error) {
	params := url.Values{
		"db":      {"clinvar"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}

	var payload struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "esummary.fcgi", params, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch variant details: %w", err)
	}
	if payload.Result == nil {
		return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "result"}
	}

	summary := &ClinvarSummaryPayload{Records: make(map[string]ClinvarSummaryRecord)}
	if raw, ok := payload.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &summary.UIDs); err != nil {
			return nil, &domain.UpstreamFormatError{Service: "eutils", Field: "result.uids", Err: err}
		}
	}
	for _, uid := range summary.UIDs {
		raw, ok := payload.Result[uid]
		if !ok {
			continue
		}
		var record ClinvarSummaryRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			c.logger.WithFields(logrus.Fields{
				"uid":   uid,
				"error": err.Error(),
			}).Warn("Dropping undecodable ClinVar summary record")
			continue
		}
		summary.Records[uid] = record
	}
	return summary, nil
}
