package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

const defaultUCSCBaseURL = "https://api.genome.ucsc.edu"

// UCSCGenome is one entry of the UCSC assembly catalog. Optional fields are
// pointers so absence is distinguishable from an empty value.
type UCSCGenome struct {
	ID          string   `json:"-"`
	Organism    *string  `json:"organism"`
	Description *string  `json:"description"`
	SourceName  *string  `json:"sourceName"`
	Active      flexBool `json:"active"`
}

// UCSCSequence is the sequence service payload. UCSC reports failures as a
// JSON error field, sometimes with a non-2xx status.
type UCSCSequence struct {
	DNA   *string `json:"dna"`
	Error *string `json:"error"`
}

// UCSCClient talks to the UCSC Genome Browser REST API.
type UCSCClient struct {
	client *resilientClient
	logger *logrus.Logger
}

// NewUCSCClient creates a UCSC client from the upstream configuration.
func NewUCSCClient(cfg domain.UpstreamConfig, metrics *Metrics, logger *logrus.Logger) *UCSCClient {
	baseURL := cfg.UCSCBaseURL
	if baseURL == "" {
		baseURL = defaultUCSCBaseURL
	}
	rc := newResilientClient(serviceConfig{
		Name:           "ucsc",
		BaseURL:        baseURL,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		RateLimit:      cfg.UCSCRateLimit,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		MaxFailures:    cfg.BreakerMaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
	}, metrics, logger)
	return &UCSCClient{client: rc, logger: rc.logger}
}

// Genomes lists the assembly catalog in upstream order.
func (c *UCSCClient) Genomes(ctx context.Context) ([]UCSCGenome, error) {
	body, err := c.client.get(ctx, "list/ucscGenomes", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch genome list: %w", err)
	}
	genomes, err := decodeOrderedGenomes(body)
	if err != nil {
		return nil, err
	}
	return genomes, nil
}

// decodeOrderedGenomes walks the ucscGenomes object token by token so the
// upstream key order survives. Entries that are not objects are dropped.
func decodeOrderedGenomes(body []byte) ([]UCSCGenome, error) {
	var envelope struct {
		UCSCGenomes json.RawMessage `json:"ucscGenomes"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes", Err: err}
	}
	raw := bytes.TrimSpace(envelope.UCSCGenomes)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes", Err: errors.New("expected an object")}
	}

	var genomes []UCSCGenome
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes", Err: err}
		}
		id, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "ucscGenomes." + id, Err: err}
		}
		var genome UCSCGenome
		if err := json.Unmarshal(value, &genome); err != nil {
			continue
		}
		genome.ID = id
		genomes = append(genomes, genome)
	}
	return genomes, nil
}

// Chromosomes returns the chromosome size map of a genome.
func (c *UCSCClient) Chromosomes(ctx context.Context, genome string) (map[string]int64, error) {
	var payload struct {
		Chromosomes map[string]int64 `json:"chromosomes"`
	}
	query := url.Values{"genome": {genome}}
	if err := c.client.getJSON(ctx, "list/chromosomes", query, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch chromosome list: %w", err)
	}
	if payload.Chromosomes == nil {
		return nil, &domain.UpstreamFormatError{Service: "ucsc", Field: "chromosomes"}
	}
	return payload.Chromosomes, nil
}

// Sequence fetches bases for a 0-based half-open range. An error reported
// by UCSC in the body is returned as payload, not as a Go error.
func (c *UCSCClient) Sequence(ctx context.Context, genome, chrom string, start, end int64) (*UCSCSequence, error) {
	query := url.Values{
		"genome": {genome},
		"chrom":  {chrom},
		"start":  {strconv.FormatInt(start, 10)},
		"end":    {strconv.FormatInt(end, 10)},
	}

	var payload UCSCSequence
	err := c.client.getJSON(ctx, "getData/sequence", query, &payload)
	if err == nil {
		return &payload, nil
	}

	var statusErr *domain.UpstreamStatusError
	if errors.As(err, &statusErr) {
		var reported UCSCSequence
		if jsonErr := json.Unmarshal([]byte(statusErr.Body), &reported); jsonErr == nil && reported.Error != nil {
			c.logger.WithFields(logrus.Fields{
				"genome": genome,
				"chrom":  chrom,
				"status": statusErr.StatusCode,
			}).Debug("UCSC reported a sequence error")
			return &reported, nil
		}
	}
	return nil, err
}
