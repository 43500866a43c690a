package external

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

const defaultEutilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// EutilsClient handles interactions with NCBI E-utilities for the gene and
// clinvar databases. Both share one limiter since NCBI throttles per key.
type EutilsClient struct {
	client *resilientClient
	apiKey string
	logger *logrus.Logger
}

// NewEutilsClient creates an E-utilities client. Without an API key NCBI
// allows 3 requests per second, with one 10.
func NewEutilsClient(cfg domain.UpstreamConfig, metrics *Metrics, logger *logrus.Logger) *EutilsClient {
	baseURL := cfg.EutilsBaseURL
	if baseURL == "" {
		baseURL = defaultEutilsBaseURL
	}
	rateLimit := cfg.NCBIRateLimit
	if rateLimit == 0 {
		rateLimit = 3
		if cfg.NCBIAPIKey != "" {
			rateLimit = 10
		}
	}
	rc := newResilientClient(serviceConfig{
		Name:           "eutils",
		BaseURL:        baseURL,
		UserAgent:      cfg.UserAgent,
		Timeout:        cfg.Timeout,
		RateLimit:      rateLimit,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		MaxFailures:    cfg.BreakerMaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
	}, metrics, logger)
	return &EutilsClient{client: rc, apiKey: cfg.NCBIAPIKey, logger: rc.logger}
}

func (c *EutilsClient) getJSON(ctx context.Context, endpoint string, params url.Values, dest interface{}) error {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	return c.client.getJSON(ctx, endpoint, params, dest)
}
