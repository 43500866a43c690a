package external

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
)

// MaxAnalysisAttempts caps submissions of one variant during backend outages.
const MaxAnalysisAttempts = 3

// AnalysisPayload is the body posted to the prediction backend.
type AnalysisPayload struct {
	VariantPosition string `json:"variant_position"`
	Alternative     string `json:"alternative"`
	Genome          string `json:"genome"`
	Chromosome      string `json:"chromosome"`
}

// AnalysisReply is the verdict of the prediction backend.
type AnalysisReply struct {
	Position                 int64   `json:"position"`
	Reference                string  `json:"reference"`
	Alternative              string  `json:"alternative"`
	DeltaScore               float64 `json:"delta_score"`
	Prediction               string  `json:"prediction"`
	ClassificationConfidence float64 `json:"classification_confidence"`
}

// PredictionClient submits single-nucleotide variants to the remote
// variant effect predictor.
type PredictionClient struct {
	client   *resilientClient
	attempts int
}

// NewPredictionClient creates a client posting to cfg.PredictionBaseURL.
func NewPredictionClient(cfg domain.UpstreamConfig, metrics *Metrics, logger *logrus.Logger) (*PredictionClient, error) {
	if cfg.PredictionBaseURL == "" {
		return nil, errors.New("prediction backend endpoint is not configured")
	}
	timeout := cfg.AnalysisTimeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	attempts := cfg.AnalysisAttempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts > MaxAnalysisAttempts {
		attempts = MaxAnalysisAttempts
	}
	return &PredictionClient{
		client: newResilientClient(serviceConfig{
			Name:           "prediction",
			BaseURL:        cfg.PredictionBaseURL,
			UserAgent:      cfg.UserAgent,
			Timeout:        timeout,
			MaxFailures:    cfg.BreakerMaxFailures,
			BreakerTimeout: cfg.BreakerTimeout,
			RetryBaseDelay: cfg.RetryBaseDelay,
		}, metrics, logger),
		attempts: attempts,
	}, nil
}

// Analyze posts one variant and returns the backend verdict. A non-2xx
// answer is returned as an error carrying the response body.
func (c *PredictionClient) Analyze(ctx context.Context, position int64, alternative, genome, chromosome string) (*AnalysisReply, error) {
	payload := AnalysisPayload{
		VariantPosition: strconv.FormatInt(position, 10),
		Alternative:     alternative,
		Genome:          genome,
		Chromosome:      chromosome,
	}

	var reply AnalysisReply
	if err := c.client.postJSON(ctx, "", payload, &reply, c.attempts); err != nil {
		return nil, fmt.Errorf("failed to analyze variant: %w", err)
	}
	return &reply, nil
}
