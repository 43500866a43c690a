package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/genome-variant-explorer/internal/domain"
)

const maxResponseBytes = 32 << 20

// serviceConfig configures one resilient upstream.
type serviceConfig struct {
	Name           string
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	RateLimit      float64
	MaxRetries     int
	RetryBaseDelay time.Duration
	MaxFailures    uint32
	BreakerTimeout time.Duration
}

// resilientClient performs rate-limited, circuit-broken, retried HTTP calls
// against a single upstream and classifies failures into the domain error
// taxonomy.
type resilientClient struct {
	name       string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
	metrics    *Metrics
	logger     *logrus.Logger
}

func newResilientClient(cfg serviceConfig, metrics *Metrics, logger *logrus.Logger) *resilientClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = 200 * time.Millisecond
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "genome-variant-explorer/1.0"
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(math.Ceil(cfg.RateLimit)))
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// Only transport failures and 5xx count against the upstream.
			return err == nil || errors.Is(err, context.Canceled) || !domain.IsRetryable(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Upstream circuit breaker changed state")
		},
	})

	return &resilientClient{
		name:       cfg.Name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		breaker:    breaker,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryBaseDelay,
		metrics:    metrics,
		logger:     logger,
	}
}

// endpoint joins the base URL, path and query.
func (c *resilientClient) endpoint(path string, query url.Values) string {
	u := c.baseURL
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// getJSON fetches path and decodes the body into dest. Transient failures
// are retried up to maxRetries times.
func (c *resilientClient) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &domain.UpstreamFormatError{Service: c.name, Field: path, Err: err}
	}
	return nil
}

// get fetches path and returns the raw body of a 2xx response.
func (c *resilientClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.withRetry(ctx, http.MethodGet, c.endpoint(path, query), nil, c.maxRetries)
}

// postJSON sends payload as JSON and decodes the reply into dest. attempts
// bounds the total number of submissions.
func (c *resilientClient) postJSON(ctx context.Context, path string, payload, dest interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", c.name, err)
	}
	if attempts < 1 {
		attempts = 1
	}
	body, err := c.withRetry(ctx, http.MethodPost, c.endpoint(path, nil), data, attempts-1)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &domain.UpstreamFormatError{Service: c.name, Field: "response body", Err: err}
	}
	return nil
}

func (c *resilientClient) withRetry(ctx context.Context, method, endpoint string, payload []byte, retries int) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryDelay
	policy.MaxInterval = 10 * c.retryDelay
	policy.MaxElapsedTime = 0

	var (
		body    []byte
		attempt int
	)
	operation := func() error {
		attempt++
		b, err := c.attempt(ctx, method, endpoint, payload)
		if err != nil {
			if domain.IsRetryable(err) && ctx.Err() == nil {
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.metrics.retry(c.name)
		c.logger.WithFields(logrus.Fields{
			"service": c.name,
			"method":  method,
			"attempt": attempt,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Warn("Retrying upstream request")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(retries, 0))), ctx), notify)
	if err != nil {
		var (
			netErr    *domain.NetworkError
			statusErr *domain.UpstreamStatusError
		)
		if !errors.As(err, &netErr) && !errors.As(err, &statusErr) && ctx.Err() != nil {
			err = &domain.NetworkError{Service: c.name, Op: method, Err: err}
		}
		return nil, err
	}
	return body, nil
}

func (c *resilientClient) attempt(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.NetworkError{Service: c.name, Op: method, Err: err}
	}

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, endpoint, payload)
	})
	elapsed := time.Since(start)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.observe(c.name, outcomeCircuitOpen, elapsed)
		return nil, &domain.NetworkError{Service: c.name, Op: method, Err: fmt.Errorf("%w: %v", domain.ErrCircuitOpen, err)}
	}
	if err != nil {
		var statusErr *domain.UpstreamStatusError
		if errors.As(err, &statusErr) {
			c.metrics.observe(c.name, outcomeStatusError, elapsed)
		} else {
			c.metrics.observe(c.name, outcomeNetwork, elapsed)
		}
		return nil, err
	}

	c.metrics.observe(c.name, outcomeSuccess, elapsed)
	c.logger.WithFields(logrus.Fields{
		"service":  c.name,
		"method":   method,
		"duration": elapsed.String(),
	}).Debug("Upstream request completed")
	return result.([]byte), nil
}

func (c *resilientClient) roundTrip(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Service: c.name, Op: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.NetworkError{Service: c.name, Op: method, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamStatusError{
			Service:    c.name,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, nil
}
