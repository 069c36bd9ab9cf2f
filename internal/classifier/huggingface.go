package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smartspend/smartspend/internal/common"
	"github.com/smartspend/smartspend/internal/service"
)

// DefaultEndpoint is the hosted zero-shot model used when none is configured.
const DefaultEndpoint = "https://router.huggingface.co/models/valhalla/distilbart-mnli-12-1"

const (
	defaultTimeout     = 40 * time.Second
	defaultMinInterval = time.Second
)

// defaultRetry bounds transient-failure retries per Classify call. Rate
// limits jump straight to MaxDelay, so it stays small.
var defaultRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     8 * time.Second,
	Multiplier:   2.0,
}

// Config holds configuration for the hosted classifier client.
type Config struct {
	Token       string
	Endpoint    string
	Timeout     time.Duration
	MinInterval time.Duration
	Retry       service.RetryOptions
}

// HFClient implements Client against a HuggingFace-style zero-shot
// inference endpoint.
type HFClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	token      string
	endpoint   string
	pacer      pacer
	retry      service.RetryOptions
}

// NewHFClient creates a classifier client. An empty token is valid: the
// client then answers every request with a no_credential failure without
// touching the network.
func NewHFClient(cfg Config, logger *slog.Logger) *HFClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = defaultMinInterval
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry = defaultRetry
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HFClient{
		token:    cfg.Token,
		endpoint: cfg.Endpoint,
		pacer:    pacer{interval: cfg.MinInterval},
		retry:    cfg.Retry,
		logger:   logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type classifyRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters classifyParameters `json:"parameters"`
}

type classifyParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

type classifyResult struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// Classify sends a zero-shot classification request and returns the
// top-ranked label. Connection failures and rate limiting are retried
// with backoff; every exhausted or permanent failure comes back as an
// *Error with a reason so the caller can fall back to Uncategorized.
func (c *HFClient) Classify(ctx context.Context, text string) (string, error) {
	if c.token == "" {
		c.logger.Debug("No classifier token configured, skipping remote call")
		return "", &Error{Reason: ReasonNoCredential}
	}

	var (
		label   string
		lastErr error
	)
	err := common.WithRetry(ctx, func() error {
		got, err := c.classifyOnce(ctx, text)
		if err != nil {
			lastErr = err
			return &common.RetryableError{Err: err, Retryable: retryable(err)}
		}
		label = got
		return nil
	}, c.retry)
	if err != nil {
		// Hand back the classified failure, not the retry wrapper.
		if lastErr != nil {
			return "", lastErr
		}
		return "", err
	}

	return label, nil
}

// retryable reports whether another attempt could plausibly succeed.
// Only transport failures and rate limiting qualify; a bad status or a
// malformed body will not fix itself within one batch row.
func retryable(err error) bool {
	if errors.Is(err, common.ErrRateLimit) {
		return true
	}
	var cerr *Error
	return errors.As(err, &cerr) && cerr.Reason == ReasonTransport
}

// classifyOnce performs a single request round-trip. After a completed
// round-trip the client pauses for the minimum inter-call interval before
// returning.
func (c *HFClient) classifyOnce(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(classifyRequest{
		Inputs:     text,
		Parameters: classifyParameters{CandidateLabels: Labels()},
	})
	if err != nil {
		return "", &Error{Reason: ReasonMalformed, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Reason: ReasonTransport, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Reason: ReasonTransport, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Reason: ReasonTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("Classifier endpoint rate limited the request")
		return "", &Error{
			Reason: ReasonStatus,
			Err:    fmt.Errorf("%w: %s", common.ErrRateLimit, truncate(string(respBody), 200)),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Classifier endpoint returned error status",
			"status", resp.StatusCode)
		return "", &Error{
			Reason: ReasonStatus,
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(respBody), 200)),
		}
	}

	// Free-tier quota allows one request per second; pay the delay now so
	// callers in a batch loop cannot exceed it.
	defer c.pacer.pause(ctx)

	var results []classifyResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return "", &Error{Reason: ReasonMalformed, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(results) == 0 || len(results[0].Labels) == 0 {
		return "", &Error{Reason: ReasonMalformed, Err: fmt.Errorf("response missing labels")}
	}

	// Labels arrive ordered by confidence descending.
	return results[0].Labels[0], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
