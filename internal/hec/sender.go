package hec

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/austindbirch/hec_forward/internal/config"
	"github.com/austindbirch/hec_forward/internal/logging"
	"github.com/austindbirch/hec_forward/internal/metrics"
	"github.com/austindbirch/hec_forward/internal/tracing"
)

// Result reports the outcome of one Send call. OK is false only after every
// attempt failed; Err and Status describe the last attempt.
type Result struct {
	OK       bool
	Attempts int
	Status   int
	Err      error
}

// Client posts serialized envelopes to a single collector endpoint with
// bounded retries. At most one request is in flight per Send call; the
// destination may still see duplicates if a response is lost after the
// collector accepted the event.
type Client struct {
	url         string
	token       string
	maxAttempts int
	backoffUnit time.Duration
	httpClient  *http.Client
	logger      *logging.Logger

	sleep func(time.Duration)
}

// NewClient builds a sender from the immutable run configuration.
func NewClient(cfg config.Config, logger *logging.Logger) *Client {
	transport := http.DefaultTransport
	if cfg.HEC.SkipTLSVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{
		url:         cfg.CollectorURL(),
		token:       cfg.HEC.Token,
		maxAttempts: cfg.Sender.MaxAttempts,
		backoffUnit: cfg.Sender.BackoffUnit,
		httpClient: &http.Client{
			Timeout:   cfg.Sender.Timeout,
			Transport: transport,
		},
		logger: logger,
		sleep:  time.Sleep,
	}
}

// Send posts body to the collector, retrying transport errors, timeouts and
// non-2xx statuses with exponential backoff (unit << attempt, attempt counted
// from 0). After the final attempt fails it logs the failure and returns a
// failed Result; the caller decides whether to keep processing.
func (c *Client) Send(ctx context.Context, body []byte) Result {
	ctx, span := tracing.StartSpan(ctx, "hec.send",
		attribute.String("url", c.url),
		attribute.Int("bytes", len(body)),
	)
	defer span.End()

	var lastStatus int
	var lastErr error

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		status, err := c.post(ctx, body)
		if err == nil && status >= 200 && status < 300 {
			span.SetAttributes(
				attribute.Int("http.status_code", status),
				attribute.Int("attempts", attempt+1),
			)
			metrics.RecordSend(true)
			return Result{OK: true, Attempts: attempt + 1, Status: status}
		}

		lastStatus = status
		lastErr = err
		reason := classifyReason(err, status)
		metrics.RecordRetry(reason)
		tracing.AddSpanEvent(ctx, "hec.attempt_failed",
			attribute.Int("attempt", attempt),
			attribute.Int("http.status_code", status),
			attribute.String("reason", reason),
		)
		c.logger.WithContext(ctx).WithURL(c.url).WithError(err).WithFields(map[string]any{
			"attempt": attempt,
			"status":  status,
			"reason":  reason,
		}).Warn("send attempt failed")

		if attempt < c.maxAttempts-1 {
			c.sleep(c.backoffUnit << attempt)
		}
	}

	tracing.SetSpanError(ctx, lastErr)
	c.logger.WithContext(ctx).WithURL(c.url).WithError(lastErr).WithFields(map[string]any{
		"attempts": c.maxAttempts,
		"status":   lastStatus,
	}).Error("event dropped after exhausting retries")
	metrics.RecordSend(false)
	return Result{OK: false, Attempts: c.maxAttempts, Status: lastStatus, Err: lastErr}
}

// post performs a single request. A non-nil error means the request never
// produced a response.
func (c *Client) post(ctx context.Context, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Splunk "+c.token)
	tracing.InjectHTTP(ctx, req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	// Drain before closing so the connection goes back to the pool.
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func classifyReason(doErr error, status int) string {
	if doErr != nil {
		errLower := strings.ToLower(doErr.Error())
		if strings.Contains(errLower, "timeout") {
			return "timeout"
		}
		if strings.Contains(errLower, "connection refused") {
			return "connection_refused"
		}
		if strings.Contains(errLower, "no such host") || strings.Contains(errLower, "dns") {
			return "dns_error"
		}
		return "network"
	}
	if status >= 500 {
		return "http_5xx"
	}
	if status == 429 {
		return "http_429"
	}
	if status >= 400 {
		return "http_4xx"
	}
	return "other"
}
