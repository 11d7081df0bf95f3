package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/onegreenvn/campaign-builder-backend/internal/metrics"
)

// ErrGatewayRejected is returned when every attempt failed.
var ErrGatewayRejected = errors.New("gateway: generation webhook rejected the campaign")

// Shape names a request body layout.
type Shape string

const (
	ShapeFlat    Shape = "flat"
	ShapeWrapped Shape = "wrapped"
)

// maxResponseBytes bounds how much of a webhook response is read.
const maxResponseBytes = 1 << 20

type attempt struct {
	shape  Shape
	encode func(Payload) ([]byte, error)
}

// attempts is the fixed dispatch strategy: the flat body first, then once
// more with the wrapped envelope. There is no backoff.
var attempts = []attempt{
	{shape: ShapeFlat, encode: func(p Payload) ([]byte, error) { return json.Marshal(p) }},
	{shape: ShapeWrapped, encode: func(p Payload) ([]byte, error) {
		return json.Marshal(wrappedPayload{Payload: p, Source: p.Source, Action: p.Action})
	}},
}

// Client posts payloads to the generation webhook.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics records attempt counts and latency.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func NewClient(url string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dispatch sends p and returns the webhook's answer. A 2xx response is a
// success even when it carries no asset.
func (c *Client) Dispatch(ctx context.Context, p Payload) (Result, error) {
	if c.url == "" {
		return Result{}, fmt.Errorf("%w: webhook url is not configured", ErrGatewayRejected)
	}

	var errs []error
	for _, a := range attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := c.send(ctx, a, p)
		if err == nil {
			return res, nil
		}
		errs = append(errs, fmt.Errorf("%s attempt: %w", a.shape, err))
	}
	return Result{}, fmt.Errorf("%w: %w", ErrGatewayRejected, errors.Join(errs...))
}

func (c *Client) send(ctx context.Context, a attempt, p Payload) (Result, error) {
	body, err := a.encode(p)
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode payload: %w", err)
	}

	log := logrus.WithFields(logrus.Fields{
		"operation":      "gateway_dispatch",
		"shape":          a.shape,
		"payload_bytes":  len(body),
		"correlation_id": p.CorrelationID,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Campaign-Builder/1.0")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(a.shape, "error", elapsed)
		log.WithField("error", err).Warn("Generation webhook unreachable")
		return Result{}, fmt.Errorf("failed to reach webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.observe(a.shape, "error", elapsed)
		return Result{}, fmt.Errorf("failed to read webhook response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.observe(a.shape, fmt.Sprintf("%d", resp.StatusCode), elapsed)
		log.WithField("status", resp.StatusCode).Warn("Generation webhook returned non-2xx")
		return Result{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	c.observe(a.shape, fmt.Sprintf("%d", resp.StatusCode), elapsed)
	res := Result{AssetURL: ExtractAssetURL(respBody), Shape: a.shape, Status: resp.StatusCode}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "has_asset": res.HasAsset()}).Info("Campaign sent to generation webhook")
	return res, nil
}

func (c *Client) observe(shape Shape, status string, elapsed time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.GatewayAttempts.WithLabelValues(string(shape), status).Inc()
	c.metrics.GatewayLatency.WithLabelValues(string(shape)).Observe(elapsed.Seconds())
}
