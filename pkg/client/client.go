// Package client provides the Shopify Admin GraphQL transport. It sends one
// query per call and classifies the raw response; retry and pagination live
// in pkg/fetcher.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwenzel/shopify-export/pkg/catalog"
)

// Prometheus metrics for Admin API requests.
var (
	adminRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_export_requests_total",
		Help: "Total Admin API requests by outcome",
	}, []string{"outcome"})

	adminRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_export_request_duration_seconds",
		Help:    "Admin API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

// DefaultAPIVersion is the Admin API version the queries were written for.
const DefaultAPIVersion = "2024-01"

// Config holds the transport configuration.
type Config struct {
	// Domain is the shop domain, e.g. "mystore.myshopify.com". A scheme
	// prefix and slashes are stripped.
	Domain string

	// AccessToken is the Admin API access token. Sent on every request;
	// its format is not validated.
	AccessToken string

	// APIVersion defaults to DefaultAPIVersion.
	APIVersion string

	// Timeout for a single request. Defaults to 30s.
	Timeout time.Duration
}

// Client is the Admin GraphQL transport.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	logger     zerolog.Logger
}

// New creates a transport for one shop.
func New(cfg Config) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("shop domain is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	domain := strings.TrimPrefix(cfg.Domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	domain = strings.ReplaceAll(domain, "/", "")

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, version),
		token:      cfg.AccessToken,
		logger:     log.With().Str("component", "admin-client").Logger(),
	}, nil
}

// Post sends one GraphQL query and classifies the response. It never
// retries; the caller decides what to do with transient outcomes.
func (c *Client) Post(ctx context.Context, query string) Outcome {
	start := time.Now()
	defer func() {
		adminRequestDuration.Observe(time.Since(start).Seconds())
	}()

	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return c.record(Outcome{Kind: KindConnectionFailure, Message: fmt.Sprintf("encode request: %v", err)})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return c.record(Outcome{Kind: KindConnectionFailure, Message: fmt.Sprintf("create request: %v", err)})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Msg("Admin API request failed")
		return c.record(Outcome{Kind: KindConnectionFailure, Message: err.Error()})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.record(Outcome{Kind: KindConnectionFailure, Status: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err)})
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Hard throttled by Admin API")
		return c.record(Outcome{Kind: KindRateLimited, Status: resp.StatusCode, Message: "too many requests"})
	case resp.StatusCode >= 500:
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Admin API server error")
		return c.record(Outcome{Kind: KindServerError, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		c.logger.Warn().Int("status", resp.StatusCode).Msg("Admin API client error")
		return c.record(Outcome{Kind: KindClientError, Status: resp.StatusCode, Message: truncate(string(raw), 512)})
	}

	var env catalog.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return c.record(Outcome{Kind: KindConnectionFailure, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)})
	}

	// The Admin API reports logical errors inside 200 responses.
	if len(env.Errors) > 0 {
		c.logger.Warn().Str("message", env.Errors[0].Message).Msg("Admin API reported GraphQL errors")
		return c.record(Outcome{Kind: KindClientError, Status: resp.StatusCode, Message: env.Errors[0].Message})
	}

	out := Outcome{Kind: KindPayload, Status: resp.StatusCode, Data: env.Data}
	if env.Extensions != nil && env.Extensions.Cost != nil {
		out.Throttle = env.Extensions.Cost.ThrottleStatus
	}
	return c.record(out)
}

// record updates request metrics and returns the outcome unchanged.
func (c *Client) record(o Outcome) Outcome {
	label := string(o.Kind)
	if o.Kind == KindPayload {
		label = strconv.Itoa(o.Status)
	}
	adminRequestsTotal.WithLabelValues(label).Inc()
	return o
}

// truncate caps a body excerpt carried in error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// SetEndpoint overrides the derived Admin API URL (for testing).
func (c *Client) SetEndpoint(url string) {
	c.endpoint = url
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}
