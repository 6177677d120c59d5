// Package fetcher drives the Admin API transport through a cursor-following
// page loop with retry, backoff, and advisory throttling. One Pager owns one
// export run; it issues at most one request at a time and never re-fetches a
// page it has already returned.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwenzel/shopify-export/pkg/catalog"
	"github.com/cwenzel/shopify-export/pkg/client"
	"github.com/cwenzel/shopify-export/pkg/query"
	"github.com/cwenzel/shopify-export/pkg/throttle"
)

// Prometheus metrics for the page loop.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_export_pages_fetched_total",
		Help: "Total product pages fetched successfully",
	})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopify_export_retries_total",
		Help: "Total page retry attempts by outcome kind",
	}, []string{"kind"})

	retryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_export_retry_exhausted_total",
		Help: "Total pages abandoned after exhausting retry attempts",
	})

	throttlePausesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_export_throttle_pauses_total",
		Help: "Total advisory pauses taken due to low request credits",
	})
)

// ErrRetryExhausted is returned when a page keeps failing transiently.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// Transport issues a single Admin API request. *client.Client implements it.
type Transport interface {
	Post(ctx context.Context, query string) client.Outcome
}

// RetryConfig holds the per-page retry policy.
type RetryConfig struct {
	// MaxAttempts is the total number of sends per page, including the
	// first one.
	MaxAttempts int

	// InitialBackoff is the sleep before the first retry.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the sleep between attempts.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the standard policy: three attempts per page
// with a doubling backoff starting at two seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    2 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Options configures a Pager.
type Options struct {
	// Limit caps the total number of products returned across all batches.
	// Zero means no limit.
	Limit int

	// Retry overrides DefaultRetryConfig when MaxAttempts is positive.
	Retry RetryConfig
}

// Batch is one non-empty page of products, possibly truncated to the
// remaining limit quota.
type Batch struct {
	Products []catalog.Product
}

// Pager is a forward-only iterator over product batches.
type Pager struct {
	transport Transport
	criteria  query.Criteria
	limit     int
	retry     RetryConfig
	throttle  throttle.State
	logger    zerolog.Logger

	// sleep is swappable so tests run without real waits.
	sleep func(ctx context.Context, d time.Duration) error

	cursor  string
	fetched int
	done    bool
	err     error
}

// New creates a Pager for one run. The criteria and limit stay fixed for
// the run's duration; the cursor is owned by the Pager and discarded at the
// end.
func New(t Transport, criteria query.Criteria, opts Options) *Pager {
	retry := opts.Retry
	if retry.MaxAttempts <= 0 {
		retry = DefaultRetryConfig()
	}
	return &Pager{
		transport: t,
		criteria:  criteria,
		limit:     opts.Limit,
		retry:     retry,
		logger:    log.With().Str("component", "fetcher").Logger(),
		sleep:     wait,
	}
}

// Fetched returns the number of products emitted so far.
func (p *Pager) Fetched() int {
	return p.fetched
}

// Next returns the next non-empty batch. It returns (nil, nil) when the run
// completed cleanly and (nil, err) on a terminal failure, after which the
// sequence has ended. Batches already returned stay valid either way.
func (p *Pager) Next(ctx context.Context) (*Batch, error) {
	for {
		if p.done {
			return nil, p.err
		}

		// Never issue a request once the quota is reached.
		if p.limit > 0 && p.fetched >= p.limit {
			p.done = true
			return nil, nil
		}

		page, err := p.fetchPage(ctx)
		if err != nil {
			p.done = true
			p.err = err
			return nil, err
		}

		if p.throttle.NeedsPause() {
			throttlePausesTotal.Inc()
			p.logger.Warn().
				Float64("credits_available", p.throttle.Available).
				Dur("pause", throttle.PauseDuration).
				Msg("Request credits low, pausing")
			if err := p.sleep(ctx, throttle.PauseDuration); err != nil {
				p.done = true
				p.err = err
				return nil, err
			}
		}

		edges := page.Products.Edges
		truncated := false
		if p.limit > 0 {
			if remaining := p.limit - p.fetched; len(edges) > remaining {
				edges = edges[:remaining]
				truncated = true
			}
		}

		// Advance before yielding so a consumer failure can never cause
		// this page to be requested again.
		p.cursor = page.Products.PageInfo.EndCursor
		if truncated || !page.Products.PageInfo.HasNextPage {
			p.done = true
		}

		// Empty pages are legal when everything on them was filtered
		// server-side; keep following the cursor.
		if len(edges) == 0 {
			if p.done {
				return nil, nil
			}
			p.logger.Debug().Msg("Empty page, advancing cursor")
			continue
		}

		products := make([]catalog.Product, len(edges))
		for i, edge := range edges {
			products[i] = edge.Node
		}
		p.fetched += len(products)
		if p.limit > 0 && p.fetched >= p.limit {
			p.done = true
		}

		p.logger.Debug().
			Int("batch", len(products)).
			Int("fetched", p.fetched).
			Msg("Batch emitted")

		return &Batch{Products: products}, nil
	}
}

// fetchPage sends the page query, retrying transient outcomes with
// exponential backoff. Terminal outcomes surface immediately.
func (p *Pager) fetchPage(ctx context.Context) (*catalog.ProductsData, error) {
	backoff := p.retry.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= p.retry.MaxAttempts; attempt++ {
		out := p.transport.Post(ctx, query.BuildProducts(p.criteria, p.cursor))

		switch out.Kind {
		case client.KindPayload:
			p.throttle.Update(out.Throttle)

			var data catalog.ProductsData
			if err := json.Unmarshal(out.Data, &data); err != nil {
				return nil, fmt.Errorf("decode products page: %w", err)
			}
			pagesFetchedTotal.Inc()
			if attempt > 1 {
				p.logger.Info().Int("attempt", attempt).Msg("Page succeeded after retry")
			}
			return &data, nil

		case client.KindRateLimited, client.KindServerError:
			lastErr = out.Err()
			if attempt >= p.retry.MaxAttempts {
				break
			}
			retriesTotal.WithLabelValues(string(out.Kind)).Inc()
			p.logger.Warn().
				Str("kind", string(out.Kind)).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Transient page failure, backing off")
			if err := p.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = time.Duration(float64(backoff) * p.retry.BackoffMultiplier)

		default:
			// Client errors and connection failures are not transient.
			return nil, out.Err()
		}
	}

	retryExhaustedTotal.Inc()
	p.logger.Warn().Int("max_attempts", p.retry.MaxAttempts).Msg("Retry attempts exhausted for page")
	return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, p.retry.MaxAttempts, lastErr)
}

// wait sleeps for d with context cancellation support.
func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
