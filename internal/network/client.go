package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/railstats/nsdisruptions/internal/constants"
	"github.com/railstats/nsdisruptions/pkg/config"
	"go.uber.org/zap"
)

// SubscriptionKeyHeader carries the NS API portal key
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

var (
	fetchCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nsdisruptions_feed_fetch_total",
		Help: "Number of rail-network feed fetches attempted",
	})
	fetchErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nsdisruptions_feed_fetch_errors_total",
		Help: "Number of rail-network feed fetches that failed, by stage",
	}, []string{"stage"})
	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nsdisruptions_feed_fetch_duration_seconds",
		Help:    "Time spent fetching and decoding the rail-network feed",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(fetchCount, fetchErrorCount, fetchDuration)
}

// Fetcher retrieves the rail-network feed
type Fetcher interface {
	Fetch(ctx context.Context) (*Response, error)
}

// Client performs a single authenticated GET per Fetch call. It never
// retries; a failed fetch is reported to the caller as-is.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a feed client. A zero timeout leaves the HTTP client
// without a deadline.
func NewClient(cfg config.FeedData, logger *zap.SugaredLogger) *Client {
	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout:   cfg.FeedTimeout(),
			Transport: newTransport(cfg.SubscriptionKey, http.DefaultTransport),
		},
		logger: logger,
	}
}

// Fetch downloads and decodes the feed
func (c *Client) Fetch(ctx context.Context) (*Response, error) {
	start := time.Now()
	fetchCount.Inc()
	defer func() { fetchDuration.Observe(time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return retError("request", fmt.Errorf("error creating rail-network feed request: %w", err))
	}

	if c.logger != nil {
		c.logger.Debugf("Making request to rail-network feed: %v", c.url)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return retError("transport", fmt.Errorf("error making request to rail-network feed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain a little of the body so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return retError("status", fmt.Errorf("failed to fetch rail-network feed from %s: HTTP %d", c.url, resp.StatusCode))
	}

	response := &Response{}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
		return retError("decode", fmt.Errorf("unable to decode rail-network feed: %w", err))
	}

	if c.logger != nil {
		c.logger.Debugf("rail-network feed returned %d features", len(response.Payload.Features))
	}
	return response, nil
}

func retError(stage string, err error) (*Response, error) {
	fetchErrorCount.With(prometheus.Labels{"stage": stage}).Inc()
	return nil, err
}

type apiTransport struct {
	subscriptionKey string
	userAgent       string
	next            http.RoundTripper
}

// RoundTrip adds the subscription key and disables intermediary caching
func (t *apiTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	r := request.Clone(request.Context())
	r.Header.Set("User-Agent", t.userAgent)
	r.Header.Set("Cache-Control", "no-cache")
	if t.subscriptionKey != "" {
		r.Header.Set(SubscriptionKeyHeader, t.subscriptionKey)
	}

	return t.next.RoundTrip(r)
}

func newTransport(subscriptionKey string, next http.RoundTripper) http.RoundTripper {
	return &apiTransport{
		subscriptionKey: subscriptionKey,
		userAgent:       constants.ApplicationName + "/" + constants.Version,
		next:            next,
	}
}
