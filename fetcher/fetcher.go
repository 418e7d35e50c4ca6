// Package fetcher retrieves the upstream feeds: the flat movements dataset,
// the agent registry and the visit, promo and alert collections.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	appconfig "salesflow/config"
	"salesflow/logger"
	"salesflow/metrics"
	"salesflow/models"
)

// Fetcher is a rate-limited HTTP client over the upstream REST endpoints.
type Fetcher struct {
	config  *appconfig.Config
	client  *http.Client
	limiter *rate.Limiter
	baseURL *url.URL
	log     *logger.Log
}

// NewFetcher builds a Fetcher with a pooled transport sized from the
// connection pool configuration.
func NewFetcher(cfg *appconfig.Config) (*Fetcher, error) {
	base, err := url.Parse(cfg.Fetcher.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.Fetcher.BaseURL, err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Fetcher.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Fetcher.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     cfg.Fetcher.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     cfg.Fetcher.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}

	rps := cfg.Fetcher.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.Fetcher.RateLimit.BurstSize
	if burst < 1 {
		burst = 1
	}

	f := &Fetcher{
		config: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Fetcher.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		baseURL: base,
		log:     logger.GetLogger(),
	}

	f.log.WithComponent("fetcher").WithFields(logger.Fields{
		"base_url":            cfg.Fetcher.BaseURL,
		"timeout":             cfg.Fetcher.Timeout,
		"requests_per_second": rps,
		"max_idle_conns":      cfg.Fetcher.ConnectionPool.MaxIdleConns,
	}).Info("fetcher initialized")

	return f, nil
}

// fetchJSON performs one rate-limited GET against the named feed endpoint and
// decodes the response body into out.
func (f *Fetcher) fetchJSON(ctx context.Context, feed, endpoint string, out interface{}) error {
	log := f.log.WithComponent("fetcher").WithFields(logger.Fields{
		"feed":      feed,
		"endpoint":  endpoint,
		"operation": "fetch",
	})

	if err := f.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	ref, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	reqURL := f.baseURL.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("fetch %s: %w", feed, err)
	}
	defer resp.Body.Close()

	logger.LogPerformanceEntry(log, "fetcher", "api_request", time.Since(start), logger.Fields{
		"status": resp.StatusCode,
	})

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.WithFields(logger.Fields{"status": resp.StatusCode}).Warn("unexpected status")
		return fmt.Errorf("fetch %s: status %d: %s", feed, resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s body: %w", feed, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.WithError(err).Warn("failed to decode feed")
		return fmt.Errorf("decode %s: %w", feed, err)
	}

	logger.IncrementFeedRead(feed, len(body))
	metrics.IncrementFeedFetch(feed)
	logger.LogDataFlowEntry(log, feed+"_api", "memory", len(body), "bytes")
	return nil
}

// Movements retrieves the flat sales-order line dataset.
func (f *Fetcher) Movements(ctx context.Context) ([]models.RawRecord, error) {
	var records []models.RawRecord
	if err := f.fetchJSON(ctx, "movements", f.config.Fetcher.Endpoints.Movements, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Agents retrieves the agent registry.
func (f *Fetcher) Agents(ctx context.Context) ([]models.AgentInfo, error) {
	if f.config.Fetcher.Endpoints.Agents == "" {
		return nil, nil
	}
	var infos []models.AgentInfo
	if err := f.fetchJSON(ctx, "agents", f.config.Fetcher.Endpoints.Agents, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Visits retrieves the visit collection. A missing endpoint yields an empty
// collection, the feed is optional.
func (f *Fetcher) Visits(ctx context.Context) ([]models.Visit, error) {
	if f.config.Fetcher.Endpoints.Visits == "" {
		return nil, nil
	}
	var visits []models.Visit
	if err := f.fetchJSON(ctx, "visits", f.config.Fetcher.Endpoints.Visits, &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// Promos retrieves the promotion collection. The feed is optional.
func (f *Fetcher) Promos(ctx context.Context) ([]models.Promo, error) {
	if f.config.Fetcher.Endpoints.Promos == "" {
		return nil, nil
	}
	var promos []models.Promo
	if err := f.fetchJSON(ctx, "promos", f.config.Fetcher.Endpoints.Promos, &promos); err != nil {
		return nil, err
	}
	return promos, nil
}

// Alerts retrieves the alert collection. The feed is optional.
func (f *Fetcher) Alerts(ctx context.Context) ([]models.Alert, error) {
	if f.config.Fetcher.Endpoints.Alerts == "" {
		return nil, nil
	}
	var alerts []models.Alert
	if err := f.fetchJSON(ctx, "alerts", f.config.Fetcher.Endpoints.Alerts, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
