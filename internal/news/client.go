// Package news is a thin client for a newsdata.io-style news API.
//
// Requests are throttled with a token bucket so a burst of readers cannot
// exhaust the API quota, and pages are cached by normalized query when a
// cache is configured. Every article gets a computed reading time.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/editorialchain/internal/apperror"
	"github.com/sakif/editorialchain/internal/metrics"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://newsdata.io"
	newsPath       = "/api/1/news"
	maxBodyBytes   = 4 << 20
)

// Config configures a Client.
type Config struct {
	BaseURL string
	APIKey  string
	RPS     float64 // outbound requests per second
	Burst   int
	Timeout time.Duration
}

// Client fetches news pages.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      repository.NewsCache // may be nil
	logger     *slog.Logger
}

// NewClient creates a Client. cache may be nil.
func NewClient(cfg Config, cache repository.NewsCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		cache:      cache,
		logger:     logger,
	}
}

// apiResponse is the wire shape. On errors the API sends "results" as an
// object with a message instead of an array, hence the RawMessage.
type apiResponse struct {
	Status       string          `json:"status"`
	TotalResults int             `json:"totalResults"`
	Results      json.RawMessage `json:"results"`
	NextPage     string          `json:"nextPage"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Latest returns one page of news matching q.
func (c *Client) Latest(ctx context.Context, q model.NewsQuery) (*model.NewsPage, error) {
	if c.apiKey == "" {
		return nil, apperror.Unavailable("news API")
	}

	key := CacheKey(q)
	if page, ok := c.fromCache(ctx, key); ok {
		return page, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.NewsRequests.WithLabelValues("throttled").Inc()
		return nil, fmt.Errorf("news: waiting for rate limiter: %w", err)
	}

	page, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	metrics.NewsRequests.WithLabelValues("success").Inc()

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, page); err != nil {
			metrics.NewsCache.WithLabelValues("error").Inc()
			c.logger.Warn("news cache write failed", slog.String("error", err.Error()))
		}
	}
	return page, nil
}

func (c *Client) fromCache(ctx context.Context, key string) (*model.NewsPage, bool) {
	if c.cache == nil {
		return nil, false
	}
	page, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.NewsCache.WithLabelValues("error").Inc()
		c.logger.Warn("news cache read failed, bypassing", slog.String("error", err.Error()))
		return nil, false
	case !ok:
		metrics.NewsCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.NewsCache.WithLabelValues("hit").Inc()
	return page, true
}

func (c *Client) fetch(ctx context.Context, q model.NewsQuery) (*model.NewsPage, error) {
	params := queryValues(q)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+newsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("news: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.NewsRequests.WithLabelValues("transport_error").Inc()
		// The URL carries the API key; never log or return it.
		return nil, upstreamError(fmt.Sprintf("request failed: %v", redact(err, c.apiKey)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.NewsRequests.WithLabelValues("transport_error").Inc()
		return nil, upstreamError("reading response failed")
	}

	var raw apiResponse
	decodeErr := json.Unmarshal(body, &raw)

	if resp.StatusCode != http.StatusOK || decodeErr != nil || raw.Status != "success" {
		metrics.NewsRequests.WithLabelValues("api_error").Inc()
		msg := fmt.Sprintf("status %d", resp.StatusCode)
		var ae apiError
		if decodeErr == nil && json.Unmarshal(raw.Results, &ae) == nil && ae.Message != "" {
			msg += ": " + ae.Message
		}
		c.logger.Warn("news API error", slog.Int("status", resp.StatusCode), slog.String("message", msg))
		return nil, upstreamError(msg)
	}

	page := &model.NewsPage{
		Status:       raw.Status,
		TotalResults: raw.TotalResults,
		Results:      []model.Article{},
		NextPage:     raw.NextPage,
	}
	if len(raw.Results) > 0 && string(raw.Results) != "null" {
		if err := json.Unmarshal(raw.Results, &page.Results); err != nil {
			metrics.NewsRequests.WithLabelValues("api_error").Inc()
			return nil, upstreamError("unexpected results shape")
		}
	}
	for i := range page.Results {
		page.Results[i].EstimateReadingTime()
	}
	return page, nil
}

// CacheKey is the normalized query: sorted, lower-cased filters, no API key.
func CacheKey(q model.NewsQuery) string {
	return queryValues(q).Encode()
}

func queryValues(q model.NewsQuery) url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val = strings.TrimSpace(val); val != "" {
			v.Set(k, val)
		}
	}
	set("country", strings.ToLower(q.Country))
	set("language", strings.ToLower(q.Language))
	set("category", strings.ToLower(q.Category))
	set("q", q.Query)
	set("page", q.Page)
	return v
}

func upstreamError(msg string) *apperror.AppError {
	return &apperror.AppError{Err: apperror.ErrUnavailable, Message: "news API error: " + msg}
}

// redact removes secret from err's text, both raw and in the query-escaped
// form a *url.Error carries.
func redact(err error, secret string) string {
	s := err.Error()
	if secret == "" {
		return s
	}
	s = strings.ReplaceAll(s, url.QueryEscape(secret), "REDACTED")
	return strings.ReplaceAll(s, secret, "REDACTED")
}
