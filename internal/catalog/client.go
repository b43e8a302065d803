// Package catalog talks to the Google Books volumes API and maps its
// records onto model.Book.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/sakif/booker/internal/model"
)

// Defaults applied by New to an unset Config field.
const (
	DefaultBaseURL    = "https://www.googleapis.com/books/v1"
	DefaultMaxResults = 16
	DefaultLang       = "en"
)

// Searcher returns the catalog records matching a query, in provider order.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.Book, error)
}

// Config configures a Client. Only BaseURL is ever required, and it has a
// default. APIKey goes on the query string as key=, while AccessToken rides
// in an Authorization header through an oauth2 transport.
type Config struct {
	BaseURL     string
	APIKey      string
	AccessToken string // sent as a bearer token when set
	MaxResults  int
	Lang        string
	RPS         float64 // outbound requests per second; 0 means unlimited
	Timeout     time.Duration
}

// StatusError is returned when the provider answers with anything but 200.
type StatusError struct {
	Code int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: unexpected status %d", e.Code)
}

// Client is a Searcher backed by HTTP.
type Client struct {
	http    *http.Client
	base    string
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client. Zero fields in cfg take their defaults: the public
// Google Books endpoint, 16 results, English, a 10s timeout and no rate
// limit. The error is only for a BaseURL that does not parse.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("catalog: base url: %w", err)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Lang == "" {
		cfg.Lang = DefaultLang
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.AccessToken != "" {
		// oauth2.NewClient wraps the transport of the client in ctx but not
		// its timeout.
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.AccessToken,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = cfg.Timeout
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Client{
		http:    httpClient,
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// Search issues one volumes request for query. A response without items is
// an empty result, not an error.
func (c *Client) Search(ctx context.Context, query string) ([]model.Book, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog: waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog search",
		slog.String("query", query),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var body volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("catalog: decoding response: %w", err)
	}
	return body.books(), nil
}

func (c *Client) searchURL(query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("maxResults", strconv.Itoa(c.cfg.MaxResults))
	v.Set("langRestrict", c.cfg.Lang)
	if c.cfg.APIKey != "" {
		v.Set("key", c.cfg.APIKey)
	}
	return c.base + "/volumes?" + v.Encode()
}
