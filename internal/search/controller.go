// Package search drives catalog lookups from an interactive client. At most
// one lookup is outstanding at a time, and a query identical to the last one
// submitted is never sent again.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sakif/booker/internal/catalog"
)

// DefaultTimeout bounds one catalog lookup when NewController is given none.
const DefaultTimeout = 10 * time.Second

// Controller owns the search state of one client.
//
// STATE (guarded by mu):
//   - query         → what the user has typed so far
//   - inFlight      → a lookup is running; further submits are refused
//   - lastSubmitted → the raw text of the last query that was sent
type Controller struct {
	searcher catalog.Searcher
	results  Publisher
	timeout  time.Duration
	logger   *slog.Logger

	mu            sync.Mutex
	query         string
	inFlight      bool
	lastSubmitted string
}

// NewController creates a Controller that looks queries up with searcher and
// hands successful results to results. A timeout of zero or less means
// DefaultTimeout.
func NewController(searcher catalog.Searcher, results Publisher, timeout time.Duration, logger *slog.Logger) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		searcher: searcher,
		results:  results,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetQuery records the text currently typed by the user.
func (c *Controller) SetQuery(q string) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

// Query returns the text last passed to SetQuery.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// InFlight reports whether a lookup is running.
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Submit runs one catalog lookup for query and publishes the result. It
// returns issued=false without contacting the catalog when a lookup is
// already running, when query is blank, or when query equals the last
// submitted query. A failed lookup publishes nothing and is not retried;
// the query still counts as submitted.
func (c *Controller) Submit(ctx context.Context, query string) (issued bool, err error) {
	c.mu.Lock()
	if c.inFlight || strings.TrimSpace(query) == "" || query == c.lastSubmitted {
		c.mu.Unlock()
		return false, nil
	}
	c.query = query
	c.lastSubmitted = query
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	books, err := c.searcher.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		c.logger.Warn("search failed", slog.String("query", query), slog.String("error", err.Error()))
		return true, fmt.Errorf("search: %q: %w", query, err)
	}

	c.results.Publish(query, books)
	c.logger.Debug("search published", slog.String("query", query), slog.Int("results", len(books)))
	return true, nil
}
