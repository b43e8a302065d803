package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/booker/internal/catalog"
)

// SearchHandler proxies catalog lookups for the browser. It needs no session:
// the catalog is public and the API key stays on the server.
//
// The searcher is normally a *catalog.Shared, so identical queries that
// arrive together cost one upstream request.
type SearchHandler struct {
	searcher catalog.Searcher
	logger   *slog.Logger
}

// NewSearchHandler creates a SearchHandler over searcher.
func NewSearchHandler(searcher catalog.Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{searcher: searcher, logger: logger}
}

// Search runs one trimmed query.
//
//	blank query        -> 400 {"error": "query is required"}
//	client went away   -> 499, nothing written
//	catalog failure    -> 502 {"error": "catalog unavailable"}
//	success            -> 200 [book, ...] in catalog order
func (h *SearchHandler) Search(ctx context.Context, query string) Outcome {
	query = strings.TrimSpace(query)
	if query == "" {
		return badRequest("query is required")
	}

	books, err := h.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing useful can be written.
			return Outcome{Status: 499}
		}
		var statusErr *catalog.StatusError
		if errors.As(err, &statusErr) {
			h.logger.Warn("catalog rejected search", slog.String("query", query), slog.Int("status", statusErr.Code))
		} else {
			h.logger.Error("catalog search failed", slog.String("query", query), slog.String("error", err.Error()))
		}
		return Outcome{
			Status: http.StatusBadGateway,
			Body:   ErrorResponse{Error: "catalog unavailable"},
		}
	}
	return ok(books)
}

// HandleSearch searches the catalog.
//
// HTTP: GET /api/search?q=<query> → 200 [book, ...]
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, r, h.Search(r.Context(), r.URL.Query().Get("q")))
}
