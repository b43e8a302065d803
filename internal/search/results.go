package search

import (
	"slices"
	"sync"

	"github.com/sakif/booker/internal/model"
)

// Publisher receives each completed search.
type Publisher interface {
	Publish(query string, books []model.Book)
}

// Results is the shared result state. Every Publish replaces what was there.
type Results struct {
	mu      sync.RWMutex
	query   string
	books   []model.Book
	version int
}

// NewResults returns an empty Results at version 0.
func NewResults() *Results {
	return &Results{books: []model.Book{}}
}

// Publish replaces the current books with a copy of books. Results are
// never merged with an earlier search.
func (r *Results) Publish(query string, books []model.Book) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.query = query
	r.books = slices.Clone(books)
	if r.books == nil {
		r.books = []model.Book{}
	}
	r.version++
}

// Snapshot returns the query that produced the current books, a copy of the
// books, and how many times results have been published.
func (r *Results) Snapshot() (query string, books []model.Book, version int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.query, slices.Clone(r.books), r.version
}
