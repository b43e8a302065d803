package catalog

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/booker/internal/model"
)

// Shared collapses concurrent identical queries into one upstream call.
// Every waiter gets its own copy of the result slice.
type Shared struct {
	next  Searcher
	group singleflight.Group
}

// NewShared wraps next. The zero singleflight.Group is ready to use.
func NewShared(next Searcher) *Shared {
	return &Shared{next: next}
}

// Search joins an in-flight call for query or starts one. The upstream call
// is detached from ctx so one caller giving up does not fail the others;
// ctx still bounds how long this caller waits.
func (s *Shared) Search(ctx context.Context, query string) ([]model.Book, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(query, func() (any, error) {
		return s.next.Search(detached, query)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		books, _ := res.Val.([]model.Book)
		return slices.Clone(books), nil
	}
}
