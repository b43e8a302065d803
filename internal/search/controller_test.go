package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/booker/internal/catalog"
	"github.com/sakif/booker/internal/model"
)

type fakeSearcher struct {
	calls   atomic.Int32
	queries chan string
	gate    chan struct{} // nil means answer immediately
	results map[string][]model.Book
	err     error
}

func newFakeSearcher() *fakeSearcher {
	return &fakeSearcher{
		queries: make(chan string, 64),
		results: make(map[string][]model.Book),
	}
}

func (f *fakeSearcher) Search(ctx context.Context, query string) ([]model.Book, error) {
	f.calls.Add(1)
	f.queries <- query
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func newTestController(s catalog.Searcher, r Publisher, timeout time.Duration) *Controller {
	return NewController(s, r, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSubmit_PublishesResults(t *testing.T) {
	fs := newFakeSearcher()
	fs.results["dune"] = []model.Book{{GoogleID: "g1", Title: "Dune"}, {GoogleID: "g2", Title: "Dune Messiah"}}
	results := NewResults()
	c := newTestController(fs, results, 0)

	issued, err := c.Submit(context.Background(), "dune")
	require.NoError(t, err)
	assert.True(t, issued)
	assert.False(t, c.InFlight())
	assert.Equal(t, "dune", c.Query())

	q, books, version := results.Snapshot()
	assert.Equal(t, "dune", q)
	assert.Equal(t, 1, version)
	require.Len(t, books, 2)
	assert.Equal(t, "g1", books[0].GoogleID)
	assert.Equal(t, "g2", books[1].GoogleID)
}

func TestSubmit_Guards(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "whitespace", query: "   \t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeSearcher()
			c := newTestController(fs, NewResults(), 0)

			issued, err := c.Submit(context.Background(), tt.query)
			assert.NoError(t, err)
			assert.False(t, issued)
			assert.Equal(t, int32(0), fs.calls.Load())
		})
	}
}

func TestSubmit_SameQueryTwice(t *testing.T) {
	fs := newFakeSearcher()
	c := newTestController(fs, NewResults(), 0)
	ctx := context.Background()

	issued, _ := c.Submit(ctx, "dune")
	assert.True(t, issued)
	issued, _ = c.Submit(ctx, "dune")
	assert.False(t, issued)
	assert.Equal(t, int32(1), fs.calls.Load())

	issued, _ = c.Submit(ctx, "emma")
	assert.True(t, issued)
	issued, _ = c.Submit(ctx, "dune")
	assert.True(t, issued, "a query different from the last one is sent again")
	assert.Equal(t, int32(3), fs.calls.Load())
}

func TestSubmit_StormIssuesOneRequest(t *testing.T) {
	fs := newFakeSearcher()
	fs.gate = make(chan struct{})
	c := newTestController(fs, NewResults(), time.Second)

	var wg sync.WaitGroup
	var issuedCount atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := c.Submit(context.Background(), "dune"); ok {
				issuedCount.Add(1)
			}
		}()
	}

	<-fs.queries
	// Everyone else has either been rejected or is about to be.
	time.Sleep(20 * time.Millisecond)
	close(fs.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fs.calls.Load())
	assert.Equal(t, int32(1), issuedCount.Load())
}

func TestSubmit_DistinctQueryWhileInFlightIsRejected(t *testing.T) {
	fs := newFakeSearcher()
	fs.gate = make(chan struct{})
	c := newTestController(fs, NewResults(), time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Submit(context.Background(), "first")
	}()
	<-fs.queries
	assert.True(t, c.InFlight())

	issued, err := c.Submit(context.Background(), "second")
	assert.NoError(t, err)
	assert.False(t, issued)

	close(fs.gate)
	<-done
	assert.False(t, c.InFlight())
	assert.Equal(t, int32(1), fs.calls.Load())
}

func TestSubmit_FailurePublishesNothing(t *testing.T) {
	fs := newFakeSearcher()
	fs.err = &catalog.StatusError{Code: 500}
	results := NewResults()
	results.Publish("old", []model.Book{{GoogleID: "keep"}})
	c := newTestController(fs, results, 0)

	issued, err := c.Submit(context.Background(), "dune")
	assert.True(t, issued)
	var statusErr *catalog.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.False(t, c.InFlight())

	q, books, version := results.Snapshot()
	assert.Equal(t, "old", q)
	assert.Equal(t, 1, version)
	require.Len(t, books, 1)
	assert.Equal(t, "keep", books[0].GoogleID)

	// No automatic retry of the same query.
	issued, _ = c.Submit(context.Background(), "dune")
	assert.False(t, issued)
	assert.Equal(t, int32(1), fs.calls.Load())
}

func TestSubmit_ReplacesNotMerges(t *testing.T) {
	fs := newFakeSearcher()
	fs.results["a"] = []model.Book{{GoogleID: "a1"}, {GoogleID: "a2"}, {GoogleID: "a3"}}
	fs.results["b"] = []model.Book{{GoogleID: "b1"}}
	results := NewResults()
	c := newTestController(fs, results, 0)

	_, err := c.Submit(context.Background(), "a")
	require.NoError(t, err)
	_, err = c.Submit(context.Background(), "b")
	require.NoError(t, err)

	_, books, _ := results.Snapshot()
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].GoogleID)
}

func TestSubmit_Timeout(t *testing.T) {
	fs := newFakeSearcher()
	fs.gate = make(chan struct{})
	defer close(fs.gate)
	c := newTestController(fs, NewResults(), 20*time.Millisecond)

	issued, err := c.Submit(context.Background(), "hang")
	assert.True(t, issued)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, c.InFlight())
}

func TestSubmit_SendsTrimmedQuery(t *testing.T) {
	fs := newFakeSearcher()
	c := newTestController(fs, NewResults(), 0)

	_, err := c.Submit(context.Background(), "  dune ")
	require.NoError(t, err)
	assert.Equal(t, "dune", <-fs.queries)
}

func TestResults_EmptyPublish(t *testing.T) {
	r := NewResults()
	r.Publish("nothing", nil)

	_, books, _ := r.Snapshot()
	assert.NotNil(t, books)
	assert.Empty(t, books)
}
