// Package listing keeps the ever-growing list of post summaries shown on the
// home page and loads further pages on request.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/pubfront/cms"
)

// ErrLoadInProgress is returned by LoadMore when another LoadMore on the same
// aggregator has not finished yet. The call is ignored.
var ErrLoadInProgress = errors.New("listing: load already in progress")

// State is the aggregator's pagination state.
type State int

const (
	// Loaded means a next page may exist.
	Loaded State = iota
	// Exhausted means the last fetched page had no next cursor. Terminal.
	Exhausted
)

func (s State) String() string {
	if s == Exhausted {
		return "exhausted"
	}
	return "loaded"
}

// PageFetcher follows an opaque next-page cursor.
type PageFetcher interface {
	QueryURL(ctx context.Context, next string) (cms.Page, error)
}

// Aggregator holds an append-only sequence of posts and the cursor of the
// next page. It is safe for concurrent use; concurrent LoadMore calls are
// collapsed to the first one.
type Aggregator struct {
	fetcher PageFetcher

	mu      sync.RWMutex
	posts   []cms.PostSummary
	seen    map[string]struct{}
	next    string
	loading bool
}

// New returns an empty, exhausted aggregator. Call Initialize with the first page.
func New(fetcher PageFetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher, seen: make(map[string]struct{})}
}

// Initialize replaces the state with the first page.
func (a *Aggregator) Initialize(first cms.Page) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.posts = nil
	a.seen = make(map[string]struct{}, len(first.Results))
	a.appendLocked(first.Results)
	a.next = first.NextPage
}

// LoadMore fetches the page at the stored cursor and appends its posts. It
// returns the posts that were appended. In the Exhausted state it does
// nothing. If the fetch fails the aggregator is left unchanged.
func (a *Aggregator) LoadMore(ctx context.Context) ([]cms.PostSummary, error) {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return nil, ErrLoadInProgress
	}
	if a.next == "" {
		a.mu.Unlock()
		return nil, nil
	}
	cursor := a.next
	a.loading = true
	a.mu.Unlock()

	page, err := a.fetcher.QueryURL(ctx, cursor)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		return nil, err
	}
	added := a.appendLocked(page.Results)
	a.next = page.NextPage
	return added, nil
}

// appendLocked appends posts not already shown, preserving their order.
func (a *Aggregator) appendLocked(posts []cms.PostSummary) []cms.PostSummary {
	start := len(a.posts)
	for _, p := range posts {
		if _, dup := a.seen[p.UID]; dup {
			continue
		}
		a.seen[p.UID] = struct{}{}
		a.posts = append(a.posts, p)
	}
	return append([]cms.PostSummary(nil), a.posts[start:]...)
}

// Posts returns a copy of the posts loaded so far, in display order.
func (a *Aggregator) Posts() []cms.PostSummary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]cms.PostSummary(nil), a.posts...)
}

// Len returns the number of posts loaded so far.
func (a *Aggregator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.posts)
}

// NextCursor returns the stored next-page cursor, empty when exhausted.
func (a *Aggregator) NextCursor() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.next
}

// State reports whether more pages may be loaded.
func (a *Aggregator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.next == "" {
		return Exhausted
	}
	return Loaded
}

// Drain loads pages until the aggregator is exhausted or maxPages further
// pages have been fetched, and returns every post loaded.
func (a *Aggregator) Drain(ctx context.Context, maxPages int) ([]cms.PostSummary, error) {
	for i := 0; i < maxPages && a.State() == Loaded; i++ {
		if _, err := a.LoadMore(ctx); err != nil {
			return nil, err
		}
	}
	return a.Posts(), nil
}
