package pubfront

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/detail"
	"github.com/eringen/pubfront/listing"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("pubfront: not found")

// ContentCache keeps rendered-ready content in memory and revalidates each
// entry after its TTL. Fresh fetches are written through to the Store; when
// the content API is unreachable the stored snapshot is served instead.
type ContentCache struct {
	client   *cms.Client
	resolver *detail.Resolver
	store    *Store
	log      echo.Logger

	pageSize   int
	maxPages   int
	listingTTL time.Duration
	postTTL    time.Duration
	now        func() time.Time

	mu           sync.RWMutex
	first        cms.Page
	firstFetched time.Time
	feed         []cms.PostSummary
	feedFetched  time.Time
	posts        map[string]cachedView
}

type cachedView struct {
	view    detail.View
	fetched time.Time
}

// NewContentCache creates a ContentCache backed by client, falling back to
// store. store may be nil. Snapshot write failures are reported to logger.
func NewContentCache(client *cms.Client, store *Store, cfg SiteConfig, logger echo.Logger) *ContentCache {
	return &ContentCache{
		client:     client,
		resolver:   detail.NewResolver(client),
		store:      store,
		log:        logger,
		pageSize:   cfg.PageSize,
		maxPages:   cfg.MaxFeedPages,
		listingTTL: cfg.ListingRevalidate,
		postTTL:    cfg.PostRevalidate,
		now:        time.Now,
		posts:      make(map[string]cachedView),
	}
}

func (c *ContentCache) fresh(fetched time.Time, ttl time.Duration) bool {
	return !fetched.IsZero() && c.now().Sub(fetched) < ttl
}

// FirstPage returns the first listing page, newest first.
func (c *ContentCache) FirstPage(ctx context.Context) (cms.Page, error) {
	c.mu.RLock()
	if c.fresh(c.firstFetched, c.listingTTL) {
		page := c.first
		c.mu.RUnlock()
		return page, nil
	}
	c.mu.RUnlock()

	page, err := c.client.FirstPage(ctx, c.pageSize)
	if err != nil {
		if stale, ok := c.staleListing(err, c.pageSize); ok {
			return cms.Page{Results: stale}, nil
		}
		return cms.Page{}, err
	}
	c.saveSummaries(page.Results)

	c.mu.Lock()
	c.first = page
	c.firstFetched = c.now()
	c.mu.Unlock()
	return page, nil
}

// AllPosts returns every post, newest first, by following the listing to
// its end (at most maxPages further pages).
func (c *ContentCache) AllPosts(ctx context.Context) ([]cms.PostSummary, error) {
	c.mu.RLock()
	if c.fresh(c.feedFetched, c.listingTTL) {
		posts := c.feed
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	posts, err := c.drain(ctx)
	if err != nil {
		if stale, ok := c.staleListing(err, 0); ok {
			return stale, nil
		}
		return nil, err
	}
	c.saveSummaries(posts)

	c.mu.Lock()
	c.feed = posts
	c.feedFetched = c.now()
	c.mu.Unlock()
	return posts, nil
}

func (c *ContentCache) drain(ctx context.Context) ([]cms.PostSummary, error) {
	first, err := c.client.FirstPage(ctx, cms.MaxPageSize)
	if err != nil {
		return nil, err
	}
	agg := listing.New(c.client)
	agg.Initialize(first)
	return agg.Drain(ctx, c.maxPages)
}

// CachedPost returns the cached view for uid if it is still fresh.
func (c *ContentCache) CachedPost(uid string) (detail.View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.posts[uid]
	if !ok || !c.fresh(e.fetched, c.postTTL) {
		return detail.View{}, false
	}
	return e.view, true
}

// Post resolves uid, serving the cached view while it is fresh. A post the
// API no longer has is dropped from the store and returned as a NotFound view.
func (c *ContentCache) Post(ctx context.Context, uid string) (detail.View, error) {
	if v, ok := c.CachedPost(uid); ok {
		return v, nil
	}
	v, err := c.resolver.Resolve(ctx, uid)
	if err != nil {
		if c.store != nil && cms.IsFetchError(err) {
			if post, serr := c.store.GetPost(uid); serr == nil {
				return detail.Derive(post), nil
			}
		}
		return detail.View{}, err
	}
	if v.State == detail.NotFound {
		c.mu.Lock()
		delete(c.posts, uid)
		c.mu.Unlock()
		if c.store != nil {
			c.storeFailed("delete "+uid, c.store.DeletePost(uid))
		}
		return v, nil
	}
	if c.store != nil {
		c.storeFailed("save "+uid, c.store.SavePost(v.Post))
	}
	c.Put(v)
	return v, nil
}

// Put stores a Ready view.
func (c *ContentCache) Put(v detail.View) {
	if v.State != detail.Ready {
		return
	}
	c.mu.Lock()
	c.posts[v.UID] = cachedView{view: v, fetched: c.now()}
	c.mu.Unlock()
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.first = cms.Page{}
	c.firstFetched = time.Time{}
	c.feed = nil
	c.feedFetched = time.Time{}
	c.posts = make(map[string]cachedView)
	c.mu.Unlock()
}

// staleListing returns stored summaries when err is a fetch failure and the
// store has something to show.
func (c *ContentCache) staleListing(err error, limit int) ([]cms.PostSummary, bool) {
	if c.store == nil || !cms.IsFetchError(err) {
		return nil, false
	}
	posts, serr := c.store.ListPosts(limit)
	if serr != nil || len(posts) == 0 {
		return nil, false
	}
	return posts, true
}

func (c *ContentCache) saveSummaries(posts []cms.PostSummary) {
	if c.store == nil {
		return
	}
	for _, p := range posts {
		if err := c.store.SaveSummary(p); err != nil {
			c.storeFailed("save summary "+p.UID, err)
			return
		}
	}
}

// storeFailed logs a snapshot write error. The response is still served from
// the fresh fetch, but the stale fallback is now behind.
func (c *ContentCache) storeFailed(op string, err error) {
	if err == nil || c.log == nil {
		return
	}
	c.log.Errorf("snapshot %s: %v", op, err)
}
