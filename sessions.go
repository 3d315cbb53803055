package pubfront

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubfront/listing"
)

const (
	sessionName    = "listing_session"
	sessionListing = "listing"
)

// ListingRegistry owns one listing aggregator per visitor. Entries idle for
// longer than the TTL are dropped, and once max entries are live the least
// recently used one makes room for a new visitor.
type ListingRegistry struct {
	mu      sync.Mutex
	entries map[string]*listingEntry
	ttl     time.Duration
	max     int
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type listingEntry struct {
	agg     *listing.Aggregator
	touched time.Time
}

// NewListingRegistry starts a registry that evicts idle entries every ttl.
// max <= 0 means no size bound. Call Close to stop it.
func NewListingRegistry(ttl time.Duration, max int) *ListingRegistry {
	r := &ListingRegistry{
		entries: make(map[string]*listingEntry),
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go r.cleanup()
	return r
}

func (r *ListingRegistry) cleanup() {
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.evict()
		}
	}
}

func (r *ListingRegistry) evict() {
	cutoff := r.now().Add(-r.ttl)
	r.mu.Lock()
	for id, e := range r.entries {
		if e.touched.Before(cutoff) {
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()
}

// Add registers agg under a new random id and returns the id.
func (r *ListingRegistry) Add(agg *listing.Aggregator) string {
	id := uuid.NewString()
	r.mu.Lock()
	if r.max > 0 && len(r.entries) >= r.max {
		r.dropOldest()
	}
	r.entries[id] = &listingEntry{agg: agg, touched: r.now()}
	r.mu.Unlock()
	return id
}

// Replace swaps the aggregator of a live entry, so a visitor reloading the
// home page keeps one entry. It reports false when id is unknown or expired.
func (r *ListingRegistry) Replace(id string, agg *listing.Aggregator) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.touched.Before(r.now().Add(-r.ttl)) {
		delete(r.entries, id)
		return false
	}
	e.agg = agg
	e.touched = r.now()
	return true
}

// dropOldest removes the least recently used entry. r.mu must be held.
func (r *ListingRegistry) dropOldest() {
	var oldest string
	var at time.Time
	for id, e := range r.entries {
		if oldest == "" || e.touched.Before(at) {
			oldest, at = id, e.touched
		}
	}
	delete(r.entries, oldest)
}

// Get returns the aggregator registered under id and marks it as used.
func (r *ListingRegistry) Get(id string) (*listing.Aggregator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.touched.Before(r.now().Add(-r.ttl)) {
		delete(r.entries, id)
		return nil, false
	}
	e.touched = r.now()
	return e.agg, true
}

// Remove drops id.
func (r *ListingRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// Len returns the number of live entries.
func (r *ListingRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close stops the eviction goroutine. It is safe to call more than once.
func (r *ListingRegistry) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(a.Config.SessionTTL / time.Second),
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// listingID returns the listing id stored in the visitor's session.
func listingID(c echo.Context) (string, bool) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", false
	}
	id, ok := sess.Values[sessionListing].(string)
	return id, ok && id != ""
}

func setListingID(c echo.Context, id string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionListing] = id
	return sess.Save(c.Request(), c.Response())
}
