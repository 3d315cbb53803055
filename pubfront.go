// Package pubfront serves a blog whose posts live in a headless content API.
// It renders the paginated listing, post pages with reading time and
// neighbour links, RSS and a sitemap, and can export the site as static files.
//
// Pages are templ components supplied through ViewFuncs; DefaultViews wires
// the ones in the views package.
package pubfront

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/detail"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home               func(posts []cms.PostSummary, hasMore bool) templ.Component
	MorePosts          func(added []cms.PostSummary, hasMore, failed bool) templ.Component
	Post               func(v detail.View) templ.Component
	PostPartial        func(v detail.View) templ.Component
	PostPending        func(uid string) templ.Component
	NotFound           func() templ.Component
	NotFoundPartial    func() templ.Component
	ServerError        func() templ.Component
	ServerErrorPartial func(uid string) templ.Component
}

// App is the central pubfront application. It wires together the content
// client, cache, snapshot store, handlers, middleware and templates.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Client *cms.Client
	Cache  *ContentCache
	Store  *Store
	Views  ViewFuncs

	listings      *ListingRegistry
	moreLimiter   *RequestLimiter
	bannerLimiter *RequestLimiter
	banners       *BannerCache
	customRoutes  []func(*App)
	staticDir     string
	defaultViews  bool
}

// New creates a new pubfront App with the given configuration and view
// functions. A zero ViewFuncs selects DefaultViews.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()
	defaultViews := views.Home == nil
	if defaultViews {
		views = DefaultViews(cfg.ViewConfig(true))
	}

	a := &App{
		Config:       cfg,
		Echo:         echo.New(),
		Views:        views,
		staticDir:    "public",
		defaultViews: defaultViews,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Init opens the store and cache and registers middleware and routes. Start
// calls it; tests and Generate may call it directly.
func (a *App) Init() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("pubfront: SessionSecret is required")
	}
	if err := a.initContent(); err != nil {
		return err
	}

	a.listings = NewListingRegistry(a.Config.SessionTTL, a.Config.MaxListings)
	a.moreLimiter = NewRequestLimiter(a.Config.LoadMoreLimit, time.Minute)
	a.bannerLimiter = NewRequestLimiter(a.Config.BannerLimit, time.Minute)
	a.banners = NewBannerCache(a.Config.BannerDir)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// initContent sets up the client, store and cache.
func (a *App) initContent() error {
	if a.Client == nil {
		client, err := a.Config.CMS.client()
		if err != nil {
			return fmt.Errorf("pubfront: init content client: %w", err)
		}
		a.Client = client
	}
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("pubfront: init store: %w", err)
		}
		a.Store = store
	}
	if a.Cache == nil {
		a.Cache = NewContentCache(a.Client, a.Store, a.Config, a.Echo.Logger)
	}
	return nil
}

// Start initializes the app, warms the cache and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := a.Warm(ctx); err != nil {
			a.Echo.Logger.Warnf("warm cache: %v", err)
		}
	}()

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/more/", a.handleLoadMore, a.moreLimiter.Middleware)
	e.GET("/post/:uid/", a.handlePost)
	e.GET("/banner/:uid/", a.handleBanner, a.bannerLimiter.Middleware)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.listings != nil {
		a.listings.Close()
	}
	if a.moreLimiter != nil {
		a.moreLimiter.Stop()
	}
	if a.bannerLimiter != nil {
		a.bannerLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("pubfront: required environment variable %s is not set", key)
	}
	return v
}
