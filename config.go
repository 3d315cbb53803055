package pubfront

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/comments"
)

// SiteConfig holds all configuration for a pubfront site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "spacetraveling")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for RSS and meta tags
	Author      string `yaml:"author"`      // Author name for JSON-LD
	TimeZone    string `yaml:"time_zone"`   // IANA zone for displayed dates (default "America/Sao_Paulo")

	Addr         string `yaml:"addr"`          // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path"` // SQLite snapshot path (default "data/pubfront.db")
	BannerDir    string `yaml:"banner_dir"`    // Resized banner cache (default "data/banners")

	SessionSecret string        `yaml:"-"`             // Required: session encryption secret
	CookieSecure  bool          `yaml:"cookie_secure"` // Set true for HTTPS
	SessionTTL    time.Duration `yaml:"session_ttl"`   // Idle lifetime of a listing session (default 30m)
	MaxListings   int           `yaml:"max_listings"`  // Live listing sessions kept in memory (default 10000)

	PageSize          int           `yaml:"page_size"`          // Posts per listing page (default 2)
	StaticPaths       int           `yaml:"static_paths"`       // Posts pre-rendered or warmed at startup (default 2)
	MaxFeedPages      int           `yaml:"max_feed_pages"`     // Page bound when collecting every post (default 50)
	ListingRevalidate time.Duration `yaml:"listing_revalidate"` // Listing cache TTL (default 1h)
	PostRevalidate    time.Duration `yaml:"post_revalidate"`    // Post cache TTL (default 30m)

	LoadMoreLimit int `yaml:"load_more_limit"` // Load-more requests per IP per minute (default 30)
	BannerLimit   int `yaml:"banner_limit"`    // Banner requests per IP per minute (default 60)

	CMS      CMSConfig       `yaml:"cms"`
	Comments comments.Config `yaml:"comments"`
}

// CMSConfig selects the content API. An empty endpoint falls back to the
// process-wide client built from CMS_* variables.
type CMSConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	AccessToken  string        `yaml:"-"`
	DocumentType string        `yaml:"document_type"`
	Timeout      time.Duration `yaml:"timeout"`
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetraveling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.TimeZone == "" {
		c.TimeZone = "America/Sao_Paulo"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/pubfront.db"
	}
	if c.BannerDir == "" {
		c.BannerDir = "data/banners"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.MaxListings <= 0 {
		c.MaxListings = 10000
	}
	if c.PageSize <= 0 {
		c.PageSize = 2
	}
	if c.PageSize > cms.MaxPageSize {
		c.PageSize = cms.MaxPageSize
	}
	if c.StaticPaths == 0 {
		c.StaticPaths = 2
	}
	if c.MaxFeedPages == 0 {
		c.MaxFeedPages = 50
	}
	if c.ListingRevalidate == 0 {
		c.ListingRevalidate = time.Hour
	}
	if c.PostRevalidate == 0 {
		c.PostRevalidate = 30 * time.Minute
	}
	if c.LoadMoreLimit == 0 {
		c.LoadMoreLimit = 30
	}
	if c.BannerLimit == 0 {
		c.BannerLimit = 60
	}
	c.Comments.SetDefaults()
}

// Location resolves TimeZone, falling back to UTC.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfig reads the YAML file at path, if any, and overlays environment
// variables on top of it. Defaults are applied by New.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("pubfront: read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("pubfront: parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *SiteConfig) applyEnv() error {
	c.Name = EnvOr("SITE_NAME", c.Name)
	c.URL = EnvOr("SITE_URL", c.URL)
	c.Description = EnvOr("SITE_DESCRIPTION", c.Description)
	c.Author = EnvOr("SITE_AUTHOR", c.Author)
	c.TimeZone = EnvOr("TIME_ZONE", c.TimeZone)
	c.Addr = EnvOr("ADDR", c.Addr)
	c.DatabasePath = EnvOr("DATABASE_PATH", c.DatabasePath)
	c.BannerDir = EnvOr("BANNER_DIR", c.BannerDir)
	c.SessionSecret = EnvOr("SESSION_SECRET", c.SessionSecret)
	c.Comments.Repo = EnvOr("COMMENTS_REPO", c.Comments.Repo)
	c.Comments.Theme = EnvOr("COMMENTS_THEME", c.Comments.Theme)
	c.Comments.IssueTerm = EnvOr("COMMENTS_ISSUE_TERM", c.Comments.IssueTerm)
	c.CMS.Endpoint = EnvOr("CMS_API_ENDPOINT", c.CMS.Endpoint)
	c.CMS.AccessToken = EnvOr("CMS_ACCESS_TOKEN", c.CMS.AccessToken)
	c.CMS.DocumentType = EnvOr("CMS_DOCUMENT_TYPE", c.CMS.DocumentType)

	if v := os.Getenv("COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("pubfront: COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	for key, dst := range map[string]*int{
		"PAGE_SIZE":    &c.PageSize,
		"STATIC_PATHS": &c.StaticPaths,
	} {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("pubfront: %s: %w", key, err)
			}
			*dst = n
		}
	}
	for key, dst := range map[string]*time.Duration{
		"LISTING_REVALIDATE": &c.ListingRevalidate,
		"POST_REVALIDATE":    &c.PostRevalidate,
		"CMS_TIMEOUT":        &c.CMS.Timeout,
	} {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("pubfront: %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c CMSConfig) client() (*cms.Client, error) {
	if c.Endpoint == "" {
		return cms.Default()
	}
	return cms.NewClient(cms.Config{
		Endpoint:     c.Endpoint,
		AccessToken:  c.AccessToken,
		DocumentType: c.DocumentType,
		Timeout:      c.Timeout,
	})
}

// Option configures additional App behavior.
type Option func(*App)

// WithClient sets the content API client instead of building one from config.
func WithClient(c *cms.Client) Option {
	return func(a *App) {
		a.Client = c
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
