package views

import (
	"time"

	"github.com/eringen/pubfront/comments"
)

// SiteConfig holds site-wide settings populated from environment variables.
// Every page component receives it so nothing is hardcoded.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "spacetraveling")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
	Author      string // SITE_AUTHOR
	Lang        string // html lang attribute (default "pt-BR")
	Location    *time.Location
	BannerProxy bool // serve banners through /banner/<uid>/ instead of the CDN URL
	Comments    comments.Config
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
	JSONLD      string
}
