package pubfront

import (
	"github.com/a-h/templ"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/detail"
	"github.com/eringen/pubfront/views"
)

// ViewConfig is the part of the configuration templates need. bannerProxy
// selects /banner/<uid>/ over the original image URL.
func (c SiteConfig) ViewConfig(bannerProxy bool) views.SiteConfig {
	return views.SiteConfig{
		Name:        c.Name,
		URL:         c.URL,
		Description: c.Description,
		Author:      c.Author,
		Lang:        "pt-BR",
		Location:    c.Location(),
		BannerProxy: bannerProxy,
		Comments:    c.Comments,
	}
}

// DefaultViews wires the views package into ViewFuncs.
func DefaultViews(cfg views.SiteConfig) ViewFuncs {
	return ViewFuncs{
		Home: func(posts []cms.PostSummary, hasMore bool) templ.Component {
			return views.Home(cfg, posts, hasMore)
		},
		MorePosts: func(added []cms.PostSummary, hasMore, failed bool) templ.Component {
			return views.MorePosts(cfg, added, hasMore, failed)
		},
		Post: func(v detail.View) templ.Component {
			return views.Post(cfg, v)
		},
		PostPartial: func(v detail.View) templ.Component {
			return views.PostPartial(cfg, v)
		},
		PostPending: func(uid string) templ.Component {
			return views.PostPending(cfg, uid)
		},
		NotFound: func() templ.Component {
			return views.NotFound(cfg)
		},
		NotFoundPartial: views.NotFoundPartial,
		ServerError: func() templ.Component {
			return views.ServerError(cfg)
		},
		ServerErrorPartial: views.ServerErrorPartial,
	}
}
