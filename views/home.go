package views

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubfront/cms"
)

// LoadMoreID is the element the load-more control swaps itself into.
const LoadMoreID = "load-more"

// LoadMorePath is the endpoint the load-more control requests.
const LoadMorePath = "/posts/more/"

// Home is the full listing page.
func Home(cfg SiteConfig, posts []cms.PostSummary, hasMore bool) templ.Component {
	meta := PageMeta{
		Title:       cfg.Name,
		Description: cfg.Description,
		URL:         buildURL(cfg.URL),
		OGType:      "website",
		JSONLD:      WebsiteJsonLD(cfg),
	}
	return Layout(cfg, meta, HomePartial(cfg, posts, hasMore))
}

// HomePartial is the listing without the document shell.
func HomePartial(cfg SiteConfig, posts []cms.PostSummary, hasMore bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="container"><div class="posts" id="posts">`)
		h.component(PostItems(cfg, posts))
		h.component(LoadMore(hasMore, false))
		h.raw(`</div></main>`)
		return h.err
	})
}

// PostItems renders one link per summary, in the given order.
func PostItems(cfg SiteConfig, posts []cms.PostSummary) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		for _, p := range posts {
			h.raw(`<a class="post-item"`)
			h.url("href", p.Link())
			h.raw(`><strong>`)
			h.text(p.Title)
			h.raw(`</strong>`)
			if p.Subtitle != "" {
				h.raw(`<p>`)
				h.text(p.Subtitle)
				h.raw(`</p>`)
			}
			h.raw(`<div class="info">`)
			if p.FirstPublicationDate != nil {
				h.raw(`<time`)
				h.attr("datetime", ISODate(p.FirstPublicationDate))
				h.raw(`>`)
				h.text(FormatDate(p.FirstPublicationDate, cfg.Location))
				h.raw(`</time>`)
			}
			if p.Author != "" {
				h.raw(`<span class="author">`)
				h.text(p.Author)
				h.raw(`</span>`)
			}
			h.raw(`</div></a>`)
		}
		return h.err
	})
}

// LoadMore is the control that fetches the next page. It renders an empty
// placeholder once there is nothing left to load, and a retry prompt after a
// failed attempt.
func LoadMore(hasMore, failed bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		if !hasMore {
			h.raw(`<div id="`, LoadMoreID, `"></div>`)
			return h.err
		}
		h.raw(`<div id="`, LoadMoreID, `">`)
		label := "Carregar mais posts"
		if failed {
			h.raw(`<p class="load-error" role="alert">Não foi possível carregar mais posts.</p>`)
			label = "Tentar novamente"
		}
		h.raw(`<button type="button" class="load-more" hx-get="`, LoadMorePath, `" hx-target="#`, LoadMoreID, `" hx-swap="outerHTML">`)
		h.text(label)
		h.raw(`</button></div>`)
		return h.err
	})
}

// MorePosts is the response to a load-more request: the appended items
// followed by a fresh control replacing the old one.
func MorePosts(cfg SiteConfig, added []cms.PostSummary, hasMore, failed bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.component(PostItems(cfg, added))
		h.component(LoadMore(hasMore, failed))
		return h.err
	})
}
