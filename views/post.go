package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/comments"
	"github.com/eringen/pubfront/detail"
)

// PostContainerID is the element a pending post page replaces once loaded.
const PostContainerID = "post"

// PartialParam is the query parameter a pending page sends to request the
// post body alone.
const PartialParam = "partial"

func postMeta(cfg SiteConfig, v detail.View) PageMeta {
	meta := PageMeta{
		Title:  v.Post.Title,
		URL:    PostURL(cfg, v.UID),
		OGType: "article",
	}
	if v.State == detail.Ready {
		meta.Description = v.Post.Subtitle
		meta.Image = v.Post.Banner.URL
		meta.JSONLD = BlogPostingJsonLD(cfg, v.Post)
	}
	return meta
}

// Post is the full page for a resolved post.
func Post(cfg SiteConfig, v detail.View) templ.Component {
	return Layout(cfg, postMeta(cfg, v), PostPartial(cfg, v))
}

// PostPartial renders the post container alone. Pending pages swap it in.
func PostPartial(cfg SiteConfig, v detail.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="post-container" id="`, PostContainerID, `">`)
		if src := BannerSrc(cfg, v.Post); src != "" {
			h.raw(`<img class="banner"`)
			h.url("src", src)
			alt := v.Post.Banner.Alt
			if alt == "" {
				alt = "banner"
			}
			h.attr("alt", alt)
			h.raw(`>`)
		}
		h.raw(`<article><h1>`)
		h.text(v.Post.Title)
		h.raw(`</h1><div class="info">`)
		if v.Post.FirstPublicationDate != nil {
			h.raw(`<time`)
			h.attr("datetime", ISODate(v.Post.FirstPublicationDate))
			h.raw(`>`)
			h.text(FormatDate(v.Post.FirstPublicationDate, cfg.Location))
			h.raw(`</time>`)
		}
		if v.Post.Author != "" {
			h.raw(`<span class="author">`)
			h.text(v.Post.Author)
			h.raw(`</span>`)
		}
		h.raw(`<span class="reading-time">`, strconv.Itoa(v.ReadingTime), ` min</span></div>`)
		if edited := v.Post.LastPublicationDate; edited != nil && v.Post.FirstPublicationDate != nil && edited.After(*v.Post.FirstPublicationDate) {
			h.raw(`<p class="edited">* editado em `)
			h.text(FormatDate(edited, cfg.Location))
			h.raw(`</p>`)
		}
		// Content is rendered from escaped rich text.
		h.raw(`<section class="post-content">`, v.Content, `</section></article>`)
		h.component(adjacentNav(v.Adjacent))
		h.component(comments.Embed(cfg.Comments, v.UID))
		h.raw(`</main>`)
		return h.err
	})
}

// BannerSrc is the image source used for a post's banner.
func BannerSrc(cfg SiteConfig, post cms.PostDetail) string {
	if post.Banner.URL == "" {
		return ""
	}
	if cfg.BannerProxy {
		return "/banner/" + PathEscape(post.UID) + "/"
	}
	return post.Banner.URL
}

func adjacentNav(adj cms.AdjacentPosts) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if adj.Previous == nil && adj.Next == nil {
			return nil
		}
		h := newWriter(ctx, w)
		h.raw(`<nav class="post-nav">`)
		if p := adj.Previous; p != nil {
			h.raw(`<a class="prev" rel="prev"`)
			h.url("href", p.Link())
			h.raw(`><span>`)
			h.text(p.Title)
			h.raw(`</span><strong>Post anterior</strong></a>`)
		}
		if n := adj.Next; n != nil {
			h.raw(`<a class="next" rel="next"`)
			h.url("href", n.Link())
			h.raw(`><span>`)
			h.text(n.Title)
			h.raw(`</span><strong>Próximo post</strong></a>`)
		}
		h.raw(`</nav>`)
		return h.err
	})
}

// PostPending is shown for a post that is not available yet. It asks for
// the post body as soon as it loads.
func PostPending(cfg SiteConfig, uid string) templ.Component {
	meta := PageMeta{
		Title:  cfg.Name,
		URL:    PostURL(cfg, uid),
		OGType: "article",
	}
	return Layout(cfg, meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="post-container" id="`, PostContainerID, `"`)
		h.url("hx-get", "/post/"+PathEscape(uid)+"/?"+PartialParam+"=post")
		h.raw(` hx-trigger="load" hx-swap="outerHTML"><p class="loading">Carregando...</p></main>`)
		return h.err
	}))
}

// NotFound is the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Página não encontrada"}, NotFoundPartial())
}

// NotFoundPartial is the 404 body, also swapped into a pending post page.
func NotFoundPartial() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="container error" id="`, PostContainerID, `"><h1>Página não encontrada</h1>`)
		h.raw(`<p>O conteúdo que você procura não existe.</p><a href="/">Voltar para o início</a></main>`)
		return h.err
	})
}

// ServerError is the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return Layout(cfg, PageMeta{Title: "Erro"}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="container error"><h1>Algo deu errado</h1>`)
		h.raw(`<p>Tente novamente em alguns instantes.</p><a href="/">Voltar para o início</a></main>`)
		return h.err
	}))
}

// ServerErrorPartial replaces a pending post body when resolving it failed.
// The retry button asks for the same partial again.
func ServerErrorPartial(uid string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := newWriter(ctx, w)
		h.raw(`<main class="container error" id="`, PostContainerID, `"><h1>Algo deu errado</h1>`)
		h.raw(`<p>Tente novamente em alguns instantes.</p><button type="button"`)
		h.url("hx-get", "/post/"+PathEscape(uid)+"/?"+PartialParam+"=post")
		h.raw(` hx-target="#`, PostContainerID, `" hx-swap="outerHTML">Tentar novamente</button>`)
		h.raw(`<a href="/">Voltar para o início</a></main>`)
		return h.err
	})
}
