package views

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/comments"
	"github.com/eringen/pubfront/detail"
	"github.com/eringen/pubfront/richtext"
)

var testCfg = SiteConfig{
	Name:        "spacetraveling",
	URL:         "https://blog.example.com",
	Description: "Notes from orbit",
	Author:      "Ada",
	Location:    time.UTC,
	BannerProxy: true,
}

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func mustContain(t *testing.T, got string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q\n%s", w, got)
		}
	}
}

func at(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &v
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in   *time.Time
		want string
	}{
		{at(2021, time.March, 25), "25 mar 2021"},
		{at(2020, time.February, 3), "03 fev 2020"},
		{at(2019, time.December, 31), "31 dez 2019"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.in, time.UTC); got != tt.want {
			t.Errorf("FormatDate(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	late := time.Date(2021, time.March, 26, 1, 0, 0, 0, time.UTC)
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	if got := FormatDate(&late, saoPaulo); got != "25 mar 2021" {
		t.Errorf("FormatDate = %q, want 25 mar 2021", got)
	}
}

func TestBuildURL(t *testing.T) {
	if got := buildURL("https://blog.example.com", "post", "hello"); got != "https://blog.example.com/post/hello/" {
		t.Errorf("buildURL = %q", got)
	}
	if got := buildURL("https://blog.example.com"); got != "https://blog.example.com" {
		t.Errorf("buildURL without segments = %q", got)
	}
}

func TestPostItems(t *testing.T) {
	posts := []cms.PostSummary{
		{UID: "first", Title: "First <post>", Subtitle: "Sub", Author: "Ada", FirstPublicationDate: at(2021, time.March, 25)},
		{UID: "second", Title: "Second"},
	}
	got := render(t, PostItems(testCfg, posts))
	mustContain(t, got,
		`href="/post/first/"`,
		`First &lt;post&gt;`,
		`<p>Sub</p>`,
		`25 mar 2021`,
		`<span class="author">Ada</span>`,
		`href="/post/second/"`,
	)
	if strings.Index(got, "first") > strings.Index(got, "second") {
		t.Error("posts rendered out of order")
	}
}

func TestLoadMore(t *testing.T) {
	got := render(t, LoadMore(true, false))
	mustContain(t, got, `id="load-more"`, `hx-get="/posts/more/"`, `hx-swap="outerHTML"`, "Carregar mais posts")

	exhausted := render(t, LoadMore(false, false))
	if strings.Contains(exhausted, "<button") {
		t.Errorf("exhausted listing should not offer a button: %s", exhausted)
	}
	mustContain(t, exhausted, `id="load-more"`)

	failed := render(t, LoadMore(true, true))
	mustContain(t, failed, `role="alert"`, "Tentar novamente")
}

func TestHomeRendersLayout(t *testing.T) {
	got := render(t, Home(testCfg, []cms.PostSummary{{UID: "a", Title: "A"}}, true))
	mustContain(t, got,
		`<html lang="pt-BR">`,
		`<title>spacetraveling</title>`,
		`<link rel="canonical" href="https://blog.example.com">`,
		`application/ld+json`,
		`"@type":"WebSite"`,
		`href="/post/a/"`,
		`/public/htmx.min.js`,
	)
}

func readyView() detail.View {
	post := cms.PostDetail{
		PostSummary: cms.PostSummary{
			ID: "doc-1", UID: "hello", Title: "Hello", Subtitle: "World", Author: "Ada",
			FirstPublicationDate: at(2021, time.March, 25),
			LastPublicationDate:  at(2021, time.March, 27),
		},
		Banner: cms.Banner{URL: "https://images.example.com/hello.png", Alt: "A rocket"},
		Content: []cms.ContentBlock{
			{Heading: "Intro", Body: richtext.RichText{{Type: richtext.TypeParagraph, Text: "Hi"}}},
		},
	}
	v := detail.Derive(post)
	v.Adjacent = cms.AdjacentPosts{
		Previous: &cms.PostSummary{UID: "older", Title: "Older"},
	}
	return v
}

func TestPostPage(t *testing.T) {
	got := render(t, Post(testCfg, readyView()))
	mustContain(t, got,
		`<title>Hello | spacetraveling</title>`,
		`<meta property="og:image" content="https://images.example.com/hello.png">`,
		`src="/banner/hello/"`,
		`alt="A rocket"`,
		`<h1>Hello</h1>`,
		`25 mar 2021`,
		`1 min`,
		`editado em 27 mar 2021`,
		`<h1>Intro</h1><p>Hi</p>`,
		`href="/post/older/"`,
		"Post anterior",
		`"@type":"BlogPosting"`,
	)
	if strings.Contains(got, "Próximo post") {
		t.Error("next link rendered without a next post")
	}
}

func TestPostPartialWithoutNeighbours(t *testing.T) {
	v := readyView()
	v.Adjacent = cms.AdjacentPosts{}
	got := render(t, PostPartial(testCfg, v))
	if strings.Contains(got, "<nav") {
		t.Errorf("nav rendered without neighbours: %s", got)
	}
	if strings.Contains(got, "<html") {
		t.Error("partial should not include the layout")
	}
}

func TestPostBannerWithoutProxy(t *testing.T) {
	cfg := testCfg
	cfg.BannerProxy = false
	got := render(t, PostPartial(cfg, readyView()))
	mustContain(t, got, `src="https://images.example.com/hello.png"`)
}

func TestPostBannerRejectsScriptURL(t *testing.T) {
	cfg := testCfg
	cfg.BannerProxy = false
	v := readyView()
	v.Post.Banner.URL = "javascript:alert(1)"
	got := render(t, PostPartial(cfg, v))
	mustContain(t, got, `src="`+string(templ.FailedSanitizationURL)+`"`)
	if strings.Contains(got, "javascript:") {
		t.Errorf("script URL rendered: %s", got)
	}
}

func TestPostComments(t *testing.T) {
	cfg := testCfg
	cfg.Comments = comments.Config{Repo: "ada/blog-comments"}
	cfg.Comments.SetDefaults()
	got := render(t, PostPartial(cfg, readyView()))
	mustContain(t, got, `utteranc.es`, `ada/blog-comments`)
}

func TestPostPending(t *testing.T) {
	got := render(t, PostPending(testCfg, "soon"))
	mustContain(t, got,
		`id="post"`,
		`hx-get="/post/soon/?partial=post"`,
		`hx-trigger="load"`,
		"Carregando...",
	)
}

func TestErrorPages(t *testing.T) {
	mustContain(t, render(t, NotFound(testCfg)), "Página não encontrada", `href="/"`)
	mustContain(t, render(t, ServerError(testCfg)), "Algo deu errado")

	partial := render(t, ServerErrorPartial("a b"))
	mustContain(t, partial,
		`id="post"`,
		"Algo deu errado",
		`hx-get="/post/a%20b/?partial=post"`,
		`hx-target="#post"`,
	)
	if strings.Contains(partial, "<html") {
		t.Error("partial should not include the layout")
	}
}

func TestBlogPostingJsonLD(t *testing.T) {
	got := BlogPostingJsonLD(testCfg, readyView().Post)
	mustContain(t, got,
		`"headline":"Hello"`,
		`"url":"https://blog.example.com/post/hello/"`,
		`"datePublished":"2021-03-25T12:00:00Z"`,
		`"image":"https://images.example.com/hello.png"`,
	)
}
