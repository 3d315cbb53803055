package pubfront

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/detail"
)

// loaderWait is how long the post loader collects uids before querying.
const loaderWait = 2 * time.Millisecond

// Warm resolves the newest StaticPaths posts into the cache so their first
// visit is served without the pending page.
func (a *App) Warm(ctx context.Context) error {
	page, err := a.Client.FirstPage(ctx, a.Config.StaticPaths)
	if err != nil {
		return err
	}
	vs, err := a.resolveMany(ctx, summaryUIDs(page.Results))
	if err != nil {
		return err
	}
	for _, v := range vs {
		a.Cache.Put(v)
	}
	return nil
}

// resolveMany loads the posts with the given uids in batches and resolves
// their neighbours. Posts that disappeared meanwhile are skipped.
func (a *App) resolveMany(ctx context.Context, uids []string) ([]detail.View, error) {
	loader := cms.NewPostLoader(a.Client, loaderWait)
	posts, errs := loader.LoadMany(ctx, uids)
	views := make([]detail.View, 0, len(posts))
	for i, post := range posts {
		if i < len(errs) && errs[i] != nil {
			if cms.IsNotFound(errs[i]) {
				continue
			}
			return nil, errs[i]
		}
		adj, err := a.Client.AdjacentTo(ctx, post.PostSummary)
		if err != nil {
			return nil, fmt.Errorf("neighbours of %s: %w", post.UID, err)
		}
		v := detail.Derive(post)
		v.Adjacent = adj
		views = append(views, v)
	}
	return views, nil
}

// GenerateOptions controls a static export.
type GenerateOptions struct {
	Dir string // output directory
	All bool   // render every post instead of the newest StaticPaths
}

// Generate writes the site as static files: index.html, one
// post/<uid>/index.html per exported post, feed.xml and sitemap.xml.
// Without All only the newest StaticPaths posts are exported, and the
// listing, feed, sitemap and neighbour links leave the rest out.
// It returns the number of post pages written.
func (a *App) Generate(ctx context.Context, opts GenerateOptions) (int, error) {
	if err := a.initContent(); err != nil {
		return 0, err
	}
	if opts.Dir == "" {
		return 0, fmt.Errorf("pubfront: output directory is required")
	}
	if a.defaultViews {
		a.Views = DefaultViews(a.Config.ViewConfig(false))
	}

	all, err := a.Cache.AllPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("pubfront: list posts: %w", err)
	}
	uids := summaryUIDs(all)
	if !opts.All && len(uids) > a.Config.StaticPaths {
		uids = uids[:a.Config.StaticPaths]
	}
	vs, err := a.resolveMany(ctx, uids)
	if err != nil {
		return 0, fmt.Errorf("pubfront: resolve posts: %w", err)
	}

	written := make(map[string]bool, len(vs))
	for _, v := range vs {
		written[v.UID] = true
	}
	exported := make([]cms.PostSummary, 0, len(vs))
	for _, p := range all {
		if written[p.UID] {
			exported = append(exported, p)
		}
	}

	// A static host cannot answer load-more requests, so the exported
	// listing carries every exported post.
	if err := a.writePage(ctx, filepath.Join(opts.Dir, "index.html"), a.Views.Home(exported, false)); err != nil {
		return 0, err
	}
	for _, v := range vs {
		v.Adjacent = keepExported(v.Adjacent, written)
		if err := a.writePage(ctx, filepath.Join(opts.Dir, "post", v.UID, "index.html"), a.Views.Post(v)); err != nil {
			return 0, err
		}
		if err := a.Store.SavePost(v.Post); err != nil {
			a.Echo.Logger.Errorf("snapshot save %s: %v", v.UID, err)
		}
	}

	var buf bytes.Buffer
	if err := a.writeRSS(&buf, exported); err != nil {
		return 0, err
	}
	if err := writeFile(filepath.Join(opts.Dir, "feed.xml"), buf.Bytes()); err != nil {
		return 0, err
	}
	buf.Reset()
	if err := a.writeSitemap(&buf, exported); err != nil {
		return 0, err
	}
	if err := writeFile(filepath.Join(opts.Dir, "sitemap.xml"), buf.Bytes()); err != nil {
		return 0, err
	}
	return len(vs), nil
}

// keepExported drops neighbours that have no page in the export.
func keepExported(adj cms.AdjacentPosts, written map[string]bool) cms.AdjacentPosts {
	if adj.Previous != nil && !written[adj.Previous.UID] {
		adj.Previous = nil
	}
	if adj.Next != nil && !written[adj.Next.UID] {
		adj.Next = nil
	}
	return adj
}

func (a *App) writePage(ctx context.Context, path string, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(ctx, &buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
