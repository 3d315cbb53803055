// Package detail resolves a single post into everything its page shows:
// the document, estimated reading time, merged content HTML and links to the
// neighbouring posts.
package detail

import (
	"context"
	"html"
	"strings"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/richtext"
)

// WordsPerMinute is the reading speed used for reading time estimates.
const WordsPerMinute = 200

// State is the lifecycle of a post view.
type State int

const (
	// Pending is shown while the post is still being resolved. Nothing is derived yet.
	Pending State = iota
	// Ready has the post, its derived fields and its neighbours.
	Ready
	// NotFound means no post has the requested uid.
	NotFound
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotFound:
		return "not found"
	default:
		return "pending"
	}
}

// View is what the post page renders.
type View struct {
	State       State
	UID         string
	Post        cms.PostDetail
	ReadingTime int    // minutes
	Content     string // rendered HTML
	Adjacent    cms.AdjacentPosts
}

// PendingView is the placeholder view for uid.
func PendingView(uid string) View {
	return View{State: Pending, UID: uid}
}

// Fetcher loads posts and their neighbours.
type Fetcher interface {
	GetPostByUID(ctx context.Context, uid string) (cms.PostDetail, error)
	AdjacentTo(ctx context.Context, post cms.PostSummary) (cms.AdjacentPosts, error)
}

// Resolver turns a uid into a Ready or NotFound view.
type Resolver struct {
	fetcher Fetcher
}

func NewResolver(f Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Resolve fetches the post and its neighbours. A missing post yields a
// NotFound view and no error; any other failure is returned.
func (r *Resolver) Resolve(ctx context.Context, uid string) (View, error) {
	post, err := r.fetcher.GetPostByUID(ctx, uid)
	if err != nil {
		if cms.IsNotFound(err) {
			return View{State: NotFound, UID: uid}, nil
		}
		return View{}, err
	}
	adj, err := r.fetcher.AdjacentTo(ctx, post.PostSummary)
	if err != nil {
		return View{}, err
	}
	v := Derive(post)
	v.Adjacent = adj
	return v, nil
}

// Derive computes the Ready view of post without neighbours.
func Derive(post cms.PostDetail) View {
	return View{
		State:       Ready,
		UID:         post.UID,
		Post:        post,
		ReadingTime: ReadingTime(post.Content),
		Content:     RenderContent(post.Content),
	}
}

// ReadingTime estimates minutes to read blocks: heading and body words at
// WordsPerMinute, rounded up. No blocks means zero minutes.
func ReadingTime(blocks []cms.ContentBlock) int {
	words := 0
	for _, b := range blocks {
		words += len(strings.Fields(b.Heading))
		words += len(strings.Fields(richtext.AsText(b.Body)))
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// RenderContent concatenates each block's heading, as an <h1>, and its body HTML.
func RenderContent(blocks []cms.ContentBlock) string {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString("<h1>")
		b.WriteString(html.EscapeString(block.Heading))
		b.WriteString("</h1>")
		b.WriteString(richtext.AsHTML(block.Body))
	}
	return b.String()
}
