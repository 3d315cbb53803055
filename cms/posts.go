package cms

import (
	"context"
	"fmt"
)

func (c *Client) uidPath() string {
	return "my." + c.cfg.DocumentType + ".uid"
}

// GetPostByUID returns the full post with the given uid, or a NotFoundError.
func (c *Client) GetPostByUID(ctx context.Context, uid string) (PostDetail, error) {
	posts, err := c.postsByUID(ctx, []string{uid})
	if err != nil {
		return PostDetail{}, err
	}
	if len(posts) == 0 {
		return PostDetail{}, &NotFoundError{UID: uid}
	}
	return posts[0], nil
}

// postsByUID fetches up to MaxPageSize posts in a single search. Missing uids
// are simply absent from the result.
func (c *Client) postsByUID(ctx context.Context, uids []string) ([]PostDetail, error) {
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > MaxPageSize {
		return nil, fmt.Errorf("%w: %d uids in one lookup", ErrInvalidQuery, len(uids))
	}
	opts := QueryOptions{
		PageSize:   len(uids),
		Predicates: []Predicate{At("document.type", c.cfg.DocumentType)},
	}
	if len(uids) == 1 {
		opts.Predicates = append(opts.Predicates, At(c.uidPath(), uids[0]))
	} else {
		opts.Predicates = append(opts.Predicates, In(c.uidPath(), uids))
	}
	u, err := c.searchURL(ctx, opts)
	if err != nil {
		return nil, err
	}
	resp, err := search[PostDetail](ctx, c, "get by uid", u)
	if err != nil {
		return nil, err
	}
	return resp.results(len(uids)), nil
}

// Adjacency is the strict total order on (first publication date, document
// id), so posts published in the same second still have exactly one
// neighbour on each side.
var (
	olderFirst = []Ordering{
		{Field: FieldFirstPublicationDate, Desc: true},
		{Field: FieldDocumentID, Desc: true},
	}
	newerFirst = []Ordering{
		{Field: FieldFirstPublicationDate},
		{Field: FieldDocumentID},
	}
)

// AdjacentTo returns the posts published immediately before and after post.
func (c *Client) AdjacentTo(ctx context.Context, post PostSummary) (AdjacentPosts, error) {
	var adj AdjacentPosts
	prev, err := c.QueryPosts(ctx, QueryOptions{PageSize: 1, After: post.ID, Orderings: olderFirst})
	if err != nil {
		return adj, fmt.Errorf("previous post: %w", err)
	}
	next, err := c.QueryPosts(ctx, QueryOptions{PageSize: 1, After: post.ID, Orderings: newerFirst})
	if err != nil {
		return adj, fmt.Errorf("next post: %w", err)
	}
	if len(prev.Results) > 0 {
		adj.Previous = &prev.Results[0]
	}
	if len(next.Results) > 0 {
		adj.Next = &next.Results[0]
	}
	return adj, nil
}

// GetAdjacentPosts resolves uid and returns its neighbours.
func (c *Client) GetAdjacentPosts(ctx context.Context, uid string) (AdjacentPosts, error) {
	post, err := c.GetPostByUID(ctx, uid)
	if err != nil {
		return AdjacentPosts{}, err
	}
	return c.AdjacentTo(ctx, post.PostSummary)
}

// FirstPage returns the newest pageSize posts.
func (c *Client) FirstPage(ctx context.Context, pageSize int) (Page, error) {
	return c.QueryPosts(ctx, QueryOptions{PageSize: pageSize, Orderings: NewestFirst})
}
