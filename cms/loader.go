package cms

import (
	"context"
	"time"

	"github.com/graph-gophers/dataloader/v7"
)

// PostLoader batches concurrent uid lookups into single "in" queries.
type PostLoader struct {
	client *Client
	loader *dataloader.Loader[string, PostDetail]
}

// NewPostLoader returns a loader that collects lookups for up to wait before
// issuing one search per MaxPageSize uids.
func NewPostLoader(c *Client, wait time.Duration) *PostLoader {
	l := &PostLoader{client: c}
	l.loader = dataloader.NewBatchedLoader(l.batch,
		dataloader.WithBatchCapacity[string, PostDetail](MaxPageSize),
		dataloader.WithWait[string, PostDetail](wait),
	)
	return l
}

// Load returns the post with the given uid, or a NotFoundError.
func (l *PostLoader) Load(ctx context.Context, uid string) (PostDetail, error) {
	return l.loader.Load(ctx, uid)()
}

// LoadMany returns the posts for uids in order; errs[i] is set for misses.
func (l *PostLoader) LoadMany(ctx context.Context, uids []string) ([]PostDetail, []error) {
	return l.loader.LoadMany(ctx, uids)()
}

func (l *PostLoader) batch(ctx context.Context, uids []string) []*dataloader.Result[PostDetail] {
	results := make([]*dataloader.Result[PostDetail], len(uids))
	posts, err := l.client.postsByUID(ctx, uids)
	if err != nil {
		for i := range results {
			results[i] = &dataloader.Result[PostDetail]{Error: err}
		}
		return results
	}
	byUID := make(map[string]PostDetail, len(posts))
	for _, p := range posts {
		byUID[p.UID] = p
	}
	for i, uid := range uids {
		if p, ok := byUID[uid]; ok {
			results[i] = &dataloader.Result[PostDetail]{Data: p}
		} else {
			results[i] = &dataloader.Result[PostDetail]{Error: &NotFoundError{UID: uid}}
		}
	}
	return results
}
