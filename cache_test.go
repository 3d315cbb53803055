package pubfront

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/detail"
)

func TestContentCacheFirstPageRevalidates(t *testing.T) {
	a, srv := newTestApp(t, fivePosts()...)
	now, advance := fixedClock()
	a.Cache.now = now
	ctx := context.Background()

	page, err := a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, summaryUIDs(page.Results))
	assert.NotEmpty(t, page.NextPage)
	searches := srv.Searches()

	_, err = a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, searches, srv.Searches(), "fresh page should be served from memory")

	advance(a.Config.ListingRevalidate + time.Second)
	_, err = a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	assert.Greater(t, srv.Searches(), searches, "expired page should be refetched")
}

func TestContentCacheFallsBackToSnapshot(t *testing.T) {
	a, srv := newTestApp(t, fivePosts()...)
	ctx := context.Background()

	_, err := a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	_, err = a.Cache.Post(ctx, "c")
	require.NoError(t, err)

	a.Cache.Invalidate()
	srv.FailWith(http.StatusServiceUnavailable)

	page, err := a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, summaryUIDs(page.Results))
	assert.Empty(t, page.NextPage, "a snapshot cannot be paged further")

	v, err := a.Cache.Post(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, detail.Ready, v.State)
	assert.Equal(t, "Title c", v.Post.Title)

	_, err = a.Cache.Post(ctx, "a")
	assert.True(t, cms.IsFetchError(err), "posts never fetched have no snapshot")
}

func TestContentCachePropagatesErrorsWithoutSnapshot(t *testing.T) {
	a, srv := newTestApp(t, fivePosts()...)
	srv.FailWith(http.StatusBadGateway)

	_, err := a.Cache.FirstPage(context.Background())
	assert.True(t, cms.IsFetchError(err))
}

func TestContentCachePost(t *testing.T) {
	a, srv := newTestApp(t, fivePosts()...)
	now, advance := fixedClock()
	a.Cache.now = now
	ctx := context.Background()

	_, ok := a.Cache.CachedPost("c")
	assert.False(t, ok)

	v, err := a.Cache.Post(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, detail.Ready, v.State)
	require.NotNil(t, v.Adjacent.Previous)
	require.NotNil(t, v.Adjacent.Next)
	assert.Equal(t, "b", v.Adjacent.Previous.UID)
	assert.Equal(t, "d", v.Adjacent.Next.UID)

	cached, ok := a.Cache.CachedPost("c")
	require.True(t, ok)
	assert.Equal(t, v.Content, cached.Content)

	stored, err := a.Store.GetPost("c")
	require.NoError(t, err)
	assert.Equal(t, "Title c", stored.Title)

	searches := srv.Searches()
	_, err = a.Cache.Post(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, searches, srv.Searches())

	advance(a.Config.PostRevalidate + time.Second)
	_, ok = a.Cache.CachedPost("c")
	assert.False(t, ok, "expired post should not be served from memory")
}

func TestContentCacheDropsUnpublishedPosts(t *testing.T) {
	docs := fivePosts()
	a, srv := newTestApp(t, docs...)
	ctx := context.Background()

	_, err := a.Cache.Post(ctx, "c")
	require.NoError(t, err)
	a.Cache.Invalidate()

	srv.SetDocs(docs[0], docs[1], docs[3], docs[4])
	v, err := a.Cache.Post(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, detail.NotFound, v.State)

	_, err = a.Store.GetPost("c")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentCacheAllPosts(t *testing.T) {
	a, srv := newTestApp(t, fivePosts()...)
	ctx := context.Background()

	posts, err := a.Cache.AllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, summaryUIDs(posts))

	stored, err := a.Store.ListPosts(0)
	require.NoError(t, err)
	assert.Len(t, stored, 5)

	a.Cache.Invalidate()
	srv.FailWith(http.StatusServiceUnavailable)
	posts, err = a.Cache.AllPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, summaryUIDs(posts))
}

func TestContentCachePutIgnoresNonReadyViews(t *testing.T) {
	a, _ := newTestApp(t)
	a.Cache.Put(detail.PendingView("x"))
	_, ok := a.Cache.CachedPost("x")
	assert.False(t, ok)
}

func TestContentCacheLogsSnapshotWriteFailures(t *testing.T) {
	a, _ := newTestApp(t, fivePosts()...)
	var logs bytes.Buffer
	a.Echo.Logger.SetOutput(&logs)
	require.NoError(t, a.Store.Close())
	ctx := context.Background()

	v, err := a.Cache.Post(ctx, "c")
	require.NoError(t, err, "a failed snapshot write does not fail the read")
	assert.Equal(t, "Title c", v.Post.Title)
	assert.Contains(t, logs.String(), "snapshot save c")

	logs.Reset()
	page, err := a.Cache.FirstPage(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e", "d"}, summaryUIDs(page.Results))
	assert.Contains(t, logs.String(), "snapshot save summary e")
}
