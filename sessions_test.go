package pubfront

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubfront/listing"
)

func TestListingRegistryAddGet(t *testing.T) {
	r := NewListingRegistry(time.Minute, 0)
	defer r.Close()

	agg := listing.New(nil)
	id := r.Add(agg)
	require.NotEmpty(t, id)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, agg, got)

	other := r.Add(listing.New(nil))
	assert.NotEqual(t, id, other)
	assert.Equal(t, 2, r.Len())

	r.Remove(id)
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestListingRegistryExpiresIdleEntries(t *testing.T) {
	r := NewListingRegistry(time.Minute, 0)
	defer r.Close()
	now := time.Date(2021, 3, 25, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	stale := r.Add(listing.New(nil))
	now = now.Add(45 * time.Second)
	fresh := r.Add(listing.New(nil))

	now = now.Add(30 * time.Second)
	_, ok := r.Get(stale)
	assert.False(t, ok, "entry idle past the ttl should be gone")
	_, ok = r.Get(fresh)
	assert.True(t, ok)

	now = now.Add(50 * time.Second)
	r.evict()
	assert.Equal(t, 1, r.Len(), "entry touched by Get survives eviction")

	now = now.Add(2 * time.Minute)
	r.evict()
	assert.Zero(t, r.Len())
}

func TestListingRegistryDropsLeastRecentlyUsed(t *testing.T) {
	r := NewListingRegistry(time.Hour, 2)
	defer r.Close()
	now := time.Date(2021, 3, 25, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	first := r.Add(listing.New(nil))
	now = now.Add(time.Second)
	second := r.Add(listing.New(nil))
	now = now.Add(time.Second)
	_, ok := r.Get(first)
	require.True(t, ok)

	now = now.Add(time.Second)
	third := r.Add(listing.New(nil))
	assert.Equal(t, 2, r.Len())
	_, ok = r.Get(second)
	assert.False(t, ok, "least recently used entry makes room")
	_, ok = r.Get(first)
	assert.True(t, ok)
	_, ok = r.Get(third)
	assert.True(t, ok)
}

func TestListingRegistryReplace(t *testing.T) {
	r := NewListingRegistry(time.Minute, 0)
	defer r.Close()

	id := r.Add(listing.New(nil))
	next := listing.New(nil)
	require.True(t, r.Replace(id, next))
	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, next, got)
	assert.Equal(t, 1, r.Len())

	assert.False(t, r.Replace("unknown", next))
	assert.Equal(t, 1, r.Len())
}
