package pubfront

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubfront/cms"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	data, err := processImage(bytes.NewReader(pngBytes(t, 1600, 400)))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, maxImageWidth, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestProcessImageKeepsNarrowImages(t *testing.T) {
	data, err := processImage(bytes.NewReader(pngBytes(t, 300, 100)))
	require.NoError(t, err)

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	_, err := processImage(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func imageServer(t *testing.T, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/banner.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestBannerCacheStoresOnDisk(t *testing.T) {
	srv, hits := imageServer(t, pngBytes(t, 1200, 600))
	b := NewBannerCache(t.TempDir())
	ctx := context.Background()

	first, err := b.Get(ctx, srv.URL+"/banner.png")
	require.NoError(t, err)
	second, err := b.Get(ctx, srv.URL+"/banner.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second read comes from disk")
	assert.FileExists(t, b.path(srv.URL+"/banner.png"))
}

func TestBannerCacheErrors(t *testing.T) {
	srv, _ := imageServer(t, pngBytes(t, 10, 10))
	b := NewBannerCache(t.TempDir())
	ctx := context.Background()

	_, err := b.Get(ctx, "file:///etc/passwd")
	assert.Error(t, err)
	_, err = b.Get(ctx, srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestHandleBanner(t *testing.T) {
	img, _ := imageServer(t, pngBytes(t, 1000, 500))
	docs := fivePosts()
	docs[2].Banner = cms.Banner{URL: img.URL + "/banner.png"}
	docs[3].Banner = cms.Banner{}
	docs[4].Banner = cms.Banner{URL: img.URL + "/missing.png"}
	a, _ := newTestApp(t, docs...)

	rec := a.serve(request{target: "/banner/c/"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	cfg, err := jpeg.DecodeConfig(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, maxImageWidth, cfg.Width)

	assert.Equal(t, http.StatusNotFound, a.serve(request{target: "/banner/d/"}).Code, "post without banner")
	assert.Equal(t, http.StatusNotFound, a.serve(request{target: "/banner/missing/"}).Code)

	// Unreachable images fall back to the original URL.
	rec = a.serve(request{target: "/banner/e/"})
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, img.URL+"/missing.png", rec.Header().Get("Location"))
}
