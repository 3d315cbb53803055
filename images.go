package pubfront

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/pubfront/detail"
)

const (
	maxImageWidth  = 800
	jpegQuality    = 80
	maxBannerBytes = 10 << 20 // 10MB
)

// processImage decodes an image from src, resizes it to maxImageWidth when
// wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// BannerCache downloads banner images, shrinks them and keeps the result on
// disk keyed by source URL.
type BannerCache struct {
	dir  string
	http *http.Client
}

// NewBannerCache stores resized banners under dir.
func NewBannerCache(dir string) *BannerCache {
	return &BannerCache{
		dir:  dir,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *BannerCache) path(src string) string {
	return filepath.Join(b.dir, uuid.NewSHA1(uuid.NameSpaceURL, []byte(src)).String()+".jpg")
}

// Get returns the resized JPEG for the image at src.
func (b *BannerCache) Get(ctx context.Context, src string) ([]byte, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("banner url %q: unsupported scheme", src)
	}
	p := b.path(src)
	if data, err := os.ReadFile(p); err == nil {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch banner: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch banner: status %d", resp.StatusCode)
	}
	data, err := processImage(io.LimitReader(resp.Body, maxBannerBytes))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create banner dir: %w", err)
	}
	tmp, err := os.CreateTemp(b.dir, "banner-*")
	if err != nil {
		return nil, err
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		return data, nil
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
	}
	return data, nil
}

func (a *App) handleBanner(c echo.Context) error {
	uid := c.Param("uid")
	v, err := a.Cache.Post(c.Request().Context(), uid)
	if err != nil {
		return err
	}
	if v.State != detail.Ready || v.Post.Banner.URL == "" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	data, err := a.banners.Get(c.Request().Context(), v.Post.Banner.URL)
	if err != nil {
		c.Logger().Warnf("banner %s: %v", uid, err)
		return c.Redirect(http.StatusFound, v.Post.Banner.URL)
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
