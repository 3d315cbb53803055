package pubfront

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/cms/cmstest"
)

// fivePosts are published a day apart; "e" is the newest.
func fivePosts() []cms.PostDetail {
	var docs []cms.PostDetail
	for i, uid := range []string{"a", "b", "c", "d", "e"} {
		docs = append(docs, testPost("doc-"+uid, uid, i+1))
	}
	return docs
}

func testConfig(t *testing.T) SiteConfig {
	t.Helper()
	dir := t.TempDir()
	return SiteConfig{
		Name:          "spacetraveling",
		URL:           "https://blog.example.com",
		Description:   "Notes from orbit",
		TimeZone:      "UTC",
		SessionSecret: "0123456789abcdef0123456789abcdef",
		DatabasePath:  filepath.Join(dir, "data", "pubfront.db"),
		BannerDir:     filepath.Join(dir, "banners"),
	}
}

func newTestApp(t *testing.T, docs ...cms.PostDetail) (*App, *cmstest.Server) {
	t.Helper()
	srv := cmstest.NewServer(docs...)
	t.Cleanup(srv.Close)
	a := New(testConfig(t), ViewFuncs{}, WithClient(srv.Client()), WithStaticDir(t.TempDir()))
	require.NoError(t, a.Init())
	t.Cleanup(func() { a.Close() })
	return a, srv
}

type request struct {
	target  string
	htmx    bool
	cookies []*http.Cookie
}

func (a *App) serve(r request) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, r.target, nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if r.htmx {
		req.Header.Set("HX-Request", "true")
	}
	for _, c := range r.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

// fixedClock returns a clock the test can advance.
func fixedClock() (now func() time.Time, advance func(time.Duration)) {
	t := time.Date(2021, 3, 25, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }, func(d time.Duration) { t = t.Add(d) }
}
