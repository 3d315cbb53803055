package pubfront

import (
	"net/url"
	"path"
	"strings"

	"github.com/eringen/pubfront/cms"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// summaryUIDs returns the uids of posts in order.
func summaryUIDs(posts []cms.PostSummary) []string {
	uids := make([]string, len(posts))
	for i, p := range posts {
		uids[i] = p.UID
	}
	return uids
}
