// Package comments embeds the utterances discussion thread on post pages.
package comments

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ScriptSrc is the utterances client script.
const ScriptSrc = "https://utteranc.es/client.js"

// Config selects the GitHub repository that stores the threads and how
// posts are mapped to issues.
type Config struct {
	Repo      string `yaml:"repo"`       // owner/name; empty disables comments
	IssueTerm string `yaml:"issue_term"` // pathname, url, title or og:title
	Theme     string `yaml:"theme"`
	Label     string `yaml:"label"`
}

func (c *Config) SetDefaults() {
	if c.IssueTerm == "" {
		c.IssueTerm = "url"
	}
	if c.Theme == "" {
		c.Theme = "github-dark"
	}
}

// Enabled reports whether a repository is configured.
func (c Config) Enabled() bool {
	return c.Repo != ""
}

// ContainerID is the id of the element that owns the thread for uid. A page
// swap that changes uid replaces the element, tearing the old thread down.
func ContainerID(uid string) string {
	return "comments-" + uid
}

// Embed returns the thread container for the post uid.
func Embed(cfg Config, uid string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if !cfg.Enabled() || uid == "" {
			return nil
		}
		cfg.SetDefaults()
		s := `<div class="comments" id="` + templ.EscapeString(ContainerID(uid)) + `">` +
			`<script src="` + ScriptSrc + `"` +
			` repo="` + templ.EscapeString(cfg.Repo) + `"` +
			` issue-term="` + templ.EscapeString(cfg.IssueTerm) + `"` +
			` theme="` + templ.EscapeString(cfg.Theme) + `"`
		if cfg.Label != "" {
			s += ` label="` + templ.EscapeString(cfg.Label) + `"`
		}
		s += ` crossorigin="anonymous" async></script></div>`
		_, err := io.WriteString(w, s)
		return err
	})
}
