// Package richtext renders the content API's structured text fields as HTML or
// plain text, and as a templ component.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/a-h/templ"
)

// Block types understood by the renderer.
const (
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types understood by the renderer.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// RichText is an ordered sequence of blocks as returned by the content API.
type RichText []Block

// Block is one structured text element. Text blocks carry Text and Spans;
// image blocks carry URL/Alt/Dimensions; embeds carry Oembed.
type Block struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	Spans      []Span      `json:"spans,omitempty"`
	URL        string      `json:"url,omitempty"`
	Alt        string      `json:"alt,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	Oembed     *Oembed     `json:"oembed,omitempty"`
}

// Span formats the UTF-16 range [Start, End) of a block's text.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData holds hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	Label    string `json:"label,omitempty"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Oembed struct {
	Type        string `json:"type,omitempty"`
	EmbedURL    string `json:"embed_url,omitempty"`
	ProviderURL string `json:"provider_url,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// Component returns a templ.Component that renders rt as HTML.
func Component(rt RichText) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, rt)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// AsHTML returns the HTML representation of rt.
func AsHTML(rt RichText) string {
	var buf bytes.Buffer
	RenderHTML(&buf, rt)
	return buf.String()
}

// AsText returns the text of every block joined by a single space.
func AsText(rt RichText) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, " ")
}

// RenderHTML writes the HTML representation of rt to buf. Consecutive list
// items are grouped into a single <ul> or <ol>.
func RenderHTML(buf *bytes.Buffer, rt RichText) {
	inList := false
	inOrderedList := false

	flushList := func() {
		if inList {
			buf.WriteString("</ul>")
			inList = false
		}
	}
	flushOrderedList := func() {
		if inOrderedList {
			buf.WriteString("</ol>")
			inOrderedList = false
		}
	}

	for _, b := range rt {
		switch b.Type {
		case TypeListItem:
			flushOrderedList()
			if !inList {
				buf.WriteString("<ul>")
				inList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		case TypeOListItem:
			flushList()
			if !inOrderedList {
				buf.WriteString("<ol>")
				inOrderedList = true
			}
			buf.WriteString("<li>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</li>")
			continue
		}
		flushList()
		flushOrderedList()

		switch b.Type {
		case TypeParagraph:
			buf.WriteString("<p>")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</p>")
		case "heading1", "heading2", "heading3", "heading4", "heading5", "heading6":
			tag := "h" + b.Type[len("heading"):]
			buf.WriteString("<" + tag + ">")
			buf.WriteString(FormatSpans(b.Text, b.Spans))
			buf.WriteString("</" + tag + ">")
		case TypePreformatted:
			buf.WriteString("<pre>")
			buf.WriteString(html.EscapeString(b.Text))
			buf.WriteString("</pre>")
		case TypeImage:
			src := SafeURL(b.URL)
			if src == "" {
				continue
			}
			buf.WriteString(`<p class="block-img"><img src="` + src + `" alt="` + html.EscapeString(b.Alt) + `"`)
			if b.Dimensions != nil && b.Dimensions.Width > 0 && b.Dimensions.Height > 0 {
				buf.WriteString(` width="` + strconv.Itoa(b.Dimensions.Width) + `" height="` + strconv.Itoa(b.Dimensions.Height) + `"`)
			}
			buf.WriteString(` loading="lazy" decoding="async"/></p>`)
		case TypeEmbed:
			if b.Oembed == nil || b.Oembed.HTML == "" {
				continue
			}
			buf.WriteString(`<div data-oembed="` + html.EscapeString(b.Oembed.EmbedURL) +
				`" data-oembed-type="` + html.EscapeString(b.Oembed.Type) +
				`" data-oembed-provider="` + html.EscapeString(b.Oembed.ProviderURL) + `">`)
			// oEmbed markup comes from the content API and is trusted.
			buf.WriteString(b.Oembed.HTML)
			buf.WriteString("</div>")
		default:
			if b.Text != "" {
				buf.WriteString("<p>")
				buf.WriteString(FormatSpans(b.Text, b.Spans))
				buf.WriteString("</p>")
			}
		}
	}
	flushList()
	flushOrderedList()
}

// FormatSpans escapes text and wraps the ranges covered by spans in their
// HTML elements. Span offsets are UTF-16 code units. Spans that start inside
// another span are nested in it; a span extending past its parent is clipped.
func FormatSpans(text string, spans []Span) string {
	units := utf16.Encode([]rune(text))
	valid := make([]Span, 0, len(spans))
	for _, s := range spans {
		s.Start = clamp(s.Start, 0, len(units))
		s.End = clamp(s.End, 0, len(units))
		if s.Start < s.End {
			valid = append(valid, s)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Start != valid[j].Start {
			return valid[i].Start < valid[j].Start
		}
		return valid[i].End > valid[j].End
	})
	var b strings.Builder
	writeSpans(&b, units, valid, 0, len(units))
	return b.String()
}

func writeSpans(b *strings.Builder, units []uint16, spans []Span, start, end int) {
	pos := start
	for i := 0; i < len(spans); {
		s := spans[i]
		if s.Start < pos {
			s.Start = pos
		}
		j := i + 1
		var children []Span
		for j < len(spans) && spans[j].Start < s.End {
			child := spans[j]
			if child.End > s.End {
				child.End = s.End
			}
			if child.Start < child.End {
				children = append(children, child)
			}
			j++
		}
		i = j
		if s.Start >= s.End {
			continue
		}
		b.WriteString(escapeText(units[pos:s.Start]))
		open, closing := spanTags(s)
		b.WriteString(open)
		writeSpans(b, units, children, s.Start, s.End)
		b.WriteString(closing)
		pos = s.End
	}
	b.WriteString(escapeText(units[pos:end]))
}

func spanTags(s Span) (string, string) {
	switch s.Type {
	case SpanStrong:
		return "<strong>", "</strong>"
	case SpanEm:
		return "<em>", "</em>"
	case SpanHyperlink:
		if s.Data == nil {
			return "", ""
		}
		href := SafeURL(s.Data.URL)
		if href == "" {
			return "", ""
		}
		attrs := ""
		if s.Data.Target == "_blank" {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + href + `"` + attrs + `>`, "</a>"
	case SpanLabel:
		if s.Data == nil || s.Data.Label == "" {
			return "<span>", "</span>"
		}
		return `<span class="` + html.EscapeString(s.Data.Label) + `">`, "</span>"
	default:
		return "", ""
	}
}

func escapeText(units []uint16) string {
	s := html.EscapeString(string(utf16.Decode(units)))
	return strings.ReplaceAll(s, "\n", "<br />")
}

// SafeURL validates and escapes a URL for use in HTML attributes. Only
// relative paths, fragments and http, https, mailto and tel URLs pass.
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") && !strings.HasPrefix(val, "//") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
