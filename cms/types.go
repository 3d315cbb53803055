package cms

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/eringen/pubfront/richtext"
)

// TimeLayout is the timestamp format used by the content API.
const TimeLayout = "2006-01-02T15:04:05-0700"

// PostSummary is the listing view of a post document.
type PostSummary struct {
	ID                   string // content API document id, used as the "after" cursor
	UID                  string // stable identifier used in URLs
	FirstPublicationDate *time.Time
	LastPublicationDate  *time.Time
	Title                string
	Subtitle             string
	Author               string
}

// Link returns the site-relative URL of the post page.
func (p PostSummary) Link() string {
	return "/post/" + p.UID + "/"
}

// Banner is the post header image.
type Banner struct {
	URL string `json:"url,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// ContentBlock is one section of a post: a heading and a rich text body.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}

// PostDetail is a full post document.
type PostDetail struct {
	PostSummary
	Banner  Banner
	Content []ContentBlock
}

// Page is one page of query results. NextPage is the opaque absolute URL of
// the following page, empty when there are no further results.
type Page struct {
	Results      []PostSummary
	NextPage     string
	Page         int
	TotalPages   int
	TotalResults int
}

// AdjacentPosts holds the posts published immediately before and after a post.
// A nil side means there is no such post.
type AdjacentPosts struct {
	Previous *PostSummary
	Next     *PostSummary
}

var (
	errMissingUID  = errors.New("document has no uid")
	errMissingData = errors.New("document has no data")
)

// document is the wire shape shared by summaries and details.
type document struct {
	ID                   string          `json:"id"`
	UID                  *string         `json:"uid"`
	Type                 string          `json:"type,omitempty"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

type summaryData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

type detailData struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Author   string         `json:"author"`
	Banner   Banner         `json:"banner"`
	Content  []ContentBlock `json:"content"`
}

// MarshalJSON encodes p in the content API document shape.
func (p PostSummary) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(summaryData{Title: p.Title, Subtitle: p.Subtitle, Author: p.Author})
	if err != nil {
		return nil, err
	}
	return json.Marshal(p.document(data))
}

// UnmarshalJSON decodes a content API document into p.
func (p *PostSummary) UnmarshalJSON(b []byte) error {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	var data summaryData
	if err := decodeDocument(doc, &data, p); err != nil {
		return err
	}
	p.Title = data.Title
	p.Subtitle = data.Subtitle
	p.Author = data.Author
	return nil
}

// MarshalJSON encodes d in the content API document shape.
func (d PostDetail) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(detailData{
		Title:    d.Title,
		Subtitle: d.Subtitle,
		Author:   d.Author,
		Banner:   d.Banner,
		Content:  d.Content,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(d.document(data))
}

// UnmarshalJSON decodes a content API document into d.
func (d *PostDetail) UnmarshalJSON(b []byte) error {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	var data detailData
	if err := decodeDocument(doc, &data, &d.PostSummary); err != nil {
		return err
	}
	d.Title = data.Title
	d.Subtitle = data.Subtitle
	d.Author = data.Author
	d.Banner = data.Banner
	d.Content = data.Content
	return nil
}

func (p PostSummary) document(data json.RawMessage) document {
	uid := p.UID
	return document{
		ID:                   p.ID,
		UID:                  &uid,
		FirstPublicationDate: formatTime(p.FirstPublicationDate),
		LastPublicationDate:  formatTime(p.LastPublicationDate),
		Data:                 data,
	}
}

func decodeDocument(doc document, data any, p *PostSummary) error {
	if doc.UID == nil || *doc.UID == "" {
		return errMissingUID
	}
	if len(doc.Data) == 0 || string(doc.Data) == "null" {
		return errMissingData
	}
	if err := json.Unmarshal(doc.Data, data); err != nil {
		return err
	}
	first, err := parseTime(doc.FirstPublicationDate)
	if err != nil {
		return err
	}
	last, err := parseTime(doc.LastPublicationDate)
	if err != nil {
		return err
	}
	p.ID = doc.ID
	p.UID = *doc.UID
	p.FirstPublicationDate = first
	p.LastPublicationDate = last
	return nil
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(TimeLayout)
	return &s
}

func parseTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(TimeLayout, *s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil, err
		}
	}
	return &t, nil
}
