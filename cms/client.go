// Package cms is a client for the headless content API that stores the blog's
// posts. It queries documents of a single type with predicates, orderings and
// cursor pagination, and resolves single posts and their neighbours.
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Config holds the content API connection settings.
type Config struct {
	Endpoint     string        // API root, e.g. https://repo.cdn.prismic.io/api/v2
	AccessToken  string        // optional
	DocumentType string        // default "posts"
	Timeout      time.Duration // default 10s
	RefTTL       time.Duration // how long the master ref is reused, default 30s
	HTTPClient   *http.Client  // optional; overrides Timeout
}

func (c *Config) setDefaults() {
	if c.DocumentType == "" {
		c.DocumentType = "posts"
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RefTTL == 0 {
		c.RefTTL = 30 * time.Second
	}
}

// Client queries the content API. It is safe for concurrent use.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client

	mu         sync.Mutex
	ref        string
	refFetched time.Time
	now        func() time.Time
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	cfg.setDefaults()
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("cms: endpoint is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("cms: parse endpoint: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("cms: endpoint %q must be http or https", cfg.Endpoint)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{cfg: cfg, base: base, http: hc, now: time.Now}, nil
}

// DocumentType returns the document type the client queries.
func (c *Client) DocumentType() string {
	return c.cfg.DocumentType
}

// QueryPosts runs a search restricted to the configured document type.
// At most opts.PageSize results are returned.
func (c *Client) QueryPosts(ctx context.Context, opts QueryOptions) (Page, error) {
	if err := opts.validate(); err != nil {
		return Page{}, err
	}
	opts.Predicates = append([]Predicate{At("document.type", c.cfg.DocumentType)}, opts.Predicates...)
	u, err := c.searchURL(ctx, opts)
	if err != nil {
		return Page{}, err
	}
	resp, err := search[PostSummary](ctx, c, "query posts", u)
	if err != nil {
		return Page{}, err
	}
	return toPage(resp, opts.PageSize), nil
}

// QueryURL fetches a page from an absolute next-page URL previously returned
// by the API. The URL is used verbatim apart from the access token.
func (c *Client) QueryURL(ctx context.Context, next string) (Page, error) {
	u, err := url.Parse(next)
	if err != nil {
		return Page{}, &MalformedDataError{Reason: "next page url", Err: err}
	}
	if u.Scheme != c.base.Scheme || u.Host != c.base.Host {
		return Page{}, &MalformedDataError{Reason: fmt.Sprintf("next page url host %q does not match the API", u.Host)}
	}
	if c.cfg.AccessToken != "" && !u.Query().Has("access_token") {
		token := "access_token=" + url.QueryEscape(c.cfg.AccessToken)
		if u.RawQuery == "" {
			u.RawQuery = token
		} else {
			u.RawQuery += "&" + token
		}
	}
	resp, err := search[PostSummary](ctx, c, "next page", u.String())
	if err != nil {
		return Page{}, err
	}
	return toPage(resp, resp.ResultsPerPage), nil
}

func (c *Client) searchURL(ctx context.Context, opts QueryOptions) (string, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.masterRef(ctx)
		if err != nil {
			return "", err
		}
	}
	v := opts.values(ref)
	if c.cfg.AccessToken != "" {
		v.Set("access_token", c.cfg.AccessToken)
	}
	return c.base.String() + "/documents/search?" + v.Encode(), nil
}

type apiRoot struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// masterRef returns the current master ref, refreshing it after RefTTL.
func (c *Client) masterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ref != "" && c.now().Sub(c.refFetched) < c.cfg.RefTTL {
		return c.ref, nil
	}
	u := c.base.String()
	if c.cfg.AccessToken != "" {
		u += "?" + url.Values{"access_token": {c.cfg.AccessToken}}.Encode()
	}
	var root apiRoot
	if err := c.getJSON(ctx, "api root", u, &root); err != nil {
		return "", err
	}
	for _, r := range root.Refs {
		if r.IsMasterRef && r.Ref != "" {
			c.ref = r.Ref
			c.refFetched = c.now()
			return c.ref, nil
		}
	}
	return "", &MalformedDataError{Reason: "api root has no master ref"}
}

type searchResponse[T any] struct {
	Page             int     `json:"page"`
	ResultsPerPage   int     `json:"results_per_page"`
	TotalResultsSize int     `json:"total_results_size"`
	TotalPages       int     `json:"total_pages"`
	NextPage         *string `json:"next_page"`
	Results          *[]T    `json:"results"`
}

func (r searchResponse[T]) results(limit int) []T {
	res := *r.Results
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res
}

func toPage(r searchResponse[PostSummary], limit int) Page {
	p := Page{
		Results:      r.results(limit),
		Page:         r.Page,
		TotalPages:   r.TotalPages,
		TotalResults: r.TotalResultsSize,
	}
	if r.NextPage != nil {
		p.NextPage = *r.NextPage
	}
	return p
}

func search[T any](ctx context.Context, c *Client, op, u string) (searchResponse[T], error) {
	var resp searchResponse[T]
	if err := c.getJSON(ctx, op, u, &resp); err != nil {
		return resp, err
	}
	if resp.Results == nil {
		return resp, &MalformedDataError{Reason: "response has no results"}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, u string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, URL: redact(u), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return &FetchError{Op: op, URL: redact(u), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &FetchError{Op: op, URL: redact(u), StatusCode: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, URL: redact(u), Err: err}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &MalformedDataError{Reason: op, Err: err}
	}
	return nil
}
