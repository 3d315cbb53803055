// Package cmstest provides an in-process fake of the content API for tests.
// It serves the API root and the documents search endpoint with the
// predicates, orderings, paging and "after" cursor the cms client uses.
package cmstest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eringen/pubfront/cms"
)

// Ref is the master ref served by the fake.
const Ref = "master-ref"

// Server is a fake content API backed by an in-memory document list.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	docs     []cms.PostDetail
	failWith int
	searches int
	gate     chan struct{}
}

// NewServer starts a fake API serving docs as documents of type "posts".
func NewServer(docs ...cms.PostDetail) *Server {
	s := &Server{docs: docs}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", s.handleRoot)
	mux.HandleFunc("/api/v2/documents/search", s.handleSearch)
	s.Server = httptest.NewServer(mux)
	return s
}

// Endpoint is the API root to configure the client with.
func (s *Server) Endpoint() string {
	return s.URL + "/api/v2"
}

// Client returns a cms client pointed at the fake.
func (s *Server) Client() *cms.Client {
	c, err := cms.NewClient(cms.Config{Endpoint: s.Endpoint(), Timeout: 5 * time.Second})
	if err != nil {
		panic(err)
	}
	return c
}

// FailWith makes every following search answer with status; zero restores
// normal responses.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	s.failWith = status
	s.mu.Unlock()
}

// Hold blocks searches until the returned release func is called.
func (s *Server) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.gate = nil
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Searches returns the number of search requests served.
func (s *Server) Searches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searches
}

// SetDocs replaces the served documents.
func (s *Server) SetDocs(docs ...cms.PostDetail) {
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"refs": []map[string]any{
			{"id": "master", "ref": Ref, "label": "Master", "isMasterRef": true},
		},
	})
}

var rePredicate = regexp.MustCompile(`\[(at|in)\(([a-z._]+),("(?:[^"\\]|\\.)*"|\[[^\]]*\])\)\]`)

type predicate struct {
	op     string
	path   string
	values []string
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.searches++
	failWith := s.failWith
	gate := s.gate
	docs := append([]cms.PostDetail(nil), s.docs...)
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if failWith != 0 {
		http.Error(w, "unavailable", failWith)
		return
	}

	q := r.URL.Query()
	if q.Get("ref") != Ref {
		http.Error(w, "unknown ref", http.StatusBadRequest)
		return
	}
	pageSize, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil || pageSize <= 0 {
		pageSize = 20
	}
	page := 1
	if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
		page = p
	}

	preds, ok := parsePredicates(q.Get("q"))
	if !ok {
		http.Error(w, "bad predicate", http.StatusBadRequest)
		return
	}
	var matched []cms.PostDetail
	for _, d := range docs {
		if matches(d, preds) {
			matched = append(matched, d)
		}
	}
	sortDocs(matched, q.Get("orderings"))

	if after := q.Get("after"); after != "" {
		idx := -1
		for i, d := range matched {
			if d.ID == after {
				idx = i
				break
			}
		}
		if idx < 0 {
			matched = nil
		} else {
			matched = matched[idx+1:]
		}
	}

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	var next any
	if end < total {
		nq := r.URL.Query()
		nq.Set("page", strconv.Itoa(page+1))
		next = s.URL + r.URL.Path + "?" + nq.Encode()
	}

	results := make([]json.RawMessage, 0, end-start)
	for _, d := range matched[start:end] {
		b, err := json.Marshal(d)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		results = append(results, b)
	}
	writeJSON(w, map[string]any{
		"page":               page,
		"results_per_page":   pageSize,
		"results_size":       len(results),
		"total_results_size": total,
		"total_pages":        totalPages,
		"next_page":          next,
		"prev_page":          nil,
		"results":            results,
	})
}

func parsePredicates(raw string) ([]predicate, bool) {
	if raw == "" {
		return nil, true
	}
	var preds []predicate
	for _, m := range rePredicate.FindAllStringSubmatch(raw, -1) {
		p := predicate{op: m[1], path: m[2]}
		if p.op == "at" {
			var v string
			if err := json.Unmarshal([]byte(m[3]), &v); err != nil {
				return nil, false
			}
			p.values = []string{v}
		} else {
			if err := json.Unmarshal([]byte(m[3]), &p.values); err != nil {
				return nil, false
			}
		}
		preds = append(preds, p)
	}
	return preds, len(preds) > 0
}

func matches(d cms.PostDetail, preds []predicate) bool {
	for _, p := range preds {
		var field string
		switch {
		case p.path == "document.type":
			field = "posts"
		case p.path == "document.id":
			field = d.ID
		case strings.HasSuffix(p.path, ".uid"):
			field = d.UID
		default:
			return false
		}
		found := false
		for _, v := range p.values {
			if v == field {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sortDocs(docs []cms.PostDetail, orderings string) {
	orderings = strings.Trim(orderings, "[]")
	if orderings == "" {
		return
	}
	keys := strings.Split(orderings, ",")
	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			fields := strings.Fields(k)
			if len(fields) == 0 {
				continue
			}
			desc := len(fields) > 1 && fields[1] == "desc"
			c := compare(docs[i], docs[j], fields[0])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func compare(a, b cms.PostDetail, field string) int {
	switch field {
	case cms.FieldFirstPublicationDate:
		return compareTime(a.FirstPublicationDate, b.FirstPublicationDate)
	case cms.FieldLastPublicationDate:
		return compareTime(a.LastPublicationDate, b.LastPublicationDate)
	case cms.FieldDocumentID:
		return strings.Compare(a.ID, b.ID)
	}
	return 0
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Post builds a post document published at the given time.
func Post(id, uid, title string, published time.Time) cms.PostDetail {
	t := published.UTC().Truncate(time.Second)
	return cms.PostDetail{
		PostSummary: cms.PostSummary{
			ID:                   id,
			UID:                  uid,
			FirstPublicationDate: &t,
			LastPublicationDate:  &t,
			Title:                title,
			Subtitle:             title + " subtitle",
			Author:               "Author " + id,
		},
		Banner: cms.Banner{URL: "https://images.example.com/" + uid + ".png"},
	}
}

// QueryValue returns the decoded value of key in a URL's query.
func QueryValue(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}
