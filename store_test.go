package pubfront

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/pubfront/cms"
	"github.com/eringen/pubfront/cms/cmstest"
	"github.com/eringen/pubfront/richtext"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testPost(id, uid string, day int) cms.PostDetail {
	p := cmstest.Post(id, uid, "Title "+uid, time.Date(2021, 3, day, 10, 0, 0, 0, time.UTC))
	p.Content = []cms.ContentBlock{{
		Heading: "Heading " + uid,
		Body:    richtext.RichText{{Type: richtext.TypeParagraph, Text: "Body of " + uid}},
	}}
	return p
}

func TestNewStore(t *testing.T) {
	s := setupTestStore(t)
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	post := testPost("doc-1", "hello", 25)

	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	got, err := s.GetPost("hello")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.ID != post.ID || got.UID != post.UID || got.Title != post.Title {
		t.Errorf("GetPost = %+v, want %+v", got.PostSummary, post.PostSummary)
	}
	if got.Subtitle != post.Subtitle || got.Author != post.Author {
		t.Errorf("subtitle/author = %q/%q", got.Subtitle, got.Author)
	}
	if got.Banner.URL != post.Banner.URL {
		t.Errorf("Banner.URL = %q, want %q", got.Banner.URL, post.Banner.URL)
	}
	if got.FirstPublicationDate == nil || !got.FirstPublicationDate.Equal(*post.FirstPublicationDate) {
		t.Errorf("FirstPublicationDate = %v, want %v", got.FirstPublicationDate, post.FirstPublicationDate)
	}
	if len(got.Content) != 1 || got.Content[0].Heading != "Heading hello" {
		t.Fatalf("Content = %+v", got.Content)
	}
	if text := richtext.AsText(got.Content[0].Body); text != "Body of hello" {
		t.Errorf("body text = %q", text)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)
	if _, err := s.GetPost("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(missing) err = %v, want ErrNotFound", err)
	}

	// Only the summary is known: there is nothing to render.
	if err := s.SaveSummary(testPost("doc-2", "summary-only", 1).PostSummary); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	if _, err := s.GetPost("summary-only"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost(summary-only) err = %v, want ErrNotFound", err)
	}
}

func TestSaveSummaryKeepsDetail(t *testing.T) {
	s := setupTestStore(t)
	post := testPost("doc-1", "hello", 25)
	if err := s.SavePost(post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	updated := post.PostSummary
	updated.Title = "Renamed"
	if err := s.SaveSummary(updated); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	got, err := s.GetPost("hello")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(got.Content) != 1 {
		t.Errorf("detail lost after SaveSummary: %+v", got)
	}
	posts, err := s.ListPosts(0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Renamed" {
		t.Errorf("ListPosts = %+v, want the renamed summary", posts)
	}
}

func TestListPostsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	for _, p := range []cms.PostDetail{
		testPost("doc-1", "march-1", 1),
		testPost("doc-3", "march-20", 20),
		testPost("doc-2", "march-5", 5),
	} {
		if err := s.SaveSummary(p.PostSummary); err != nil {
			t.Fatalf("SaveSummary failed: %v", err)
		}
	}
	// Same publication time: ties break on document id.
	tie := testPost("doc-4", "march-20-b", 20)
	if err := s.SaveSummary(tie.PostSummary); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}

	posts, err := s.ListPosts(0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	want := []string{"march-20-b", "march-20", "march-5", "march-1"}
	if len(posts) != len(want) {
		t.Fatalf("ListPosts returned %d posts, want %d", len(posts), len(want))
	}
	for i, uid := range want {
		if posts[i].UID != uid {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].UID, uid)
		}
	}

	limited, err := s.ListPosts(2)
	if err != nil {
		t.Fatalf("ListPosts(2) failed: %v", err)
	}
	if len(limited) != 2 || limited[0].UID != "march-20-b" {
		t.Errorf("ListPosts(2) = %+v", limited)
	}
}

func TestListPostsWithoutDates(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveSummary(cms.PostSummary{ID: "doc-1", UID: "undated", Title: "Undated"}); err != nil {
		t.Fatalf("SaveSummary failed: %v", err)
	}
	posts, err := s.ListPosts(0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].FirstPublicationDate != nil || posts[0].LastPublicationDate != nil {
		t.Errorf("ListPosts = %+v, want one undated post", posts)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SavePost(testPost("doc-1", "gone", 1)); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if err := s.DeletePost("gone"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost after delete err = %v, want ErrNotFound", err)
	}
	if err := s.DeletePost("never-existed"); err != nil {
		t.Errorf("DeletePost of unknown uid: %v", err)
	}
}
