package pubfront

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubfront/cms"
)

// Store wraps a SQLite database holding the last successfully fetched copy
// of every post. It is read when the content API is unreachable.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets handlers read while a refresh writes; the busy timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    uid TEXT PRIMARY KEY,
    doc_id TEXT NOT NULL,
    first_pub TEXT,
    last_pub TEXT,
    title TEXT NOT NULL,
    subtitle TEXT NOT NULL,
    author TEXT NOT NULL,
    detail TEXT,
    fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_first_pub ON posts (first_pub DESC, doc_id DESC);
`)
	return err
}

// SaveSummary upserts the listing fields of p. A stored detail document is
// kept.
func (s *Store) SaveSummary(p cms.PostSummary) error {
	_, err := s.db.Exec(`
INSERT INTO posts (uid, doc_id, first_pub, last_pub, title, subtitle, author, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(uid) DO UPDATE SET
    doc_id = excluded.doc_id,
    first_pub = excluded.first_pub,
    last_pub = excluded.last_pub,
    title = excluded.title,
    subtitle = excluded.subtitle,
    author = excluded.author,
    fetched_at = excluded.fetched_at`,
		p.UID, p.ID, timeValue(p.FirstPublicationDate), timeValue(p.LastPublicationDate),
		p.Title, p.Subtitle, p.Author, s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// SavePost upserts the full post.
func (s *Store) SavePost(d cms.PostDetail) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode post %s: %w", d.UID, err)
	}
	_, err = s.db.Exec(`
INSERT OR REPLACE INTO posts (uid, doc_id, first_pub, last_pub, title, subtitle, author, detail, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UID, d.ID, timeValue(d.FirstPublicationDate), timeValue(d.LastPublicationDate),
		d.Title, d.Subtitle, d.Author, string(raw), s.now().UTC().Format(time.RFC3339Nano))
	return err
}

// GetPost returns the stored post with uid. It returns ErrNotFound when the
// post is unknown or only its summary has been stored.
func (s *Store) GetPost(uid string) (cms.PostDetail, error) {
	var raw sql.NullString
	err := s.db.QueryRow(`SELECT detail FROM posts WHERE uid = ?`, uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !raw.Valid) {
		return cms.PostDetail{}, ErrNotFound
	}
	if err != nil {
		return cms.PostDetail{}, err
	}
	var d cms.PostDetail
	if err := json.Unmarshal([]byte(raw.String), &d); err != nil {
		return cms.PostDetail{}, fmt.Errorf("decode post %s: %w", uid, err)
	}
	return d, nil
}

// ListPosts returns stored summaries newest first. limit <= 0 returns all.
func (s *Store) ListPosts(limit int) ([]cms.PostSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
SELECT uid, doc_id, first_pub, last_pub, title, subtitle, author
FROM posts ORDER BY first_pub DESC, doc_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []cms.PostSummary
	for rows.Next() {
		var p cms.PostSummary
		var first, last sql.NullString
		if err := rows.Scan(&p.UID, &p.ID, &first, &last, &p.Title, &p.Subtitle, &p.Author); err != nil {
			return nil, err
		}
		if p.FirstPublicationDate, err = parseTimeValue(first); err != nil {
			return nil, err
		}
		if p.LastPublicationDate, err = parseTimeValue(last); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// DeletePost removes a post by uid.
func (s *Store) DeletePost(uid string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE uid = ?`, uid)
	return err
}

// timeValue stores times as fixed-width UTC strings so they sort lexically.
func timeValue(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format("2006-01-02T15:04:05.000000000Z"), Valid: true}
}

func parseTimeValue(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored time %q: %w", v.String, err)
	}
	return &t, nil
}
