// Package store persists enrichment artifacts in the product's SQLite
// database. The schema is owned by the wider product and may lag behind
// this subsystem; the store detects missing cache columns at open time and
// degrades to a no-cache mode (every read misses, writes are dropped)
// rather than failing enrichment requests.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache entry statuses. Transitions are monotonic:
// pending -> processing -> {completed,failed}.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// ErrCacheUnavailable is returned when a cache operation fails against a
// schema that was present at open time. Callers treat it as a miss.
var ErrCacheUnavailable = errors.New("store: cache unavailable")

// CacheEntry is one cached enrichment artifact, keyed (paper_id, kind).
type CacheEntry struct {
	PaperID      string    `json:"paper_id"`
	Kind         string    `json:"kind"`
	Artifact     []byte    `json:"artifact,omitempty"`
	ContentType  string    `json:"content_type"`
	Status       string    `json:"status"`
	Provider     string    `json:"provider"`
	GeneratedAt  time.Time `json:"generated_at"`
	FailureCount int       `json:"failure_count"`
}

// Paper is a row in the papers table, maintained by the digest agent.
type Paper struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Abstract string   `json:"abstract"`
	Authors  []string `json:"authors"`
	URL      string   `json:"url"`
	PDFURL   string   `json:"pdf_url"`
	Summary  string   `json:"summary,omitempty"`
}

// Store wraps the SQLite database for enrichment persistence.
type Store struct {
	db       *sql.DB
	degraded bool
}

// New opens (or creates) the SQLite database at the given path and checks
// whether the enrichment cache schema is usable. A missing table or column
// is not an error: the store opens in no-cache mode and logs a warning.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	s.degraded = !s.schemaUsable(context.Background())
	if s.degraded {
		slog.Warn("store: enrichment cache schema missing, running in no-cache mode", "path", dbPath)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Degraded reports whether the store is running in no-cache mode.
func (s *Store) Degraded() bool {
	return s.degraded
}

// EnsureSchema creates the enrichment tables when the deployment lets this
// agent manage them, then re-checks usability.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	s.degraded = !s.schemaUsable(ctx)
	if s.degraded {
		return fmt.Errorf("schema still unusable after create: %w", ErrCacheUnavailable)
	}
	return nil
}

// schemaUsable introspects the enrichment_cache table and verifies every
// column the cache path needs is present.
func (s *Store) schemaUsable(ctx context.Context) bool {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(enrichment_cache)")
	if err != nil {
		return false
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return false
	}

	for _, col := range cacheColumns {
		if !present[col] {
			return false
		}
	}
	return true
}

// --- Cache operations ---

// Get retrieves the cache entry for (paperID, kind). A missing entry and a
// degraded store both return (nil, nil): the caller cannot distinguish a
// cold cache from no cache, which is the point.
func (s *Store) Get(ctx context.Context, paperID, kind string) (*CacheEntry, error) {
	if s.degraded {
		return nil, nil
	}

	e := &CacheEntry{}
	var generatedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT paper_id, kind, artifact, content_type, status, provider, generated_at, failure_count
		FROM enrichment_cache WHERE paper_id = ? AND kind = ?
	`, paperID, kind).Scan(&e.PaperID, &e.Kind, &e.Artifact, &e.ContentType,
		&e.Status, &e.Provider, &generatedAt, &e.FailureCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	if generatedAt != "" {
		if t, perr := time.Parse(time.RFC3339Nano, generatedAt); perr == nil {
			e.GeneratedAt = t
		}
	}
	return e, nil
}

// Put upserts a cache entry by key. Degraded stores drop the write
// silently; artifacts are derived and idempotent, so losing one is safe.
func (s *Store) Put(ctx context.Context, e CacheEntry) error {
	if s.degraded {
		return nil
	}

	generatedAt := ""
	if !e.GeneratedAt.IsZero() {
		generatedAt = e.GeneratedAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO enrichment_cache (paper_id, kind, artifact, content_type, status, provider, generated_at, failure_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(paper_id, kind) DO UPDATE SET
			artifact = excluded.artifact,
			content_type = excluded.content_type,
			status = excluded.status,
			provider = excluded.provider,
			generated_at = excluded.generated_at,
			failure_count = excluded.failure_count
	`, e.PaperID, e.Kind, e.Artifact, e.ContentType, e.Status, e.Provider, generatedAt, e.FailureCount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

// --- Paper metadata operations ---

// GetPaper reads a paper's metadata record. Returns (nil, nil) when the
// paper is unknown or the papers table does not exist yet.
func (s *Store) GetPaper(ctx context.Context, id string) (*Paper, error) {
	p := &Paper{}
	var authors string
	var summary sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, abstract, authors, url, pdf_url, COALESCE(summary, '')
		FROM papers WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.Abstract, &authors, &p.URL, &p.PDFURL, &summary)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		// Missing papers table reads as a miss, same as the cache path.
		slog.Debug("store: paper lookup failed", "id", id, "error", err)
		return nil, nil
	}

	if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
		p.Authors = nil
	}
	p.Summary = summary.String
	return p, nil
}

// UpsertPaper inserts or updates a paper record.
func (s *Store) UpsertPaper(ctx context.Context, p Paper) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO papers (id, title, abstract, authors, url, pdf_url, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			authors = excluded.authors,
			url = excluded.url,
			pdf_url = excluded.pdf_url,
			summary = excluded.summary,
			updated_at = CURRENT_TIMESTAMP
	`, p.ID, p.Title, p.Abstract, string(authors), p.URL, p.PDFURL, nullable(p.Summary))
	if err != nil {
		return fmt.Errorf("upserting paper: %w", err)
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
